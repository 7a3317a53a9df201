package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/repository"
	"portfolio-backend/internal/widget"
	"portfolio-backend/internal/worker"
)

type stubTokens struct {
	id uuid.UUID
}

func (s stubTokens) ParseSessionToken(token string) (uuid.UUID, error) {
	if token != "good" {
		return uuid.Nil, errors.New("bad token")
	}
	return s.id, nil
}

type replyGenerator struct{ reply string }

func (g replyGenerator) Configured() bool { return true }

func (g replyGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.reply, nil
}

type rawMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func setupHub(t *testing.T) (*Hub, *widget.Session, *httptest.Server) {
	t.Helper()
	id := uuid.New()
	repo := repository.NewSessionRepo()
	hub := NewHub(nil, stubTokens{id: id}, repo, nil)

	session := widget.NewSession(id, replyGenerator{reply: "Hello"}, hub.RendererFor(id), widget.Options{FocusDelay: time.Hour})
	repo.Add(context.Background(), session)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(srv.Close)
	return hub, session, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

// readUntil reads events until match returns true or the deadline passes.
func readUntil(t *testing.T, ws *websocket.Conn, match func(rawMessage) bool) rawMessage {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg rawMessage
		if err := ws.ReadJSON(&msg); err != nil {
			t.Fatalf("read failed before expected event: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func stateIs(state string) func(rawMessage) bool {
	return func(m rawMessage) bool {
		if m.Type != models.WSTypeState {
			return false
		}
		var ev models.StateEvent
		json.Unmarshal(m.Payload, &ev)
		return ev.State == state
	}
}

func TestHandleWebSocket_RejectsBadToken(t *testing.T) {
	_, _, srv := setupHub(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=bad"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestHandleWebSocket_EventsDriveSession(t *testing.T) {
	hub, session, srv := setupHub(t)
	ws := dial(t, srv, "good")

	readUntil(t, ws, stateIs("closed"))
	if hub.ConnectionCount(session.ID) != 1 {
		t.Fatalf("expected 1 registered connection, got %d", hub.ConnectionCount(session.ID))
	}

	ws.WriteJSON(models.ClientEvent{Type: models.EventOpen})
	readUntil(t, ws, stateIs("open_idle"))

	ws.WriteJSON(models.ClientEvent{Type: models.EventSubmit, Text: "hi"})
	msg := readUntil(t, ws, func(m rawMessage) bool {
		if m.Type != models.WSTypeMessage {
			return false
		}
		var ev models.MessageEvent
		json.Unmarshal(m.Payload, &ev)
		return ev.Class == widget.BubbleBot
	})

	var ev models.MessageEvent
	json.Unmarshal(msg.Payload, &ev)
	if ev.Text != "Hello" {
		t.Fatalf("expected bot reply 'Hello', got %q", ev.Text)
	}

	ws.WriteJSON(models.ClientEvent{Type: models.EventOutsideClick})
	readUntil(t, ws, stateIs("closed"))

	if n := len(session.Transcript()); n != 2 {
		t.Fatalf("expected 2 transcript entries, got %d", n)
	}
}

func TestHandleWebSocket_ReplaysTranscript(t *testing.T) {
	_, session, srv := setupHub(t)
	session.Open()
	session.Submit(context.Background(), "earlier question")

	ws := dial(t, srv, "good")
	first := readUntil(t, ws, func(m rawMessage) bool { return m.Type == models.WSTypeMessage })

	var ev models.MessageEvent
	json.Unmarshal(first.Payload, &ev)
	if ev.Text != "earlier question" || ev.Class != widget.BubbleUser {
		t.Fatalf("unexpected replayed message %+v", ev)
	}
	readUntil(t, ws, stateIs("open_idle"))
}

func TestForget_ClosesSockets(t *testing.T) {
	hub, session, srv := setupHub(t)
	ws := dial(t, srv, "good")
	readUntil(t, ws, stateIs("closed"))

	hub.Forget(session.ID)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg rawMessage
	if err := ws.ReadJSON(&msg); err == nil {
		t.Fatal("expected socket to be closed after Forget")
	}
	if hub.ConnectionCount(session.ID) != 0 {
		t.Fatalf("expected no connections, got %d", hub.ConnectionCount(session.ID))
	}
}

type countingRunner struct {
	calls chan struct{}
}

func (r *countingRunner) Submit(task func(ctx context.Context)) error {
	r.calls <- struct{}{}
	go task(context.Background())
	return nil
}

func TestHandleWebSocket_SubmitUsesRunner(t *testing.T) {
	id := uuid.New()
	repo := repository.NewSessionRepo()
	runner := &countingRunner{calls: make(chan struct{}, 1)}
	hub := NewHub(nil, stubTokens{id: id}, repo, runner)

	session := widget.NewSession(id, replyGenerator{reply: "pooled"}, hub.RendererFor(id), widget.Options{FocusDelay: time.Hour})
	session.Open()
	repo.Add(context.Background(), session)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(srv.Close)

	ws := dial(t, srv, "good")
	readUntil(t, ws, stateIs("open_idle"))
	ws.WriteJSON(models.ClientEvent{Type: models.EventSubmit, Text: "hi"})

	select {
	case <-runner.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("expected submit to go through the runner")
	}
	readUntil(t, ws, func(m rawMessage) bool {
		var ev models.MessageEvent
		json.Unmarshal(m.Payload, &ev)
		return m.Type == models.WSTypeMessage && ev.Text == "pooled"
	})
}

type countingGenerator struct {
	calls atomic.Int32
}

func (g *countingGenerator) Configured() bool { return true }

func (g *countingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	return "ok", nil
}

func TestSubmit_SecondSubmitDroppedWhilePoolBusy(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Start()
	t.Cleanup(pool.Stop)

	release := make(chan struct{})
	busy := make(chan struct{})
	pool.Submit(func(ctx context.Context) {
		close(busy)
		select {
		case <-release:
		case <-ctx.Done():
		}
	})
	<-busy

	id := uuid.New()
	repo := repository.NewSessionRepo()
	hub := NewHub(nil, stubTokens{id: id}, repo, pool)
	gen := &countingGenerator{}
	session := widget.NewSession(id, gen, hub.RendererFor(id), widget.Options{FocusDelay: time.Hour})
	session.Open()

	hub.dispatch(session, models.ClientEvent{Type: models.EventSubmit, Text: "first"})
	hub.dispatch(session, models.ClientEvent{Type: models.EventSubmit, Text: "second"})

	if !session.InFlight() {
		t.Fatal("expected the first submit to hold the in-flight guard while queued")
	}
	if n := len(session.Transcript()); n != 1 {
		t.Fatalf("expected only the first user entry, got %d", n)
	}

	close(release)
	deadline := time.Now().Add(2 * time.Second)
	for session.InFlight() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if got := gen.calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
	entries := session.Transcript()
	if len(entries) != 2 || entries[0].Text != "first" || entries[1].Text != "ok" {
		t.Fatalf("unexpected transcript %+v", entries)
	}
}

type stoppedRunner struct{}

func (stoppedRunner) Submit(task func(ctx context.Context)) error {
	return worker.ErrPoolStopped
}

func TestSubmit_RefusedTaskReleasesGuard(t *testing.T) {
	id := uuid.New()
	hub := NewHub(nil, stubTokens{id: id}, repository.NewSessionRepo(), stoppedRunner{})
	gen := &countingGenerator{}
	session := widget.NewSession(id, gen, hub.RendererFor(id), widget.Options{FocusDelay: time.Hour})
	session.Open()

	hub.dispatch(session, models.ClientEvent{Type: models.EventSubmit, Text: "hi"})

	if session.InFlight() {
		t.Fatal("expected guard released when the runner refuses the task")
	}
	if gen.calls.Load() != 0 {
		t.Fatal("expected no upstream call")
	}
}

func TestRedisFanOut_ReachesSocketOnOtherHub(t *testing.T) {
	mr := miniredis.RunT(t)
	newClient := func() *redis.Client {
		c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { c.Close() })
		return c
	}

	id := uuid.New()
	repo := repository.NewSessionRepo()
	publisher := NewHub(newClient(), stubTokens{id: id}, repo, nil)
	holder := NewHub(newClient(), stubTokens{id: id}, repo, nil)

	session := widget.NewSession(id, replyGenerator{reply: "x"}, publisher.RendererFor(id), widget.Options{FocusDelay: time.Hour})
	repo.Add(context.Background(), session)

	srv := httptest.NewServer(http.HandlerFunc(holder.HandleWebSocket))
	t.Cleanup(srv.Close)
	ws := dial(t, srv, "good")
	readUntil(t, ws, stateIs("closed"))

	if holder.SubscriberCount() != 1 || publisher.SubscriberCount() != 0 {
		t.Fatalf("expected only the socket holder to subscribe, got %d/%d",
			holder.SubscriberCount(), publisher.SubscriberCount())
	}

	publisher.Publish(context.Background(), id, models.WSMessage{
		Type:    models.WSTypeMessage,
		Payload: models.MessageEvent{Text: "via redis", Class: widget.BubbleBot},
	})
	readUntil(t, ws, func(m rawMessage) bool {
		var ev models.MessageEvent
		json.Unmarshal(m.Payload, &ev)
		return m.Type == models.WSTypeMessage && ev.Text == "via redis"
	})

	session.Open()
	readUntil(t, ws, stateIs("open_idle"))

	ws.Close()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if holder.SubscriberCount() == 0 && mr.PubSubNumSub(channelName(id))[channelName(id)] == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected the Redis subscription to end after the last socket closed")
}
