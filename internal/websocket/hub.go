package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/motion"
	"portfolio-backend/internal/widget"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type tokenParser interface {
	ParseSessionToken(token string) (uuid.UUID, error)
}

type sessionLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*widget.Session, error)
}

type taskRunner interface {
	Submit(task func(ctx context.Context)) error
}

// conn serialises writes; gorilla connections allow one concurrent writer.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// subscription is the Redis channel feeding one session's sockets. ready is
// closed once Redis has confirmed it.
type subscription struct {
	cancel context.CancelFunc
	ready  chan struct{}
}

// Hub delivers widget render events to the browser sockets of a session and
// feeds client events back into the session. With a Redis client the events
// travel over pub/sub so any instance holding the socket can deliver them.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*conn
	redisClient *redis.Client
	tokens      tokenParser
	sessions    sessionLookup
	runner      taskRunner
	subs        map[uuid.UUID]*subscription
}

// NewHub creates a hub. A nil runner runs each submit on its own goroutine.
func NewHub(redisClient *redis.Client, tokens tokenParser, sessions sessionLookup, runner taskRunner) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*conn),
		redisClient: redisClient,
		tokens:      tokens,
		sessions:    sessions,
		runner:      runner,
		subs:        make(map[uuid.UUID]*subscription),
	}
}

func channelName(sessionID uuid.UUID) string {
	return "widget_updates:" + sessionID.String()
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sessionID, err := h.tokens.ParseSessionToken(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &conn{ws: ws}
	h.registerConnection(sessionID, c)
	h.replay(c, session)

	go func() {
		defer h.unregisterConnection(sessionID, c)
		for {
			var ev models.ClientEvent
			if err := ws.ReadJSON(&ev); err != nil {
				var closeErr *websocket.CloseError
				if !errors.As(err, &closeErr) {
					log.Printf("WebSocket read failed: session %s: %v", sessionID, err)
				}
				return
			}
			h.dispatch(session, ev)
		}
	}()
}

// dispatch applies one client event. Submits run off the read loop so
// toggles stay responsive while the upstream call is pending.
func (h *Hub) dispatch(session *widget.Session, ev models.ClientEvent) {
	switch ev.Type {
	case models.EventToggle:
		session.Toggle()
	case models.EventOpen:
		session.Open()
	case models.EventClose:
		session.Close()
	case models.EventOutsideClick:
		session.OutsideClick()
	case models.EventSubmit:
		h.submit(session, ev.Text)
	default:
		log.Printf("Unknown widget event %q for session %s", ev.Type, session.ID)
	}
}

// submit claims the session's in-flight guard on the read loop and leaves only
// the upstream call to the runner, so a second submit is dropped rather than
// queued behind the first.
func (h *Hub) submit(session *widget.Session, text string) {
	send, err := session.Begin(text)
	if err != nil {
		log.Printf("Widget submit ignored: session %s: %v", session.ID, err)
		return
	}

	task := func(ctx context.Context) { send.Finish(ctx) }
	if h.runner == nil {
		go task(context.Background())
		return
	}
	if err := h.runner.Submit(task); err != nil {
		log.Printf("Widget submit dropped: session %s: %v", session.ID, err)
		send.Fail(err)
	}
}

// replay brings a freshly connected socket up to date with the session.
func (h *Hub) replay(c *conn, session *widget.Session) {
	state := session.State()
	send := func(msg models.WSMessage) {
		data, err := json.Marshal(msg)
		if err != nil {
			return
		}
		c.write(data)
	}

	for _, e := range session.Transcript() {
		class := widget.BubbleUser
		if e.Role == models.RoleModel {
			class = widget.BubbleBot
		}
		send(models.WSMessage{Type: models.WSTypeMessage, Payload: models.MessageEvent{Text: e.Text, Class: class}})
	}
	send(models.WSMessage{Type: models.WSTypeState, Payload: models.StateEvent{Open: state != widget.StateClosed, State: state.String()}})
	if session.InFlight() {
		send(models.WSMessage{Type: models.WSTypeTyping, Payload: models.TypingEvent{Visible: true}})
	}
}

// registerConnection adds c to the session. In Redis mode it returns only
// after the session's channel subscription is confirmed, so nothing published
// after replay can be missed.
func (h *Hub) registerConnection(sessionID uuid.UUID, c *conn) {
	h.mu.Lock()
	h.connections[sessionID] = append(h.connections[sessionID], c)
	total := len(h.connections[sessionID])

	var sub *subscription
	if h.redisClient != nil {
		sub = h.subs[sessionID]
		if sub == nil {
			ctx, cancel := context.WithCancel(context.Background())
			sub = &subscription{cancel: cancel, ready: make(chan struct{})}
			h.subs[sessionID] = sub
			go h.subscribeToPubSub(ctx, sessionID, sub)
		}
	}
	h.mu.Unlock()

	if sub != nil {
		<-sub.ready
	}
	log.Printf("WebSocket connected: session %s (total: %d)", sessionID, total)
}

func (h *Hub) unregisterConnection(sessionID uuid.UUID, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.ws.Close()

	conns := h.connections[sessionID]
	for i, existing := range conns {
		if existing == c {
			h.connections[sessionID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[sessionID]) == 0 {
		h.dropSessionLocked(sessionID)
	}

	log.Printf("WebSocket disconnected: session %s", sessionID)
}

// Forget closes every socket of an evicted session.
func (h *Hub) Forget(sessionID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.connections[sessionID] {
		c.ws.Close()
	}
	h.dropSessionLocked(sessionID)
}

func (h *Hub) dropSessionLocked(sessionID uuid.UUID) {
	delete(h.connections, sessionID)
	if sub, ok := h.subs[sessionID]; ok {
		sub.cancel()
		delete(h.subs, sessionID)
	}
}

func (h *Hub) ConnectionCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[sessionID])
}

func (h *Hub) subscribeToPubSub(ctx context.Context, sessionID uuid.UUID, sub *subscription) {
	pubsub := h.redisClient.Subscribe(ctx, channelName(sessionID))
	defer pubsub.Close()

	_, err := pubsub.Receive(ctx)
	close(sub.ready)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("Redis subscribe failed: session %s: %v", sessionID, err)
		}
		return
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(sessionID, []byte(msg.Payload))
		}
	}
}

// SubscriberCount reports how many sessions hold a Redis subscription.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) broadcast(sessionID uuid.UUID, data []byte) {
	h.mu.RLock()
	conns := append([]*conn(nil), h.connections[sessionID]...)
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.write(data); err != nil {
			log.Printf("WebSocket write failed: session %s: %v", sessionID, err)
		}
	}
}

// Publish sends a render event to every socket of the session.
func (h *Hub) Publish(ctx context.Context, sessionID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	if h.redisClient == nil {
		h.broadcast(sessionID, data)
		return
	}

	if err := h.redisClient.Publish(ctx, channelName(sessionID), string(data)).Err(); err != nil {
		log.Printf("Redis publish failed: session %s: %v", sessionID, err)
	}
}

// RendererFor returns the display surface of a session backed by this hub.
// State and typing changes are coalesced to one update per frame; messages
// and focus requests go out immediately.
func (h *Hub) RendererFor(sessionID uuid.UUID) widget.Renderer {
	return &sessionRenderer{
		hub:       h,
		sessionID: sessionID,
		frames:    motion.NewFrameScheduler(nil),
	}
}

type sessionRenderer struct {
	hub       *Hub
	sessionID uuid.UUID
	frames    *motion.FrameScheduler

	mu     sync.Mutex
	state  *models.StateEvent
	typing *models.TypingEvent
}

func (r *sessionRenderer) publish(msgType string, payload interface{}) {
	r.hub.Publish(context.Background(), r.sessionID, models.WSMessage{Type: msgType, Payload: payload})
}

// flush sends the latest pending typing and state values.
func (r *sessionRenderer) flush() {
	r.mu.Lock()
	typing, state := r.typing, r.state
	r.typing, r.state = nil, nil
	r.mu.Unlock()

	if typing != nil {
		r.publish(models.WSTypeTyping, *typing)
	}
	if state != nil {
		r.publish(models.WSTypeState, *state)
	}
}

func (r *sessionRenderer) AppendMessage(text, class string) {
	r.publish(models.WSTypeMessage, models.MessageEvent{Text: text, Class: class})
}

func (r *sessionRenderer) SetTyping(visible bool) {
	r.mu.Lock()
	r.typing = &models.TypingEvent{Visible: visible}
	r.mu.Unlock()
	r.frames.Request(r.flush)
}

func (r *sessionRenderer) SetOpen(open bool, state widget.State) {
	r.mu.Lock()
	r.state = &models.StateEvent{Open: open, State: state.String()}
	r.mu.Unlock()
	r.frames.Request(r.flush)
}

func (r *sessionRenderer) FocusInput() {
	r.publish(models.WSTypeFocus, struct{}{})
}
