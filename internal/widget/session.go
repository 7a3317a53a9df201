// Package widget holds the chat widget's per-visitor session: open/closed
// state, the transcript, and the single-flight send cycle against a
// Generator.
package widget

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

// ContextWindowSize is the number of most recent transcript entries sent as
// context with every request. Older entries are dropped silently.
const ContextWindowSize = 6

// FocusDelay matches the panel's open transition.
const FocusDelay = 300 * time.Millisecond

// Reasons a submit is not accepted.
var (
	ErrDisabled     = errors.New("chat widget is disabled")
	ErrClosed       = errors.New("chat widget is closed")
	ErrEmptyMessage = errors.New("message is empty")
	ErrSendInFlight = errors.New("a message is already being sent")
)

// State is the widget's UI state.
type State int

const (
	StateClosed State = iota
	StateOpenIdle
	StateOpenSending
)

func (s State) String() string {
	switch s {
	case StateOpenIdle:
		return "open_idle"
	case StateOpenSending:
		return "open_sending"
	default:
		return "closed"
	}
}

// Bubble classes understood by renderers.
const (
	BubbleUser  = "user"
	BubbleBot   = "bot"
	BubbleError = "bot error"
)

// Renderer is the widget's display surface.
type Renderer interface {
	AppendMessage(text, class string)
	SetTyping(visible bool)
	SetOpen(open bool, state State)
	FocusInput()
}

// Options tunes a session; zero values take the defaults.
type Options struct {
	SystemPrompt string
	FocusDelay   time.Duration
	Now          func() time.Time
}

// Outcome reports how an accepted submit settled. Exactly one of Reply and
// Err is set.
type Outcome struct {
	Reply *models.TranscriptEntry
	Err   error
}

// Bubble is the text shown for a failed outcome.
func (o Outcome) Bubble() string {
	if o.Err == nil {
		return ""
	}
	return "Error: " + o.Err.Error()
}

// Session is one visitor's widget: panel state, transcript and in-flight guard.
type Session struct {
	ID uuid.UUID

	gen          services.Generator
	renderer     Renderer
	systemPrompt string
	focusDelay   time.Duration
	now          func() time.Time

	inFlight atomic.Bool

	mu         sync.Mutex
	open       bool
	transcript []models.TranscriptEntry
	lastActive time.Time
}

// NewSession builds a widget session. A nil renderer disables the widget:
// every operation becomes a no-op.
func NewSession(id uuid.UUID, gen services.Generator, renderer Renderer, opts Options) *Session {
	if opts.FocusDelay == 0 {
		opts.FocusDelay = FocusDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		ID:           id,
		gen:          gen,
		renderer:     renderer,
		systemPrompt: opts.SystemPrompt,
		focusDelay:   opts.FocusDelay,
		now:          opts.Now,
		transcript:   make([]models.TranscriptEntry, 0, 16),
		lastActive:   opts.Now(),
	}
}

func (s *Session) Enabled() bool { return s.renderer != nil }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	if !s.open {
		return StateClosed
	}
	if s.inFlight.Load() {
		return StateOpenSending
	}
	return StateOpenIdle
}

func (s *Session) InFlight() bool { return s.inFlight.Load() }

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []models.TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TranscriptEntry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

func (s *Session) Toggle() {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()

	if open {
		s.Close()
	} else {
		s.Open()
	}
}

func (s *Session) Open() {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	wasOpen := s.open
	s.open = true
	s.lastActive = s.now()
	state := s.stateLocked()
	s.mu.Unlock()

	s.renderer.SetOpen(true, state)
	if wasOpen {
		return
	}

	time.AfterFunc(s.focusDelay, func() {
		s.mu.Lock()
		open := s.open
		s.mu.Unlock()
		if open {
			s.renderer.FocusInput()
		}
	})
}

// Close hides the panel. An in-flight request keeps running.
func (s *Session) Close() {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	s.open = false
	s.lastActive = s.now()
	s.mu.Unlock()

	s.renderer.SetOpen(false, StateClosed)
}

// OutsideClick closes the panel when it is open.
func (s *Session) OutsideClick() {
	if s.State() != StateClosed {
		s.Close()
	}
}

// Submit sends one user turn. It returns an error without side effects when
// the submit is not accepted (disabled, closed, empty input, or a send already
// in flight). An accepted submit always settles into an Outcome.
func (s *Session) Submit(ctx context.Context, text string) (Outcome, error) {
	send, err := s.Begin(text)
	if err != nil {
		return Outcome{}, err
	}
	return send.Finish(ctx), nil
}

// Send is an accepted submit holding the in-flight guard. Exactly one of
// Finish or Fail settles it.
type Send struct {
	s       *Session
	window  []models.TranscriptEntry
	message string
	done    atomic.Bool
}

// Begin accepts a submit: it claims the in-flight guard, records the user
// entry and shows the typing indicator. The upstream call is left to Finish.
func (s *Session) Begin(text string) (*Send, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	message := strings.TrimSpace(text)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return nil, ErrSendInFlight
	}

	window := recentWindow(s.transcript, ContextWindowSize)
	s.transcript = append(s.transcript, models.TranscriptEntry{Role: models.RoleUser, Text: message})
	s.lastActive = s.now()
	state := s.stateLocked()
	s.mu.Unlock()

	s.renderer.AppendMessage(message, BubbleUser)
	s.renderer.SetOpen(true, state)
	s.renderer.SetTyping(true)

	return &Send{s: s, window: window, message: message}, nil
}

// Finish makes the upstream call and settles the send.
func (p *Send) Finish(ctx context.Context) Outcome {
	if p.done.Load() {
		return Outcome{}
	}
	reply, err := p.s.generate(ctx, p.window, p.message)
	return p.complete(reply, err)
}

// Fail settles the send without an upstream call, showing err as the error
// bubble. Used when the call could not be scheduled.
func (p *Send) Fail(err error) Outcome {
	return p.complete("", err)
}

func (p *Send) complete(reply string, err error) Outcome {
	if !p.done.CompareAndSwap(false, true) {
		return Outcome{}
	}
	s := p.s
	defer s.settle()

	s.renderer.SetTyping(false)
	if err != nil {
		outcome := Outcome{Err: err}
		s.renderer.AppendMessage(outcome.Bubble(), BubbleError)
		return outcome
	}

	entry := models.TranscriptEntry{Role: models.RoleModel, Text: reply}
	s.mu.Lock()
	s.transcript = append(s.transcript, entry)
	s.mu.Unlock()

	s.renderer.AppendMessage(reply, BubbleBot)
	return Outcome{Reply: &entry}
}

func (s *Session) generate(ctx context.Context, window []models.TranscriptEntry, message string) (string, error) {
	if s.gen == nil || !s.gen.Configured() {
		return "", &services.ConfigurationError{}
	}
	prompt := services.ComposePrompt(s.systemPrompt, window, message)
	return s.gen.Generate(ctx, prompt)
}

func (s *Session) settle() {
	s.mu.Lock()
	s.inFlight.Store(false)
	s.lastActive = s.now()
	open := s.open
	state := s.stateLocked()
	s.mu.Unlock()

	if open {
		s.renderer.SetOpen(true, state)
	}
}

func recentWindow(entries []models.TranscriptEntry, n int) []models.TranscriptEntry {
	start := len(entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]models.TranscriptEntry, len(entries)-start)
	copy(out, entries[start:])
	return out
}
