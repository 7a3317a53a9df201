package worker

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

const janitorPollInterval = time.Minute

type sessionEvicter interface {
	EvictIdle(ctx context.Context, now time.Time, ttl time.Duration) []uuid.UUID
}

type evictionListener interface {
	Forget(sessionID uuid.UUID)
}

// Janitor periodically drops idle widget sessions and tells the socket hub to
// forget them.
type Janitor struct {
	sessions sessionEvicter
	hub      evictionListener
	ttl      time.Duration
	interval time.Duration
	stopChan chan struct{}
}

func NewJanitor(sessions sessionEvicter, hub evictionListener, ttl time.Duration) *Janitor {
	return &Janitor{
		sessions: sessions,
		hub:      hub,
		ttl:      ttl,
		interval: janitorPollInterval,
		stopChan: make(chan struct{}),
	}
}

func (j *Janitor) Start() {
	if j.sessions == nil || j.ttl <= 0 {
		return
	}

	go j.loop()

	log.Printf("Session janitor started (idle ttl %s)", j.ttl)
}

func (j *Janitor) Stop() {
	select {
	case <-j.stopChan:
		return
	default:
		close(j.stopChan)
	}
}

func (j *Janitor) loop() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			log.Printf("Session janitor shutting down")
			return
		case <-ticker.C:
			j.sweep(context.Background(), time.Now())
		}
	}
}

func (j *Janitor) sweep(ctx context.Context, now time.Time) int {
	evicted := j.sessions.EvictIdle(ctx, now, j.ttl)
	if j.hub != nil {
		for _, id := range evicted {
			j.hub.Forget(id)
		}
	}
	if len(evicted) > 0 {
		log.Printf("Evicted %d idle widget sessions", len(evicted))
	}
	return len(evicted)
}
