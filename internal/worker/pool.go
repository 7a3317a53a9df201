package worker

import (
	"context"
	"errors"
	"log"
	"sync"
)

var ErrPoolStopped = errors.New("worker pool stopped")

// Pool runs widget submits on a fixed set of goroutines, capping how many
// Gemini calls are in flight across all sessions. Tasks receive the pool's
// context, which Stop cancels.
type Pool struct {
	tasks       chan func(ctx context.Context)
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewPool(workerCount, queueSize int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		tasks:       make(chan func(ctx context.Context), queueSize),
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

// Stop refuses new tasks, cancels the context of running ones and waits for
// them to return. Queued tasks that no worker has picked up are dropped.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
		p.cancel()
	})
	p.wg.Wait()
}

// Submit queues a task, blocking while the queue is full.
func (p *Pool) Submit(task func(ctx context.Context)) error {
	select {
	case <-p.stopChan:
		return ErrPoolStopped
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.stopChan:
		return ErrPoolStopped
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		case task := <-p.tasks:
			p.run(id, task)
		}
	}
}

func (p *Pool) run(id int, task func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker %d: task panicked: %v", id, r)
		}
	}()
	task(p.ctx)
}
