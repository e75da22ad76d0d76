package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/billyribeiro-ux/build-ops/internal/shared/telemetry"
)

const defaultBacklog = 1024

var (
	// ErrPoolClosed is returned by Send after Close.
	ErrPoolClosed = errors.New("worker pool closed")
	// ErrQueueFull is returned by Send when the backlog is at capacity.
	ErrQueueFull = errors.New("import queue is full")
)

type task struct {
	ctx context.Context
	msg Message
}

// Pool runs each message on a bounded ants goroutine pool. Messages wait in a
// fixed-size backlog until a worker is free, so Send never blocks.
type Pool struct {
	pool    *ants.Pool
	handler Handler
	backlog chan task
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

// NewPool starts a pool with size workers calling handler.
func NewPool(size int, handler Handler) (*Pool, error) {
	if handler == nil {
		return nil, errors.New("queue handler is required")
	}
	if size <= 0 {
		size = 1
	}
	ap, err := ants.NewPool(size, ants.WithPanicHandler(func(r interface{}) {
		telemetry.Error("queue.worker_panic", map[string]any{"panic": fmt.Sprint(r)})
	}))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	p := &Pool{pool: ap, handler: handler, backlog: make(chan task, defaultBacklog)}
	go p.dispatch()
	return p, nil
}

// dispatch hands backlog entries to the ants pool, waiting for a free worker.
func (p *Pool) dispatch() {
	for t := range p.backlog {
		err := p.pool.Submit(func() {
			defer p.wg.Done()
			p.run(t)
		})
		if err != nil {
			p.wg.Done()
			telemetry.Error("queue.submit_failed", map[string]any{"import_id": t.msg.ImportID, "error": err})
		}
	}
}

func (p *Pool) run(t task) {
	if err := p.handler(t.ctx, t.msg); err != nil {
		telemetry.Error("queue.handler_failed", map[string]any{
			"import_id":  t.msg.ImportID,
			"request_id": t.msg.RequestID,
			"error":      err,
		})
	}
}

// Send queues msg. The handler runs with a context detached from ctx's
// cancellation so a finished HTTP request does not abort the job.
func (p *Pool) Send(ctx context.Context, msg Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	if msg.EnqueuedAt == "" {
		msg.EnqueuedAt = time.Now().UTC().Format(time.RFC3339)
	}

	p.wg.Add(1)
	select {
	case p.backlog <- task{ctx: context.WithoutCancel(ctx), msg: msg}:
		return nil
	default:
		p.wg.Done()
		return fmt.Errorf("queue import %s: %w", msg.ImportID, ErrQueueFull)
	}
}

// Running returns the number of busy workers.
func (p *Pool) Running() int { return p.pool.Running() }

// Pending returns the number of messages waiting for a worker.
func (p *Pool) Pending() int { return len(p.backlog) }

// Close stops accepting messages and waits up to timeout for queued and
// running ones.
func (p *Pool) Close(timeout time.Duration) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.backlog)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	var err error
	select {
	case <-done:
	case <-time.After(timeout):
		err = errors.New("timed out waiting for import workers")
	}
	p.pool.Release()
	return err
}

var _ Client = (*Pool)(nil)
