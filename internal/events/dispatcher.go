// Package events delivers product audit events to the real-time store off
// the request path.
package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/models"
)

// Sink persists a single event.
type Sink interface {
	Write(ctx context.Context, event models.ProductEvent) error
}

// Options tune a Dispatcher. Zero values fall back to defaults.
type Options struct {
	QueueSize      int
	Workers        int
	PublishTimeout time.Duration
}

const (
	defaultQueueSize      = 256
	defaultWorkers        = 1
	defaultPublishTimeout = 5 * time.Second
)

// Dispatcher queues events on a bounded channel and writes them to a Sink
// from background workers. Publish never blocks and never fails the caller.
type Dispatcher struct {
	sink    Sink
	logger  *zap.Logger
	metrics *Metrics
	timeout time.Duration
	workers int

	mu      sync.RWMutex
	queue   chan models.ProductEvent
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher; call Start to begin delivery.
func NewDispatcher(sink Sink, logger *zap.Logger, metrics *Metrics, opts Options) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	return &Dispatcher{
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		timeout: opts.PublishTimeout,
		workers: opts.Workers,
		queue:   make(chan models.ProductEvent, opts.QueueSize),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
}

// Publish enqueues event and reports whether it was accepted. A full queue or
// a closed dispatcher drops the event with a warning.
func (d *Dispatcher) Publish(event models.ProductEvent) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher closed")
		return false
	}

	select {
	case d.queue <- event:
		d.metrics.setDepth(len(d.queue))
		return true
	default:
		d.drop(event, "queue full")
		return false
	}
}

// Close stops intake and waits for queued events to be written or for ctx
// to end, whichever comes first.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		// Nothing will drain the queue; account for what is left.
		for ev := range d.queue {
			d.drop(ev, "dispatcher never started")
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Event dispatcher drained")
		return nil
	case <-ctx.Done():
		d.logger.Warn("Event dispatcher drain interrupted", zap.Int("pending", len(d.queue)))
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for event := range d.queue {
		d.metrics.setDepth(len(d.queue))
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event models.ProductEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sink.Write(ctx, event); err != nil {
		d.metrics.inc(string(event.Action), ResultFailed)
		d.logger.Error("Failed to publish product event",
			zap.String("action", string(event.Action)),
			zap.Int64("product_id", event.ProductID),
			zap.Error(err),
		)
		return
	}
	d.metrics.inc(string(event.Action), ResultPublished)
}

func (d *Dispatcher) drop(event models.ProductEvent, reason string) {
	d.metrics.inc(string(event.Action), ResultDropped)
	d.logger.Warn("Dropped product event",
		zap.String("reason", reason),
		zap.String("action", string(event.Action)),
		zap.Int64("product_id", event.ProductID),
	)
}
