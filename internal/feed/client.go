// Package feed follows the product event log and keeps an ordered, capped
// view of the latest entries.
package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/models"
)

// DefaultLimit is the number of entries a view holds.
const DefaultLimit = 50

// State is the connection state of a subscription.
type State string

const (
	StateConnecting State = "connecting"
	StateLive       State = "live"
	StateError      State = "error"
)

// View is what a subscriber sees after each update.
type View struct {
	State   State                    `json:"state"`
	Entries []models.ProductLogEntry `json:"entries"`
	Err     error                    `json:"-"`
}

// Stream yields successive full snapshots of the log.
type Stream interface {
	// Next blocks until the next snapshot. It returns an error once the
	// stream fails or its context is done.
	Next() ([]models.ProductLogEntry, error)
	// Stop releases the stream. It is not safe to call concurrently with Next.
	Stop()
}

// Source opens snapshot streams over the newest limit entries.
type Source interface {
	Open(ctx context.Context, limit int) Stream
}

// Client subscribes to a Source.
type Client struct {
	source Source
	limit  int
	logger *zap.Logger
}

// NewClient creates a Client holding at most limit entries per view.
func NewClient(source Source, limit int, logger *zap.Logger) *Client {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{source: source, limit: limit, logger: logger}
}

// Subscribe delivers a Connecting view, then a Live view for every snapshot,
// newest entry first. A stream failure delivers one Error view and ends the
// subscription; there is no reconnect. onUpdate runs on a single goroutine
// and must not call Cancel on its own subscription.
func (c *Client) Subscribe(ctx context.Context, onUpdate func(View)) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		ctx:      subCtx,
		cancel:   cancel,
		onUpdate: onUpdate,
		done:     make(chan struct{}),
	}

	s.deliver(View{State: StateConnecting})
	stream := c.source.Open(subCtx, c.limit)
	go s.run(stream, c.limit, c.logger)
	return s
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	ctx      context.Context
	cancel   context.CancelFunc
	onUpdate func(View)

	mu        sync.Mutex
	cancelled bool
	once      sync.Once
	done      chan struct{}
}

// Cancel ends the subscription. It is idempotent. Once it returns no further
// view is delivered; the stream itself is stopped by the time Done closes.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.mu.Lock()
		s.cancelled = true
		s.mu.Unlock()
		s.cancel()
	})
}

// Done is closed after the stream has been stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) run(stream Stream, limit int, logger *zap.Logger) {
	defer close(s.done)
	defer stream.Stop()

	for {
		entries, err := stream.Next()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			logger.Error("Activity feed stream failed", zap.Error(err))
			s.deliver(View{State: StateError, Err: err})
			return
		}
		s.deliver(View{State: StateLive, Entries: Order(entries, limit)})
	}
}

func (s *Subscription) deliver(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled || s.onUpdate == nil {
		return
	}
	s.onUpdate(v)
}
