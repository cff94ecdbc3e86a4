package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/asset-management/internal/queue"
)

var (
	ErrBufferFull = errors.New("event buffer full")
	ErrClosed     = errors.New("publisher closed")
)

// Publisher is implemented by AMQPPublisher and NoopPublisher.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// AsyncPublisher hands events to a single background worker so a slow or
// unreachable broker never delays the request that produced them. Events
// are delivered in order; when the buffer is full new events are rejected.
type AsyncPublisher struct {
	next    Publisher
	timeout time.Duration
	log     *logrus.Logger

	mu     sync.RWMutex
	closed bool
	events chan queue.Event
	done   chan struct{}
}

func NewAsyncPublisher(next Publisher, buffer int, timeout time.Duration, log *logrus.Logger) *AsyncPublisher {
	if buffer < 1 {
		buffer = 1
	}
	p := &AsyncPublisher{
		next:    next,
		timeout: timeout,
		log:     log,
		events:  make(chan queue.Event, buffer),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish enqueues ev without waiting for the broker.
func (p *AsyncPublisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.events <- ev:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close stops accepting events and waits for the buffered ones to be sent
// or for ctx to expire.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for ev := range p.events {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.next.Publish(ctx, ev)
		cancel()
		if err != nil {
			p.log.WithError(err).WithField("event", ev.Type).Warn("publish event failed")
		}
	}
}
