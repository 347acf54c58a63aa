package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/events"
)

// ErrForwarderFull is returned when the forwarding buffer cannot take more events.
var ErrForwarderFull = errors.New("event forwarder buffer full")

// ErrForwarderStopped is returned for events handed over after Stop.
var ErrForwarderStopped = errors.New("event forwarder stopped")

const publishTimeout = 5 * time.Second

// EventForwarder drains events to a broker on a background goroutine so
// request handlers never wait on the broker.
type EventForwarder struct {
	publisher events.Publisher
	logger    *zap.Logger
	queue     chan events.Event

	mu      sync.Mutex
	started bool
	stopped bool
	done    chan struct{}
}

// NewEventForwarder creates a forwarder with the given buffer size.
func NewEventForwarder(publisher events.Publisher, buffer int, logger *zap.Logger) *EventForwarder {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventForwarder{
		publisher: publisher,
		logger:    logger,
		queue:     make(chan events.Event, buffer),
		done:      make(chan struct{}),
	}
}

// Handle enqueues an event without blocking. It satisfies events.EventHandler.
func (f *EventForwarder) Handle(_ context.Context, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return ErrForwarderStopped
	}
	select {
	case f.queue <- event:
		return nil
	default:
		f.logger.Warn("dropping event, forwarder buffer full",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
		return ErrForwarderFull
	}
}

// Start launches the drain loop. It returns immediately.
func (f *EventForwarder) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started || f.stopped {
		return
	}
	f.started = true
	go f.run(ctx)
}

func (f *EventForwarder) run(ctx context.Context) {
	defer close(f.done)
	for {
		select {
		case event, ok := <-f.queue:
			if !ok {
				return
			}
			f.publish(event)
		case <-ctx.Done():
			return
		}
	}
}

func (f *EventForwarder) publish(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := f.publisher.Publish(ctx, event); err != nil {
		f.logger.Error("event forward failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}

// Stop stops accepting events, drains what is buffered and closes the publisher.
func (f *EventForwarder) Stop() {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return
	}
	f.stopped = true
	started := f.started
	f.mu.Unlock()

	close(f.queue)
	if started {
		<-f.done
	}
	if err := f.publisher.Close(); err != nil {
		f.logger.Warn("closing event publisher", zap.Error(err))
	}
}
