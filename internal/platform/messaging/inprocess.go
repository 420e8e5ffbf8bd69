package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"assembly/contexts/assembly/voting-engine/ports"
)

const (
	defaultInProcessBuffer     = 128
	defaultInProcessMaxDeliver = 5
	defaultRedeliveryBackoff   = 50 * time.Millisecond
)

// InProcess is the single-process event bus. Every subscription gets its own
// buffered queue; a handler error redelivers the event after a short backoff
// until MaxDeliver attempts have been made.
type InProcess struct {
	mu          sync.RWMutex
	subscribers map[string][]chan ports.EventEnvelope
	maxDeliver  int
	backoff     time.Duration
	logger      *slog.Logger
}

func NewInProcess(maxDeliver int, logger *slog.Logger) *InProcess {
	if maxDeliver <= 0 {
		maxDeliver = defaultInProcessMaxDeliver
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcess{
		subscribers: make(map[string][]chan ports.EventEnvelope),
		maxDeliver:  maxDeliver,
		backoff:     defaultRedeliveryBackoff,
		logger:      logger,
	}
}

// Publish enqueues the event for every subscriber of topic. It blocks while a
// subscriber queue is full, so a slow consumer applies backpressure to the
// relay instead of losing facts.
func (b *InProcess) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	b.mu.RLock()
	subs := append([]chan ports.EventEnvelope(nil), b.subscribers[topic]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- event:
		}
	}

	b.logger.Debug("event published",
		"event", "inprocess_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"subscribers", len(subs),
	)
	return nil
}

func (b *InProcess) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	ch := make(chan ports.EventEnvelope, defaultInProcessBuffer)

	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.removeSubscriber(topic, ch)
				return
			case event := <-ch:
				b.deliver(ctx, topic, consumerGroup, event, handler)
			}
		}
	}()
	return nil
}

func (b *InProcess) deliver(
	ctx context.Context,
	topic string,
	consumerGroup string,
	event ports.EventEnvelope,
	handler func(context.Context, ports.EventEnvelope) error,
) {
	for attempt := 1; attempt <= b.maxDeliver; attempt++ {
		err := handler(ctx, event)
		if err == nil {
			return
		}
		b.logger.Error("consumer handler failed",
			"event", "inprocess_consume_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"consumer_group", consumerGroup,
			"event_id", event.EventID,
			"event_type", event.EventType,
			"attempt", attempt,
			"error", err.Error(),
		)
		if attempt == b.maxDeliver {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.backoff * time.Duration(attempt)):
		}
	}
	b.logger.Warn("event dropped after max deliveries",
		"event", "inprocess_max_deliver_reached",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"consumer_group", consumerGroup,
		"event_id", event.EventID,
		"max_deliver", b.maxDeliver,
	)
}

func (b *InProcess) removeSubscriber(topic string, target chan ports.EventEnvelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]chan ports.EventEnvelope, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	b.subscribers[topic] = filtered
}

var _ ports.EventPublisher = (*InProcess)(nil)
var _ ports.EventSubscriber = (*InProcess)(nil)
