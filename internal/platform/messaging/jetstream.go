package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"assembly/contexts/assembly/voting-engine/ports"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const subjectRoot = "assembly"

const (
	defaultJetStreamRedelivery = time.Second
	maxJetStreamRedelivery     = time.Minute
	defaultJetStreamAckWait    = 30 * time.Second
	jetStreamDuplicateWindow   = 2 * time.Minute
)

// JetStream publishes facts to a NATS JetStream stream and consumes them
// through durable, explicitly acknowledged consumers. The event ID doubles as
// the JetStream message ID, so a relay retry inside the duplicate window is
// stored once. A failed handler is redelivered after a delay that doubles
// with every attempt, starting at redeliveryBase and capped at a minute.
type JetStream struct {
	conn           *nats.Conn
	js             jetstream.JetStream
	stream         string
	maxDeliver     int
	redeliveryBase time.Duration
	logger         *slog.Logger
}

func NewJetStream(
	ctx context.Context,
	url string,
	stream string,
	maxDeliver int,
	redeliveryBase time.Duration,
	logger *slog.Logger,
) (*JetStream, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if maxDeliver <= 0 {
		maxDeliver = defaultInProcessMaxDeliver
	}
	if redeliveryBase <= 0 {
		redeliveryBase = defaultJetStreamRedelivery
	}
	conn, err := nats.Connect(url, nats.Name("assembly-voting-engine"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       stream,
		Subjects:   []string{subjectRoot + ".>"},
		Storage:    jetstream.FileStorage,
		Duplicates: jetStreamDuplicateWindow,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", stream, err)
	}

	logger.Info("jetstream bus connected",
		"event", "jetstream_connected",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"url", url,
		"stream", stream,
	)
	return &JetStream{
		conn:           conn,
		js:             js,
		stream:         stream,
		maxDeliver:     maxDeliver,
		redeliveryBase: redeliveryBase,
		logger:         logger,
	}, nil
}

func (b *JetStream) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", topic, event.EventID, err)
	}
	subject := publishSubject(topic, event.PartitionKey)
	if _, err := b.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.EventID)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	b.logger.Debug("event published",
		"event", "jetstream_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"subject", subject,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

// Subscribe attaches a durable consumer named after the group and topic. The
// consumer stops when ctx is done.
func (b *JetStream) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	name := consumerName(consumerGroup, topic)
	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.stream, jetstream.ConsumerConfig{
		Name:          name,
		Durable:       name,
		FilterSubject: filterSubject(topic),
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    b.maxDeliver,
		AckWait:       defaultJetStreamAckWait,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", name, err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		b.handle(ctx, topic, consumerGroup, msg, handler)
	})
	if err != nil {
		return fmt.Errorf("start consuming %s: %w", name, err)
	}
	go func() {
		<-ctx.Done()
		consumeCtx.Stop()
	}()
	return nil
}

func (b *JetStream) handle(
	ctx context.Context,
	topic string,
	consumerGroup string,
	msg jetstream.Msg,
	handler func(context.Context, ports.EventEnvelope) error,
) {
	var event ports.EventEnvelope
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		b.logger.Error("jetstream message decode failed",
			"event", "jetstream_decode_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"subject", msg.Subject(),
			"error", err.Error(),
		)
		// An undecodable message can never succeed.
		_ = msg.Term()
		return
	}

	if err := handler(ctx, event); err != nil {
		delay := b.redeliveryDelay(msg)
		b.logger.Error("consumer handler failed",
			"event", "jetstream_consume_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"consumer_group", consumerGroup,
			"event_id", event.EventID,
			"event_type", event.EventType,
			"redeliver_in", delay.String(),
			"error", err.Error(),
		)
		if nakErr := msg.NakWithDelay(delay); nakErr != nil {
			b.logger.Warn("jetstream nak failed",
				"event", "jetstream_nak_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"event_id", event.EventID,
				"error", nakErr.Error(),
			)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		b.logger.Warn("jetstream ack failed",
			"event", "jetstream_ack_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"event_id", event.EventID,
			"error", err.Error(),
		)
	}
}

// redeliveryDelay doubles the base per delivery already made.
func (b *JetStream) redeliveryDelay(msg jetstream.Msg) time.Duration {
	var delivered uint64 = 1
	if meta, err := msg.Metadata(); err == nil && meta.NumDelivered > 0 {
		delivered = meta.NumDelivered
	}
	return backoffFor(b.redeliveryBase, delivered)
}

func backoffFor(base time.Duration, delivered uint64) time.Duration {
	delay := base
	for i := uint64(1); i < delivered; i++ {
		delay *= 2
		if delay >= maxJetStreamRedelivery {
			return maxJetStreamRedelivery
		}
	}
	return min(delay, maxJetStreamRedelivery)
}

func (b *JetStream) Close() error {
	if b == nil || b.conn == nil {
		return nil
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return err
	}
	return nil
}

// publishSubject routes a fact to assembly.<topic>.<partition key>. Topics
// keep their dots as subject tokens.
func publishSubject(topic string, partitionKey string) string {
	return subjectRoot + "." + strings.TrimSpace(topic) + "." + subjectToken(partitionKey)
}

func filterSubject(topic string) string {
	return subjectRoot + "." + strings.TrimSpace(topic) + ".>"
}

func subjectToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "_"
	}
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(value)
}

func consumerName(group string, topic string) string {
	raw := strings.TrimSpace(group) + "-" + strings.TrimSpace(topic)
	return strings.NewReplacer(".", "-", "*", "-", ">", "-", " ", "-").Replace(raw)
}

var _ ports.EventPublisher = (*JetStream)(nil)
var _ ports.EventSubscriber = (*JetStream)(nil)
