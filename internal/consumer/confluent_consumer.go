package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	pkglog "github.com/Foresight-builder/Foresight-backend/pkg/log"
)

const (
	pollTimeoutMs   = 100
	minRetryBackoff = 500 * time.Millisecond
	maxRetryBackoff = 30 * time.Second
)

// kafkaClient is the subset of *kafka.Consumer the consume loop uses.
type kafkaClient interface {
	Subscribe(topic string, rebalanceCb kafka.RebalanceCb) error
	Poll(timeoutMs int) kafka.Event
	StoreMessage(m *kafka.Message) ([]kafka.TopicPartition, error)
	Seek(partition kafka.TopicPartition, ignoredTimeoutMs int) error
	Close() error
}

// ConfluentConsumer implements CDCEventConsumer using confluent-kafka-go.
// An offset is stored only once its message was handled. A message the
// handler rejects is re-read from the same offset after a backoff, so later
// messages of its partition never commit past it.
type ConfluentConsumer struct {
	consumer kafkaClient
	topic    string
	handler  CDCEventHandler
	doneCh   chan struct{}

	backoff    time.Duration
	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewConfluentConsumer creates a consumer for the event_follows change topic.
// A new group starts from the earliest retained change.
func NewConfluentConsumer(brokers, topic, groupID string, handler CDCEventHandler) (*ConfluentConsumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":        brokers,
		"group.id":                 groupID,
		"auto.offset.reset":        "earliest",
		"enable.auto.commit":       true,
		"enable.auto.offset.store": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return newConsumer(c, topic, handler), nil
}

func newConsumer(client kafkaClient, topic string, handler CDCEventHandler) *ConfluentConsumer {
	return &ConfluentConsumer{
		consumer:   client,
		topic:      topic,
		handler:    handler,
		doneCh:     make(chan struct{}),
		minBackoff: minRetryBackoff,
		maxBackoff: maxRetryBackoff,
	}
}

// Start subscribes to the topic and consumes in the background until ctx is
// cancelled.
func (cc *ConfluentConsumer) Start(ctx context.Context) error {
	if err := cc.consumer.Subscribe(cc.topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", cc.topic, err)
	}

	go cc.consumeLoop(ctx)
	return nil
}

func (cc *ConfluentConsumer) consumeLoop(ctx context.Context) {
	l := pkglog.L().With().Str("topic", cc.topic).Logger()
	defer close(cc.doneCh)

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("kafka CDC consumer shutting down")
			return
		default:
		}

		switch ev := cc.consumer.Poll(pollTimeoutMs).(type) {
		case nil:
			// poll timeout
		case *kafka.Message:
			if !cc.handleMessage(ctx, ev) {
				return
			}
		case kafka.Error:
			if ev.IsFatal() {
				l.Error().Err(ev).Msg("fatal kafka error, CDC consumer stopped")
				return
			}
			l.Warn().Err(ev).Msg("kafka CDC consumer error")
		default:
			l.Debug().Str("event", ev.String()).Msg("ignored kafka event")
		}
	}
}

// handleMessage processes msg and either stores its offset or rewinds the
// partition to it. It returns false when ctx ended during the backoff.
func (cc *ConfluentConsumer) handleMessage(ctx context.Context, msg *kafka.Message) bool {
	l := pkglog.L()

	if cc.processMessage(context.WithoutCancel(ctx), msg) {
		cc.backoff = 0
		if _, err := cc.consumer.StoreMessage(msg); err != nil {
			l.Warn().Err(err).Msg("failed to store CDC offset")
		}
		return true
	}

	// Rewind so the next poll of this partition returns msg again.
	if err := cc.consumer.Seek(msg.TopicPartition, 0); err != nil {
		l.Error().Err(err).
			Str("offset", msg.TopicPartition.Offset.String()).
			Msg("failed to rewind to failed CDC event")
	}

	cc.backoff = min(max(cc.backoff*2, cc.minBackoff), cc.maxBackoff)
	l.Warn().
		Dur("backoff", cc.backoff).
		Str("offset", msg.TopicPartition.Offset.String()).
		Msg("retrying CDC event")

	select {
	case <-ctx.Done():
		return false
	case <-time.After(cc.backoff):
		return true
	}
}

// processMessage reports whether the message is done with, which includes
// undecodable messages that would never succeed on redelivery.
func (cc *ConfluentConsumer) processMessage(ctx context.Context, msg *kafka.Message) bool {
	l := pkglog.L()

	event, err := Decode(msg.Value)
	if err != nil {
		l.Error().Err(err).Str("offset", msg.TopicPartition.Offset.String()).Msg("failed to unmarshal debezium CDC event")
		return true
	}
	if event == nil {
		// Tombstone following a delete.
		return true
	}

	l.Debug().
		Str("op", event.Payload.Op).
		Int64("ts_ms", event.Payload.TsMs).
		Msg("received CDC event")

	if err := cc.handler.HandleCDCEvent(ctx, event); err != nil {
		l.Error().Err(err).Str("op", event.Payload.Op).Msg("failed to handle CDC event")
		return false
	}
	return true
}

// Close waits for the consume loop to exit, then closes the consumer.
// Cancel the context passed to Start first.
func (cc *ConfluentConsumer) Close() error {
	<-cc.doneCh
	if err := cc.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	return nil
}

var (
	_ CDCEventConsumer = (*ConfluentConsumer)(nil)
	_ kafkaClient      = (*kafka.Consumer)(nil)
)
