// Package events is the trigger bus: platform notifications arrive as JSON
// on Kafka topics and are dispatched as typed events to the registered
// handlers. The bus guarantees at-least-once delivery; every handler behind
// it is idempotent.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/openmod/internal/models"
)

// Handlers receives the typed notifications. A nil handler means the
// instance does not care about that notification family.
type Handlers struct {
	OnCommentEvent func(ctx context.Context, ev models.CommentEvent)
	OnPostEvent    func(ctx context.Context, ev models.PostEvent)
	OnDeleteEvent  func(ctx context.Context, ev models.DeleteEvent)
	OnModAction    func(ctx context.Context, ev models.ModActionEvent)
}

func NewConsumer(cfg KafkaConfig) (*kafka.Consumer, error) {
	slog.Info("[EventBus] Initializing Kafka consumer...",
		slog.String("broker", cfg.Broker),
		slog.String("group_id", cfg.GroupID))

	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Broker,
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
		"isolation.level":    "read_committed",
	})
	if err != nil {
		return nil, fmt.Errorf("[EventBus] Failed to create consumer: %w", err)
	}

	topics := []string{
		TOPIC_COMMENT_EVENTS,
		TOPIC_POST_EVENTS,
		TOPIC_DELETE_EVENTS,
		TOPIC_MOD_ACTIONS,
	}
	if err := c.SubscribeTopics(topics, nil); err != nil {
		return nil, fmt.Errorf("[EventBus] Failed to subscribe to topics: %w", err)
	}

	slog.Info("[EventBus] Kafka consumer initialized successfully")
	return c, nil
}

// Consume reads trigger notifications until ctx is cancelled, dispatching
// each to its handler and committing the offset afterwards. A notification
// that fails to decode is committed and dropped; it will never decode.
func Consume(ctx context.Context, consumer *kafka.Consumer, h Handlers) error {
	iterator := NewMessageIterator(ctx, consumer)
	committer := NewCommitHandler(ctx, consumer)

	slog.Info("[EventBus] Listening for platform notifications...")

	for {
		select {
		case <-ctx.Done():
			slog.Warn("[EventBus] Stopping consumer...")
			return ctx.Err()
		default:
			msg, err := iterator.Next()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			}

			dispatch(ctx, msg, h)

			if err := committer.Commit(msg); err != nil {
				slog.Warn("[EventBus] Failed to commit offset",
					slog.String("error", err.Error()))
			}
		}
	}
}

func dispatch(ctx context.Context, msg *kafka.Message, h Handlers) {
	topic := ""
	if msg.TopicPartition.Topic != nil {
		topic = *msg.TopicPartition.Topic
	}

	switch topic {
	case TOPIC_COMMENT_EVENTS:
		var ev models.CommentEvent
		if !decode(msg.Value, &ev, topic) {
			return
		}
		if h.OnCommentEvent != nil {
			h.OnCommentEvent(ctx, ev)
		}
	case TOPIC_POST_EVENTS:
		var ev models.PostEvent
		if !decode(msg.Value, &ev, topic) {
			return
		}
		if h.OnPostEvent != nil {
			h.OnPostEvent(ctx, ev)
		}
	case TOPIC_DELETE_EVENTS:
		var ev models.DeleteEvent
		if !decode(msg.Value, &ev, topic) {
			return
		}
		if h.OnDeleteEvent != nil {
			h.OnDeleteEvent(ctx, ev)
		}
	case TOPIC_MOD_ACTIONS:
		var ev models.ModActionEvent
		if !decode(msg.Value, &ev, topic) {
			return
		}
		if h.OnModAction != nil {
			h.OnModAction(ctx, ev)
		}
	default:
		slog.Warn("[EventBus] Notification on unexpected topic",
			slog.String("topic", topic))
	}
}

func decode(data []byte, v any, topic string) bool {
	if err := json.Unmarshal(data, v); err != nil {
		slog.Error("[EventBus] Failed to decode notification",
			slog.String("topic", topic),
			slog.String("error", err.Error()))
		return false
	}
	return true
}
