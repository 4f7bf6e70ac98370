package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

type MessageIterator struct {
	consumer *kafka.Consumer
	ctx      context.Context
}

func NewMessageIterator(ctx context.Context, consumer *kafka.Consumer) *MessageIterator {
	return &MessageIterator{
		consumer: consumer,
		ctx:      ctx,
	}
}

func (it *MessageIterator) Next() (*kafka.Message, error) {
	if it.consumer == nil {
		return nil, errors.New("[EventIterator] Kafka consumer has not been initialized")
	}

	for i := 0; i < MAX_RETRIES; i++ {
		select {
		case <-it.ctx.Done():
			slog.Warn("[EventIterator] Context cancelled, stopping iterator")
			return nil, it.ctx.Err()
		default:
			msg, err := it.consumer.ReadMessage(-1)
			if err != nil {
				if kafkaErr, ok := err.(kafka.Error); ok && kafkaErr.Code() == kafka.ErrAllBrokersDown {
					slog.Error("[EventIterator] All Kafka brokers are down. Aborting")
					return nil, err
				}

				slog.Warn("[EventIterator] Failed to read message, retrying...",
					slog.Int("attempt", i+1),
					slog.Int("max_retries", MAX_RETRIES),
					slog.String("error", err.Error()))

				time.Sleep(RETRY_DELAY)
				continue
			}
			return msg, nil
		}
	}
	return nil, errors.New("[EventIterator] Failed to read message after retries")
}
