package repository

import (
	"context"
	"encoding/json"

	"marketplace_service/internal/market/domain"

	"github.com/segmentio/kafka-go"
)

// EventPublisher pushes post lifecycle events to the stream consumers
// (search indexer, recommendations) read from
type EventPublisher interface {
	PublishPostEvent(ctx context.Context, event domain.PostEvent) error
}

type kafkaEventPublisher struct {
	writer *kafka.Writer
}

// NewKafkaEventPublisher create an EventPublisher on a kafka writer
func NewKafkaEventPublisher(writer *kafka.Writer) EventPublisher {
	return &kafkaEventPublisher{writer: writer}
}

func (p *kafkaEventPublisher) PublishPostEvent(ctx context.Context, event domain.PostEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.PostID),
		Value: payload,
	})
}
