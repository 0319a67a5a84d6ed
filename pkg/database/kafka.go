package database

import (
	"context"
	"fmt"
	"time"

	"marketplace_service/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// NewKafkaWriterWithRetry create a Kafka writer and probe the brokers with a ping message
func NewKafkaWriterWithRetry(k KafkaConnection) (*kafka.Writer, error) {
	var writer *kafka.Writer
	var err error

	for attempt := 1; attempt <= k.RetryCount; attempt++ {
		writer = kafka.NewWriter(kafka.WriterConfig{
			Brokers:  k.Brokers,
			Topic:    k.Topic,
			Balancer: &kafka.LeastBytes{},
		})

		err = writer.WriteMessages(context.Background(), kafka.Message{
			Key:   []byte("ping"),
			Value: []byte("ping"),
		})
		if err == nil {
			logger.Log.Infof("Kafka writer ready, attempt", attempt)
			return writer, nil
		}

		logger.Log.Errorf(fmt.Sprintf("Kafka writer failed (attempt %d/%d)", attempt, k.RetryCount), err)
		writer.Close()
		time.Sleep(k.RetryInterval * time.Second)
	}

	return nil, fmt.Errorf("unable to create kafka writer after %d attempts: %v", k.RetryCount, err)
}
