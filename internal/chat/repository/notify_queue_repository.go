package repository

import (
	"encoding/json"

	"marketplace_service/internal/chat/domain"
	"marketplace_service/pkg/database"

	"github.com/streadway/amqp"
)

// NotifyQueue hands messages for offline participants to a delivery worker.
// Enqueue is best effort: the chat send path never fails on queue errors.
type NotifyQueue interface {
	EnqueueOffline(msg domain.ChatMessage, recipients []string) error
}

// OfflineNotification queue payload for one undelivered message
type OfflineNotification struct {
	Message    domain.ChatMessage `json:"message"`
	Recipients []string           `json:"recipients"`
}

type rabbitNotifyQueue struct {
	rabbit database.RabbitRepo
	queue  string
}

// NewRabbitNotifyQueue create a rabbitmq backed NotifyQueue
func NewRabbitNotifyQueue(rabbit database.RabbitRepo, queue string) NotifyQueue {
	return &rabbitNotifyQueue{rabbit: rabbit, queue: queue}
}

// EnqueueOffline publish the notification to the delivery queue
func (q *rabbitNotifyQueue) EnqueueOffline(msg domain.ChatMessage, recipients []string) error {
	body, err := json.Marshal(OfflineNotification{Message: msg, Recipients: recipients})
	if err != nil {
		return err
	}
	return q.rabbit.Publish("", q.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
