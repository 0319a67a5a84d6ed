package repository

import (
	"context"
	"time"

	"marketplace_service/internal/chat/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository definition chat message store. Timestamps are assigned
// here at write time, never taken from the caller.
type MessageRepository interface {
	InsertMessage(ctx context.Context, roomID, senderID, senderName, content string) (*domain.ChatMessage, error)
	FindByRoom(ctx context.Context, roomID string) ([]domain.ChatMessage, error)
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a mongo backed MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("chat_messages"),
	}
}

// InsertMessage append one message record
func (r *messageRepository) InsertMessage(ctx context.Context, roomID, senderID, senderName, content string) (*domain.ChatMessage, error) {
	msg := &domain.ChatMessage{
		ID:         uuid.New().String(),
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		Timestamp:  time.Now().UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// FindByRoom all messages of a room ordered by timestamp ascending
func (r *messageRepository) FindByRoom(ctx context.Context, roomID string) ([]domain.ChatMessage, error) {
	filter := bson.M{"room_id": roomID}
	opts := options.Find().SetSort(bson.M{"timestamp": 1})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var messages []domain.ChatMessage
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
