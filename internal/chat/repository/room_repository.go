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

// RoomRepository definition chat room store. The store side assigns ids and
// the created_at/updated_at timestamps so ordering stays consistent across
// clients with skewed clocks.
type RoomRepository interface {
	InsertRoom(ctx context.Context, participants []string) (*domain.ChatRoom, error)
	FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error)
	TouchUpdatedAt(ctx context.Context, roomID string) error
	FindByParticipant(ctx context.Context, userID string) ([]domain.ChatRoom, error)
	FindOnePrivateRoom(ctx context.Context, userA, userB string) (*domain.ChatRoom, error)
}

type roomRepository struct {
	roomsColl *mongo.Collection
}

// NewMongoRoomRepository create a mongo backed RoomRepository
func NewMongoRoomRepository(db *mongo.Database) RoomRepository {
	return &roomRepository{
		roomsColl: db.Collection("chat_rooms"),
	}
}

// InsertRoom create room with created_at = updated_at = now
func (r *roomRepository) InsertRoom(ctx context.Context, participants []string) (*domain.ChatRoom, error) {
	now := time.Now().UTC()
	room := &domain.ChatRoom{
		ID:           uuid.New().String(),
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.roomsColl.InsertOne(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// FindByID find room by id
func (r *roomRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := r.roomsColl.FindOne(ctx, bson.M{"_id": roomID}).Decode(&room)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// TouchUpdatedAt bump the room updated_at to now
func (r *roomRepository) TouchUpdatedAt(ctx context.Context, roomID string) error {
	filter := bson.M{"_id": roomID}
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	_, err := r.roomsColl.UpdateOne(ctx, filter, update)
	return err
}

// FindByParticipant rooms where participants contains userID, newest activity first
func (r *roomRepository) FindByParticipant(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	filter := bson.M{"participants": userID}
	opts := options.Find().SetSort(bson.M{"updated_at": -1})
	cur, err := r.roomsColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var rooms []domain.ChatRoom
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// FindOnePrivateRoom find an existing two-party room for the pair. The
// $size guard keeps group rooms that happen to contain both users out of
// the match.
func (r *roomRepository) FindOnePrivateRoom(ctx context.Context, userA, userB string) (*domain.ChatRoom, error) {
	filter := bson.M{
		"participants": bson.M{
			"$size": 2,
			"$all":  []string{userA, userB},
		},
	}
	var room domain.ChatRoom
	err := r.roomsColl.FindOne(ctx, filter).Decode(&room)
	if err != nil {
		return nil, err
	}
	return &room, nil
}
