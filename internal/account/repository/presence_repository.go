package repository

import (
	"context"

	chatrepo "marketplace_service/internal/chat/repository"

	"github.com/go-redis/redis/v8"
)

// PresenceRepository publishes login state where the chat directory reads it
type PresenceRepository interface {
	SetOnline(ctx context.Context, userID string, online bool) error
}

type presenceRepository struct {
	client *redis.Client
}

// NewPresenceRepository create a PresenceRepository on redis
func NewPresenceRepository(client *redis.Client) PresenceRepository {
	return &presenceRepository{client: client}
}

func (r *presenceRepository) SetOnline(ctx context.Context, userID string, online bool) error {
	return chatrepo.SetPresence(ctx, r.client, userID, online)
}
