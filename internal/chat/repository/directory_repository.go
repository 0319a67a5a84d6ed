package repository

import (
	"context"
	"errors"
	"time"

	"marketplace_service/internal/chat/domain"
	"marketplace_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

// DirectoryRepository resolves a user id to a profile/presence snapshot.
// A missing user and a failed lookup both come back as (nil, error); the
// service layer collapses either into "unknown".
type DirectoryRepository interface {
	Lookup(ctx context.Context, userID string) (*domain.ChatUser, error)
}

type directoryRepository struct {
	db       *pgxpool.Pool
	presence *redis.Client
}

// NewDirectoryRepository profile rows from postgres, presence from redis
func NewDirectoryRepository(db *pgxpool.Pool, presence *redis.Client) DirectoryRepository {
	return &directoryRepository{db: db, presence: presence}
}

const presenceKeyPrefix = "presence:"

// Lookup fetch name/avatar from the accounts table and merge the presence flag
func (r *directoryRepository) Lookup(ctx context.Context, userID string) (*domain.ChatUser, error) {
	row := r.db.QueryRow(ctx, "SELECT name, avatar FROM accounts WHERE user_id = $1", userID)

	user := domain.ChatUser{ID: userID}
	if err := row.Scan(&user.Name, &user.Avatar); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.New("user not found")
		}
		return nil, err
	}

	// presence is best effort: a failed read renders the user offline
	online, lastSeen, err := r.readPresence(ctx, userID)
	if err != nil {
		logger.Log.Warn("presence read failed", zap.String("user_id", userID), zap.Error(err))
	} else {
		user.IsOnline = online
		user.LastSeen = lastSeen
	}

	return &user, nil
}

func (r *directoryRepository) readPresence(ctx context.Context, userID string) (bool, *time.Time, error) {
	val, err := r.presence.Get(ctx, presenceKeyPrefix+userID).Result()
	if err == redis.Nil {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	if val == "online" {
		return true, nil, nil
	}
	// offline presence holds the unix time the user was last seen
	if ts, parseErr := time.Parse(time.RFC3339, val); parseErr == nil {
		return false, &ts, nil
	}
	return false, nil, nil
}

// SetPresence mark a user online or record the time they went offline
func SetPresence(ctx context.Context, client *redis.Client, userID string, online bool) error {
	key := presenceKeyPrefix + userID
	if online {
		return client.Set(ctx, key, "online", 0).Err()
	}
	return client.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), 0).Err()
}
