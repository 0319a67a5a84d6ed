package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"marketplace_service/internal/market/domain"
	"marketplace_service/internal/market/repository"
	"marketplace_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}

// fakeImageStore in-memory object store
type fakeImageStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{objects: make(map[string][]byte)}
}

func (s *fakeImageStore) UploadStream(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectName] = data
	return nil
}

func (s *fakeImageStore) PresignGetURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[objectName]; !ok {
		return "", fmt.Errorf("object %s not found", objectName)
	}
	return "https://cdn.test/" + objectName, nil
}

// fakeEventPublisher records published events
type fakeEventPublisher struct {
	mu     sync.Mutex
	events []domain.PostEvent
}

func (p *fakeEventPublisher) PublishPostEvent(_ context.Context, event domain.PostEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakeEventPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fakeRoomStarter records the requested private room pair
type fakeRoomStarter struct {
	lastA, lastB string
}

func (r *fakeRoomStarter) FindOrCreatePrivateRoom(_ context.Context, userA, userB string) (string, error) {
	r.lastA, r.lastB = userA, userB
	return "room-" + userA + "-" + userB, nil
}

func newTestUsecase(t *testing.T) (MarketUseCase, *fakeImageStore, *fakeEventPublisher, *fakeRoomStarter) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	repo := repository.NewPostRepo(db)
	require.NoError(t, repo.AutoMigrate())

	images := newFakeImageStore()
	events := &fakeEventPublisher{}
	rooms := &fakeRoomStarter{}
	return NewMarketUseCase(repo, images, events, rooms), images, events, rooms
}

func TestMarketUseCase_CreatePost(t *testing.T) {
	ctx := context.Background()
	uc, _, events, _ := newTestUsecase(t)

	post, err := uc.CreatePost(ctx, "seller-1", "Sam", "Bookshelf", "Oak, good shape", 50)
	require.NoError(t, err)
	assert.NotEmpty(t, post.PostID)
	assert.Equal(t, domain.PostActive, post.Status)
	assert.Equal(t, []string{domain.PostEventCreated}, events.types())
}

func TestMarketUseCase_CreatePost_EmptyTitle(t *testing.T) {
	ctx := context.Background()
	uc, _, events, _ := newTestUsecase(t)

	_, err := uc.CreatePost(ctx, "seller-1", "Sam", "", "no title", 10)
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Empty(t, events.types())
}

func TestMarketUseCase_AttachImageAndGet(t *testing.T) {
	ctx := context.Background()
	uc, images, _, _ := newTestUsecase(t)

	post, err := uc.CreatePost(ctx, "seller-1", "Sam", "Bookshelf", "", 50)
	require.NoError(t, err)

	key, err := uc.AttachImage(ctx, "seller-1", post.PostID, "front.jpg",
		bytes.NewReader([]byte("jpeg-bytes")), 10, "image/jpeg")
	require.NoError(t, err)
	assert.Contains(t, images.objects, key)

	got, urls, err := uc.GetPost(ctx, post.PostID)
	require.NoError(t, err)
	assert.Len(t, got.Images, 1)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://cdn.test/"+key, urls[0])
}

func TestMarketUseCase_AttachImage_NotSeller(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := newTestUsecase(t)

	post, err := uc.CreatePost(ctx, "seller-1", "Sam", "Bookshelf", "", 50)
	require.NoError(t, err)

	_, err = uc.AttachImage(ctx, "someone-else", post.PostID, "front.jpg",
		bytes.NewReader([]byte("jpeg-bytes")), 10, "image/jpeg")
	assert.ErrorIs(t, err, ErrNotSeller)
}

func TestMarketUseCase_GetPostBumpsViews(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := newTestUsecase(t)

	post, err := uc.CreatePost(ctx, "seller-1", "Sam", "Bookshelf", "", 50)
	require.NoError(t, err)

	_, _, err = uc.GetPost(ctx, post.PostID)
	require.NoError(t, err)
	got, _, err := uc.GetPost(ctx, post.PostID)
	require.NoError(t, err)

	// the second read sees the first read's bump
	assert.Equal(t, int64(1), got.ViewCount)
}

func TestMarketUseCase_MarkSoldAndRemove(t *testing.T) {
	ctx := context.Background()
	uc, _, events, _ := newTestUsecase(t)

	post, err := uc.CreatePost(ctx, "seller-1", "Sam", "Bookshelf", "", 50)
	require.NoError(t, err)

	assert.ErrorIs(t, uc.MarkSold(ctx, "someone-else", post.PostID), ErrNotSeller)
	require.NoError(t, uc.MarkSold(ctx, "seller-1", post.PostID))

	got, _, err := uc.GetPost(ctx, post.PostID)
	require.NoError(t, err)
	assert.Equal(t, domain.PostSold, got.Status)

	require.NoError(t, uc.RemovePost(ctx, "seller-1", post.PostID))
	assert.Equal(t,
		[]string{domain.PostEventCreated, domain.PostEventSold, domain.PostEventRemoved},
		events.types())
}

func TestMarketUseCase_ChatWithSeller(t *testing.T) {
	ctx := context.Background()
	uc, _, _, rooms := newTestUsecase(t)

	post, err := uc.CreatePost(ctx, "seller-1", "Sam", "Bookshelf", "", 50)
	require.NoError(t, err)

	roomID, err := uc.ChatWithSeller(ctx, "buyer-1", post.PostID)
	require.NoError(t, err)
	assert.NotEmpty(t, roomID)
	assert.Equal(t, "buyer-1", rooms.lastA)
	assert.Equal(t, "seller-1", rooms.lastB)

	// the seller has no one to open a room with
	_, err = uc.ChatWithSeller(ctx, "seller-1", post.PostID)
	assert.Error(t, err)
}

func TestMarketUseCase_Favorites(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := newTestUsecase(t)

	post, err := uc.CreatePost(ctx, "seller-1", "Sam", "Bookshelf", "", 50)
	require.NoError(t, err)

	require.NoError(t, uc.Favorite(ctx, "buyer-1", post.PostID))
	favs, err := uc.ListFavorites(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	require.NoError(t, uc.Unfavorite(ctx, "buyer-1", post.PostID))
	favs, err = uc.ListFavorites(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, favs)
}
