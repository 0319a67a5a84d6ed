package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"marketplace_service/internal/market/domain"
	"marketplace_service/internal/market/repository"
	"marketplace_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotSeller a mutation on a post the caller does not own
	ErrNotSeller = errors.New("caller does not own this post")
	// ErrEmptyTitle a listing without a title
	ErrEmptyTitle = errors.New("post title must not be empty")
)

// presignExpiry lifetime of image download links
const presignExpiry = 15 * time.Minute

// ImageStore object storage for post images
type ImageStore interface {
	UploadStream(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// RoomStarter opens (or reuses) the private chat room between two users
type RoomStarter interface {
	FindOrCreatePrivateRoom(ctx context.Context, userA, userB string) (string, error)
}

// MarketUseCase the application services of the market module
type MarketUseCase interface {
	CreatePost(ctx context.Context, sellerID, sellerName, title, description string, price int64) (*domain.Post, error)
	AttachImage(ctx context.Context, sellerID, postID, filename string, reader io.Reader, size int64, contentType string) (string, error)
	GetPost(ctx context.Context, postID string) (*domain.Post, []string, error)
	Search(ctx context.Context, keyword string) ([]domain.Post, error)
	SellerPosts(ctx context.Context, sellerID string) ([]domain.Post, error)
	MarkSold(ctx context.Context, sellerID, postID string) error
	RemovePost(ctx context.Context, sellerID, postID string) error
	Favorite(ctx context.Context, userID, postID string) error
	Unfavorite(ctx context.Context, userID, postID string) error
	ListFavorites(ctx context.Context, userID string) ([]domain.Post, error)
	ChatWithSeller(ctx context.Context, buyerID, postID string) (string, error)
}

type marketUseCase struct {
	postRepo repository.PostRepo
	images   ImageStore
	events   repository.EventPublisher
	rooms    RoomStarter
}

// NewMarketUseCase create a new MarketUseCase. events and rooms may be nil
// when kafka or the chat store are not deployed.
func NewMarketUseCase(postRepo repository.PostRepo,
	images ImageStore,
	events repository.EventPublisher,
	rooms RoomStarter,
) MarketUseCase {
	return &marketUseCase{
		postRepo: postRepo,
		images:   images,
		events:   events,
		rooms:    rooms,
	}
}

// CreatePost create an active listing and publish the created event
func (m *marketUseCase) CreatePost(ctx context.Context, sellerID, sellerName, title, description string, price int64) (*domain.Post, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}

	post := &domain.Post{
		PostID:      uuid.New().String(),
		SellerID:    sellerID,
		SellerName:  sellerName,
		Title:       title,
		Description: description,
		Price:       price,
		Status:      domain.PostActive,
	}

	if err := m.postRepo.Create(post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	m.publishEvent(ctx, domain.PostEventCreated, post)
	return post, nil
}

// AttachImage store one image under the post and record its object key
func (m *marketUseCase) AttachImage(ctx context.Context, sellerID, postID, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	post, err := m.postRepo.GetByPostID(postID)
	if err != nil {
		return "", fmt.Errorf("attach image: %w", err)
	}
	if post.SellerID != sellerID {
		return "", ErrNotSeller
	}

	objectKey := fmt.Sprintf("posts/%s/%s", post.PostID, filename)
	if err := m.images.UploadStream(ctx, objectKey, reader, size, contentType); err != nil {
		return "", fmt.Errorf("attach image: upload: %w", err)
	}

	post.Images = append(post.Images, domain.PostImage{PostRef: post.ID, ObjectKey: objectKey})
	if err := m.postRepo.Update(post); err != nil {
		return "", fmt.Errorf("attach image: record: %w", err)
	}

	m.publishEvent(ctx, domain.PostEventUpdated, post)
	return objectKey, nil
}

// GetPost read one post, bump its view count, presign its image links
func (m *marketUseCase) GetPost(ctx context.Context, postID string) (*domain.Post, []string, error) {
	post, err := m.postRepo.GetByPostID(postID)
	if err != nil {
		return nil, nil, err
	}

	if err := m.postRepo.IncrementViewCount(postID); err != nil {
		logger.Log.Error("view count bump failed", zap.String("post_id", postID), zap.Error(err))
	}

	urls := make([]string, 0, len(post.Images))
	for _, img := range post.Images {
		url, err := m.images.PresignGetURL(ctx, img.ObjectKey, presignExpiry)
		if err != nil {
			logger.Log.Error("presign failed", zap.String("object", img.ObjectKey), zap.Error(err))
			continue
		}
		urls = append(urls, url)
	}

	return post, urls, nil
}

// Search active listings matching the keyword
func (m *marketUseCase) Search(ctx context.Context, keyword string) ([]domain.Post, error) {
	return m.postRepo.SearchPosts(keyword)
}

// SellerPosts every listing of one seller, newest first
func (m *marketUseCase) SellerPosts(ctx context.Context, sellerID string) ([]domain.Post, error) {
	return m.postRepo.FindBySeller(sellerID)
}

// MarkSold flip the post to sold; only its seller may do this
func (m *marketUseCase) MarkSold(ctx context.Context, sellerID, postID string) error {
	return m.setStatus(ctx, sellerID, postID, domain.PostSold, domain.PostEventSold)
}

// RemovePost take the post down; only its seller may do this
func (m *marketUseCase) RemovePost(ctx context.Context, sellerID, postID string) error {
	return m.setStatus(ctx, sellerID, postID, domain.PostRemoved, domain.PostEventRemoved)
}

func (m *marketUseCase) setStatus(ctx context.Context, sellerID, postID, status, eventType string) error {
	post, err := m.postRepo.GetByPostID(postID)
	if err != nil {
		return err
	}
	if post.SellerID != sellerID {
		return ErrNotSeller
	}

	post.Status = status
	if err := m.postRepo.Update(post); err != nil {
		return err
	}

	m.publishEvent(ctx, eventType, post)
	return nil
}

// Favorite bookmark a post
func (m *marketUseCase) Favorite(ctx context.Context, userID, postID string) error {
	post, err := m.postRepo.GetByPostID(postID)
	if err != nil {
		return err
	}
	return m.postRepo.AddFavorite(userID, post.ID)
}

// Unfavorite drop the bookmark
func (m *marketUseCase) Unfavorite(ctx context.Context, userID, postID string) error {
	post, err := m.postRepo.GetByPostID(postID)
	if err != nil {
		return err
	}
	return m.postRepo.RemoveFavorite(userID, post.ID)
}

// ListFavorites the user's bookmarked posts, newest bookmark first
func (m *marketUseCase) ListFavorites(ctx context.Context, userID string) ([]domain.Post, error) {
	return m.postRepo.FavoritesOf(userID)
}

// ChatWithSeller open (or reuse) the buyer-seller chat room for a post
func (m *marketUseCase) ChatWithSeller(ctx context.Context, buyerID, postID string) (string, error) {
	if m.rooms == nil {
		return "", errors.New("chat is not available")
	}

	post, err := m.postRepo.GetByPostID(postID)
	if err != nil {
		return "", err
	}
	if post.SellerID == buyerID {
		return "", errors.New("cannot chat with yourself")
	}

	return m.rooms.FindOrCreatePrivateRoom(ctx, buyerID, post.SellerID)
}

// publishEvent best effort: listing writes never fail on stream hiccups
func (m *marketUseCase) publishEvent(ctx context.Context, eventType string, post *domain.Post) {
	if m.events == nil {
		return
	}

	event := domain.PostEvent{
		Type:      eventType,
		PostID:    post.PostID,
		SellerID:  post.SellerID,
		Title:     post.Title,
		Price:     post.Price,
		Timestamp: time.Now().UTC(),
	}
	if err := m.events.PublishPostEvent(ctx, event); err != nil {
		logger.Log.Error("publish post event failed", zap.String("post_id", post.PostID), zap.String("type", eventType), zap.Error(err))
	}
}
