package repository

import (
	"marketplace_service/internal/market/domain"

	"gorm.io/gorm"
)

// PostRepo definition get post info
type PostRepo interface {
	AutoMigrate() error
	Create(post *domain.Post) error
	GetByPostID(postID string) (*domain.Post, error)
	Update(post *domain.Post) error
	IncrementViewCount(postID string) error
	FindBySeller(sellerID string) ([]domain.Post, error)
	SearchPosts(keyword string) ([]domain.Post, error)
	AddFavorite(userID string, postRef uint) error
	RemoveFavorite(userID string, postRef uint) error
	FavoritesOf(userID string) ([]domain.Post, error)
}

type postRepo struct {
	db *gorm.DB
}

// NewPostRepo create PostRepo
func NewPostRepo(db *gorm.DB) PostRepo {
	return &postRepo{db: db}
}

func (r *postRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Post{}, &domain.PostImage{}, &domain.Favorite{})
}

func (r *postRepo) Create(post *domain.Post) error {
	return r.db.Create(post).Error
}

func (r *postRepo) GetByPostID(postID string) (*domain.Post, error) {
	var p domain.Post
	if err := r.db.Preload("Images").Where("post_id = ?", postID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepo) Update(post *domain.Post) error {
	return r.db.Save(post).Error
}

func (r *postRepo) IncrementViewCount(postID string) error {
	return r.db.Model(&domain.Post{}).
		Where("post_id = ?", postID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *postRepo) FindBySeller(sellerID string) ([]domain.Post, error) {
	var posts []domain.Post
	if err := r.db.Preload("Images").
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// SearchPosts case-insensitive fuzzy match on title or description, active only
func (r *postRepo) SearchPosts(keyword string) ([]domain.Post, error) {
	var posts []domain.Post
	like := "%" + keyword + "%"
	if err := r.db.Preload("Images").
		Where("(LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)) AND status = ?",
			like, like, domain.PostActive).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepo) AddFavorite(userID string, postRef uint) error {
	fav := domain.Favorite{UserID: userID, PostRef: postRef}
	return r.db.Where(&fav).FirstOrCreate(&fav).Error
}

func (r *postRepo) RemoveFavorite(userID string, postRef uint) error {
	return r.db.Where("user_id = ? AND post_ref = ?", userID, postRef).
		Delete(&domain.Favorite{}).Error
}

func (r *postRepo) FavoritesOf(userID string) ([]domain.Post, error) {
	var posts []domain.Post
	if err := r.db.Preload("Images").
		Joins("JOIN favorites ON favorites.post_ref = posts.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}
