package domain

import "time"

// Post status values
const (
	// PostActive post is listed and buyable
	PostActive = "active"
	// PostSold post has been sold
	PostSold = "sold"
	// PostRemoved post was taken down by the seller
	PostRemoved = "removed"
)

// Post a marketplace listing
type Post struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	PostID      string `gorm:"uniqueIndex;size:36" json:"post_id"`
	SellerID    string `gorm:"index;size:36" json:"seller_id"`
	SellerName  string `json:"seller_name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Status      string `gorm:"index" json:"status"`
	ViewCount   int64  `json:"view_count"`

	Images []PostImage `gorm:"foreignKey:PostRef" json:"images"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostImage one stored image of a post; ObjectKey is the MinIO object name
type PostImage struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	PostRef   uint   `gorm:"index" json:"-"`
	ObjectKey string `json:"object_key"`
}

// Favorite a user's bookmark on a post
type Favorite struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  string `gorm:"index:idx_fav_user_post,unique;size:36" json:"user_id"`
	PostRef uint   `gorm:"index:idx_fav_user_post,unique" json:"post_ref"`

	CreatedAt time.Time `json:"created_at"`
}

// PostEvent kafka payload for post lifecycle changes
type PostEvent struct {
	Type      string    `json:"type"` // created / updated / sold / removed
	PostID    string    `json:"post_id"`
	SellerID  string    `json:"seller_id"`
	Title     string    `json:"title"`
	Price     int64     `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Post event types
const (
	// PostEventCreated a new listing went up
	PostEventCreated = "created"
	// PostEventUpdated a listing changed
	PostEventUpdated = "updated"
	// PostEventSold a listing was marked sold
	PostEventSold = "sold"
	// PostEventRemoved a listing was taken down
	PostEventRemoved = "removed"
)
