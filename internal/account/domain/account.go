package domain

import (
	"time"

	"marketplace_service/pkg/encrypt"
)

// AccountStatus account state: 0=offline, 1=online, 2=ban, 3=delete
type AccountStatus int

const (
	// AccountStatusOffline account is signed out
	AccountStatusOffline AccountStatus = iota
	// AccountStatusOnline account has an active session
	AccountStatusOnline
	// AccountStatusBan account is blocked
	AccountStatusBan
	// AccountStatusDelete account is removed
	AccountStatusDelete
)

// Account marketplace user
type Account struct {
	ID       int64
	UserID   string
	Name     string
	Email    string
	Password string
	Avatar   string
	Status   AccountStatus
}

// AccountSession the redis-held login session
type AccountSession struct {
	Token        string    `json:"Token"`
	UserID       string    `json:"UserID"`
	CreatedAt    time.Time `json:"CreatedAt"`
	LastActivity time.Time `json:"LastActivity"`
	ExpiredAt    time.Time `json:"ExpiredAt"`
}

// IsPasswordMatch verify the login password against the stored hash
func (a *Account) IsPasswordMatch(inputPwd string) error {
	return encrypt.CheckPassword(a.Password, inputPwd)
}

// IsExpired check whether the session passed its expiry
func (s *AccountSession) IsExpired() bool {
	return time.Now().After(s.ExpiredAt)
}

// AccountQuery join conditions used to look accounts up
type AccountQuery struct {
	ID     *int64  `db:"id"`
	UserID *string `db:"user_id"`
	Email  *string `db:"email"`
}
