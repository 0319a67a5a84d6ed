package app

import (
	"context"
	"errors"
	"time"

	"marketplace_service/internal/account/domain"
	"marketplace_service/internal/account/repository"
	"marketplace_service/pkg/config"
	"marketplace_service/pkg/database"
	"marketplace_service/pkg/encrypt"
	"marketplace_service/pkg/logger"
	"marketplace_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEmailExists registration with an email that already has an account
var ErrEmailExists = errors.New("email already exists")

// AccountUseCase the application services of the account module
type AccountUseCase interface {
	Register(ctx context.Context, name, email, password string) error
	FindAccount(ctx context.Context, query *domain.AccountQuery) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
	ForceLogout(ctx context.Context, userID string) error
	CheckSessionTimeout(ctx context.Context, token string) (bool, error)
	ReconnectSession(ctx context.Context, token string) error
}

type accountUseCase struct {
	accountRepo repository.AccountRepository
	presence    repository.PresenceRepository
	sessionTTL  time.Duration
	redisRepo   database.RedisRepository[domain.AccountSession]
}

// NewAccountUseCase create a new AccountUseCase
func NewAccountUseCase(accountRepo repository.AccountRepository,
	presence repository.PresenceRepository,
	sessionTTL time.Duration,
	redisRepo database.RedisRepository[domain.AccountSession],
) AccountUseCase {
	return &accountUseCase{
		accountRepo: accountRepo,
		presence:    presence,
		sessionTTL:  sessionTTL,
		redisRepo:   redisRepo,
	}
}

// Register create an account with a hashed password
func (a *accountUseCase) Register(ctx context.Context, name, email, password string) error {
	if _, err := a.accountRepo.FindByAccount(ctx, &domain.AccountQuery{Email: &email}); err == nil {
		return ErrEmailExists
	}

	if err := encrypt.ValidatePasswordStrength(password); err != nil {
		return err
	}

	pw, err := encrypt.HashPassword(password)
	if err != nil {
		return err
	}

	account := domain.Account{
		UserID:   uuid.New().String(),
		Name:     name,
		Email:    email,
		Password: pw,
	}

	logger.Log.Info("register account", zap.String("user_id", account.UserID), zap.String("email", email))

	return a.accountRepo.CreateAccount(ctx, &account)
}

// FindAccount look an account up by the given conditions
func (a *accountUseCase) FindAccount(ctx context.Context, query *domain.AccountQuery) (*domain.Account, error) {
	return a.accountRepo.FindByAccount(ctx, query)
}

// Login verify credentials, open a session, mark the account online
func (a *accountUseCase) Login(ctx context.Context, email, password string) (string, error) {
	account, err := a.accountRepo.FindByAccount(ctx, &domain.AccountQuery{Email: &email})
	if err != nil {
		logger.Log.Error("login: email not found", zap.String("email", email))
		return "", errors.New("user not found")
	}

	if err = account.IsPasswordMatch(password); err != nil {
		logger.Log.Error("login: password mismatch", zap.String("user_id", account.UserID))
		return "", err
	}

	account.Status = domain.AccountStatusOnline

	t, err := token.GenerateJWT(account.UserID, account.Name, string(token.RoleUser), config.EnvConfig.MarketService)
	if err != nil {
		return "", err
	}

	now := time.Now()
	session := domain.AccountSession{
		Token:        t,
		UserID:       account.UserID,
		CreatedAt:    now,
		LastActivity: now,
		ExpiredAt:    now.Add(a.sessionTTL),
	}

	if err := a.redisRepo.Set(ctx, account.UserID, session, a.sessionTTL); err != nil {
		return "", err
	}

	if err := a.accountRepo.UpdateAccountStatus(ctx, account); err != nil {
		return "", err
	}

	if err := a.presence.SetOnline(ctx, account.UserID, true); err != nil {
		logger.Log.Error("login: presence update failed", zap.String("user_id", account.UserID), zap.Error(err))
	}

	return t, nil
}

// Logout drop the session and mark the account offline
func (a *accountUseCase) Logout(ctx context.Context, t string) error {
	tokenInfo, err := token.ParseJWT(t)
	if err != nil {
		logger.Log.Error("logout: parse token failed", zap.Error(err))
		return err
	}

	if err := a.redisRepo.Del(ctx, tokenInfo.UserID); err != nil {
		logger.Log.Error("logout: session delete failed", zap.String("user_id", tokenInfo.UserID), zap.Error(err))
	}

	if err := a.accountRepo.UpdateAccountStatus(ctx, &domain.Account{
		UserID: tokenInfo.UserID,
		Status: domain.AccountStatusOffline,
	}); err != nil {
		return err
	}

	if err := a.presence.SetOnline(ctx, tokenInfo.UserID, false); err != nil {
		logger.Log.Error("logout: presence update failed", zap.String("user_id", tokenInfo.UserID), zap.Error(err))
	}
	return nil
}

// ForceLogout clear every session the user holds
func (a *accountUseCase) ForceLogout(ctx context.Context, userID string) error {
	if err := a.redisRepo.Del(ctx, userID); err != nil {
		logger.Log.Error("force logout: session delete failed", zap.String("user_id", userID), zap.Error(err))
	}

	if err := a.accountRepo.UpdateAccountStatus(ctx, &domain.Account{
		UserID: userID,
		Status: domain.AccountStatusOffline,
	}); err != nil {
		return err
	}

	if err := a.presence.SetOnline(ctx, userID, false); err != nil {
		logger.Log.Error("force logout: presence update failed", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

// CheckSessionTimeout report whether the session behind the token lapsed
func (a *accountUseCase) CheckSessionTimeout(ctx context.Context, t string) (bool, error) {
	tokenInfo, err := token.ParseJWT(t)
	if err != nil {
		return true, err
	}

	ttl, err := a.redisRepo.GetTTL(ctx, tokenInfo.UserID)
	if err != nil {
		return true, err
	}

	return ttl <= 0, nil
}

// ReconnectSession refresh the session TTL after a reconnect
func (a *accountUseCase) ReconnectSession(ctx context.Context, t string) error {
	tokenInfo, err := token.ParseJWT(t)
	if err != nil {
		return err
	}

	return a.redisRepo.ExtendTTL(ctx, tokenInfo.UserID, a.sessionTTL)
}
