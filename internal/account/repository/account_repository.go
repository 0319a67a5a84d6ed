package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"marketplace_service/internal/account/domain"
	errprocess "marketplace_service/pkg/err"
)

// ErrAccountNotFound no account matched the query conditions
var ErrAccountNotFound = errors.New("no account found with given criteria")

// AccountRepository definition get Account info
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	UpdateAccountStatus(ctx context.Context, account *domain.Account) error
	UpdateAvatar(ctx context.Context, userID, avatar string) error
	FindByAccount(ctx context.Context, query *domain.AccountQuery) (*domain.Account, error)
}

type accountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository create an AccountRepository
func NewAccountRepository(db *pgxpool.Pool) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO accounts(user_id, name, email, password, avatar) VALUES ($1, $2, $3, $4, $5)",
		account.UserID, account.Name, account.Email, account.Password, account.Avatar)
	if err != nil {
		return errprocess.Setf("create account", err)
	}
	return nil
}

func (r *accountRepository) UpdateAccountStatus(ctx context.Context, account *domain.Account) error {
	_, err := r.db.Exec(ctx,
		"UPDATE accounts SET status = $1 WHERE user_id = $2",
		account.Status, account.UserID)
	if err != nil {
		return errprocess.Setf("update account status", err)
	}
	return nil
}

func (r *accountRepository) UpdateAvatar(ctx context.Context, userID, avatar string) error {
	_, err := r.db.Exec(ctx,
		"UPDATE accounts SET avatar = $1 WHERE user_id = $2",
		avatar, userID)
	if err != nil {
		return errprocess.Setf("update avatar", err)
	}
	return nil
}

func (r *accountRepository) FindByAccount(ctx context.Context, query *domain.AccountQuery) (*domain.Account, error) {
	queryStr := "SELECT id, user_id, name, email, password, avatar, status FROM accounts WHERE 1=1"
	params := []interface{}{}
	paramCount := 1

	if query.Email != nil {
		queryStr += fmt.Sprintf(" AND email = $%d", paramCount)
		params = append(params, *query.Email)
		paramCount++
	}
	if query.UserID != nil {
		queryStr += fmt.Sprintf(" AND user_id = $%d", paramCount)
		params = append(params, *query.UserID)
		paramCount++
	}
	if query.ID != nil {
		queryStr += fmt.Sprintf(" AND id = $%d", paramCount)
		params = append(params, *query.ID)
		paramCount++
	}

	row := r.db.QueryRow(ctx, queryStr, params...)
	var account domain.Account
	err := row.Scan(&account.ID, &account.UserID, &account.Name, &account.Email,
		&account.Password, &account.Avatar, &account.Status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return &account, nil
}
