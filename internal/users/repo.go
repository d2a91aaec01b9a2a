package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already registered")
)

type Repo interface {
	// Create inserts a new user; an email already in use fails with ErrDuplicate.
	Create(ctx context.Context, user User) (User, error)
	// Upsert writes an externally authenticated identity keyed by ID.
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	MarkConfirmed(ctx context.Context, userID string, at time.Time) error
}
