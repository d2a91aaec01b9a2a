package users

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotConfigured = errors.New("users service not configured")
	ErrInvalidUser   = errors.New("user id and email are required")
)

type Service struct {
	Repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, now: time.Now}
}

// UpsertFromAuth persists an identity vouched for by an external provider.
// Such identities are confirmed on first sight.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return ErrNotConfigured
	}
	user.ID = strings.TrimSpace(user.ID)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.ID == "" || user.Email == "" {
		return ErrInvalidUser
	}
	if user.ConfirmedAt == nil {
		at := s.clock().UTC()
		user.ConfirmedAt = &at
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, ErrNotConfigured
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
