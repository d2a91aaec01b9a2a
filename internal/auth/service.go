package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	sharedauth "review-analyzer/internal/shared/auth"
	"review-analyzer/internal/shared/server/middleware"
	"review-analyzer/internal/users"
)

// Session is an issued session token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      users.User
}

type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	// RedirectTo is the confirmation landing page; the token is appended.
	RedirectTo string
}

// Service is the auth gateway: password accounts, email confirmation and
// session tokens.
type Service struct {
	Users   users.Repo
	Signer  *sharedauth.Signer
	Revoker Revoker
	Mailer  Mailer
	Logger  *zap.Logger

	now func() time.Time
}

func NewService(repo users.Repo, signer *sharedauth.Signer, revoker Revoker, mailer Mailer, logger *zap.Logger) *Service {
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	if mailer == nil {
		mailer = LogMailer{Logger: logger}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Users: repo, Signer: signer, Revoker: revoker, Mailer: mailer, Logger: logger, now: time.Now}
}

// SignUp validates the form, stores the account unconfirmed and mails a
// confirmation link.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) error {
	if s == nil || s.Users == nil || s.Signer == nil {
		return ErrNotConfigured
	}
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return &ValidationError{Message: MsgFillAllFields}
	}
	if in.Password != in.ConfirmPassword {
		return &ValidationError{Message: MsgPasswordsDiffer}
	}
	if len(in.Password) < minPasswordLength {
		return &ValidationError{Message: MsgPasswordTooShort}
	}
	if strings.TrimSpace(in.RedirectTo) == "" {
		return errors.New("confirmation redirect is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user, err := s.Users.Create(ctx, users.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Provider:     users.ProviderPassword,
	})
	if err != nil {
		return err
	}

	token, err := s.Signer.Sign(sharedauth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
		Email:            user.Email,
		Purpose:          sharedauth.PurposeConfirm,
	}, sharedauth.ConfirmTTL)
	if err != nil {
		return fmt.Errorf("sign confirmation: %w", err)
	}
	link, err := appendToken(in.RedirectTo, token)
	if err != nil {
		return fmt.Errorf("build confirmation link: %w", err)
	}
	if err := s.Mailer.SendConfirmation(ctx, user.Email, link); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	s.Logger.Info("user signed up", zap.String("user_id", user.ID))
	return nil
}

// Confirm activates the account named by a confirmation token.
func (s *Service) Confirm(ctx context.Context, token string) (users.User, error) {
	if s == nil || s.Users == nil || s.Signer == nil {
		return users.User{}, ErrNotConfigured
	}
	claims, err := s.Signer.Verify(strings.TrimSpace(token), sharedauth.PurposeConfirm)
	if err != nil {
		return users.User{}, ErrInvalidLink
	}
	// Links are single use: a replayed or already-consumed link is invalid.
	revoked, err := s.Revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return users.User{}, err
	}
	if revoked {
		return users.User{}, ErrInvalidLink
	}
	user, err := s.Users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, ErrInvalidLink
		}
		return users.User{}, err
	}
	if user.Confirmed() {
		return users.User{}, ErrInvalidLink
	}
	if err := s.Users.MarkConfirmed(ctx, claims.Subject, s.now()); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, ErrInvalidLink
		}
		return users.User{}, err
	}
	until := s.now().Add(sharedauth.ConfirmTTL)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := s.Revoker.Revoke(ctx, claims.ID, until); err != nil {
		s.Logger.Warn("confirmation link revoke failed", zap.Error(err))
	}
	return s.Users.GetByID(ctx, claims.Subject)
}

// SignIn checks credentials and issues a session for a confirmed account.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	if s == nil || s.Users == nil || s.Signer == nil {
		return Session{}, ErrNotConfigured
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, &ValidationError{Message: MsgMissingCredentials}
	}
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	if !user.Confirmed() {
		return Session{}, ErrEmailNotConfirmed
	}
	return s.IssueSession(user)
}

// IssueSession signs a session token for user.
func (s *Service) IssueSession(user users.User) (Session, error) {
	token, err := s.Signer.Sign(sharedauth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
		Email:            user.Email,
		Name:             user.FullName,
		Picture:          user.PictureURL,
		Purpose:          sharedauth.PurposeSession,
	}, sharedauth.SessionTTL)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}
	return Session{Token: token, ExpiresAt: s.now().Add(sharedauth.SessionTTL), User: user}, nil
}

// SignOut revokes the session token. Invalid tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if s == nil || s.Signer == nil {
		return ErrNotConfigured
	}
	claims, err := s.Signer.Verify(token, sharedauth.PurposeSession)
	if err != nil {
		return nil
	}
	until := s.now().Add(sharedauth.SessionTTL)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return s.Revoker.Revoke(ctx, claims.ID, until)
}

// CurrentUser returns the user behind a live session token.
func (s *Service) CurrentUser(ctx context.Context, token string) (users.User, error) {
	claims, err := s.verifySession(ctx, token)
	if err != nil {
		return users.User{}, err
	}
	user, err := s.Users.GetByID(ctx, claims.Subject)
	if err != nil {
		return users.User{}, err
	}
	return user, nil
}

// ResolveSession implements middleware.SessionResolver from token claims
// alone, without a database round trip.
func (s *Service) ResolveSession(ctx context.Context, token string) (middleware.Identity, error) {
	claims, err := s.verifySession(ctx, token)
	if err != nil {
		return middleware.Identity{}, err
	}
	return middleware.Identity{
		UserID:  claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

func (s *Service) verifySession(ctx context.Context, token string) (sharedauth.Claims, error) {
	if s == nil || s.Signer == nil {
		return sharedauth.Claims{}, ErrNotConfigured
	}
	claims, err := s.Signer.Verify(token, sharedauth.PurposeSession)
	if err != nil {
		return sharedauth.Claims{}, err
	}
	revoked, err := s.Revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.Logger.Warn("revocation check failed", zap.Error(err))
		return sharedauth.Claims{}, err
	}
	if revoked {
		return sharedauth.Claims{}, ErrRevoked
	}
	return claims, nil
}

func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
