package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token purposes. A token minted for one purpose is rejected for another.
const (
	PurposeSession = "session"
	PurposeConfirm = "confirm"
)

const (
	SessionTTL = 24 * time.Hour
	ConfirmTTL = 72 * time.Hour
)

// Claims represents the identity contained in a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	Purpose string `json:"purpose"`
}

var (
	errMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// Signer issues and verifies HS256 tokens.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

// Sign fills in id, issued-at and expiry and signs the claims.
func (s *Signer) Sign(claims Claims, ttl time.Duration) (string, error) {
	if claims.Subject == "" {
		return "", errors.New("sub is required")
	}
	if claims.Purpose == "" {
		claims.Purpose = PurposeSession
	}
	now := s.now().UTC()
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(s.secret)
}

// Verify parses token and checks signature, expiry and purpose.
func (s *Signer) Verify(token, purpose string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Purpose != purpose {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// SecretFromEnv returns the signing secret, falling back to a fixed dev
// secret outside production.
func SecretFromEnv(env, secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	env = strings.ToLower(strings.TrimSpace(env))
	if env == "production" || env == "prod" {
		if secret == "" {
			return nil, fmt.Errorf("%w: JWT_SECRET required in production", errMissingSecret)
		}
	}
	if secret == "" {
		secret = "dev-secret"
	}
	return []byte(secret), nil
}
