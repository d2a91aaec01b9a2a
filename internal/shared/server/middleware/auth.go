package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"review-analyzer/internal/shared/server/respond"
)

// SessionCookie carries the session token for browser requests.
const SessionCookie = "session"

const (
	userIDKey       = "userId"
	userEmailKey    = "userEmail"
	userNameKey     = "userName"
	userPictureKey  = "userPicture"
	sessionTokenKey = "sessionToken"
)

// Identity is the signed-in user attached to a request.
type Identity struct {
	UserID  string
	Email   string
	Name    string
	Picture string
}

// SessionResolver turns a session token into an identity.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (Identity, error)
}

// Session resolves the current user once per request from the session cookie
// or an Authorization bearer token. Requests without a valid token continue
// anonymously.
func Session(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" || resolver == nil {
			c.Next()
			return
		}
		id, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil || id.UserID == "" {
			c.Next()
			return
		}
		c.Set(sessionTokenKey, token)
		c.Set(userIDKey, id.UserID)
		if id.Email != "" {
			c.Set(userEmailKey, id.Email)
		}
		if id.Name != "" {
			c.Set(userNameKey, id.Name)
		}
		if id.Picture != "" {
			c.Set(userPictureKey, id.Picture)
		}
		c.Next()
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if UserIDFromContext(c) == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if authHeader := strings.TrimSpace(c.GetHeader("Authorization")); authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// UserIDFromContext fetches the user ID set by the session middleware.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the session middleware.
func UserEmailFromContext(c *gin.Context) string {
	return stringFromContext(c, userEmailKey)
}

func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, userNameKey)
}

func UserPictureFromContext(c *gin.Context) string {
	return stringFromContext(c, userPictureKey)
}

// SessionTokenFromContext returns the token that authenticated the request.
func SessionTokenFromContext(c *gin.Context) string {
	return stringFromContext(c, sessionTokenKey)
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
