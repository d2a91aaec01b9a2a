package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"review-analyzer/internal/shared/server/middleware"
)

// SetSessionCookie stores the session token in an HttpOnly cookie.
func SetSessionCookie(c *gin.Context, sess Session, secure bool) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, sess.Token, maxAge, "/", "", secure, true)
}

func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", secure, true)
}
