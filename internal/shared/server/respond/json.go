package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Items writes a 200 list response as {"items": [...]}. A nil slice is
// rendered as an empty array.
func Items[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	OK(c, gin.H{"items": items})
}

// NoContent writes a bodyless 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
