package sentiments

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"review-analyzer/internal/shared/server/middleware"
	"review-analyzer/internal/shared/server/respond"
)

// Handler exposes the signed-in user's analysis history.
type Handler struct {
	Repo   Repo
	Logger *zap.Logger
}

func NewHandler(repo Repo, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Repo: repo, Logger: logger}
}

// RegisterRoutes attaches history routes. The group must require a user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sentiments", h.list)
	rg.GET("/sentiments/:id", h.get)
	rg.DELETE("/sentiments/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := DefaultListLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a non-negative integer", nil)
			return
		}
		limit = parsed
	}

	records, err := h.Repo.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		if IsTableMissing(err) {
			h.Logger.Warn("sentiments table does not exist; returning empty history", zap.String("user_id", userID))
			respond.Items[Record](c, nil)
			return
		}
		h.Logger.Error("list sentiments failed", zap.String("user_id", userID), zap.Error(err))
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}
	if records == nil {
		records = []Record{}
	}
	respond.Items(c, records)
}

func (h *Handler) get(c *gin.Context) {
	rec, err := h.Repo.GetByID(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		h.writeLookupError(c, err, "failed to fetch analysis")
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Repo.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		h.writeLookupError(c, err, "failed to delete analysis")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) writeLookupError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrNotFound), IsTableMissing(err):
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
	default:
		h.Logger.Error(msg, zap.Error(err))
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}
