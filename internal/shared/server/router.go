package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"review-analyzer/internal/auth"
	"review-analyzer/internal/sentiments"
	"review-analyzer/internal/services/health"
	"review-analyzer/internal/shared/config"
	"review-analyzer/internal/shared/metrics"
	"review-analyzer/internal/shared/server/middleware"
	"review-analyzer/internal/shared/server/respond"
	"review-analyzer/internal/submission"
	"review-analyzer/internal/users"
	"review-analyzer/internal/web"
)

const analyzeGroup = "ANALYZE"

// RouterDeps carries the handlers and infrastructure the router mounts.
type RouterDeps struct {
	Config     config.Config
	Logger     *zap.Logger
	Sessions   middleware.SessionResolver
	Limiter    middleware.Limiter
	Web        *web.Handler
	Analyze    *submission.Handler
	Sentiments *sentiments.Handler
	Users      *users.Handler
	Google     *auth.GoogleService
	Health     *health.Service
	// FilesDir is served under /files when objects live on local disk.
	FilesDir string
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.Recovery(logger),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Session(deps.Sessions),
		middleware.RateLimit(rateLimitConfig(deps)),
	)

	r.GET("/healthz", func(c *gin.Context) {
		ok, body := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, body)
	})
	r.GET("/metrics", metrics.Handler())
	if deps.FilesDir != "" {
		r.Static("/files", deps.FilesDir)
	}

	if deps.Web != nil {
		deps.Web.Register(r)
	}
	if deps.Google != nil {
		deps.Google.RegisterRoutes(&r.RouterGroup)
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.Analyze != nil {
		deps.Analyze.RegisterRoutes(api)
	}
	private := api.Group("", middleware.RequireUser())
	if deps.Sentiments != nil {
		deps.Sentiments.RegisterRoutes(private)
	}
	if deps.Users != nil {
		deps.Users.RegisterRoutes(private)
	}

	return r
}

// rateLimitConfig throttles the routes that call the Analysis Service or
// accept uploads. Everything else passes through.
func rateLimitConfig(deps RouterDeps) middleware.RateLimitConfig {
	perMin := deps.Config.RateLimitPerMin
	rules := map[string]middleware.RateLimitRule{}
	if perMin > 0 {
		rules[analyzeGroup] = middleware.RateLimitRule{Rate: float64(perMin) / 60.0, Burst: perMin}
	}
	return middleware.RateLimitConfig{
		Rules:   rules,
		Limiter: deps.Limiter,
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method != http.MethodPost {
				return ""
			}
			switch c.FullPath() {
			case "/analyze", "/upload", "/api/v1/analyze":
				return analyzeGroup
			}
			return ""
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
