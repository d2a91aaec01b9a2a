package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"

	"review-analyzer/internal/analysis"
	"review-analyzer/internal/auth"
	"review-analyzer/internal/pipeline"
	"review-analyzer/internal/queue"
	"review-analyzer/internal/sentiments"
	"review-analyzer/internal/services/health"
	sharedauth "review-analyzer/internal/shared/auth"
	"review-analyzer/internal/shared/config"
	"review-analyzer/internal/shared/server"
	"review-analyzer/internal/shared/server/middleware"
	"review-analyzer/internal/shared/storage/db"
	"review-analyzer/internal/shared/storage/object"
	localstore "review-analyzer/internal/shared/storage/object/local"
	miniostore "review-analyzer/internal/shared/storage/object/minio"
	s3store "review-analyzer/internal/shared/storage/object/s3"
	"review-analyzer/internal/submission"
	"review-analyzer/internal/uploads"
	"review-analyzer/internal/users"
	"review-analyzer/internal/web"
)

const (
	localFilesPrefix = "/files"
	probeTimeout     = 30 * time.Second
	rateLimitWindow  = time.Minute
)

// App holds shared dependencies and the wired router.
type App struct {
	Config     config.Config
	Logger     *zap.Logger
	Router     *gin.Engine
	DB         *sql.DB
	Store      object.ObjectStore
	Queue      queue.Client
	Workspaces *web.Workspaces

	closers []func() error
}

// Build wires every dependency from cfg. In dev-like environments a missing
// or unreachable database falls back to in-memory repositories.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	app := &App{Config: cfg, Logger: logger}

	sqlDB, err := buildDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if sqlDB != nil {
		app.DB = sqlDB
		app.closers = append(app.closers, sqlDB.Close)
	}

	store, filesDir, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	publisher, err := buildQueue(cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Queue = publisher
	if kc, ok := publisher.(*queue.KafkaClient); ok {
		app.closers = append(app.closers, kc.Close)
	}

	analyzer, err := buildAnalyzer(cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	secret, err := sharedauth.SecretFromEnv(cfg.Env, cfg.JWTSecret)
	if err != nil {
		app.Close()
		return nil, err
	}

	var (
		sentimentRepo sentiments.Repo
		userRepo      users.Repo
	)
	if app.DB != nil {
		sentimentRepo = &sentiments.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		sentimentRepo = sentiments.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	revoker, err := app.buildRevoker(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	limiter := app.buildLimiter(cfg)

	userSvc := users.NewService(userRepo)
	authSvc := auth.NewService(userRepo, sharedauth.NewSigner(secret), revoker, auth.LogMailer{Logger: logger}, logger)
	secure := strings.HasPrefix(cfg.BaseURL, "https://")

	var google *auth.GoogleService
	if cfg.GoogleClientID != "" {
		redirect := cfg.GoogleRedirectURL
		if redirect == "" {
			redirect = cfg.BaseURL + "/auth/google/callback"
		}
		google = auth.NewGoogleService(cfg.GoogleClientID, cfg.GoogleSecret, redirect, cfg.BaseURL+"/", authSvc, userSvc, secure)
	}

	runner := pipeline.NewRunner(sentimentRepo, logger)
	uploadOpts := uploads.Options{
		MaxBytes: int64(cfg.MaxUploadMB) << 20,
		Logger:   logger,
	}
	if cfg.VideoProbe {
		uploadOpts.Prober = uploads.FFProbe{Timeout: probeTimeout}
	}
	app.Workspaces = web.NewWorkspaces(web.NewWorkspaceFactory(web.WorkspaceDeps{
		Runner:    runner,
		Analyzer:  analyzer,
		Objects:   store,
		Upload:    uploadOpts,
		Publisher: publisher,
		Logger:    logger,
	}), 0)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:   cfg,
		Logger:   logger,
		Sessions: authSvc,
		Limiter:  limiter,
		Web: &web.Handler{
			Workspaces:     app.Workspaces,
			Auth:           authSvc,
			Logger:         logger,
			BaseURL:        cfg.BaseURL,
			SecureCookies:  secure,
			GoogleEnabled:  google != nil,
			MaxUploadBytes: uploadOpts.MaxBytes,
			ProbeUploads:   cfg.VideoProbe,
		},
		Analyze:    submission.NewHandler(runner, analyzer, web.CompletionHandler(nil, publisher, logger)),
		Sentiments: sentiments.NewHandler(sentimentRepo, logger),
		Users:      users.NewHandler(userSvc),
		Google:     google,
		Health:     health.NewService(pingerOrNil(app.DB)),
		FilesDir:   filesDir,
	})

	return app, nil
}

// Close releases connections opened by Build, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config, logger *zap.Logger) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			logger.Info("DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	opts.Driver = cfg.DBDriver
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			logger.Warn("database connect failed; using in-memory repositories", zap.Error(err))
			return nil, nil
		}
		return nil, err
	}

	if cfg.MigrateOnStart {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

// buildStore returns the configured object store and, for local storage,
// the directory the router serves under /files.
func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, string, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, s3store.Options{
			Region:    cfg.AWSRegion,
			Bucket:    cfg.VideoBucket,
			Prefix:    cfg.S3Prefix,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		return store, "", err
	case "minio":
		store, err := miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Region:    cfg.AWSRegion,
			Bucket:    cfg.VideoBucket,
		})
		return store, "", err
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.VideoBucket, localFilesPrefix), cfg.LocalStoreDir, nil
	}
}

func buildQueue(cfg config.Config, logger *zap.Logger) (queue.Client, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return queue.Noop{}, nil
	}
	client, err := queue.NewKafkaClient(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			logger.Warn("kafka unavailable; completion events are dropped", zap.Error(err))
			return queue.Noop{}, nil
		}
		return nil, err
	}
	return client, nil
}

func buildAnalyzer(cfg config.Config, logger *zap.Logger) (analysis.Analyzer, error) {
	if cfg.AnalysisURL == "" {
		logger.Warn("ANALYSIS_SERVICE_URL empty; url analysis is disabled")
		return analysis.Placeholder{}, nil
	}
	return analysis.NewClient(cfg.AnalysisURL, time.Duration(cfg.AnalysisTimeout)*time.Second)
}

func (a *App) buildRevoker(ctx context.Context, cfg config.Config) (auth.Revoker, error) {
	if cfg.RedisURL == "" {
		return auth.NewMemoryRevoker(), nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if config.IsDevLike(cfg.Env) {
			a.Logger.Warn("redis unavailable; revocations kept in memory", zap.Error(err))
			return auth.NewMemoryRevoker(), nil
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	return auth.NewRedisRevoker(client), nil
}

// buildLimiter shares rate-limit counters through Valkey when configured.
// A nil result makes the router fall back to its in-process limiter.
func (a *App) buildLimiter(cfg config.Config) middleware.Limiter {
	if cfg.ValkeyAddr == "" {
		return nil
	}
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{cfg.ValkeyAddr}})
	if err != nil {
		a.Logger.Warn("valkey unavailable; using in-process rate limiter", zap.Error(err))
		return nil
	}
	a.closers = append(a.closers, func() error {
		client.Close()
		return nil
	})
	return middleware.NewValkeyLimiter(client, rateLimitWindow, a.Logger)
}

func pingerOrNil(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}
