package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port              string
	BaseURL           string
	CORSAllowOrigin   []string
	Env               string
	DatabaseURL       string
	DBDriver          string
	MigrateOnStart    bool
	ObjectStoreType   string
	LocalStoreDir     string
	VideoBucket       string
	AWSRegion         string
	S3Endpoint        string
	S3Prefix          string
	S3AccessKey       string
	S3SecretKey       string
	MinioEndpoint     string
	MinioAccessKey    string
	MinioSecretKey    string
	MinioUseSSL       bool
	AnalysisURL       string
	AnalysisTimeout   int
	RedisURL          string
	ValkeyAddr        string
	KafkaBrokers      []string
	KafkaTopic        string
	JWTSecret         string
	GoogleClientID    string
	GoogleSecret      string
	GoogleRedirectURL string
	VideoProbe        bool
	MaxUploadMB       int
	RateLimitPerMin   int
}

// Load reads configuration from environment variables with sensible defaults.
// Values from CONFIG_FILE (YAML) fill in anything the environment leaves unset.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := applyFile(path); err != nil {
			log.Printf("config: %v", err)
		}
	}

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	port := getEnv("PORT", "8080")
	return Config{
		Port:              port,
		BaseURL:           strings.TrimRight(getEnv("BASE_URL", "http://localhost:"+strings.TrimPrefix(port, ":")), "/"),
		CORSAllowOrigin:   splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		Env:               env,
		DatabaseURL:       dbURL,
		DBDriver:          normalizeDriver(getEnv("DB_DRIVER", "pgx")),
		MigrateOnStart:    getBool("DB_MIGRATE_ON_START", env != "production"),
		ObjectStoreType:   normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:     getEnv("LOCAL_STORE_DIR", "./data"),
		VideoBucket:       getEnv("VIDEO_BUCKET", "videos"),
		AWSRegion:         getEnv("AWS_REGION", ""),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Prefix:          getEnv("S3_PREFIX", ""),
		S3AccessKey:       getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:       getEnv("S3_SECRET_ACCESS_KEY", ""),
		MinioEndpoint:     getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:    getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:    getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:       getBool("MINIO_USE_SSL", false),
		AnalysisURL:       strings.TrimRight(getEnv("ANALYSIS_SERVICE_URL", ""), "/"),
		AnalysisTimeout:   getInt("ANALYSIS_TIMEOUT_SECONDS", 600),
		RedisURL:          getEnv("REDIS_URL", ""),
		ValkeyAddr:        getEnv("VALKEY_ADDR", ""),
		KafkaBrokers:      splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "analysis.completed"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:      getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL: getEnv("GOOGLE_REDIRECT_URL", ""),
		VideoProbe:        getBool("VIDEO_PROBE", false),
		MaxUploadMB:       getInt("MAX_UPLOAD_MB", 200),
		RateLimitPerMin:   getInt("RATE_LIMIT_PER_MINUTE", 30),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config %s invalid bool: %v", key, err)
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

func normalizeDriver(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pq", "libpq":
		return "postgres"
	default:
		return "pgx"
	}
}

// IsDevLike reports whether env allows in-memory fallbacks.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
