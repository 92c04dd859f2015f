package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageS3         = "s3"
	StorageFilesystem = "filesystem"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Behind a reverse proxy that sets X-Real-IP / X-Forwarded-For
	TrustProxy bool

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Uploads
	UploadMaxBytes int64

	// Preview cache
	PreviewCacheSize int
	PreviewCacheTTL  time.Duration

	// Observability (optional)
	SentryDSN string

	// Storage driver: "s3" or "filesystem"
	StorageDriver string
	StorageDir    string // filesystem driver only

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
	S3PublicURL     string        // Optional: public bucket or CDN base, makes references permanent
	S3PresignExpiry time.Duration // Used when S3PublicURL is empty - default: 7 days
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Gallery"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:  envRequired("APP_URL"), // Required: base URL for filesystem image references
		Port:    envString("PORT", "8090"),

		TrustProxy: envBool("TRUST_PROXY", false),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/gallery.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		UploadMaxBytes: envInt64("UPLOAD_MAX_BYTES", 32<<20), // 32MB

		PreviewCacheSize: envInt("PREVIEW_CACHE_SIZE", 512),
		PreviewCacheTTL:  envDuration("PREVIEW_CACHE_TTL", 10*time.Minute),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		StorageDriver: envString("STORAGE_DRIVER", StorageS3),
		StorageDir:    envString("STORAGE_DIR", "./data/uploads"),
	}

	if cfg.StorageDriver == StorageS3 {
		cfg.S3Region = envRequired("S3_REGION")
		cfg.S3Bucket = envRequired("S3_BUCKET")
		cfg.S3AccessKey = envRequired("S3_ACCESS_KEY")
		cfg.S3SecretKey = envRequired("S3_SECRET_KEY")
		cfg.S3Endpoint = envString("S3_ENDPOINT", "")   // Optional: for non-AWS providers
		cfg.S3PublicURL = envString("S3_PUBLIC_URL", "") // Optional: CDN or public bucket
		cfg.S3PresignExpiry = envDuration("S3_PRESIGN_EXPIRY", 168*time.Hour)
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures the storage setup is usable outside development.
// Presigned references expire, so production needs a permanent public base.
func validateProduction(cfg *Config) {
	if cfg.StorageDriver == StorageS3 && cfg.S3PublicURL == "" {
		slog.Warn("S3_PUBLIC_URL not set, artwork references are presigned and expire",
			"expiry", cfg.S3PresignExpiry)
	}
	if cfg.StorageDriver == StorageFilesystem {
		slog.Error("production deployment requires STORAGE_DRIVER=s3",
			"hint", "set APP_ENV=development to serve images from the local filesystem")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Secure reports whether cookies should carry the Secure flag.
func (c *Config) Secure() bool {
	return envBool("COOKIE_SECURE", c.IsProduction())
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
// Safe to expose in ctx, templates and client-facing contexts.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName: c.AppName,
		AppEnv:  c.AppEnv,
		AppURL:  c.AppURL,
		Port:    c.Port,

		UploadMaxBytes: c.UploadMaxBytes,

		StorageDriver: c.StorageDriver,
		S3Endpoint:    c.S3Endpoint,  // Needed for CSP policies
		S3PublicURL:   c.S3PublicURL, // Needed for CSP policies
		S3Bucket:      c.S3Bucket,
		S3Region:      c.S3Region,
	}
}
