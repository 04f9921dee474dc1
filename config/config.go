package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Google    GoogleConfig
	Cookie    CookieConfig
	AWS       AWSConfig
	Uploads   UploadsConfig
	CMS       CMSConfig
	Sync      SyncConfig
	Directory DirectoryConfig
	Worker    WorkerConfig
	Admin     AdminConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,http://localhost:3001)
	PublicBaseURL      string // hub origin used for OAuth redirects and post-login landing
	LoginURL           string // hub sign-in page unauthenticated browsers are sent to
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/firstindallas?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds session token signing settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
	CookieName  string
	Secure      bool
}

// GoogleConfig holds the Google sign-in client.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// CookieConfig holds securecookie keys for the OAuth state cookie.
type CookieConfig struct {
	HashKey  string
	BlockKey string // optional; 16, 24 or 32 bytes enables encryption
}

// AWSConfig holds AWS credentials and the event images bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ImagesBucket    string
	PublicBaseURL   string // optional CDN origin in front of the bucket
}

// UploadsConfig bounds organizer image uploads.
type UploadsConfig struct {
	MaxImageBytes int64
	MaxImageWidth int
}

// CMSConfig points at the external events API.
type CMSConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

// SyncConfig controls sync task polling.
type SyncConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	WatchTimeout time.Duration
	FacebookURLs []string // pages extracted when the facebook provider is triggered
}

// DirectoryConfig controls the public listing surfaces.
type DirectoryConfig struct {
	PageSize     int
	Timezone     string
	CacheTTL     time.Duration
	EventURLBase string // live event page, event id is appended
	CalendarURL  string
	SubmitURL    string
	SiteName     string
}

// WorkerConfig controls the outbox worker.
type WorkerConfig struct {
	ReconcileInterval time.Duration
	ReconcileBatch    int
}

// AdminConfig lists accounts promoted to admin when they first sign in.
type AdminConfig struct {
	Emails []string
}

// IsAdminEmail reports whether email is on the bootstrap admin list.
func (a AdminConfig) IsAdminEmail(email string) bool {
	for _, e := range a.Emails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	publicBase := strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/")

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
			PublicBaseURL:      publicBase,
			LoginURL:           getEnv("LOGIN_URL", publicBase+"/login"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "firstindallas"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24*7),
			CookieName:  getEnv("SESSION_COOKIE_NAME", "fid_session"),
			Secure:      getEnvBool("SESSION_COOKIE_SECURE", strings.HasPrefix(publicBase, "https://")),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", publicBase+"/auth/callback"),
		},
		Cookie: CookieConfig{
			HashKey:  getEnv("COOKIE_HASH_KEY", "change-me-change-me-change-me-32"),
			BlockKey: getEnv("COOKIE_BLOCK_KEY", ""),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ImagesBucket:    getEnv("AWS_S3_IMAGES_BUCKET", "firstindallas-event-images"),
			PublicBaseURL:   strings.TrimRight(getEnv("AWS_S3_PUBLIC_BASE_URL", ""), "/"),
		},
		Uploads: UploadsConfig{
			MaxImageBytes: int64(getEnvInt("UPLOAD_MAX_IMAGE_MB", 5)) * 1024 * 1024,
			MaxImageWidth: getEnvInt("UPLOAD_MAX_IMAGE_WIDTH", 1600),
		},
		CMS: CMSConfig{
			BaseURL:  strings.TrimRight(getEnv("CMS_API_URL", "http://localhost:8000/api"), "/"),
			APIToken: getEnv("CMS_API_TOKEN", ""),
			Timeout:  getEnvDuration("CMS_TIMEOUT", 15*time.Second),
		},
		Sync: SyncConfig{
			PollInterval: getEnvDuration("SYNC_POLL_INTERVAL", 3*time.Second),
			MaxAttempts:  getEnvInt("SYNC_POLL_MAX_ATTEMPTS", 200),
			WatchTimeout: getEnvDuration("SYNC_WATCH_TIMEOUT", 15*time.Minute),
			FacebookURLs: splitTrim(getEnv("SYNC_FACEBOOK_URLS", ""), ","),
		},
		Directory: DirectoryConfig{
			PageSize:     getEnvInt("DIRECTORY_PAGE_SIZE", 20),
			Timezone:     getEnv("DIRECTORY_TIMEZONE", "America/Chicago"),
			CacheTTL:     getEnvDuration("DIRECTORY_CACHE_TTL", 5*time.Minute),
			EventURLBase: strings.TrimRight(getEnv("EVENT_URL_BASE", "https://firstindallas.com/events"), "/"),
			CalendarURL:  getEnv("CALENDAR_URL", "https://firstindallas.com/calendar"),
			SubmitURL:    getEnv("SUBMIT_URL", publicBase+"/submit"),
			SiteName:     getEnv("SITE_NAME", "First in Dallas"),
		},
		Worker: WorkerConfig{
			ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", time.Minute),
			ReconcileBatch:    getEnvInt("RECONCILE_BATCH", 50),
		},
		Admin: AdminConfig{
			Emails: splitTrim(getEnv("ADMIN_EMAILS", ""), ","),
		},
	}
	if cfg.Directory.PageSize <= 0 {
		return nil, fmt.Errorf("DIRECTORY_PAGE_SIZE must be positive")
	}
	if _, err := time.LoadLocation(cfg.Directory.Timezone); err != nil {
		return nil, fmt.Errorf("DIRECTORY_TIMEZONE: %w", err)
	}
	return cfg, nil
}

// Location returns the directory's wall-clock zone.
func (c DirectoryConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
