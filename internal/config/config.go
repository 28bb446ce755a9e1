// Package config loads service configuration from environment variables.
// A .env file is read first when present, then envconfig maps variables onto Config.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Config holds every setting of the application.
type Config struct {
	// --- HTTP ---
	Port          string        `envconfig:"PORT" default:"8080"`
	SessionSecret string        `envconfig:"SESSION_SECRET" default:"secret_key_change_me"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"168h"`
	CookieSecure  bool          `envconfig:"COOKIE_SECURE" default:"false"`

	// --- Database ---
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"` // postgres | memory
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	DBHost        string `envconfig:"DB_HOST" default:"localhost"`
	DBPort        int    `envconfig:"DB_PORT" default:"5432"`
	DBUser        string `envconfig:"DB_USER" default:"postgres"`
	DBPassword    string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName        string `envconfig:"DB_NAME" default:"unishare"`
	DBSSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	DBSecretARN   string `envconfig:"DB_SECRET_ARN"`
	DBMaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`

	// --- Application ---
	AppEnv          string `envconfig:"APP_ENV" default:"development"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	Timezone        string `envconfig:"APP_TIMEZONE" default:"Africa/Nairobi"`
	DefaultPassword string `envconfig:"DEFAULT_PASSWORD" default:"student123"`
	SeedData        bool   `envconfig:"SEED_DATA" default:"true"`
	AdminPassword   string `envconfig:"ADMIN_PASSWORD"` // password of the seeded ADMIN001 account

	// --- Object storage ---
	FileStorage   string `envconfig:"FILE_STORAGE" default:"local"` // local | s3
	UploadDir     string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"/files"`
	MaxUploadMB   int64  `envconfig:"MAX_UPLOAD_MB" default:"25"`
	S3Bucket      string `envconfig:"S3_BUCKET"`
	S3Region      string `envconfig:"S3_REGION" default:"eu-west-1"`
	S3PublicURL   string `envconfig:"S3_PUBLIC_URL"`

	// --- Cache ---
	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	LeaderboardTTL time.Duration `envconfig:"LEADERBOARD_TTL" default:"5m"`

	// --- Mail ---
	SMTPHost string `envconfig:"SMTP_HOST"`
	SMTPPort string `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser string `envconfig:"SMTP_USER"`
	SMTPPass string `envconfig:"SMTP_PASS"`
	SMTPFrom string `envconfig:"SMTP_FROM"`

	// --- Scheduler ---
	RankReconcileSpec string `envconfig:"RANK_RECONCILE_SPEC" default:"0 3 * * *"`
	SessionPurgeSpec  string `envconfig:"SESSION_PURGE_SPEC" default:"0 * * * *"`

	// --- Points policy ---
	PointsPolicy
}

// PointsPolicy is the canonical point-delta table.
type PointsPolicy struct {
	Login            int  `envconfig:"POINTS_LOGIN" default:"10"`
	UploadNote       int  `envconfig:"POINTS_UPLOAD_NOTE" default:"50"`
	UploadAssignment int  `envconfig:"POINTS_UPLOAD_ASSIGNMENT" default:"10"`
	UploadPastPaper  int  `envconfig:"POINTS_UPLOAD_PAST_PAPER" default:"20"`
	LikeReceived     int  `envconfig:"POINTS_LIKE_RECEIVED" default:"5"`
	DislikeReceived  int  `envconfig:"POINTS_DISLIKE_RECEIVED" default:"-2"`
	CompletedOnTime  int  `envconfig:"POINTS_COMPLETION_ON_TIME" default:"10"`
	CompletedOverdue int  `envconfig:"POINTS_COMPLETION_OVERDUE" default:"3"`
	Comment          int  `envconfig:"POINTS_COMMENT" default:"1"`
	CommentEnabled   bool `envconfig:"POINTS_COMMENT_ENABLED" default:"false"`
}

// DefaultPointsPolicy returns the policy with its documented default values.
func DefaultPointsPolicy() PointsPolicy {
	return PointsPolicy{
		Login:            10,
		UploadNote:       50,
		UploadAssignment: 10,
		UploadPastPaper:  20,
		LikeReceived:     5,
		DislikeReceived:  -2,
		CompletedOnTime:  10,
		CompletedOverdue: 3,
		Comment:          1,
	}
}

// DatabaseDSN returns DATABASE_URL when set, otherwise builds a DSN from the DB_* fields.
func (c *Config) DatabaseDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

// Location resolves APP_TIMEZONE, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.WithError(err).Warnf("unknown timezone %q, using UTC", c.Timezone)
		return time.UTC
	}
	return loc
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be postgres or memory, got %q", c.StorageDriver)
	}
	switch c.FileStorage {
	case "local":
		// Local files are served by the app itself, so this is a route prefix.
		if !strings.HasPrefix(c.PublicBaseURL, "/") || strings.ContainsAny(c.PublicBaseURL, "*:") {
			return fmt.Errorf("PUBLIC_BASE_URL must be a path such as /files when FILE_STORAGE=local, got %q", c.PublicBaseURL)
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when FILE_STORAGE=s3")
		}
	default:
		return fmt.Errorf("FILE_STORAGE must be local or s3, got %q", c.FileStorage)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be > 0")
	}
	if c.PointsPolicy.LikeReceived < 0 {
		return fmt.Errorf("POINTS_LIKE_RECEIVED must not be negative")
	}
	if c.PointsPolicy.DislikeReceived > 0 {
		return fmt.Errorf("POINTS_DISLIKE_RECEIVED must not be positive")
	}
	if strings.TrimSpace(c.DefaultPassword) == "" {
		return fmt.Errorf("DEFAULT_PASSWORD must not be empty")
	}
	if c.SeedData {
		if len(c.AdminPassword) < 8 {
			return fmt.Errorf("ADMIN_PASSWORD of at least 8 characters is required when SEED_DATA=true")
		}
		if c.AdminPassword == c.DefaultPassword {
			return fmt.Errorf("ADMIN_PASSWORD must differ from DEFAULT_PASSWORD")
		}
	}
	return nil
}

// Load reads .env (if any) and the process environment into a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, reading configuration from the environment")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.FileStorage = strings.ToLower(strings.TrimSpace(cfg.FileStorage))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
