package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		StorageDriver:   "memory",
		FileStorage:     "local",
		PublicBaseURL:   "/files",
		SessionTTL:      time.Hour,
		MaxUploadMB:     10,
		DefaultPassword: "student123",
		PointsPolicy:    DefaultPointsPolicy(),
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", " Memory ")
	t.Setenv("POINTS_UPLOAD_NOTE", "40")
	t.Setenv("POINTS_COMMENT_ENABLED", "true")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("ADMIN_PASSWORD", "portal-admin-pw")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.Equal(t, 40, cfg.PointsPolicy.UploadNote)
	assert.True(t, cfg.PointsPolicy.CommentEnabled)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.PointsPolicy.Login)
	assert.Equal(t, -2, cfg.PointsPolicy.DislikeReceived)
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	cases := map[string]func(c *Config){
		"storage driver":     func(c *Config) { c.StorageDriver = "mysql" },
		"absolute files url": func(c *Config) { c.PublicBaseURL = "https://cdn.example.com/files" },
		"relative files url": func(c *Config) { c.PublicBaseURL = "files" },
		"file storage":       func(c *Config) { c.FileStorage = "ftp" },
		"s3 bucket":          func(c *Config) { c.FileStorage = "s3" },
		"session ttl":        func(c *Config) { c.SessionTTL = 0 },
		"upload size":        func(c *Config) { c.MaxUploadMB = 0 },
		"positive dislike":   func(c *Config) { c.PointsPolicy.DislikeReceived = 2 },
		"negative like":      func(c *Config) { c.PointsPolicy.LikeReceived = -1 },
		"default password":   func(c *Config) { c.DefaultPassword = "  " },
		"seed without admin": func(c *Config) { c.SeedData = true },
		"short admin":        func(c *Config) { c.SeedData, c.AdminPassword = true, "short" },
		"shared admin":       func(c *Config) { c.SeedData, c.AdminPassword = true, c.DefaultPassword },
	}
	s3 := validConfig()
	s3.FileStorage, s3.S3Bucket, s3.PublicBaseURL = "s3", "bucket", "https://cdn.example.com/files"
	assert.NoError(t, s3.Validate())

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadRequiresAdminPasswordForSeed(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := Load()
	assert.ErrorContains(t, err, "ADMIN_PASSWORD")

	t.Setenv("SEED_DATA", "false")
	_, err = Load()
	assert.NoError(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	c := Config{DatabaseURL: "postgres://x"}
	assert.Equal(t, "postgres://x", c.DatabaseDSN())

	c = Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: 5432, DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable", c.DatabaseDSN())
}

func TestLocationFallsBackToUTC(t *testing.T) {
	c := Config{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, c.Location())

	c.Timezone = "UTC"
	assert.Equal(t, "UTC", c.Location().String())
}
