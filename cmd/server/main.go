package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"unishare/internal/config"
	"unishare/internal/db"
	"unishare/internal/jobs"
	"unishare/internal/middleware"
	"unishare/internal/router"
	"unishare/internal/services"
	"unishare/internal/store"
	"unishare/internal/utils"
)

func main() {
	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open store")
	}

	files, err := newFileStorage(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up file storage")
	}

	cache, closeCache := newCache(ctx, cfg)
	defer closeCache()

	svc := services.New(st, services.Options{
		Policy:          cfg.PointsPolicy,
		DefaultPassword: cfg.DefaultPassword,
		SessionTTL:      cfg.SessionTTL,
		Location:        cfg.Location(),
		Files:           files,
		Notifier: services.NewMailService(services.MailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
		}),
		Cache:          cache,
		LeaderboardTTL: cfg.LeaderboardTTL,
	})
	go svc.Leaderboards.Run(ctx)

	scheduler := jobs.NewScheduler(cfg.Location(), svc.Points, svc.Auth, cfg.RankReconcileSpec, cfg.SessionPurgeSpec)
	if err := scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("Failed to start scheduler")
	}
	defer scheduler.Stop()

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logger())

	cookieStore := cookie.NewStore([]byte(cfg.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("unishare_session", cookieStore))
	r.Use(middleware.LoadUser(svc.Auth))

	if cfg.FileStorage == "local" {
		r.Static(cfg.PublicBaseURL, cfg.UploadDir)
	}
	router.RegisterRoutes(r, svc, router.Options{MaxUploadBytes: cfg.MaxUploadMB << 20})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("UniShare server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infof("Received %s, shutting down", sig)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	cancel()
	log.Info("UniShare server stopped")
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.StorageDriver == "memory" {
		log.Warn("Using in-memory store, data is lost on restart")
		mem := store.NewMemory()
		if cfg.SeedData {
			if err := store.SeedDemo(ctx, mem, cfg.AdminPassword); err != nil {
				return nil, err
			}
		}
		return mem, nil
	}
	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store.NewPostgres(conn), nil
}

func newFileStorage(ctx context.Context, cfg *config.Config) (services.FileStorage, error) {
	if cfg.FileStorage == "s3" {
		return services.NewS3Storage(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3PublicURL)
	}
	return services.NewLocalStorage(cfg.UploadDir, cfg.PublicBaseURL)
}

// newCache uses Redis when REDIS_ADDR is set, otherwise the in-process LRU.
func newCache(ctx context.Context, cfg *config.Config) (utils.Cache, func()) {
	if cfg.RedisAddr == "" {
		return utils.GetCache(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Fatal("Redis ping failed")
	}
	log.Info("Redis cache connected")
	return utils.NewRedisCache(client, "unishare:"), func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Redis close error")
		}
	}
}
