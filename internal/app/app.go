// Package app boots the dashboard server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/proxydash/proxydash/internal/config"
	"github.com/proxydash/proxydash/internal/db"
	"github.com/proxydash/proxydash/internal/http/api"
	"github.com/proxydash/proxydash/internal/token"
	"github.com/proxydash/proxydash/internal/usagesync"
	"github.com/proxydash/proxydash/internal/vendor"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the dashboard API server with database-backed components.
func RunServer(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	setupLogging(cfg.Log)

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return errors.New("app: auth jwt-secret is required")
	}

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	tokens, errTokens := buildTokenManager(ctx, cfg.Redis.URL)
	if errTokens != nil {
		return errTokens
	}

	vendors, errVendors := buildVendorManager(ctx, conn, cfg.Vendors, tokens)
	if errVendors != nil {
		return errVendors
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	api.Register(engine, api.Deps{
		DB:        conn,
		Vendors:   vendors,
		JWTSecret: cfg.Auth.JWTSecret,
		JWTExpiry: cfg.Auth.JWTExpiry,
	})

	if cfg.UsageSync.Enabled {
		poller := usagesync.NewPoller(conn, vendors, usagesync.Options{
			Interval:    cfg.UsageSync.Interval,
			Concurrency: cfg.UsageSync.Concurrency,
			Period:      cfg.UsageSync.Period,
		})
		if poller != nil {
			poller.Start(ctx)
		}
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return fmt.Errorf("app: shutdown: %w", errShutdown)
		}
		return nil
	case errServe := <-errCh:
		if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", errServe)
		}
		return nil
	}
}

// buildTokenManager wires the shared credential cache. Redis is optional;
// without it tokens are cached in-process only.
func buildTokenManager(ctx context.Context, redisURL string) (*token.Manager, error) {
	redisURL = strings.TrimSpace(redisURL)
	if redisURL == "" {
		log.Info("redis not configured, using in-process token cache")
		return token.NewManager(nil), nil
	}

	opts, errParse := redis.ParseURL(redisURL)
	if errParse != nil {
		return nil, fmt.Errorf("app: parse redis url: %w", errParse)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if errPing := client.Ping(pingCtx).Err(); errPing != nil {
		log.WithError(errPing).Warn("redis unreachable at startup, token cache will retry per request")
	}

	return token.NewManager(token.NewRedisCache(client)), nil
}

// buildVendorManager seeds configuration-file vendors into the database and
// builds the adapter registry from stored records.
func buildVendorManager(ctx context.Context, conn *gorm.DB, seeds []vendor.Config, tokens *token.Manager) (*vendor.Manager, error) {
	store := vendor.NewStore(conn)
	if len(seeds) > 0 {
		if errSeed := store.Seed(ctx, seeds); errSeed != nil {
			return nil, errSeed
		}
	}
	configs, errLoad := store.LoadConfigs(ctx)
	if errLoad != nil {
		return nil, errLoad
	}
	log.Infof("vendor registry loaded (%d vendors)", len(configs))
	return vendor.NewManager(configs, tokens), nil
}

// setupLogging configures logrus output, level, and rotation.
func setupLogging(cfg config.LogConfig) {
	level, errParse := log.ParseLevel(strings.TrimSpace(cfg.Level))
	if errParse != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if strings.TrimSpace(cfg.File) != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}
}
