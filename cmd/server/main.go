package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/krether/huddle/internal/adapters/http"
	"github.com/krether/huddle/internal/app"
	"github.com/krether/huddle/internal/auth"
	"github.com/krether/huddle/internal/config"
	"github.com/krether/huddle/internal/meetings"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize the global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.Auth.Secret == "" {
		log.Fatal().Msg("auth.secret is required")
	}

	store, err := buildMeetings(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up meetings backend")
	}

	deps := router.Deps{
		Engine:   app.NewEngine(),
		Auth:     auth.NewTokenAuthorizer(cfg.Auth.Secret, cfg.Auth.Leeway),
		Meetings: store,
	}

	r := router.SetupRouter(ctx, cfg, deps)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("huddle signal server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

// buildMeetings picks the meetings read model from config. The Redis
// backend is verified reachable before the server starts taking
// connections.
func buildMeetings(ctx context.Context, cfg *config.Config) (app.Meetings, error) {
	switch cfg.Meetings.Backend {
	case "", "memory":
		log.Info().Str("module", "main").Msg("using in-memory meetings store")
		return meetings.NewStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Meetings.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("redis at %s: %w", cfg.Meetings.RedisAddr, err)
		}
		log.Info().Str("module", "main").Str("addr", cfg.Meetings.RedisAddr).Msg("using redis meetings store")
		return meetings.NewRedisStore(meetings.RedisConfig{Client: client, KeyPrefix: cfg.Meetings.KeyPrefix}), nil
	default:
		return nil, fmt.Errorf("unknown meetings backend %q", cfg.Meetings.Backend)
	}
}
