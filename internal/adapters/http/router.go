package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/krether/huddle/internal/adapters/signal"
	"github.com/krether/huddle/internal/app"
	"github.com/krether/huddle/internal/config"
	"github.com/krether/huddle/internal/metrics"
)

// Deps carries everything the HTTP surface serves.
type Deps struct {
	Engine   *app.Engine
	Auth     app.Authorizer
	Meetings app.Meetings
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	ctl := signal.NewController(cfg, deps.Engine, deps.Auth, deps.Meetings)

	r.GET("/health", handleHealth)
	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	api := r.Group("/api/v1")
	api.GET("/sessions/:code/participants", handleParticipants(deps.Engine))
	api.GET("/ws/sessions/:code", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	// Lifecycle hooks the meeting service calls when it flips a
	// session's status.
	hooks := r.Group("/internal/v1", hookAuth(cfg.HookToken))
	hooks.POST("/sessions/:code/started", handleSessionStarted(deps.Engine))
	hooks.POST("/sessions/:code/ended", handleSessionEnded(deps.Engine))

	log.Info().Str("module", "adapters.http").Bool("metrics", cfg.MetricsEnabled).Msg("router setup")
	return r
}
