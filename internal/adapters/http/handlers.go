package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/krether/huddle/internal/app"
	"github.com/krether/huddle/internal/domain"
)

type participantsResponse struct {
	SessionID        string   `json:"session_id"`
	ParticipantCount int      `json:"participant_count"`
	Participants     []string `json:"participants"`
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "huddle-signal"})
}

// handleParticipants reports who is connected right now. This is the
// live directory view, not the meeting service's registration list.
func handleParticipants(engine *app.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := domain.SessionCode(c.Param("code"))
		members := engine.Participants(code)
		out := make([]string, 0, len(members))
		for _, p := range members {
			out = append(out, string(p))
		}
		c.JSON(http.StatusOK, participantsResponse{
			SessionID:        string(code),
			ParticipantCount: len(out),
			Participants:     out,
		})
	}
}

// hookAuth guards the internal lifecycle endpoints with a shared
// secret. No token configured means the hooks are disabled.
func hookAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" || c.GetHeader("X-Hook-Token") != token {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func handleSessionStarted(engine *app.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := domain.SessionCode(c.Param("code"))
		notified := engine.SessionStarted(code)
		log.Info().Str("module", "adapters.http").Str("session", string(code)).Int("notified", notified).Msg("session started hook")
		c.JSON(http.StatusOK, gin.H{"session_id": string(code), "notified": notified})
	}
}

func handleSessionEnded(engine *app.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := domain.SessionCode(c.Param("code"))
		disconnected := engine.SessionEnded(code)
		log.Info().Str("module", "adapters.http").Str("session", string(code)).Int("disconnected", disconnected).Msg("session ended hook")
		c.JSON(http.StatusOK, gin.H{"session_id": string(code), "disconnected": disconnected})
	}
}
