package signal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/krether/huddle/internal/app"
	"github.com/krether/huddle/internal/config"
	"github.com/krether/huddle/internal/core"
	"github.com/krether/huddle/internal/domain"
	"github.com/krether/huddle/internal/metrics"
)

// Close reasons sent with rejected connection attempts. Clients match
// on these strings, so they are part of the protocol.
const (
	reasonUnauthorized = "unauthorized"
	reasonForbidden    = "forbidden"
	reasonNotFound     = "session not found"
	reasonInternal     = "internal error"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller upgrades signaling connections and runs their lifecycle
// against the engine: authorize, register, dispatch, clean up.
type Controller struct {
	cfg      *config.Config
	engine   *app.Engine
	auth     app.Authorizer
	meetings app.Meetings
	limiter  *app.Limiter
}

func NewController(cfg *config.Config, engine *app.Engine, auth app.Authorizer, meetings app.Meetings) *Controller {
	return &Controller{
		cfg:      cfg,
		engine:   engine,
		auth:     auth,
		meetings: meetings,
		limiter:  app.NewLimiter(cfg.RateLimitPerMin, time.Minute),
	}
}

// connState is one connection's gateway-side state. finish runs its
// cleanup exactly once no matter which path gets there first.
type connState struct {
	connID   string
	ch       *core.Channel
	conduit  *wsConduit
	cancel   context.CancelFunc
	protoErr int

	once sync.Once
}

// HandleSignal serves one signaling connection from upgrade to
// cleanup. It blocks until the connection is done.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	code := domain.SessionCode(c.Param("code"))
	cred := bearerToken(c)
	connID := uuid.NewString()

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", connID).Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("conn", connID).Str("session", string(code)).Msg("new WS connection")

	identity, info, ok := ctl.authorize(ctx, ws, connID, code, cred)
	if !ok {
		return
	}

	conduit := newConduit(ws, ctl.cfg.SendBuffer)
	ch := core.NewChannel(code, identity.ID, conduit)
	connCtx, cancel := context.WithCancel(ctx)
	st := &connState{connID: connID, ch: ch, conduit: conduit, cancel: cancel}

	go ctl.writePump(connCtx, conduit)

	ctl.engine.Join(ch, &info)
	metrics.ConnectionsActive.Inc()
	log.Info().Str("module", "signal").Str("conn", connID).Str("session", string(code)).Str("participant", string(identity.ID)).Msg("participant joined")

	ctl.readLoop(connCtx, st)
}

// authorize walks a fresh socket through credential verification and
// session access checks. A rejected attempt is closed with a reason
// and never touches the directory.
func (ctl *Controller) authorize(ctx context.Context, ws *websocket.Conn, connID string, code domain.SessionCode, cred string) (domain.Identity, domain.SessionInfo, bool) {
	identity, err := ctl.auth.AuthorizeCredential(ctx, cred)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", connID).Msg("credential rejected")
		metrics.AuthRejections.WithLabelValues("unauthorized").Inc()
		ctl.reject(ws, websocket.ClosePolicyViolation, reasonUnauthorized)
		return domain.Identity{}, domain.SessionInfo{}, false
	}

	info, err := ctl.meetings.ResolveSession(ctx, code)
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		log.Warn().Str("module", "signal").Str("conn", connID).Str("session", string(code)).Msg("unknown session")
		metrics.AuthRejections.WithLabelValues("not_found").Inc()
		ctl.reject(ws, websocket.ClosePolicyViolation, reasonNotFound)
		return domain.Identity{}, domain.SessionInfo{}, false
	case err != nil:
		log.Error().Err(err).Str("module", "signal").Str("conn", connID).Str("session", string(code)).Msg("session lookup")
		ctl.reject(ws, websocket.CloseInternalServerErr, reasonInternal)
		return domain.Identity{}, domain.SessionInfo{}, false
	}

	allowed, err := ctl.meetings.ConfirmMembership(ctx, code, identity)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", connID).Str("session", string(code)).Msg("membership check")
		ctl.reject(ws, websocket.CloseInternalServerErr, reasonInternal)
		return domain.Identity{}, domain.SessionInfo{}, false
	}
	if !allowed {
		log.Warn().Str("module", "signal").Str("conn", connID).Str("session", string(code)).Str("participant", string(identity.ID)).Msg("not a session member")
		metrics.AuthRejections.WithLabelValues("forbidden").Inc()
		ctl.reject(ws, websocket.ClosePolicyViolation, reasonForbidden)
		return domain.Identity{}, domain.SessionInfo{}, false
	}

	return identity, info, true
}

// reject closes a socket that never made it into the directory.
func (ctl *Controller) reject(ws *websocket.Conn, closeCode int, reason string) {
	deadline := time.Now().Add(ctl.cfg.WriteTimeout)
	_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(closeCode, reason), deadline)
	_ = ws.Close()
}

// finish is the exactly-once cleanup shared by every close path:
// transport errors, leave frames, protocol-error threshold, eviction
// and shutdown.
func (ctl *Controller) finish(st *connState) {
	st.once.Do(func() {
		announced := ctl.engine.Leave(st.ch)
		st.conduit.Close()
		st.cancel()
		// A superseded connection must not wipe its successor's rate
		// window: forget it only when the participant is really gone.
		if announced || !ctl.engine.Connected(st.ch.Participant()) {
			ctl.limiter.Forget(st.ch.Participant())
		}
		metrics.ConnectionsActive.Dec()
		log.Info().Str("module", "signal").Str("conn", st.connID).Str("participant", string(st.ch.Participant())).Bool("announced", announced).Msg("connection closed")
	})
}

// bearerToken pulls the credential from the token query parameter,
// falling back to an Authorization header for non-browser clients.
func bearerToken(c *gin.Context) string {
	if tok := c.Query("token"); tok != "" {
		return tok
	}
	if after, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}
