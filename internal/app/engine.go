package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/krether/huddle/internal/core"
	"github.com/krether/huddle/internal/domain"
	"github.com/krether/huddle/internal/metrics"
)

// Engine drives session membership and fan-out on top of the directory
// and router. Gateways call it once per lifecycle step or inbound
// frame; it owns the ordering of presence events around registration.
type Engine struct {
	dir    *core.Directory
	router *core.Router
}

func NewEngine() *Engine {
	dir := core.NewDirectory()
	return &Engine{dir: dir, router: core.NewRouter(dir)}
}

// Join registers the channel, closes whatever it superseded, announces
// the arrival to the rest of the session and hands the joiner its
// private snapshot. The announcement is sent strictly after the
// directory insert, so an observer acting on it will find the joiner.
// Superseding a channel registered under another session is a
// departure from that session and is announced there.
func (e *Engine) Join(ch *core.Channel, info *domain.SessionInfo) {
	if old := e.dir.Register(ch); old != nil {
		old.Close()
		log.Info().Str("module", "app.engine").Str("participant", string(ch.Participant())).Msg("superseded previous channel")
		if old.Session() != ch.Session() {
			res := e.router.Broadcast(old.Session(), core.NewParticipantLeft(ch.Participant()), "")
			metrics.EventsRouted.WithLabelValues(string(core.EventParticipantLeft)).Add(float64(res.Delivered))
			metrics.DeliveryFailures.Add(float64(res.Dropped))
			e.announceDepartures(old.Session(), res.Evicted)
		}
	}

	res := e.router.Broadcast(ch.Session(), core.NewParticipantJoined(ch.Participant()), ch.Participant())
	metrics.EventsRouted.WithLabelValues(string(core.EventParticipantJoined)).Add(float64(res.Delivered))
	metrics.DeliveryFailures.Add(float64(res.Dropped))

	// Members evicted by the announcement are already deregistered, so
	// the joiner's snapshot never lists them.
	snapshot := e.dir.Members(ch.Session())
	priv := e.router.SendTo(ch.Participant(), core.NewSessionJoined(ch.Session(), snapshot, info))
	metrics.EventsRouted.WithLabelValues(string(core.EventSessionJoined)).Add(float64(priv.Delivered))
	metrics.DeliveryFailures.Add(float64(priv.Dropped))

	e.announceDepartures(ch.Session(), append(res.Evicted, priv.Evicted...))
	metrics.SessionsActive.Set(float64(e.dir.Len()))
}

// Leave deregisters the channel and, only when it was still the live
// one, announces the departure. A superseded connection's cleanup
// returns false and stays silent; so does a router-evicted one, whose
// departure was already announced at eviction time.
func (e *Engine) Leave(ch *core.Channel) bool {
	if !e.dir.RemoveChannel(ch) {
		return false
	}
	res := e.router.Broadcast(ch.Session(), core.NewParticipantLeft(ch.Participant()), "")
	metrics.EventsRouted.WithLabelValues(string(core.EventParticipantLeft)).Add(float64(res.Delivered))
	metrics.DeliveryFailures.Add(float64(res.Dropped))
	e.announceDepartures(ch.Session(), res.Evicted)
	metrics.SessionsActive.Set(float64(e.dir.Len()))
	return true
}

// announceDepartures broadcasts participant-left for every member a
// fan-out evicted. Each announcement runs strictly after the eviction
// it describes and can itself evict more members, so the queue drains
// until delivery is clean.
func (e *Engine) announceDepartures(code domain.SessionCode, evicted []domain.ParticipantID) {
	if len(evicted) == 0 {
		return
	}
	for len(evicted) > 0 {
		p := evicted[0]
		evicted = evicted[1:]
		log.Info().Str("module", "app.engine").Str("session", string(code)).Str("participant", string(p)).Msg("announcing evicted participant")
		res := e.router.Broadcast(code, core.NewParticipantLeft(p), "")
		metrics.EventsRouted.WithLabelValues(string(core.EventParticipantLeft)).Add(float64(res.Delivered))
		metrics.DeliveryFailures.Add(float64(res.Dropped))
		evicted = append(evicted, res.Evicted...)
	}
	metrics.SessionsActive.Set(float64(e.dir.Len()))
}

// Relay forwards one negotiation payload to its target. A missing
// target is reported to the caller, not treated as an error.
func (e *Engine) Relay(from *core.Channel, kind core.EventType, to domain.ParticipantID, payload json.RawMessage) bool {
	res := e.router.RelaySignal(from.Session(), from.Participant(), to, kind, payload)
	metrics.EventsRouted.WithLabelValues(string(kind)).Add(float64(res.Delivered))
	e.announceDepartures(from.Session(), res.Evicted)
	return res.Delivered > 0
}

// Chat fans a text message out to the whole session, sender included.
func (e *Engine) Chat(from *core.Channel, text string) {
	res := e.router.Broadcast(from.Session(), core.NewChatText(from.Participant(), text), "")
	metrics.EventsRouted.WithLabelValues(string(core.EventChatText)).Add(float64(res.Delivered))
	metrics.DeliveryFailures.Add(float64(res.Dropped))
	e.announceDepartures(from.Session(), res.Evicted)
}

// MediaState tells everyone else about a device-state change.
func (e *Engine) MediaState(from *core.Channel, state core.MediaState) {
	res := e.router.Broadcast(from.Session(), core.NewMediaStateChanged(from.Participant(), state), from.Participant())
	metrics.EventsRouted.WithLabelValues(string(core.EventMediaStateChanged)).Add(float64(res.Delivered))
	metrics.DeliveryFailures.Add(float64(res.Dropped))
	e.announceDepartures(from.Session(), res.Evicted)
}

// SessionStarted broadcasts the lifecycle notice to whoever is already
// connected. Reports how many members heard it.
func (e *Engine) SessionStarted(code domain.SessionCode) int {
	res := e.router.Broadcast(code, core.NewSessionStarted(code), "")
	metrics.EventsRouted.WithLabelValues(string(core.EventSessionStarted)).Add(float64(res.Delivered))
	e.announceDepartures(code, res.Evicted)
	return res.Delivered
}

// SessionEnded broadcasts the notice, then evicts the whole session
// and closes every conduit. No per-member departure events follow,
// not even for members whose ended notice could not be queued; the
// teardown closes them with everyone else, and each gateway's cleanup
// finds its entry already gone.
func (e *Engine) SessionEnded(code domain.SessionCode) int {
	res := e.router.Broadcast(code, core.NewSessionEnded(code), "")
	metrics.EventsRouted.WithLabelValues(string(core.EventSessionEnded)).Add(float64(res.Delivered))

	evicted := e.dir.RemoveSession(code)
	for _, ch := range evicted {
		ch.Close()
	}
	metrics.SessionsActive.Set(float64(e.dir.Len()))
	log.Info().Str("module", "app.engine").Str("session", string(code)).Int("disconnected", len(evicted)).Msg("session ended")
	return len(evicted)
}

// Participants snapshots the connected membership of one session.
func (e *Engine) Participants(code domain.SessionCode) []domain.ParticipantID {
	return e.dir.Members(code)
}

// Connected reports whether the participant currently holds a live
// channel in any session.
func (e *Engine) Connected(p domain.ParticipantID) bool {
	_, ok := e.dir.SessionOf(p)
	return ok
}

// Sessions counts live sessions.
func (e *Engine) Sessions() int {
	return e.dir.Len()
}
