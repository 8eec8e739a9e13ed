package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/krether/huddle/internal/core"
	"github.com/krether/huddle/internal/domain"
	"github.com/krether/huddle/internal/metrics"
)

// Inbound frame shapes. Each tag parses only what it needs; anything
// extra on the frame is ignored.
type signalFrame struct {
	To      domain.ParticipantID `json:"to"`
	Payload json.RawMessage      `json:"payload"`
}

type chatFrame struct {
	Text string `json:"text"`
}

// dispatch routes one inbound frame. Reports false when the
// connection should close: a leave request or one protocol error too
// many.
func (ctl *Controller) dispatch(st *connState, data []byte) bool {
	p := st.ch.Participant()
	if !ctl.limiter.Allow(p) {
		log.Warn().Str("module", "signal").Str("conn", st.connID).Str("participant", string(p)).Msg("rate limited, frame dropped")
		return true
	}

	var env struct {
		Type core.EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return ctl.protocolError(st, core.NewMalformedInput("invalid json"))
	}

	switch env.Type {
	case core.EventSignalOffer, core.EventSignalAnswer, core.EventSignalCandidate:
		var f signalFrame
		if err := json.Unmarshal(data, &f); err != nil || f.To == "" {
			return ctl.protocolError(st, core.NewMalformedInput("signal frame needs a target"))
		}
		if !ctl.engine.Relay(st.ch, env.Type, f.To, f.Payload) {
			// Target raced away; the sender retries on its own clock.
			log.Debug().Str("module", "signal").Str("conn", st.connID).Str("to", string(f.To)).Msg("relay target gone")
		}
	case core.EventChatText:
		var f chatFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return ctl.protocolError(st, core.NewMalformedInput("invalid chat frame"))
		}
		ctl.engine.Chat(st.ch, f.Text)
	case core.EventMediaStateChanged:
		var f core.MediaState
		if err := json.Unmarshal(data, &f); err != nil {
			return ctl.protocolError(st, core.NewMalformedInput("invalid media frame"))
		}
		ctl.engine.MediaState(st.ch, f)
	case core.EventKeepalivePing:
		ctl.replyDirect(st, core.NewKeepalivePong())
	case core.EventLeave:
		log.Info().Str("module", "signal").Str("conn", st.connID).Str("participant", string(p)).Msg("leave requested")
		return false
	default:
		return ctl.protocolError(st, core.NewUnsupportedTag(string(env.Type)))
	}
	return true
}

// protocolError echoes a diagnostic to the sender. The connection
// survives until the configured threshold is crossed.
func (ctl *Controller) protocolError(st *connState, ev core.Event) bool {
	metrics.ProtocolErrors.Inc()
	ctl.replyDirect(st, ev)
	st.protoErr++
	if st.protoErr >= ctl.cfg.MaxProtocolErrors {
		log.Warn().Str("module", "signal").Str("conn", st.connID).Int("errors", st.protoErr).Msg("protocol error threshold reached")
		return false
	}
	return true
}

// replyDirect answers on this connection's own conduit, bypassing the
// directory: diagnostics and pongs belong to the physical connection,
// not to whoever holds the registration now.
func (ctl *Controller) replyDirect(st *connState, ev core.Event) {
	data, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", st.connID).Msg("encode reply")
		return
	}
	_ = st.conduit.TrySend(data)
}
