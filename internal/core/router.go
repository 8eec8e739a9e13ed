package core

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/krether/huddle/internal/domain"
)

// PublishResult summarizes one fan-out. Evicted names the members whose
// channel rejected the event while still holding the live registration;
// announcing their departure is the caller's job.
type PublishResult struct {
	Delivered int
	Dropped   int
	Evicted   []domain.ParticipantID
}

// Router moves events between live channels. A failed send evicts the
// failing channel and never disturbs the other recipients; a send to
// an absent participant is an expected miss, not an error.
type Router struct {
	dir *Directory
}

func NewRouter(dir *Directory) *Router {
	return &Router{dir: dir}
}

// SendTo delivers the event to one participant. A participant with no
// live channel is an expected miss and yields an empty result.
func (rt *Router) SendTo(to domain.ParticipantID, ev Event) PublishResult {
	res := PublishResult{}
	ch, ok := rt.dir.Channel(to)
	if !ok {
		log.Debug().Str("module", "core.router").Str("to", string(to)).Str("type", string(ev.Type)).Msg("no live channel")
		return res
	}
	data, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "core.router").Str("type", string(ev.Type)).Msg("encode")
		return res
	}
	rt.deliver(ch, data, &res)
	return res
}

// Broadcast fans the event out to every member of the session except
// exclude (empty excludes nobody). The envelope is marshaled once;
// each failure evicts only that member and delivery continues.
func (rt *Router) Broadcast(code domain.SessionCode, ev Event, exclude domain.ParticipantID) PublishResult {
	res := PublishResult{}
	data, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "core.router").Str("type", string(ev.Type)).Msg("encode")
		return res
	}
	for _, ch := range rt.dir.Channels(code) {
		if exclude != "" && ch.Participant() == exclude {
			continue
		}
		rt.deliver(ch, data, &res)
	}
	log.Debug().Str("module", "core.router").Str("session", string(code)).Str("type", string(ev.Type)).Int("delivered", res.Delivered).Int("dropped", res.Dropped).Msg("broadcast")
	return res
}

// RelaySignal carries a negotiation payload from one participant to
// another inside the same session. The payload is never inspected.
func (rt *Router) RelaySignal(code domain.SessionCode, from, to domain.ParticipantID, kind EventType, payload json.RawMessage) PublishResult {
	res := PublishResult{}
	ch, ok := rt.dir.Channel(to)
	if !ok || ch.Session() != code {
		log.Debug().Str("module", "core.router").Str("from", string(from)).Str("to", string(to)).Str("type", string(kind)).Msg("relay target not in session")
		return res
	}
	data, err := NewSignal(kind, from, payload).Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "core.router").Str("type", string(kind)).Msg("encode")
		return res
	}
	rt.deliver(ch, data, &res)
	return res
}

// deliver pushes bytes into a channel's conduit and tallies the
// outcome. On failure the channel is deregistered and closed: an
// unwritable member is treated as gone. The eviction is recorded only
// when the channel still held the live registration, so a stale
// snapshot entry never shows up as a departure.
func (rt *Router) deliver(ch *Channel, data []byte, res *PublishResult) {
	if err := ch.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "core.router").Str("session", string(ch.Session())).Str("participant", string(ch.Participant())).Msg("send failed, evicting")
		if rt.dir.RemoveChannel(ch) {
			res.Evicted = append(res.Evicted, ch.Participant())
		}
		ch.Close()
		res.Dropped++
		return
	}
	res.Delivered++
}
