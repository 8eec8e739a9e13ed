package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/krether/huddle/internal/domain"
)

// bucket holds one session's live channels. Its own lock serializes
// membership changes against snapshot copies, so scanning a large
// session never happens under the directory lock.
type bucket struct {
	mu       sync.RWMutex
	channels map[domain.ParticipantID]*Channel
}

// Directory is the threadsafe registry of live signaling channels,
// keyed session → participant, with a reverse index participant →
// session. A bucket exists exactly as long as it has members, and a
// participant is registered under at most one session at a time.
//
// The directory lock covers map and index bookkeeping only; per-bucket
// locks cover member iteration. Lock order is directory before bucket.
type Directory struct {
	mu        sync.RWMutex
	buckets   map[domain.SessionCode]*bucket
	sessionOf map[domain.ParticipantID]domain.SessionCode
}

func NewDirectory() *Directory {
	return &Directory{
		buckets:   make(map[domain.SessionCode]*bucket),
		sessionOf: make(map[domain.ParticipantID]domain.SessionCode),
	}
}

// Register inserts ch, replacing whatever channel its participant had
// registered before, in this session or another. The superseded
// channel is returned so the caller can close it; registration itself
// always succeeds.
func (d *Directory) Register(ch *Channel) (superseded *Channel) {
	code, p := ch.Session(), ch.Participant()

	d.mu.Lock()
	if prev, ok := d.sessionOf[p]; ok {
		superseded = d.evictLocked(prev, p)
	}
	b := d.buckets[code]
	if b == nil {
		b = &bucket{channels: make(map[domain.ParticipantID]*Channel)}
		d.buckets[code] = b
	}
	b.mu.Lock()
	b.channels[p] = ch
	b.mu.Unlock()
	d.sessionOf[p] = code
	d.mu.Unlock()

	log.Info().Str("module", "core.directory").Str("session", string(code)).Str("participant", string(p)).Bool("superseded", superseded != nil).Msg("channel registered")
	return superseded
}

// evictLocked removes p from the named bucket without touching the
// reverse index. Caller holds d.mu.
func (d *Directory) evictLocked(code domain.SessionCode, p domain.ParticipantID) *Channel {
	b := d.buckets[code]
	if b == nil {
		return nil
	}
	b.mu.Lock()
	old := b.channels[p]
	delete(b.channels, p)
	empty := len(b.channels) == 0
	b.mu.Unlock()
	if empty {
		delete(d.buckets, code)
	}
	return old
}

// Remove deletes the participant's entry if present. Removing an
// absent pair is a no-op.
func (d *Directory) Remove(code domain.SessionCode, p domain.ParticipantID) {
	d.mu.Lock()
	removed := d.removeLocked(code, p, nil)
	d.mu.Unlock()
	if removed {
		log.Info().Str("module", "core.directory").Str("session", string(code)).Str("participant", string(p)).Msg("channel removed")
	}
}

// RemoveChannel deletes ch only while it is still the registered
// channel for its pair, so a superseded connection's cleanup cannot
// evict its successor. Reports whether it removed anything.
func (d *Directory) RemoveChannel(ch *Channel) bool {
	d.mu.Lock()
	removed := d.removeLocked(ch.Session(), ch.Participant(), ch)
	d.mu.Unlock()
	if removed {
		log.Info().Str("module", "core.directory").Str("session", string(ch.Session())).Str("participant", string(ch.Participant())).Msg("channel removed")
	}
	return removed
}

// removeLocked deletes the entry for (code, p). When match is non-nil
// the delete happens only if that exact channel is still registered.
// Caller holds d.mu.
func (d *Directory) removeLocked(code domain.SessionCode, p domain.ParticipantID, match *Channel) bool {
	b := d.buckets[code]
	if b == nil {
		return false
	}
	b.mu.Lock()
	cur, ok := b.channels[p]
	if !ok || (match != nil && cur != match) {
		b.mu.Unlock()
		return false
	}
	delete(b.channels, p)
	empty := len(b.channels) == 0
	b.mu.Unlock()
	if empty {
		delete(d.buckets, code)
	}
	delete(d.sessionOf, p)
	return true
}

// RemoveSession drops the whole bucket and returns the evicted
// channels. The caller owns closing their conduits.
func (d *Directory) RemoveSession(code domain.SessionCode) []*Channel {
	d.mu.Lock()
	b := d.buckets[code]
	if b == nil {
		d.mu.Unlock()
		return nil
	}
	delete(d.buckets, code)
	b.mu.Lock()
	evicted := make([]*Channel, 0, len(b.channels))
	for p, ch := range b.channels {
		evicted = append(evicted, ch)
		delete(d.sessionOf, p)
	}
	clear(b.channels)
	b.mu.Unlock()
	d.mu.Unlock()

	log.Info().Str("module", "core.directory").Str("session", string(code)).Int("evicted", len(evicted)).Msg("session removed")
	return evicted
}

// Members returns a point-in-time membership snapshot. Unknown
// sessions yield an empty snapshot, not an error.
func (d *Directory) Members(code domain.SessionCode) []domain.ParticipantID {
	b := d.bucket(code)
	if b == nil {
		return nil
	}
	b.mu.RLock()
	out := make([]domain.ParticipantID, 0, len(b.channels))
	for p := range b.channels {
		out = append(out, p)
	}
	b.mu.RUnlock()
	return out
}

// Channels returns a snapshot of the session's live channels for
// fan-out.
func (d *Directory) Channels(code domain.SessionCode) []*Channel {
	b := d.bucket(code)
	if b == nil {
		return nil
	}
	b.mu.RLock()
	out := make([]*Channel, 0, len(b.channels))
	for _, ch := range b.channels {
		out = append(out, ch)
	}
	b.mu.RUnlock()
	return out
}

// SessionOf resolves which session a participant is registered under.
func (d *Directory) SessionOf(p domain.ParticipantID) (domain.SessionCode, bool) {
	d.mu.RLock()
	code, ok := d.sessionOf[p]
	d.mu.RUnlock()
	return code, ok
}

// Channel resolves a participant's live channel via the reverse index.
func (d *Directory) Channel(p domain.ParticipantID) (*Channel, bool) {
	d.mu.RLock()
	code, ok := d.sessionOf[p]
	var b *bucket
	if ok {
		b = d.buckets[code]
	}
	d.mu.RUnlock()
	if b == nil {
		return nil, false
	}
	b.mu.RLock()
	ch, ok := b.channels[p]
	b.mu.RUnlock()
	return ch, ok
}

func (d *Directory) bucket(code domain.SessionCode) *bucket {
	d.mu.RLock()
	b := d.buckets[code]
	d.mu.RUnlock()
	return b
}

// Len counts live sessions.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.buckets)
}

// MemberCount counts live channels in one session.
func (d *Directory) MemberCount(code domain.SessionCode) int {
	b := d.bucket(code)
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels)
}
