// Package meetings provides the read models of the meeting service
// the gateway authorizes joins against: an in-memory store for dev and
// tests, and a Redis-backed one for deployments where the meeting
// service shares its records.
package meetings

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/krether/huddle/internal/app"
	"github.com/krether/huddle/internal/domain"
)

const codeDigits = 11

// NewSessionCode mints a code in the format the meeting service uses:
// a fixed-length string of digits.
func NewSessionCode() domain.SessionCode {
	var b strings.Builder
	b.Grow(codeDigits)
	for range codeDigits {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return domain.SessionCode(b.String())
}

type record struct {
	info    domain.SessionInfo
	members map[domain.ParticipantID]struct{}
}

// Store is the in-memory meetings read model.
type Store struct {
	mu       sync.RWMutex
	sessions map[domain.SessionCode]*record
}

func NewStore() *Store {
	return &Store{sessions: make(map[domain.SessionCode]*record)}
}

// Put upserts a session record with its registered participants. The
// host is always a member.
func (s *Store) Put(info domain.SessionInfo, members ...domain.ParticipantID) {
	rec := &record{info: info, members: make(map[domain.ParticipantID]struct{}, len(members)+1)}
	if info.HostID != "" {
		rec.members[info.HostID] = struct{}{}
	}
	for _, p := range members {
		rec.members[p] = struct{}{}
	}
	s.mu.Lock()
	s.sessions[info.Code] = rec
	s.mu.Unlock()
}

// AddParticipant registers one more allowed participant.
func (s *Store) AddParticipant(code domain.SessionCode, p domain.ParticipantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[code]
	if !ok {
		return app.ErrSessionNotFound
	}
	rec.members[p] = struct{}{}
	return nil
}

// SetStatus moves a session through its lifecycle.
func (s *Store) SetStatus(code domain.SessionCode, status domain.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[code]
	if !ok {
		return app.ErrSessionNotFound
	}
	rec.info.Status = status
	return nil
}

func (s *Store) ResolveSession(_ context.Context, code domain.SessionCode) (domain.SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[code]
	if !ok {
		return domain.SessionInfo{}, app.ErrSessionNotFound
	}
	return rec.info, nil
}

func (s *Store) ConfirmMembership(_ context.Context, code domain.SessionCode, id domain.Identity) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[code]
	if !ok {
		return false, app.ErrSessionNotFound
	}
	if rec.info.HostID == id.ID {
		return true, nil
	}
	_, member := rec.members[id.ID]
	return member, nil
}
