package meetings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krether/huddle/internal/app"
	"github.com/krether/huddle/internal/domain"
)

func seededStore() *Store {
	s := NewStore()
	s.Put(domain.SessionInfo{
		Code:   "12345678901",
		Title:  "Standup",
		HostID: "alice",
		Status: domain.StatusActive,
	}, "bob")
	return s
}

func TestStoreResolveSession(t *testing.T) {
	s := seededStore()
	ctx := context.Background()

	info, err := s.ResolveSession(ctx, "12345678901")
	require.NoError(t, err)
	assert.Equal(t, "Standup", info.Title)
	assert.Equal(t, domain.ParticipantID("alice"), info.HostID)
	assert.Equal(t, domain.StatusActive, info.Status)

	_, err = s.ResolveSession(ctx, "00000000000")
	assert.ErrorIs(t, err, app.ErrSessionNotFound)
}

func TestStoreConfirmMembership(t *testing.T) {
	s := seededStore()
	ctx := context.Background()

	cases := []struct {
		name string
		id   domain.ParticipantID
		want bool
	}{
		{"host", "alice", true},
		{"registered participant", "bob", true},
		{"stranger", "mallory", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := s.ConfirmMembership(ctx, "12345678901", domain.Identity{ID: tc.id})
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}

	_, err := s.ConfirmMembership(ctx, "00000000000", domain.Identity{ID: "alice"})
	assert.ErrorIs(t, err, app.ErrSessionNotFound)
}

func TestStoreMutators(t *testing.T) {
	s := seededStore()
	ctx := context.Background()

	require.NoError(t, s.AddParticipant("12345678901", "carol"))
	ok, err := s.ConfirmMembership(ctx, "12345678901", domain.Identity{ID: "carol"})
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.SetStatus("12345678901", domain.StatusEnded))
	info, err := s.ResolveSession(ctx, "12345678901")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, info.Status)

	assert.ErrorIs(t, s.AddParticipant("00000000000", "carol"), app.ErrSessionNotFound)
	assert.ErrorIs(t, s.SetStatus("00000000000", domain.StatusEnded), app.ErrSessionNotFound)
}

func TestNewSessionCode(t *testing.T) {
	seen := make(map[domain.SessionCode]bool)
	for range 32 {
		code := NewSessionCode()
		require.Len(t, string(code), codeDigits)
		for _, r := range string(code) {
			require.True(t, r >= '0' && r <= '9', "code %q must be digits", code)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "codes should not repeat constantly")
}
