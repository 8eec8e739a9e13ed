package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krether/huddle/internal/domain"
)

func wireKeys(t *testing.T, ev Event) map[string]json.RawMessage {
	t.Helper()
	data, err := ev.Encode()
	require.NoError(t, err)
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestEventWireShapes(t *testing.T) {
	t.Run("participant joined carries only id and timestamp", func(t *testing.T) {
		m := wireKeys(t, NewParticipantJoined("alice"))
		assert.ElementsMatch(t, []string{"type", "timestamp", "participant_id"}, keysOf(m))
	})

	t.Run("session joined includes snapshot and details", func(t *testing.T) {
		info := &domain.SessionInfo{Code: "12345678901", Title: "Standup", HostID: "alice", Status: domain.StatusActive}
		ev := NewSessionJoined("12345678901", []domain.ParticipantID{"alice", "bob"}, info)
		data, err := ev.Encode()
		require.NoError(t, err)

		var got Event
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, EventSessionJoined, got.Type)
		assert.Equal(t, domain.SessionCode("12345678901"), got.SessionID)
		assert.ElementsMatch(t, []domain.ParticipantID{"alice", "bob"}, got.Participants)
		require.NotNil(t, got.Session)
		assert.Equal(t, "Standup", got.Session.Title)
		assert.Equal(t, domain.ParticipantID("alice"), got.Session.HostID)
		assert.Equal(t, "active", got.Session.Status)
	})

	t.Run("session joined tolerates missing details", func(t *testing.T) {
		m := wireKeys(t, NewSessionJoined("s1", []domain.ParticipantID{"alice"}, nil))
		assert.NotContains(t, keysOf(m), "session")
	})

	t.Run("signal payload passes through untouched", func(t *testing.T) {
		payload := json.RawMessage(`{"candidate":"cand:1 1 udp 2122 192.0.2.7 51000 typ host","mid":"0"}`)
		data, err := NewSignal(EventSignalCandidate, "bob", payload).Encode()
		require.NoError(t, err)
		var got Event
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, domain.ParticipantID("bob"), got.From)
		assert.JSONEq(t, string(payload), string(got.Payload))
	})

	t.Run("media state omits unset flags", func(t *testing.T) {
		on := true
		m := wireKeys(t, NewMediaStateChanged("alice", MediaState{AudioEnabled: &on}))
		keys := keysOf(m)
		assert.Contains(t, keys, "audio_enabled")
		assert.NotContains(t, keys, "video_enabled")
		assert.NotContains(t, keys, "screen_sharing")
	})

	t.Run("diagnostics carry a message", func(t *testing.T) {
		var got Event
		data, err := NewUnsupportedTag("dance").Encode()
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, EventUnsupportedTag, got.Type)
		assert.Contains(t, got.Message, "dance")
	})
}

func TestEventTimestampIsRFC3339UTC(t *testing.T) {
	ev := NewParticipantLeft("bob")
	ts, err := time.Parse(time.RFC3339, ev.Timestamp)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())
	assert.WithinDuration(t, time.Now().UTC(), ts, 5*time.Second)
}

func keysOf(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
