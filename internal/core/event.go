package core

import (
	"encoding/json"
	"time"

	"github.com/krether/huddle/internal/domain"
)

// EventType tags every frame crossing a signaling connection.
type EventType string

const (
	// Presence and lifecycle, server-emitted.
	EventParticipantJoined EventType = "participant-joined"
	EventParticipantLeft   EventType = "participant-left"
	EventSessionJoined     EventType = "session-joined"
	EventSessionStarted    EventType = "session-started"
	EventSessionEnded      EventType = "session-ended"

	// Connection negotiation, relayed between participants verbatim.
	EventSignalOffer     EventType = "signal-offer"
	EventSignalAnswer    EventType = "signal-answer"
	EventSignalCandidate EventType = "signal-candidate"

	// Participant state, fanned out within the session.
	EventChatText          EventType = "chat-text"
	EventMediaStateChanged EventType = "media-state-changed"

	// Liveness and diagnostics.
	EventKeepalivePing  EventType = "keepalive-ping"
	EventKeepalivePong  EventType = "keepalive-pong"
	EventLeave          EventType = "leave"
	EventMalformedInput EventType = "malformed-input"
	EventUnsupportedTag EventType = "unsupported-tag"
)

// SessionDetails is the session metadata echoed to a joining
// participant alongside the membership snapshot.
type SessionDetails struct {
	Title  string               `json:"title"`
	HostID domain.ParticipantID `json:"host_id"`
	Status string               `json:"status"`
}

// MediaState carries a participant's device flags. Pointers so that
// flags a client did not mention stay absent on the wire.
type MediaState struct {
	AudioEnabled  *bool `json:"audio_enabled,omitempty"`
	VideoEnabled  *bool `json:"video_enabled,omitempty"`
	ScreenSharing *bool `json:"screen_sharing,omitempty"`
}

// Event is the outbound envelope. Fields are populated per type and
// omitted otherwise; Payload passes through the router untouched.
type Event struct {
	Type          EventType              `json:"type"`
	Timestamp     string                 `json:"timestamp,omitempty"`
	SessionID     domain.SessionCode     `json:"session_id,omitempty"`
	ParticipantID domain.ParticipantID   `json:"participant_id,omitempty"`
	From          domain.ParticipantID   `json:"from,omitempty"`
	Participants  []domain.ParticipantID `json:"participants,omitempty"`
	Session       *SessionDetails        `json:"session,omitempty"`
	Text          string                 `json:"text,omitempty"`
	Message       string                 `json:"message,omitempty"`
	AudioEnabled  *bool                  `json:"audio_enabled,omitempty"`
	VideoEnabled  *bool                  `json:"video_enabled,omitempty"`
	ScreenSharing *bool                  `json:"screen_sharing,omitempty"`
	Payload       json.RawMessage        `json:"payload,omitempty"`
}

// Encode marshals the envelope once; fan-out reuses the bytes.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func NewParticipantJoined(p domain.ParticipantID) Event {
	return Event{Type: EventParticipantJoined, ParticipantID: p, Timestamp: stamp()}
}

func NewParticipantLeft(p domain.ParticipantID) Event {
	return Event{Type: EventParticipantLeft, ParticipantID: p, Timestamp: stamp()}
}

// NewSessionJoined builds the private snapshot a joiner receives.
// Details are optional; membership always reflects the directory.
func NewSessionJoined(code domain.SessionCode, members []domain.ParticipantID, info *domain.SessionInfo) Event {
	ev := Event{
		Type:         EventSessionJoined,
		SessionID:    code,
		Participants: members,
		Timestamp:    stamp(),
	}
	if info != nil {
		ev.Session = &SessionDetails{
			Title:  info.Title,
			HostID: info.HostID,
			Status: string(info.Status),
		}
	}
	return ev
}

func NewSessionStarted(code domain.SessionCode) Event {
	return Event{Type: EventSessionStarted, SessionID: code, Timestamp: stamp()}
}

func NewSessionEnded(code domain.SessionCode) Event {
	return Event{Type: EventSessionEnded, SessionID: code, Timestamp: stamp()}
}

// NewSignal wraps a negotiation payload for directed delivery. The
// payload is opaque; only the sender is stamped on.
func NewSignal(kind EventType, from domain.ParticipantID, payload json.RawMessage) Event {
	return Event{Type: kind, From: from, Payload: payload, Timestamp: stamp()}
}

func NewChatText(from domain.ParticipantID, text string) Event {
	return Event{Type: EventChatText, From: from, Text: text, Timestamp: stamp()}
}

func NewMediaStateChanged(from domain.ParticipantID, state MediaState) Event {
	return Event{
		Type:          EventMediaStateChanged,
		ParticipantID: from,
		AudioEnabled:  state.AudioEnabled,
		VideoEnabled:  state.VideoEnabled,
		ScreenSharing: state.ScreenSharing,
		Timestamp:     stamp(),
	}
}

func NewKeepalivePong() Event {
	return Event{Type: EventKeepalivePong, Timestamp: stamp()}
}

func NewMalformedInput(msg string) Event {
	return Event{Type: EventMalformedInput, Message: msg, Timestamp: stamp()}
}

func NewUnsupportedTag(tag string) Event {
	return Event{Type: EventUnsupportedTag, Message: "unsupported type: " + tag, Timestamp: stamp()}
}
