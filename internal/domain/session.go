package domain

// SessionStatus mirrors the lifecycle the meeting service tracks.
type SessionStatus string

const (
	StatusScheduled SessionStatus = "scheduled"
	StatusActive    SessionStatus = "active"
	StatusEnded     SessionStatus = "ended"
	StatusCancelled SessionStatus = "cancelled"
)

// SessionInfo is the slice of session metadata this service reads.
// It is surfaced to joining participants and never mutated here.
type SessionInfo struct {
	Code   SessionCode   `json:"code"`
	Title  string        `json:"title"`
	HostID ParticipantID `json:"host_id"`
	Status SessionStatus `json:"status"`
}
