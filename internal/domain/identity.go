// Package domain contains the identifier and metadata types shared by
// every layer. No transport or lifecycle logic lives here.
package domain

import "errors"

const (
	MaxParticipantIDLen = 64
	MaxDisplayNameLen   = 64
)

var (
	ErrParticipantIDEmpty   = errors.New("participant id empty")
	ErrParticipantIDTooLong = errors.New("participant id too long")
	ErrDisplayNameTooLong   = errors.New("display name too long")
)

type (
	// ParticipantID identifies a principal within a session. Opaque to
	// this service; minted by the account system.
	ParticipantID string

	// SessionCode identifies a session. Opaque key; the record behind
	// it belongs to the meeting service.
	SessionCode string
)

// Identity is the verified principal behind a connection attempt.
type Identity struct {
	ID          ParticipantID `json:"id"`
	DisplayName string        `json:"display_name,omitempty"`
}

// NewIdentity validates the raw claims before they reach the registry.
func NewIdentity(id, displayName string) (Identity, error) {
	if id == "" {
		return Identity{}, ErrParticipantIDEmpty
	}
	if len(id) > MaxParticipantIDLen {
		return Identity{}, ErrParticipantIDTooLong
	}
	if len(displayName) > MaxDisplayNameLen {
		return Identity{}, ErrDisplayNameTooLong
	}
	return Identity{ID: ParticipantID(id), DisplayName: displayName}, nil
}
