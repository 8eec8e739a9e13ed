package app

import (
	"context"
	"errors"

	"github.com/krether/huddle/internal/domain"
)

var (
	// ErrInvalidCredential covers missing, malformed and expired
	// credentials alike; the gateway never tells callers which.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrSessionNotFound reports an unknown session code.
	ErrSessionNotFound = errors.New("session not found")
)

// Authorizer verifies the credential presented with a connection
// attempt and resolves it to a participant identity.
type Authorizer interface {
	AuthorizeCredential(ctx context.Context, credential string) (domain.Identity, error)
}

// Meetings is the read model of the meeting service: session metadata
// and who is allowed in. This service never writes through it.
type Meetings interface {
	ResolveSession(ctx context.Context, code domain.SessionCode) (domain.SessionInfo, error)
	ConfirmMembership(ctx context.Context, code domain.SessionCode, id domain.Identity) (bool, error)
}
