package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/krether/huddle/internal/app"
	"github.com/krether/huddle/internal/domain"
)

// StaticAuthorizer resolves fixed bearer tokens from memory. No
// cryptography involved; meant for dev setups and tests.
type StaticAuthorizer struct {
	mu     sync.RWMutex
	tokens map[string]domain.Identity
}

func NewStaticAuthorizer() *StaticAuthorizer {
	return &StaticAuthorizer{tokens: make(map[string]domain.Identity)}
}

// Grant registers a token. Returns the authorizer so fixtures can
// chain grants.
func (a *StaticAuthorizer) Grant(token string, id domain.Identity) *StaticAuthorizer {
	a.mu.Lock()
	a.tokens[token] = id
	a.mu.Unlock()
	return a
}

func (a *StaticAuthorizer) AuthorizeCredential(_ context.Context, credential string) (domain.Identity, error) {
	a.mu.RLock()
	id, ok := a.tokens[credential]
	a.mu.RUnlock()
	if !ok {
		return domain.Identity{}, fmt.Errorf("%w: unknown token", app.ErrInvalidCredential)
	}
	return id, nil
}
