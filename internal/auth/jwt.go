// Package auth implements the credential verifiers the gateway
// accepts connections with. Token issuance lives in the account
// service; this side only validates.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/krether/huddle/internal/app"
	"github.com/krether/huddle/internal/domain"
)

// accessClaims is the claim set the account service mints: subject
// carries the participant id, type must be "access", name is the
// optional display name.
type accessClaims struct {
	TokenType string `json:"type"`
	Name      string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenAuthorizer validates HS256 access tokens signed with the
// secret shared with the account service.
type TokenAuthorizer struct {
	parser *jwt.Parser
	secret []byte
}

func NewTokenAuthorizer(secret string, leeway time.Duration) *TokenAuthorizer {
	return &TokenAuthorizer{
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(leeway),
		),
		secret: []byte(secret),
	}
}

func (a *TokenAuthorizer) AuthorizeCredential(ctx context.Context, credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, fmt.Errorf("%w: empty credential", app.ErrInvalidCredential)
	}
	var claims accessClaims
	if _, err := a.parser.ParseWithClaims(credential, &claims, a.keyfunc); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", app.ErrInvalidCredential, err)
	}
	if claims.TokenType != "access" {
		return domain.Identity{}, fmt.Errorf("%w: not an access token", app.ErrInvalidCredential)
	}
	id, err := domain.NewIdentity(claims.Subject, claims.Name)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", app.ErrInvalidCredential, err)
	}
	return id, nil
}

func (a *TokenAuthorizer) keyfunc(*jwt.Token) (any, error) {
	return a.secret, nil
}
