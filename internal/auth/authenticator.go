package auth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"notebook-publishing-service/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Identity is a verified caller, keyed by a stable unique username.
type Identity struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// KeyProvider serves signature-verification keys by key id.
type KeyProvider interface {
	Get(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// Authenticator verifies bearer tokens against the issuer's published keys.
type Authenticator struct {
	keys          KeyProvider
	algorithm     string
	usernameClaim string
	logger        zerolog.Logger
}

func NewAuthenticator(keys KeyProvider, algorithm string, usernameClaim string, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		keys:          keys,
		algorithm:     algorithm,
		usernameClaim: usernameClaim,
		logger:        logger.With().Str("component", "authenticator").Logger(),
	}
}

// Authenticate verifies the token's signature and claims and maps them to an
// Identity. Every failure mode collapses to a single Unauthorized error; the
// specific cause is kept internal so unauthenticated callers learn nothing.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	parsed, err := jwt.Parse(
		token,
		func(t *jwt.Token) (interface{}, error) {
			kid, ok := t.Header["kid"].(string)
			if !ok || kid == "" {
				return nil, fmt.Errorf("missing kid in token header")
			}
			return a.keys.Get(ctx, kid)
		},
		jwt.WithValidMethods([]string{a.algorithm}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, a.unauthorized(err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, a.unauthorized(fmt.Errorf("unexpected claims type %T", parsed.Claims))
	}

	username, ok := claims[a.usernameClaim].(string)
	if !ok || username == "" {
		return nil, a.unauthorized(fmt.Errorf("missing %q claim", a.usernameClaim))
	}

	identity := &Identity{Username: username}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}

	return identity, nil
}

func (a *Authenticator) unauthorized(cause error) error {
	a.logger.Info().Err(cause).Msg("token rejected")
	return errors.Unauthorized("Unauthorized", cause)
}
