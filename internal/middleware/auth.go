package middleware

import (
	"context"
	"notebook-publishing-service/internal/auth"
	"notebook-publishing-service/internal/collaborator"
	"notebook-publishing-service/internal/errors"
	"strings"

	"github.com/gin-gonic/gin"
)

type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

type IdentityRegistrar interface {
	Upsert(ctx context.Context, c collaborator.Collaborator) error
}

type Auth struct {
	Authenticator TokenAuthenticator
	Identities    IdentityRegistrar
}

// RequireAuth verifies the bearer token and stores the resulting Identity in
// the request context. The collaborator row is upserted on every successful
// authentication so identities exist from their first verified call.
func (m *Auth) RequireAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			ctx.Error(errors.Unauthorized("Unsupported authentication method", nil))
			ctx.Abort()
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		identity, err := m.Authenticator.Authenticate(ctx.Request.Context(), token)
		if err != nil {
			ctx.Error(err)
			ctx.Abort()
			return
		}

		err = m.Identities.Upsert(ctx.Request.Context(), collaborator.Collaborator{
			Username: identity.Username,
			Name:     identity.Name,
			Email:    identity.Email,
		})
		if err != nil {
			ctx.Error(errors.Internal(err))
			ctx.Abort()
			return
		}

		ctx.Set("identity", identity)
		ctx.Next()
	}
}
