package middleware

import (
	"context"
	"notebook-publishing-service/internal/auth"
	"notebook-publishing-service/internal/errors"

	"github.com/gin-gonic/gin"
)

type Authorizer interface {
	Authorize(ctx context.Context, username string, action string, documentID string) (bool, error)
}

type ExistenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type Authorize struct {
	Authorizer Authorizer
	Documents  ExistenceChecker
}

// Require checks the document id in the route against the caller's roles.
// Existence is decided first and identically for every caller, so a denied
// caller cannot tell a missing document from a missing permission.
func (m *Authorize) Require(action string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.Param("id")

		exists, err := m.Documents.Exists(ctx.Request.Context(), id)
		if err != nil {
			ctx.Error(errors.Internal(err))
			ctx.Abort()
			return
		}
		if !exists {
			ctx.Error(errors.NotFound("Document not found", nil))
			ctx.Abort()
			return
		}

		value, _ := ctx.Get("identity")
		identity, ok := value.(*auth.Identity)
		if !ok {
			ctx.Error(errors.Unauthorized("Unauthorized", nil))
			ctx.Abort()
			return
		}

		allowed, err := m.Authorizer.Authorize(ctx.Request.Context(), identity.Username, action, id)
		if err != nil {
			ctx.Error(errors.Internal(err))
			ctx.Abort()
			return
		}
		if !allowed {
			ctx.Error(errors.Forbidden("Not authorized", nil))
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}
