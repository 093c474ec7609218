package rbac

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
)

// Authorizer renders allow/deny decisions from role assignments. It never
// checks document existence; surfacing NotFound distinctly from Forbidden is
// the coordinator's job, so that a denied caller cannot probe for existence.
type Authorizer struct {
	roles  RoleStore
	logger zerolog.Logger
}

func NewAuthorizer(roles RoleStore, logger zerolog.Logger) *Authorizer {
	return &Authorizer{
		roles:  roles,
		logger: logger.With().Str("component", "authorizer").Logger(),
	}
}

// Authorize reports whether username may perform action on the document.
// An identity with no roles on the document is denied, not an error.
func (a *Authorizer) Authorize(ctx context.Context, username string, action string, documentID string) (bool, error) {
	required, ok := RequiredPermission(action)
	if !ok {
		a.logger.Warn().Str("action", action).Msg("unknown action requested")
		return false, nil
	}

	assigned, err := a.roles.AssignedRoles(ctx, username, documentID)
	if err != nil {
		return false, err
	}
	if len(assigned) == 0 {
		return false, nil
	}

	granted, err := a.roles.RolePermissions(ctx, assigned)
	if err != nil {
		return false, err
	}

	return slices.Contains(granted, required), nil
}
