package rbac

import (
	"context"

	"gorm.io/gorm"
)

// RoleStore is a pure lookup layer: role assignments per (identity, document)
// and permission sets per role. No business logic lives here.
type RoleStore interface {
	AssignedRoles(ctx context.Context, username string, documentID string) ([]string, error)
	RolePermissions(ctx context.Context, roles []string) ([]string, error)
}

type SQLRoleStore struct {
	db *gorm.DB
}

func NewRoleStore(db *gorm.DB) RoleStore {
	return &SQLRoleStore{db: db}
}

// AssignedRoles returns the role names granted to username on the document.
func (s *SQLRoleStore) AssignedRoles(ctx context.Context, username string, documentID string) ([]string, error) {
	var roles []string
	err := s.db.WithContext(ctx).
		Table("collaborator_roles").
		Where("username = ? AND document_id = ?", username, documentID).
		Pluck("role", &roles).Error
	return roles, err
}

// RolePermissions returns the union of permission names granted by roles.
func (s *SQLRoleStore) RolePermissions(ctx context.Context, roles []string) ([]string, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	var permissions []string
	err := s.db.WithContext(ctx).
		Model(&PermissionRoleLink{}).
		Where("role_name IN ?", roles).
		Distinct().
		Pluck("permission_name", &permissions).Error
	return permissions, err
}
