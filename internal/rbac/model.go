package rbac

// Permission is a named atomic capability. The vocabulary is fixed and seeded
// once at startup.
type Permission struct {
	Name string `gorm:"primaryKey" json:"name"`
}

// Role is a named bundle of permissions.
type Role struct {
	Name string `gorm:"primaryKey" json:"name"`
}

// PermissionRoleLink joins roles and permissions many-to-many.
type PermissionRoleLink struct {
	PermissionName string `gorm:"primaryKey"`
	RoleName       string `gorm:"primaryKey;index"`
}

const (
	PermissionRead    = "READ"
	PermissionWrite   = "WRITE"
	PermissionExecute = "EXECUTE"

	RoleReader   = "READER"
	RoleWriter   = "WRITER"
	RoleExecutor = "EXECUTOR"
)

// AuthorRole is granted to a document's author at creation time regardless of
// what the request asked for.
const AuthorRole = RoleExecutor

// ActionRead and friends name the coordinator operations an authorization
// decision can be requested for.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

var actionPermissions = map[string]string{
	ActionRead:   PermissionRead,
	ActionCreate: PermissionWrite,
	ActionUpdate: PermissionWrite,
	ActionDelete: PermissionWrite,
}

// RequiredPermission maps an action to the permission it needs.
func RequiredPermission(action string) (string, bool) {
	permission, ok := actionPermissions[action]
	return permission, ok
}
