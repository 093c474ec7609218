package rbac

import (
	"context"
	"notebook-publishing-service/internal/collaborator"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&Permission{},
		&Role{},
		&PermissionRoleLink{},
		&collaborator.Collaborator{},
		&collaborator.CollaboratorRole{},
	))
	return db
}

func TestSeed_CreatesVocabulary(t *testing.T) {
	db := testDB(t)
	require.NoError(t, Seed(context.Background(), db))

	var permissions, roles, links int64
	db.Model(&Permission{}).Count(&permissions)
	db.Model(&Role{}).Count(&roles)
	db.Model(&PermissionRoleLink{}).Count(&links)

	assert.Equal(t, int64(3), permissions)
	assert.Equal(t, int64(3), roles)
	assert.Equal(t, int64(6), links)
}

func TestSeed_Idempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, Seed(context.Background(), db))
	require.NoError(t, Seed(context.Background(), db))
	require.NoError(t, Seed(context.Background(), db))

	var permissions, roles, links int64
	db.Model(&Permission{}).Count(&permissions)
	db.Model(&Role{}).Count(&roles)
	db.Model(&PermissionRoleLink{}).Count(&links)

	assert.Equal(t, int64(3), permissions)
	assert.Equal(t, int64(3), roles)
	assert.Equal(t, int64(6), links)
}

func TestRoleStore_Lookups(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, Seed(ctx, db))

	grants := []collaborator.CollaboratorRole{
		{Username: "alice", DocumentID: "doc-1", Role: RoleExecutor},
		{Username: "bob", DocumentID: "doc-1", Role: RoleReader},
		{Username: "bob", DocumentID: "doc-2", Role: RoleWriter},
	}
	require.NoError(t, db.Create(&grants).Error)

	store := NewRoleStore(db)

	roles, err := store.AssignedRoles(ctx, "bob", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{RoleReader}, roles)

	roles, err = store.AssignedRoles(ctx, "carol", "doc-1")
	require.NoError(t, err)
	assert.Empty(t, roles)

	permissions, err := store.RolePermissions(ctx, []string{RoleReader})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{PermissionRead}, permissions)

	permissions, err = store.RolePermissions(ctx, []string{RoleReader, RoleWriter})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{PermissionRead, PermissionWrite}, permissions)

	permissions, err = store.RolePermissions(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, permissions)
}

// End-to-end scenario over real tables: alice owns doc-1, bob reads it.
func TestAuthorize_SharingScenario(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, Seed(ctx, db))

	grants := []collaborator.CollaboratorRole{
		{Username: "alice", DocumentID: "doc-1", Role: RoleExecutor},
		{Username: "bob", DocumentID: "doc-1", Role: RoleReader},
	}
	require.NoError(t, db.Create(&grants).Error)

	authorizer := NewAuthorizer(NewRoleStore(db), zerolog.Nop())

	cases := []struct {
		username string
		action   string
		want     bool
	}{
		{"alice", ActionRead, true},
		{"alice", ActionUpdate, true},
		{"alice", ActionDelete, true},
		{"bob", ActionRead, true},
		{"bob", ActionUpdate, false},
		{"bob", ActionDelete, false},
		{"carol", ActionRead, false},
	}
	for _, tc := range cases {
		allowed, err := authorizer.Authorize(ctx, tc.username, tc.action, "doc-1")
		require.NoError(t, err)
		assert.Equalf(t, tc.want, allowed, "%s %s doc-1", tc.username, tc.action)
	}
}
