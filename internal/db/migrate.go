package db

import (
	"context"
	"log"
	"notebook-publishing-service/internal/collaborator"
	"notebook-publishing-service/internal/document"
	"notebook-publishing-service/internal/rbac"
)

// Migrate runs database migrations
func Migrate() {
	err := AppDb.AutoMigrate(
		&rbac.Permission{},
		&rbac.Role{},
		&rbac.PermissionRoleLink{},
		&collaborator.Collaborator{},
		&collaborator.CollaboratorRole{},
		&document.Metadata{},
		&document.Content{},
	)

	if err != nil {
		log.Fatal(err)
	}

	log.Println("Database schema migrated successfully")
}

// SeedRoles creates the fixed role and permission vocabulary.
// Safe to call on every startup; existing seed data is detected and kept.
func SeedRoles() {
	if err := rbac.Seed(context.Background(), AppDb); err != nil {
		log.Fatalf("failed to seed roles and permissions: %v", err)
	}
}
