package collaborator

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// Store owns the collaborator partition of a shared document: identity rows
// and role grants. It knows nothing about metadata or content.
type Store interface {
	Upsert(ctx context.Context, c Collaborator) error
	Add(ctx context.Context, documentID string, c Collaborator, roles []string) error
	Update(ctx context.Context, documentID string, c Collaborator, roles []string) error
	Delete(ctx context.Context, documentID string, username string) error
	DeleteForDocument(ctx context.Context, documentID string) error
	Get(ctx context.Context, documentID string) ([]CollaboratorRole, error)
	ListDocuments(ctx context.Context, username string) ([]string, error)
	Search(ctx context.Context, substring string) ([]Collaborator, error)
}

type SQLStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &SQLStore{db: db}
}

// Upsert creates the identity row or refreshes its display fields.
// The username key itself is never rewritten.
func (s *SQLStore) Upsert(ctx context.Context, c Collaborator) error {
	var current Collaborator
	err := s.db.WithContext(ctx).First(&current, "username = ?", c.Username).Error
	if err == gorm.ErrRecordNotFound {
		return s.db.WithContext(ctx).Create(&c).Error
	}
	if err != nil {
		return err
	}

	if c.Name != "" {
		current.Name = c.Name
	}
	if c.Email != "" {
		current.Email = c.Email
	}
	return s.db.WithContext(ctx).Save(&current).Error
}

// Add grants roles to the collaborator on the document, creating the identity
// row if needed. Grants that already exist are kept as-is.
func (s *SQLStore) Add(ctx context.Context, documentID string, c Collaborator, roles []string) error {
	if err := s.Upsert(ctx, c); err != nil {
		return err
	}
	for _, role := range roles {
		if err := s.upsertGrant(ctx, CollaboratorRole{
			Username:   c.Username,
			DocumentID: documentID,
			Role:       role,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Update has the same merge semantics as Add: supplied grants are written,
// existing grants are untouched.
func (s *SQLStore) Update(ctx context.Context, documentID string, c Collaborator, roles []string) error {
	return s.Add(ctx, documentID, c, roles)
}

func (s *SQLStore) upsertGrant(ctx context.Context, grant CollaboratorRole) error {
	var existing CollaboratorRole
	err := s.db.WithContext(ctx).
		Where("username = ? AND document_id = ? AND role = ?", grant.Username, grant.DocumentID, grant.Role).
		First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return s.db.WithContext(ctx).Create(&grant).Error
	}
	return err
}

// Delete removes every grant the collaborator holds on the document.
func (s *SQLStore) Delete(ctx context.Context, documentID string, username string) error {
	return s.db.WithContext(ctx).
		Where("username = ? AND document_id = ?", username, documentID).
		Delete(&CollaboratorRole{}).Error
}

// DeleteForDocument removes all grants on the document in one statement.
func (s *SQLStore) DeleteForDocument(ctx context.Context, documentID string) error {
	return s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&CollaboratorRole{}).Error
}

// Get returns every grant on the document.
func (s *SQLStore) Get(ctx context.Context, documentID string) ([]CollaboratorRole, error) {
	var grants []CollaboratorRole
	err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Find(&grants).Error
	return grants, err
}

// ListDocuments returns the ids of every document the identity has a grant on.
func (s *SQLStore) ListDocuments(ctx context.Context, username string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&CollaboratorRole{}).
		Where("username = ?", username).
		Distinct().
		Pluck("document_id", &ids).Error
	return ids, err
}

// Search matches collaborators whose username, name or email starts with the
// given substring.
func (s *SQLStore) Search(ctx context.Context, substring string) ([]Collaborator, error) {
	var matches []Collaborator
	prefix := strings.ToLower(substring) + "%"
	err := s.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? OR LOWER(name) LIKE ? OR LOWER(email) LIKE ?", prefix, prefix, prefix).
		Find(&matches).Error
	return matches, err
}
