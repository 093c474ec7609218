package document

import (
	"encoding/json"
	"notebook-publishing-service/internal/collaborator"
	"time"
)

// Metadata is the owning authority for a document's existence. The id is a
// caller-assigned opaque string; version counts content-affecting updates.
type Metadata struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	Author        string    `gorm:"index" json:"author"`
	Name          string    `json:"name,omitempty"`
	Title         string    `json:"title,omitempty"`
	Version       uint64    `json:"version"`
	ShareableLink string    `json:"shareable_link,omitempty"`
	CreatedAt     time.Time `json:"created"`
	UpdatedAt     time.Time `json:"last_modified"`
}

func (Metadata) TableName() string {
	return "document_metadata"
}

// Content is the document payload, stored independently of its metadata.
// A document may exist without content.
type Content struct {
	DocumentID string          `gorm:"primaryKey" json:"id"`
	Body       json.RawMessage `gorm:"type:jsonb" json:"content,omitempty"`
	Mimetype   string          `json:"mimetype,omitempty"`
	Format     string          `json:"format,omitempty"`
	CreatedAt  time.Time       `json:"created"`
	UpdatedAt  time.Time       `json:"last_modified"`
}

func (Content) TableName() string {
	return "document_contents"
}

// SharedDocumentRequest is the write-side payload. Collaborators and roles
// are separated for convenience; every named collaborator receives every
// requested role.
type SharedDocumentRequest struct {
	Metadata      Metadata                    `json:"metadata"`
	Collaborators []collaborator.Collaborator `json:"collaborators,omitempty"`
	Roles         []string                    `json:"roles,omitempty"`
	Content       *Content                    `json:"contents,omitempty"`
}

// View is the read-side aggregate, assembled on demand and never persisted.
type View struct {
	Metadata          Metadata                        `json:"metadata"`
	CollaboratorRoles []collaborator.CollaboratorRole `json:"collaborator_roles,omitempty"`
	Content           *Content                        `json:"contents,omitempty"`
}
