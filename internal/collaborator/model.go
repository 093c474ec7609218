package collaborator

import "time"

// Collaborator is a known identity. The username is the immutable key;
// display fields may change on later authentications.
type Collaborator struct {
	Username  string    `gorm:"primaryKey" json:"username"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CollaboratorRole grants one role to one identity on one document.
// At most one row exists per (username, document, role); an identity may hold
// several distinct roles on the same document.
type CollaboratorRole struct {
	ID         uint64 `gorm:"primaryKey" json:"-"`
	Username   string `gorm:"index;uniqueIndex:unique_grant" json:"username"`
	DocumentID string `gorm:"index;uniqueIndex:unique_grant" json:"document_id"`
	Role       string `gorm:"uniqueIndex:unique_grant" json:"role"`
}
