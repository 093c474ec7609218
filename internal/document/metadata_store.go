package document

import (
	"context"

	"gorm.io/gorm"
)

// MetadataStore owns the metadata partition, keyed by document id.
// Writes are read-merge-write upserts: only supplied fields are replaced, so a
// partial update never clobbers the rest of the row with defaults.
type MetadataStore interface {
	Add(ctx context.Context, m Metadata) (*Metadata, error)
	Update(ctx context.Context, m Metadata) (*Metadata, error)
	Get(ctx context.Context, id string) (*Metadata, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, ids []string) ([]Metadata, error)
}

type SQLMetadataStore struct {
	db *gorm.DB
}

func NewMetadataStore(db *gorm.DB) MetadataStore {
	return &SQLMetadataStore{db: db}
}

func (s *SQLMetadataStore) Add(ctx context.Context, m Metadata) (*Metadata, error) {
	return s.upsert(ctx, m)
}

func (s *SQLMetadataStore) Update(ctx context.Context, m Metadata) (*Metadata, error) {
	return s.upsert(ctx, m)
}

func (s *SQLMetadataStore) upsert(ctx context.Context, m Metadata) (*Metadata, error) {
	var current Metadata
	err := s.db.WithContext(ctx).First(&current, "id = ?", m.ID).Error
	if err == gorm.ErrRecordNotFound {
		if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
			return nil, err
		}
		return &m, nil
	}
	if err != nil {
		return nil, err
	}

	if m.Author != "" {
		current.Author = m.Author
	}
	if m.Name != "" {
		current.Name = m.Name
	}
	if m.Title != "" {
		current.Title = m.Title
	}
	if m.ShareableLink != "" {
		current.ShareableLink = m.ShareableLink
	}
	if m.Version != 0 {
		current.Version = m.Version
	}
	if err := s.db.WithContext(ctx).Save(&current).Error; err != nil {
		return nil, err
	}
	return &current, nil
}

func (s *SQLMetadataStore) Get(ctx context.Context, id string) (*Metadata, error) {
	var m Metadata
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLMetadataStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&Metadata{}).Error
}

func (s *SQLMetadataStore) List(ctx context.Context, ids []string) ([]Metadata, error) {
	var all []Metadata
	if len(ids) == 0 {
		return all, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&all).Error
	return all, err
}
