package document

import (
	"context"

	"gorm.io/gorm"
)

// ContentStore owns the content partition, keyed by document id.
type ContentStore interface {
	Add(ctx context.Context, id string, c Content) error
	Update(ctx context.Context, id string, c Content) error
	Get(ctx context.Context, id string) (*Content, error)
	Delete(ctx context.Context, id string) error
}

type SQLContentStore struct {
	db *gorm.DB
}

func NewContentStore(db *gorm.DB) ContentStore {
	return &SQLContentStore{db: db}
}

func (s *SQLContentStore) Add(ctx context.Context, id string, c Content) error {
	return s.upsert(ctx, id, c)
}

func (s *SQLContentStore) Update(ctx context.Context, id string, c Content) error {
	return s.upsert(ctx, id, c)
}

func (s *SQLContentStore) upsert(ctx context.Context, id string, c Content) error {
	c.DocumentID = id

	var current Content
	err := s.db.WithContext(ctx).First(&current, "document_id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return s.db.WithContext(ctx).Create(&c).Error
	}
	if err != nil {
		return err
	}

	if c.Body != nil {
		current.Body = c.Body
	}
	if c.Mimetype != "" {
		current.Mimetype = c.Mimetype
	}
	if c.Format != "" {
		current.Format = c.Format
	}
	return s.db.WithContext(ctx).Save(&current).Error
}

func (s *SQLContentStore) Get(ctx context.Context, id string) (*Content, error) {
	var c Content
	err := s.db.WithContext(ctx).First(&c, "document_id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLContentStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("document_id = ?", id).Delete(&Content{}).Error
}
