package document

import (
	"context"
	defError "errors"
	"fmt"
	"notebook-publishing-service/internal/collaborator"
	"notebook-publishing-service/internal/errors"
	"notebook-publishing-service/internal/rbac"
	"notebook-publishing-service/internal/worker"
	"notebook-publishing-service/redis"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Coordinator presents one logical document API over the three partitions.
// Authorization happens before these calls; the coordinator only decides
// existence (NotFound) and composes partition reads/writes.
type Coordinator interface {
	Create(ctx context.Context, req *SharedDocumentRequest) (*View, error)
	Get(ctx context.Context, id string, wantCollaborators bool, wantContent bool) (*View, error)
	Update(ctx context.Context, id string, req *SharedDocumentRequest) (*View, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, username string) ([]View, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type DefaultCoordinator struct {
	metadata      MetadataStore
	collaborators collaborator.Store
	contents      ContentStore
	cache         *redis.Cache
	pool          *worker.WorkerPool
	linkBase      string
	logger        zerolog.Logger
	locks         *idLocks
}

func NewCoordinator(
	metadata MetadataStore,
	collaborators collaborator.Store,
	contents ContentStore,
	cache *redis.Cache,
	pool *worker.WorkerPool,
	linkBase string,
	logger zerolog.Logger,
) Coordinator {
	return &DefaultCoordinator{
		metadata:      metadata,
		collaborators: collaborators,
		contents:      contents,
		cache:         cache,
		pool:          pool,
		linkBase:      linkBase,
		logger:        logger.With().Str("component", "coordinator").Logger(),
		locks:         newIDLocks(),
	}
}

// Create stores a new shared document: metadata first, then grants, then
// content. The author is always granted the top role on top of whatever the
// request asked for. Returns a view without collaborators or content; callers
// re-fetch if they need the full composite.
func (d *DefaultCoordinator) Create(ctx context.Context, req *SharedDocumentRequest) (*View, error) {
	meta := req.Metadata
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}

	unlock := d.locks.Lock(meta.ID)
	defer unlock()

	meta.Version = 1
	if d.linkBase != "" {
		meta.ShareableLink = fmt.Sprintf("%s/%s", d.linkBase, meta.ID)
	}

	stored, err := d.metadata.Add(ctx, meta)
	if err != nil {
		return nil, err
	}

	authorGranted := false
	for _, c := range req.Collaborators {
		roles := req.Roles
		if c.Username == stored.Author {
			roles = append(slices.Clone(roles), rbac.AuthorRole)
			authorGranted = true
		}
		if err := d.collaborators.Add(ctx, stored.ID, c, roles); err != nil {
			return nil, err
		}
	}
	// The author holds the top role even when omitted from the request.
	if !authorGranted && stored.Author != "" {
		grant := collaborator.Collaborator{Username: stored.Author}
		if err := d.collaborators.Add(ctx, stored.ID, grant, []string{rbac.AuthorRole}); err != nil {
			return nil, err
		}
	}

	if req.Content != nil {
		if err := d.contents.Add(ctx, stored.ID, *req.Content); err != nil {
			return nil, err
		}
	}

	d.invalidateListings(req.Collaborators, stored.Author)
	d.logger.Info().Str("document_id", stored.ID).Str("author", stored.Author).Msg("document created")

	return &View{Metadata: *stored}, nil
}

// Get assembles a composite view. Metadata is always fetched; the other
// partitions only on request. A document without a content row is still a
// valid document.
func (d *DefaultCoordinator) Get(ctx context.Context, id string, wantCollaborators bool, wantContent bool) (*View, error) {
	meta, err := d.metadata.Get(ctx, id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Document not found", err)
		}
		return nil, err
	}

	view := &View{Metadata: *meta}

	if wantCollaborators {
		grants, err := d.collaborators.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		view.CollaboratorRoles = grants
	}

	if wantContent {
		content, err := d.contents.Get(ctx, id)
		if err != nil && !defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		view.Content = content
	}

	return view, nil
}

// Update merges the supplied fields into the current document. The version
// counter is bumped only when content changes; metadata-only edits keep it.
func (d *DefaultCoordinator) Update(ctx context.Context, id string, req *SharedDocumentRequest) (*View, error) {
	unlock := d.locks.Lock(id)
	defer unlock()

	current, err := d.metadata.Get(ctx, id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Document not found", err)
		}
		return nil, err
	}

	patch := req.Metadata
	patch.ID = id
	patch.Version = 0
	if req.Content != nil {
		patch.Version = current.Version + 1
	}

	stored, err := d.metadata.Update(ctx, patch)
	if err != nil {
		return nil, err
	}

	for _, c := range req.Collaborators {
		if err := d.collaborators.Update(ctx, id, c, req.Roles); err != nil {
			return nil, err
		}
	}

	if req.Content != nil {
		if err := d.contents.Update(ctx, id, *req.Content); err != nil {
			return nil, err
		}
	}

	d.invalidateListings(req.Collaborators, stored.Author)

	return &View{Metadata: *stored}, nil
}

// Delete purges all three partitions: grants first so no grant ever references
// a vanished document, content next, metadata last.
func (d *DefaultCoordinator) Delete(ctx context.Context, id string) error {
	unlock := d.locks.Lock(id)
	defer unlock()

	if _, err := d.metadata.Get(ctx, id); err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Document not found", err)
		}
		return err
	}

	grants, err := d.collaborators.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := d.collaborators.DeleteForDocument(ctx, id); err != nil {
		return err
	}
	if err := d.contents.Delete(ctx, id); err != nil {
		return err
	}
	if err := d.metadata.Delete(ctx, id); err != nil {
		return err
	}

	usernames := make([]collaborator.Collaborator, 0, len(grants))
	for _, g := range grants {
		usernames = append(usernames, collaborator.Collaborator{Username: g.Username})
	}
	d.invalidateListings(usernames, "")
	d.logger.Info().Str("document_id", id).Msg("document deleted")

	return nil
}

type cachedListing struct {
	Views []View `json:"views"`
}

// List returns lightweight views (metadata only) of every document the
// identity holds a grant on, cached behind a per-user version key.
func (d *DefaultCoordinator) List(ctx context.Context, username string) ([]View, error) {
	var cacheKey string
	if d.cache != nil {
		v := d.cache.GetVersion(ctx, listingVersionKey(username))
		cacheKey = fmt.Sprintf("docs:u:%s:v:%d", username, v)

		var cached cachedListing
		if found, _ := d.cache.Get(ctx, cacheKey, &cached); found {
			return cached.Views, nil
		}
	}

	ids, err := d.collaborators.ListDocuments(ctx, username)
	if err != nil {
		return nil, err
	}

	metas, err := d.metadata.List(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(metas))
	for _, m := range metas {
		views = append(views, View{Metadata: m})
	}

	if d.cache != nil {
		d.submit(func(ctx context.Context) error {
			return d.cache.Set(ctx, cacheKey, cachedListing{Views: views}, 24*time.Hour)
		})
	}

	return views, nil
}

// Exists reports whether the metadata row is present. Used by the authorize
// middleware to surface NotFound before any permission decision.
func (d *DefaultCoordinator) Exists(ctx context.Context, id string) (bool, error) {
	_, err := d.metadata.Get(ctx, id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func listingVersionKey(username string) string {
	return fmt.Sprintf("user:%s:docs:version", username)
}

// invalidateListings bumps the listing cache version of everyone affected by
// a mutation, off the request path.
func (d *DefaultCoordinator) invalidateListings(collaborators []collaborator.Collaborator, author string) {
	if d.cache == nil {
		return
	}

	keys := make([]string, 0, len(collaborators)+1)
	for _, c := range collaborators {
		keys = append(keys, listingVersionKey(c.Username))
	}
	if author != "" {
		keys = append(keys, listingVersionKey(author))
	}

	d.submit(func(ctx context.Context) error {
		for _, key := range keys {
			d.cache.IncrementVersion(ctx, key)
		}
		return nil
	})
}

func (d *DefaultCoordinator) submit(task worker.Task) {
	if d.pool != nil {
		d.pool.Submit(task)
		return
	}
	if err := task(context.Background()); err != nil {
		d.logger.Warn().Err(err).Msg("background task failed")
	}
}
