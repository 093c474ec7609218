package document

import (
	"context"
	"encoding/json"
	"net/http"
	"notebook-publishing-service/internal/collaborator"
	"notebook-publishing-service/internal/errors"
	"notebook-publishing-service/internal/rbac"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testCoordinator(t *testing.T) (Coordinator, *gorm.DB) {
	t.Helper()
	db := testDB(t)
	coordinator := NewCoordinator(
		NewMetadataStore(db),
		collaborator.NewStore(db),
		NewContentStore(db),
		nil, // no cache in tests
		nil, // background tasks run inline
		"http://localhost:9000/sharing",
		zerolog.Nop(),
	)
	return coordinator, db
}

func createRequest(id string) *SharedDocumentRequest {
	return &SharedDocumentRequest{
		Metadata: Metadata{
			ID:     id,
			Author: "alice",
			Name:   "analysis.ipynb",
			Title:  "Quarterly Analysis",
		},
		Collaborators: []collaborator.Collaborator{{Username: "bob"}},
		Roles:         []string{rbac.RoleReader},
		Content: &Content{
			Body:     json.RawMessage(`{"cells":[]}`),
			Mimetype: "application/x-ipynb+json",
			Format:   "json",
		},
	}
}

func grantSet(grants []collaborator.CollaboratorRole) map[string][]string {
	set := map[string][]string{}
	for _, g := range grants {
		set[g.Username] = append(set[g.Username], g.Role)
	}
	return set
}

func TestCreateThenGet_RoundTrip(t *testing.T) {
	coordinator, _ := testCoordinator(t)
	ctx := context.Background()

	created, err := coordinator.Create(ctx, createRequest("doc-1"))
	require.NoError(t, err)

	// create returns the reduced payload: metadata only
	assert.Empty(t, created.CollaboratorRoles)
	assert.Nil(t, created.Content)
	assert.Equal(t, uint64(1), created.Metadata.Version)
	assert.Equal(t, "http://localhost:9000/sharing/doc-1", created.Metadata.ShareableLink)

	view, err := coordinator.Get(ctx, "doc-1", true, true)
	require.NoError(t, err)

	assert.Equal(t, "alice", view.Metadata.Author)
	assert.Equal(t, "Quarterly Analysis", view.Metadata.Title)
	assert.Equal(t, uint64(1), view.Metadata.Version)

	// collaborator set = request set plus the author with the top role
	set := grantSet(view.CollaboratorRoles)
	assert.ElementsMatch(t, []string{rbac.RoleReader}, set["bob"])
	assert.Contains(t, set["alice"], rbac.AuthorRole)

	require.NotNil(t, view.Content)
	assert.JSONEq(t, `{"cells":[]}`, string(view.Content.Body))
}

func TestCreate_AuthorInCollaboratorsGetsTopRoleOnTop(t *testing.T) {
	coordinator, _ := testCoordinator(t)
	ctx := context.Background()

	req := createRequest("doc-1")
	req.Collaborators = append(req.Collaborators, collaborator.Collaborator{Username: "alice"})

	_, err := coordinator.Create(ctx, req)
	require.NoError(t, err)

	view, err := coordinator.Get(ctx, "doc-1", true, false)
	require.NoError(t, err)

	set := grantSet(view.CollaboratorRoles)
	// alice got the requested READER role and the auto-granted top role
	assert.ElementsMatch(t, []string{rbac.RoleReader, rbac.AuthorRole}, set["alice"])
}

func TestCreate_GeneratesIdWhenOmitted(t *testing.T) {
	coordinator, _ := testCoordinator(t)

	req := createRequest("")
	view, err := coordinator.Create(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, view.Metadata.ID)
}

func TestGet_MetadataOnlyDocument(t *testing.T) {
	coordinator, _ := testCoordinator(t)
	ctx := context.Background()

	req := createRequest("doc-1")
	req.Content = nil
	_, err := coordinator.Create(ctx, req)
	require.NoError(t, err)

	view, err := coordinator.Get(ctx, "doc-1", false, true)
	require.NoError(t, err)
	assert.Nil(t, view.Content)
}

func TestGet_MissingDocument(t *testing.T) {
	coordinator, _ := testCoordinator(t)

	_, err := coordinator.Get(context.Background(), "no-such-doc", false, false)
	require.Error(t, err)
	apiErr, ok := err.(*errors.APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestUpdate_TitleOnlyDoesNotBumpVersion(t *testing.T) {
	coordinator, _ := testCoordinator(t)
	ctx := context.Background()

	_, err := coordinator.Create(ctx, createRequest("doc-1"))
	require.NoError(t, err)

	view, err := coordinator.Update(ctx, "doc-1", &SharedDocumentRequest{
		Metadata: Metadata{Title: "Renamed"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", view.Metadata.Title)
	assert.Equal(t, uint64(1), view.Metadata.Version)
	// unsupplied fields survive the patch
	assert.Equal(t, "alice", view.Metadata.Author)
	assert.Equal(t, "analysis.ipynb", view.Metadata.Name)
}

func TestUpdate_ContentBumpsVersionByOne(t *testing.T) {
	coordinator, _ := testCoordinator(t)
	ctx := context.Background()

	_, err := coordinator.Create(ctx, createRequest("doc-1"))
	require.NoError(t, err)

	view, err := coordinator.Update(ctx, "doc-1", &SharedDocumentRequest{
		Content: &Content{Body: json.RawMessage(`{"cells":[{"source":"print(1)"}]}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), view.Metadata.Version)

	view, err = coordinator.Update(ctx, "doc-1", &SharedDocumentRequest{
		Content: &Content{Body: json.RawMessage(`{"cells":[{"source":"print(2)"}]}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), view.Metadata.Version)
}

func TestUpdate_GrantsSuppliedCollaborators(t *testing.T) {
	coordinator, _ := testCoordinator(t)
	ctx := context.Background()

	_, err := coordinator.Create(ctx, createRequest("doc-1"))
	require.NoError(t, err)

	_, err = coordinator.Update(ctx, "doc-1", &SharedDocumentRequest{
		Collaborators: []collaborator.Collaborator{{Username: "carol"}},
		Roles:         []string{rbac.RoleWriter},
	})
	require.NoError(t, err)

	view, err := coordinator.Get(ctx, "doc-1", true, false)
	require.NoError(t, err)

	set := grantSet(view.CollaboratorRoles)
	assert.ElementsMatch(t, []string{rbac.RoleWriter}, set["carol"])
	// existing grants are untouched
	assert.ElementsMatch(t, []string{rbac.RoleReader}, set["bob"])
}

func TestUpdate_MissingDocumentWritesNothing(t *testing.T) {
	coordinator, db := testCoordinator(t)
	ctx := context.Background()

	_, err := coordinator.Update(ctx, "no-such-doc", &SharedDocumentRequest{
		Metadata:      Metadata{Title: "ghost"},
		Collaborators: []collaborator.Collaborator{{Username: "bob"}},
		Roles:         []string{rbac.RoleReader},
		Content:       &Content{Body: json.RawMessage(`{}`)},
	})
	require.Error(t, err)
	apiErr, ok := err.(*errors.APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	// NotFound fired before any partition write
	var metadataCount, grantCount, contentCount int64
	db.Model(&Metadata{}).Count(&metadataCount)
	db.Model(&collaborator.CollaboratorRole{}).Count(&grantCount)
	db.Model(&Content{}).Count(&contentCount)
	assert.Zero(t, metadataCount)
	assert.Zero(t, grantCount)
	assert.Zero(t, contentCount)
}

func TestDelete_PurgesAllPartitions(t *testing.T) {
	coordinator, db := testCoordinator(t)
	ctx := context.Background()

	_, err := coordinator.Create(ctx, createRequest("doc-1"))
	require.NoError(t, err)

	require.NoError(t, coordinator.Delete(ctx, "doc-1"))

	var metadataCount, grantCount, contentCount int64
	db.Model(&Metadata{}).Count(&metadataCount)
	db.Model(&collaborator.CollaboratorRole{}).Count(&grantCount)
	db.Model(&Content{}).Count(&contentCount)
	assert.Zero(t, metadataCount)
	assert.Zero(t, grantCount)
	assert.Zero(t, contentCount)

	_, err = coordinator.Get(ctx, "doc-1", false, false)
	require.Error(t, err)
	apiErr, ok := err.(*errors.APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestDelete_MissingDocument(t *testing.T) {
	coordinator, _ := testCoordinator(t)

	err := coordinator.Delete(context.Background(), "no-such-doc")
	require.Error(t, err)
	apiErr, ok := err.(*errors.APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestRecreateAfterDelete_StartsFresh(t *testing.T) {
	coordinator, _ := testCoordinator(t)
	ctx := context.Background()

	_, err := coordinator.Create(ctx, createRequest("doc-1"))
	require.NoError(t, err)

	// push the version past 1
	_, err = coordinator.Update(ctx, "doc-1", &SharedDocumentRequest{
		Content: &Content{Body: json.RawMessage(`{"cells":[1]}`)},
	})
	require.NoError(t, err)

	require.NoError(t, coordinator.Delete(ctx, "doc-1"))

	view, err := coordinator.Create(ctx, createRequest("doc-1"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), view.Metadata.Version)
}

func TestList_ReturnsLightweightViews(t *testing.T) {
	coordinator, _ := testCoordinator(t)
	ctx := context.Background()

	_, err := coordinator.Create(ctx, createRequest("doc-1"))
	require.NoError(t, err)
	req2 := createRequest("doc-2")
	req2.Collaborators = nil
	_, err = coordinator.Create(ctx, req2)
	require.NoError(t, err)

	views, err := coordinator.List(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "doc-1", views[0].Metadata.ID)
	assert.Empty(t, views[0].CollaboratorRoles)
	assert.Nil(t, views[0].Content)

	views, err = coordinator.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, views, 2)

	views, err = coordinator.List(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestExists(t *testing.T) {
	coordinator, _ := testCoordinator(t)
	ctx := context.Background()

	exists, err := coordinator.Exists(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = coordinator.Create(ctx, createRequest("doc-1"))
	require.NoError(t, err)

	exists, err = coordinator.Exists(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, exists)
}
