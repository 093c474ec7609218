package document

import (
	"net/http"
	"notebook-publishing-service/internal/auth"
	"notebook-publishing-service/internal/errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	coordinator Coordinator
}

func NewHandler(coordinator Coordinator) *Handler {
	return &Handler{coordinator: coordinator}
}

func identityFrom(c *gin.Context) *auth.Identity {
	value, _ := c.Get("identity")
	identity, _ := value.(*auth.Identity)
	return identity
}

// Create handles POST /sharing. The authenticated caller becomes the author
// unless the payload names one, and is granted the top role either way.
func (h *Handler) Create(c *gin.Context) {
	var req SharedDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	identity := identityFrom(c)
	if req.Metadata.Author == "" {
		req.Metadata.Author = identity.Username
	}

	view, err := h.coordinator.Create(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// Show handles GET /sharing/:id. Collaborators and contents are fetched only
// when the matching query flag is set.
func (h *Handler) Show(c *gin.Context) {
	id := c.Param("id")
	wantCollaborators, _ := strconv.ParseBool(c.DefaultQuery("collaborators", "false"))
	wantContent, _ := strconv.ParseBool(c.DefaultQuery("contents", "false"))

	view, err := h.coordinator.Get(c.Request.Context(), id, wantCollaborators, wantContent)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Update handles PATCH /sharing/:id with partial-merge semantics.
func (h *Handler) Update(c *gin.Context) {
	id := c.Param("id")

	var req SharedDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	view, err := h.coordinator.Update(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Delete handles DELETE /sharing/:id.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.coordinator.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// Index handles GET /sharing: every document the caller has access to.
func (h *Handler) Index(c *gin.Context) {
	identity := identityFrom(c)

	views, err := h.coordinator.List(c.Request.Context(), identity.Username)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, views)
}
