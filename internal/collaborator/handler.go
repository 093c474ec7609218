package collaborator

import (
	"net/http"
	"notebook-publishing-service/redis"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	store Store
	cache *redis.Cache
}

func NewHandler(store Store, cache *redis.Cache) *Handler {
	return &Handler{store: store, cache: cache}
}

// Search handles GET /sharing/users?substring= so clients can look up
// collaborators to share with. Results are cached briefly; the collaborator
// set changes rarely compared to how often share dialogs query it.
func (h *Handler) Search(c *gin.Context) {
	substring := c.Query("substring")

	cacheKey := "users:search:" + substring
	if h.cache != nil {
		var cached []Collaborator
		if found, _ := h.cache.Get(c.Request.Context(), cacheKey, &cached); found {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	matches, err := h.store.Search(c.Request.Context(), substring)
	if err != nil {
		c.Error(err)
		return
	}

	if h.cache != nil {
		h.cache.Set(c.Request.Context(), cacheKey, matches, 2*time.Minute)
	}

	c.JSON(http.StatusOK, matches)
}
