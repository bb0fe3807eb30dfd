package handlers

import (
	"net/http"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/cache"

	"github.com/gin-gonic/gin"
)

// CacheHandler exposes operational endpoints over the task cache.
type CacheHandler struct {
	cache cache.Cache
}

func NewCacheHandler(c cache.Cache) *CacheHandler {
	return &CacheHandler{cache: c}
}

// Stats returns hit/miss counters and per-tier details.
// GET /api/v1/cache/stats
func (h *CacheHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Stats())
}

// Evict deletes a key, or a prefix when the key ends with '*'.
// DELETE /api/v1/cache/:key
func (h *CacheHandler) Evict(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	var err error
	if key[len(key)-1] == '*' {
		err = h.cache.DeletePattern(key)
	} else {
		err = h.cache.Delete(key)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "evicted", "key": key})
}
