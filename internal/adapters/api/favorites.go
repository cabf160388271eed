package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/floroz/bidhub/internal/domain/session"
)

// listFavorites returns the viewer's favorite product ids.
func (h *Handler) listFavorites(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if h.favorites == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "favorites store not configured"})
		return
	}

	fav, err := session.LoadFavorites(c.Request.Context(), h.favorites, user.ID)
	if err != nil {
		h.logger.Error("failed to load favorites", "user", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"productIds": fav.IDs()})
}

type toggleFavoriteRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
}

// toggleFavorite flips one product in or out of the viewer's favorite set.
//
// Each request is an independent load-modify-save of the whole blob, so
// concurrent toggles by the same user are last-writer-wins. The favorite set
// is a single-viewer convenience, not coordinated state.
func (h *Handler) toggleFavorite(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if h.favorites == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "favorites store not configured"})
		return
	}

	var req toggleFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId is required"})
		return
	}

	fav, err := session.LoadFavorites(c.Request.Context(), h.favorites, user.ID)
	if err != nil {
		h.logger.Error("failed to load favorites", "user", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	favorited, err := fav.Toggle(c.Request.Context(), req.ProductID)
	if err != nil {
		h.logger.Error("failed to persist favorites", "user", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"productId": req.ProductID, "favorited": favorited})
}
