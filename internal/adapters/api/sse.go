package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/floroz/bidhub/internal/domain/auction"
	"github.com/floroz/bidhub/internal/domain/chat"
)

// Feed listeners run inside the stores' critical sections, so they must
// never block. Updates are staged on a small buffer; when a client lags the
// oldest staged update is dropped, the newest always wins.
const streamBuffer = 16

func stage[T any](updates chan T, v T) {
	for {
		select {
		case updates <- v:
			return
		default:
			select {
			case <-updates:
			default:
			}
		}
	}
}

// streamProducts pushes every product update to the client as an SSE event.
// The subscription is released when the client disconnects.
func (h *Handler) streamProducts(c *gin.Context) {
	updates := make(chan auction.Product, streamBuffer)
	sub := h.hub.SubscribeProducts(func(p auction.Product) {
		stage(updates, p)
	})
	defer sub.Unsubscribe()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case p := <-updates:
			c.SSEvent("product", mapProduct(p))
			return true
		}
	})
}

// streamConversation pushes one conversation's updates. Only the buyer and
// the seller may attach. The current state is delivered first so a client
// that reconnects never misses the latest snapshot.
func (h *Handler) streamConversation(c *gin.Context) {
	viewer, ok := currentUser(c)
	if !ok {
		return
	}

	conversationID := c.Param("id")
	conversation, err := h.conversations.Get(conversationID)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	if conversation.Buyer.ID != viewer.ID && conversation.Seller.ID != viewer.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return
	}

	updates := make(chan chat.Conversation, streamBuffer)
	stage(updates, conversation)
	sub := h.hub.SubscribeConversation(conversationID, func(cv chat.Conversation) {
		stage(updates, cv)
	})
	defer sub.Unsubscribe()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case cv := <-updates:
			c.SSEvent("conversation", mapConversation(cv))
			return true
		}
	})
}
