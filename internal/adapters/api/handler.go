package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/floroz/bidhub/internal/broadcast"
	"github.com/floroz/bidhub/internal/domain/auction"
	"github.com/floroz/bidhub/internal/domain/chat"
	"github.com/floroz/bidhub/internal/domain/session"
	"github.com/floroz/bidhub/pkg/auth"
)

// DescriptionGenerator produces listing descriptions for new items. It is
// best effort and never fails; degraded backends return placeholder text.
type DescriptionGenerator interface {
	GenerateDescription(ctx context.Context, itemName string) string
}

// Handler translates the HTTP surface into store operations. All domain
// decisions live in the stores; the handler only authenticates, maps
// payloads, and maps sentinel errors to status codes.
type Handler struct {
	logger        *slog.Logger
	signer        *auth.Signer
	users         *UserDirectory
	products      *auction.Store
	conversations *chat.Store
	hub           *broadcast.Hub
	describer     DescriptionGenerator
	favorites     session.FavoritesStore
}

// NewHandler wires the HTTP handler. favorites may be nil, in which case the
// favorites routes answer 503.
func NewHandler(
	logger *slog.Logger,
	signer *auth.Signer,
	users *UserDirectory,
	products *auction.Store,
	conversations *chat.Store,
	hub *broadcast.Hub,
	describer DescriptionGenerator,
	favorites session.FavoritesStore,
) *Handler {
	return &Handler{
		logger:        logger,
		signer:        signer,
		users:         users,
		products:      products,
		conversations: conversations,
		hub:           hub,
		describer:     describer,
		favorites:     favorites,
	}
}

// Register mounts all routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.health)

	v1 := r.Group("/api/v1")
	v1.POST("/login", h.login)
	v1.GET("/products", h.listProducts)
	v1.GET("/products/stream", h.streamProducts)

	authed := v1.Group("")
	authed.Use(auth.RequireUser(h.signer))
	authed.POST("/products", h.addProduct)
	authed.POST("/products/:id/bids", h.placeBid)
	authed.POST("/products/description", h.describeProduct)
	authed.GET("/me/products", h.myProducts)
	authed.GET("/me/favorites", h.listFavorites)
	authed.PUT("/me/favorites", h.toggleFavorite)
	authed.POST("/conversations", h.getOrCreateConversation)
	authed.GET("/conversations", h.listConversations)
	authed.POST("/conversations/:id/messages", h.sendMessage)
	authed.PUT("/conversations/:id/bot", h.toggleBot)
	authed.GET("/conversations/:id/stream", h.streamConversation)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.users.Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.signer.GenerateToken(user.ID, user.Name)
	if err != nil {
		h.logger.Error("failed to issue token", "user", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": mapUser(user)})
}

func (h *Handler) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, mapProducts(h.products.List()))
}

type addProductRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	ImageURL      string `json:"imageUrl"`
	StartingPrice int64  `json:"startingPrice" binding:"required,gt=0"`
	EndDate       string `json:"endDate" binding:"required"`
}

func (h *Handler) addProduct(c *gin.Context) {
	seller, ok := currentUser(c)
	if !ok {
		return
	}

	var req addProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}
	endDate, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must be RFC 3339"})
		return
	}

	product := h.products.Add(auction.Draft{
		Name:          req.Name,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		StartingPrice: req.StartingPrice,
		EndDate:       endDate,
		Seller:        seller,
	})
	c.JSON(http.StatusCreated, mapProduct(product))
}

type placeBidRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type productIDParam struct {
	ID int64 `uri:"id" binding:"required"`
}

func (h *Handler) placeBid(c *gin.Context) {
	bidder, ok := currentUser(c)
	if !ok {
		return
	}

	var param productIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive integer"})
		return
	}

	product, err := h.products.PlaceBid(param.ID, req.Amount, bidder)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapProduct(product))
}

func (h *Handler) myProducts(c *gin.Context) {
	seller, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, mapProducts(h.products.ListBySeller(seller.ID)))
}

type describeRequest struct {
	ItemName string `json:"itemName" binding:"required"`
}

func (h *Handler) describeProduct(c *gin.Context) {
	var req describeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemName is required"})
		return
	}
	description := h.describer.GenerateDescription(c.Request.Context(), req.ItemName)
	c.JSON(http.StatusOK, gin.H{"description": description})
}

type createConversationRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
}

func (h *Handler) getOrCreateConversation(c *gin.Context) {
	buyer, ok := currentUser(c)
	if !ok {
		return
	}

	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId is required"})
		return
	}

	conversation, err := h.conversations.GetOrCreate(req.ProductID, buyer)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapConversation(conversation))
}

func (h *Handler) listConversations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	conversations := h.conversations.ListForUser(user.ID)
	if conversations == nil {
		conversations = []chat.Conversation{}
	}
	c.JSON(http.StatusOK, mapConversations(conversations))
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	sender, ok := currentUser(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	if err := h.conversations.SendMessage(c.Param("id"), req.Text, sender); err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

type toggleBotRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) toggleBot(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var req toggleBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled is required"})
		return
	}

	conversation, err := h.conversations.ToggleBot(c.Param("id"), *req.Enabled, actor)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapConversation(conversation))
}

// currentUser resolves the authenticated identity injected by the auth
// middleware. A missing identity is a wiring bug, not a client error.
func currentUser(c *gin.Context) (auction.User, bool) {
	id, name, ok := auth.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return auction.User{}, false
	}
	return auction.User{ID: id, Name: name}, true
}

func (h *Handler) writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auction.ErrProductNotFound),
		errors.Is(err, chat.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, auction.ErrSellerCannotBid),
		errors.Is(err, chat.ErrSelfChat),
		errors.Is(err, chat.ErrNotSeller):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, auction.ErrBidTooLow):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("unhandled domain error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
