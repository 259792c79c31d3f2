package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edn-commerce/storefront-core/middleware"
	"github.com/edn-commerce/storefront-core/models"
	"github.com/edn-commerce/storefront-core/services"
)

type CartController struct {
	cartService *services.CartService
}

func NewCartController(cartService *services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

// cartOwner resolves the cart owner from the request: the authenticated user
// when present, otherwise the anonymous session header.
func cartOwner(c *gin.Context) (models.CartOwner, bool) {
	if userID, err := middleware.GetUserID(c); err == nil {
		return models.OwnerForUser(userID), true
	}
	if sessionID := middleware.GetSessionID(c); sessionID != "" {
		return models.OwnerForSession(sessionID), true
	}
	return models.CartOwner{}, false
}

// GetCart returns the cart summary with live prices.
func (cc *CartController) GetCart(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing user or session identity"})
		return
	}

	summary, err := cc.cartService.Summary(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

type addLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
}

// AddItem adds a variant to the cart, incrementing quantity on repeat adds.
func (cc *CartController) AddItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing user or session identity"})
		return
	}

	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	lines, err := cc.cartService.AddLine(c.Request.Context(), owner, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem sets a line's quantity. Zero or negative removes the line.
func (cc *CartController) UpdateItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing user or session identity"})
		return
	}

	lineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid line ID format"})
		return
	}

	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := cc.cartService.SetQuantity(c.Request.Context(), owner, lineID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart updated"})
}

// RemoveItem deletes a line. Removing an absent line succeeds.
func (cc *CartController) RemoveItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing user or session identity"})
		return
	}

	lineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid line ID format"})
		return
	}

	if err := cc.cartService.RemoveLine(c.Request.Context(), owner, lineID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed"})
}

// ClearCart removes every line for the owner.
func (cc *CartController) ClearCart(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing user or session identity"})
		return
	}

	if err := cc.cartService.Clear(c.Request.Context(), owner); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// MergeCart folds the anonymous session cart into the authenticated user's
// cart. Called by the storefront right after login.
func (cc *CartController) MergeCart(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sessionID := middleware.GetSessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Session-ID header is required"})
		return
	}

	if err := cc.cartService.MergeAnonymousIntoUser(c.Request.Context(), sessionID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart merged"})
}
