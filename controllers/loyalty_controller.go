package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edn-commerce/storefront-core/middleware"
	"github.com/edn-commerce/storefront-core/services"
)

type LoyaltyController struct {
	loyaltyService *services.LoyaltyService
}

func NewLoyaltyController(loyaltyService *services.LoyaltyService) *LoyaltyController {
	return &LoyaltyController{loyaltyService: loyaltyService}
}

// GetAccount returns the caller's loyalty balance. Users who never earned a
// point get a zeroed account rather than a 404.
func (lc *LoyaltyController) GetAccount(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	account, err := lc.loyaltyService.Account(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

type redeemRequest struct {
	Points int64 `json:"points" binding:"required,gt=0"`
}

// Redeem spends points from the caller's balance.
func (lc *LoyaltyController) Redeem(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := lc.loyaltyService.Redeem(c.Request.Context(), userID, req.Points); err != nil {
		respondError(c, err)
		return
	}

	account, err := lc.loyaltyService.Account(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}
