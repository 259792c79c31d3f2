package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edn-commerce/storefront-core/apperrors"
	"github.com/edn-commerce/storefront-core/models"
	"github.com/edn-commerce/storefront-core/services"
)

type InventoryController struct {
	inventoryService *services.InventoryService
}

func NewInventoryController(inventoryService *services.InventoryService) *InventoryController {
	return &InventoryController{inventoryService: inventoryService}
}

// GetVariant returns a single variant with its current stock level.
func (ic *InventoryController) GetVariant(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variant ID format"})
		return
	}

	variant, err := ic.inventoryService.GetVariant(c.Request.Context(), variantID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"variant": variant})
}

type adjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// AdjustStock applies a signed stock delta. A decrement past zero is
// rejected without changing anything.
func (ic *InventoryController) AdjustStock(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variant ID format"})
		return
	}

	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	quantity, err := ic.inventoryService.AdjustStock(c.Request.Context(), variantID, req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"variant_id": variantID, "stock_quantity": quantity})
}

// LowStock lists every variant at or below its low-stock threshold.
func (ic *InventoryController) LowStock(c *gin.Context) {
	variants := []models.ProductVariant{}
	for variant, err := range ic.inventoryService.LowStockVariants(c.Request.Context()) {
		if err != nil {
			respondError(c, err)
			return
		}
		variants = append(variants, variant)
	}

	c.JSON(http.StatusOK, gin.H{"variants": variants, "count": len(variants)})
}

type restockRequest struct {
	Quantity      int    `json:"quantity" binding:"required,gt=0"`
	Supplier      string `json:"supplier" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// Restock orders quantity units from a supplier, pays for them, increments
// stock and records the supplier invoice. If only the invoice step fails the
// stock increment stands and the response says so.
func (ic *InventoryController) Restock(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variant ID format"})
		return
	}

	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, err := ic.inventoryService.Restock(c.Request.Context(), variantID, req.Quantity, req.Supplier, req.PaymentMethod)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvoiceRecording) && result != nil {
			c.JSON(http.StatusOK, gin.H{
				"warning":        "Stock updated and payment captured, but invoice recording failed",
				"stock_quantity": result.NewQuantity,
				"payment_ref":    result.PaymentRef,
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stock_quantity": result.NewQuantity,
		"payment_ref":    result.PaymentRef,
		"invoice":        result.Invoice,
	})
}
