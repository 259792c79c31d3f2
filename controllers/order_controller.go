package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edn-commerce/storefront-core/cache"
	"github.com/edn-commerce/storefront-core/logger"
	"github.com/edn-commerce/storefront-core/middleware"
	"github.com/edn-commerce/storefront-core/models"
	"github.com/edn-commerce/storefront-core/services"
)

type OrderController struct {
	orderService *services.OrderService
	idempotency  *cache.IdempotencyStore
}

func NewOrderController(orderService *services.OrderService, idempotency *cache.IdempotencyStore) *OrderController {
	return &OrderController{
		orderService: orderService,
		idempotency:  idempotency,
	}
}

type placeOrderRequest struct {
	Billing       models.Address `json:"billing_address" binding:"required"`
	Shipping      models.Address `json:"shipping_address" binding:"required"`
	PaymentMethod string         `json:"payment_method" binding:"required"`
	Notes         string         `json:"notes"`
}

// CreateOrder places an order from the user's cart. An Idempotency-Key
// header makes retries safe: a replayed key returns the original order
// instead of placing a second one.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	idemKey := c.GetHeader("Idempotency-Key")
	if idemKey != "" && oc.idempotency != nil {
		if existing, err := oc.idempotency.Get(c.Request.Context(), idemKey); err != nil {
			logger.Warn(c.Request.Context(), "idempotency lookup failed, proceeding", zap.Error(err))
		} else if existing != "" {
			oc.replayOrder(c, userID, existing)
			return
		}
	}

	order, err := oc.orderService.PlaceOrder(c.Request.Context(), userID, services.PlaceOrderInput{
		Billing:       req.Billing,
		Shipping:      req.Shipping,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if idemKey != "" && oc.idempotency != nil {
		if err := oc.idempotency.Set(c.Request.Context(), idemKey, order.ID.String()); err != nil {
			logger.Warn(c.Request.Context(), "failed to record idempotency key", zap.Error(err))
		}
	}

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (oc *OrderController) replayOrder(c *gin.Context, userID uuid.UUID, orderID string) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Duplicate request"})
		return
	}
	order, err := oc.orderService.GetOrder(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GetOrders returns paginated orders for the authenticated user.
func (oc *OrderController) GetOrders(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, limit := parsePaginationParams(c)

	result, err := oc.orderService.GetUserOrders(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetOrderByID returns one of the authenticated user's orders.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
		return
	}

	order, err := oc.orderService.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GetAllOrders returns paginated orders across all users.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	page, limit := parsePaginationParams(c)

	result, err := oc.orderService.GetAllOrders(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus moves an order through its fulfillment lifecycle.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	next, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown order status"})
		return
	}

	order, err := oc.orderService.UpdateStatus(c.Request.Context(), orderID, next)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

type updatePaymentRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// UpdatePayment records a payment outcome for an order. Marking an order
// paid also writes its client invoice and credits loyalty points.
func (oc *OrderController) UpdatePayment(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
		return
	}

	var req updatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	next, err := models.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown payment status"})
		return
	}

	order, err := oc.orderService.MarkPaymentStatus(c.Request.Context(), orderID, next)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

type trackingRequest struct {
	Carrier        string `json:"carrier" binding:"required"`
	TrackingNumber string `json:"tracking_number" binding:"required"`
}

// SetTracking records carrier and tracking number on a shipped order.
func (oc *OrderController) SetTracking(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
		return
	}

	var req trackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := oc.orderService.SetTracking(c.Request.Context(), orderID, req.Carrier, req.TrackingNumber); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tracking updated"})
}
