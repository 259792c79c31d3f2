package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edn-commerce/storefront-core/models"
	"github.com/edn-commerce/storefront-core/repository"
	"github.com/edn-commerce/storefront-core/services"
)

type InvoiceController struct {
	invoiceService *services.InvoiceService
}

func NewInvoiceController(invoiceService *services.InvoiceService) *InvoiceController {
	return &InvoiceController{invoiceService: invoiceService}
}

// ListInvoices returns invoices filtered by type, status, date window and
// invoice-number search, paginated.
func (ic *InvoiceController) ListInvoices(c *gin.Context) {
	filter := repository.InvoiceFilter{
		Search: c.Query("search"),
	}
	filter.Page, filter.Limit = parsePaginationParams(c)

	switch c.Query("type") {
	case "":
	case string(models.InvoiceTypeClient):
		filter.Type = models.InvoiceTypeClient
	case string(models.InvoiceTypeSupplier):
		filter.Type = models.InvoiceTypeSupplier
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown invoice type"})
		return
	}

	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseInvoiceStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown invoice status"})
			return
		}
		filter.Status = status
	}

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date, expected RFC 3339"})
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date, expected RFC 3339"})
			return
		}
		filter.To = &to
	}

	invoices, total, err := ic.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invoices": invoices,
		"total":    total,
		"page":     filter.Page,
		"limit":    filter.Limit,
	})
}

// GetInvoice returns a single invoice by ID.
func (ic *InvoiceController) GetInvoice(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID format"})
		return
	}

	invoice, err := ic.invoiceService.Get(c.Request.Context(), invoiceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

type invoiceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus moves an invoice through its lifecycle. Marking it paid
// stamps the paid date.
func (ic *InvoiceController) UpdateStatus(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID format"})
		return
	}

	var req invoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	next, err := models.ParseInvoiceStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown invoice status"})
		return
	}

	invoice, err := ic.invoiceService.Transition(c.Request.Context(), invoiceID, next)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// SweepOverdue flips every pending invoice past its due date to overdue.
func (ic *InvoiceController) SweepOverdue(c *gin.Context) {
	count, err := ic.invoiceService.SweepOverdue(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked_overdue": count})
}
