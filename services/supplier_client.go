package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/edn-commerce/storefront-core/apperrors"
)

// SupplierQuote is the supplier's answer to an availability check.
type SupplierQuote struct {
	Available bool            `json:"available"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// SupplierGateway checks replenishment availability with an external
// supplier. Calls are bounded by a timeout; a timeout counts as a failed
// check, never as "pending".
type SupplierGateway interface {
	CheckAvailability(ctx context.Context, supplier string, variantID uuid.UUID, qty int) (*SupplierQuote, error)
}

// HTTPSupplierClient talks to the supplier integration service over HTTP.
type HTTPSupplierClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPSupplierClient(baseURL string) *HTTPSupplierClient {
	return &HTTPSupplierClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type supplierCheckRequest struct {
	Supplier  string `json:"supplier"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

func (c *HTTPSupplierClient) CheckAvailability(ctx context.Context, supplier string, variantID uuid.UUID, qty int) (*SupplierQuote, error) {
	body, err := json.Marshal(supplierCheckRequest{
		Supplier:  supplier,
		VariantID: variantID.String(),
		Quantity:  qty,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/suppliers/check", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and transport failures count as a failed check.
		return nil, apperrors.Wrap(apperrors.ErrSupplierOutOfStock, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil, apperrors.ErrSupplierOutOfStock
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("supplier service returned %d", resp.StatusCode)
	}

	var quote SupplierQuote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, err
	}
	if !quote.Available {
		return nil, apperrors.ErrSupplierOutOfStock
	}
	return &quote, nil
}
