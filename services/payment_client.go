package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/edn-commerce/storefront-core/apperrors"
)

// PaymentGateway captures a payment for a restock purchase. Calls are
// bounded by a timeout; a timeout counts as a declined capture.
type PaymentGateway interface {
	Capture(ctx context.Context, method string, amount decimal.Decimal) (string, error)
}

// HTTPPaymentClient talks to the payment integration service over HTTP.
type HTTPPaymentClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPPaymentClient(baseURL string) *HTTPPaymentClient {
	return &HTTPPaymentClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type captureRequest struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

type captureResponse struct {
	Reference string `json:"reference"`
}

func (c *HTTPPaymentClient) Capture(ctx context.Context, method string, amount decimal.Decimal) (string, error) {
	body, err := json.Marshal(captureRequest{Method: method, Amount: amount})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/payments/capture", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrPaymentDeclined, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusConflict {
		return "", apperrors.ErrPaymentDeclined
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment service returned %d", resp.StatusCode)
	}

	var out captureResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Reference, nil
}
