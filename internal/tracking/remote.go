package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oceanbites/oceanbites-backend/pkg/types"
)

// SubmissionPayload is the one-shot order-creation request sent to the
// remote ordering API.
type SubmissionPayload struct {
	CustomerName    string                `json:"customerName"`
	DeliveryAddress string                `json:"deliveryAddress"`
	Notes           string                `json:"notes"`
	PaymentMethod   string                `json:"paymentMethod"`
	Items           []types.CartLine      `json:"items"`
	Pricing         types.PricingSnapshot `json:"pricing"`
}

// Submitter attempts remote order creation and returns the remote order
// id. Any error is absorbed by the caller, which falls back to a local
// identifier.
type Submitter interface {
	Submit(ctx context.Context, payload SubmissionPayload) (string, error)
}

// HTTPSubmitter posts orders to <base>/orders.
type HTTPSubmitter struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSubmitter returns nil when no base URL is configured (demo
// mode); callers treat a nil submitter as remote-disabled.
func NewHTTPSubmitter(baseURL string, timeout time.Duration) *HTTPSubmitter {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPSubmitter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSubmitter) Submit(ctx context.Context, payload SubmissionPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("remote order api returned %d", resp.StatusCode)
	}

	var decoded struct {
		ID      string `json:"id"`
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}
	if decoded.ID != "" {
		return decoded.ID, nil
	}
	if decoded.OrderID != "" {
		return decoded.OrderID, nil
	}
	return "", fmt.Errorf("remote order response carried no id")
}
