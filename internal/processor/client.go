// Package processor provides the client for the external settlement processor.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flexipay/installment-engine/internal/domain"
)

// SettlementProcessor accepts a chosen payoff option for execution and
// reflects later status changes to the resulting record. Retry and backoff
// policy live behind this boundary, not in the engine.
type SettlementProcessor interface {
	SubmitPayoff(ctx context.Context, req *PayoffRequest) (*domain.EarlyPaymentRecord, error)
	CancelPayoff(ctx context.Context, recordID uuid.UUID) (string, error)
}

// PayoffRequest is the wire shape submitted to the processor.
type PayoffRequest struct {
	TransactionID   string          `json:"transaction_id"`
	PaymentType     string          `json:"payment_type"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	Savings         decimal.Decimal `json:"savings"`
	InstallmentIDs  []uuid.UUID     `json:"installment_ids,omitempty"`
	PaymentMethodID string          `json:"payment_method_id"`
}

// Client encapsulates HTTP interaction with the settlement processor.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates an HTTP client for the settlement processor at the given
// address.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SubmitPayoff sends a payoff request and returns the created early payment
// record. Transport and processor errors are surfaced verbatim.
func (c *Client) SubmitPayoff(ctx context.Context, payoff *PayoffRequest) (*domain.EarlyPaymentRecord, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("processor client not configured")
	}

	body, err := json.Marshal(payoff)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/payoffs", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var record domain.EarlyPaymentRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &record, nil
}

// CancelPayoff asks the processor to cancel an executed payoff and returns
// the status the processor reports for the record (typically refunded).
func (c *Client) CancelPayoff(ctx context.Context, recordID uuid.UUID) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("processor client not configured")
	}

	url := fmt.Sprintf("%s/api/v1/payoffs/%s/cancel", c.baseURL, recordID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return result.Status, nil
}
