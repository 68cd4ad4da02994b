package capricorn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/django102/routelink-capricorn/pkg/helpers"
	"github.com/django102/routelink-capricorn/pkg/logger"
)

const (
	airtimePurchaseEndpoint = "/airtime/purchase"
	dataPurchaseEndpoint    = "/data/purchase"
	tvSubscribeEndpoint     = "/tv/subscribe"
)

// Observer is notified when a provider call is retried.
type Observer interface {
	ProviderRetry()
}

// Config holds the Capricorn gateway settings. BackoffBase is doubled per
// attempt, so the defaults wait 2s, 4s, 8s between attempts.
type Config struct {
	BaseURL        string
	APIKey         string
	MaxRetries     int
	BackoffBase    time.Duration
	RequestTimeout time.Duration
}

// Client executes purchase calls against the Capricorn provider API. It
// never touches transaction state; callers own the state machine.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	maxRetries  int
	backoffBase time.Duration
	logger      *logger.Logger
	observer    Observer
}

// PurchaseResult is the normalized outcome of a successful provider call.
// Amount is the settled price for plan-priced products (data, TV).
type PurchaseResult struct {
	Reference string  `json:"reference"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
}

// APIError is a non-retryable or retry-exhausted provider failure.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("capricorn API error: %d - %s", e.StatusCode, e.Body)
}

// NewClient creates a new Capricorn client
func NewClient(cfg Config, log *logger.Logger, observer Observer) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
		logger:      log,
		observer:    observer,
	}
}

// PurchaseAirtime buys airtime for the given phone number.
func (c *Client) PurchaseAirtime(ctx context.Context, phoneNumber string, amount float64) (*PurchaseResult, error) {
	payload := map[string]interface{}{
		"phoneNumber": phoneNumber,
		"amount":      amount,
		"reference":   helpers.GenerateReference(),
	}
	return c.execute(ctx, airtimePurchaseEndpoint, payload)
}

// PurchaseData buys the given data plan for the phone number. The settled
// amount comes back from the provider.
func (c *Client) PurchaseData(ctx context.Context, phoneNumber, dataPlanID string) (*PurchaseResult, error) {
	payload := map[string]interface{}{
		"phoneNumber": phoneNumber,
		"dataPlanId":  dataPlanID,
		"reference":   helpers.GenerateReference(),
	}
	return c.execute(ctx, dataPurchaseEndpoint, payload)
}

// SubscribeTV subscribes the smart card to the given TV plan. The settled
// amount comes back from the provider.
func (c *Client) SubscribeTV(ctx context.Context, smartCardNumber, subscriptionPlanID string) (*PurchaseResult, error) {
	payload := map[string]interface{}{
		"smartCardNumber":    smartCardNumber,
		"subscriptionPlanId": subscriptionPlanID,
		"reference":          helpers.GenerateReference(),
	}
	return c.execute(ctx, tvSubscribeEndpoint, payload)
}

// execute posts the payload with bounded retries. Transport failures and
// 5xx responses are retried with exponential backoff; 4xx and 2xx terminate
// immediately.
func (c *Client) execute(ctx context.Context, endpoint string, payload map[string]interface{}) (*PurchaseResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			delay := c.backoffBase << (attempt - 1) // base * 2^(attempt-1)
			if c.observer != nil {
				c.observer.ProviderRetry()
			}
			c.logger.WithField("attempt", attempt).Warnf("Retrying Capricorn request after %s: %v", delay, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, retryable, err := c.doRequest(ctx, endpoint, body)
		if err == nil {
			return result, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("capricorn request failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) doRequest(ctx context.Context, endpoint string, body []byte) (*PurchaseResult, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, true, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, false, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	result := &PurchaseResult{}
	if err := json.Unmarshal(respBody, result); err != nil {
		return nil, false, fmt.Errorf("failed to parse response: %w", err)
	}
	return result, false, nil
}
