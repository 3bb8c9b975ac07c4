package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable is returned when the gateway cannot be reached or answers
// with a server error. Callers surface it as a retryable condition.
var ErrUnavailable = errors.New("payment gateway unavailable")

// Config holds Razorpay API credentials and connection details.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string        // defaults to the public API endpoint
	Timeout   time.Duration // per-request timeout, defaults to 10s
}

// Client is a thin Razorpay REST client. It never retries internally;
// retrying order creation without the caller's idempotency key would risk
// duplicate gateway orders.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// GatewayOrder is the gateway-side order created for a payment intent.
// Amount is in the minor currency unit (paise).
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrderRequest registers an amount with the gateway. Receipt carries
// the local order number; IdempotencyKey dedupes retried creations.
type CreateOrderRequest struct {
	Amount         int64
	Currency       string
	Receipt        string
	IdempotencyKey string
}

// NewClient creates a new Razorpay client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.razorpay.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// CreateOrder registers the amount with Razorpay and returns the gateway order.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error) {
	payload := map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gateway order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("X-Razorpay-Idempotency", req.IdempotencyKey)
	}
	httpReq.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("gateway returned %d: %w", resp.StatusCode, ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway rejected order creation (status %d): %s", resp.StatusCode, respBody)
	}

	var gatewayOrder GatewayOrder
	if err := json.Unmarshal(respBody, &gatewayOrder); err != nil {
		return nil, fmt.Errorf("failed to decode gateway order: %w", err)
	}
	return &gatewayOrder, nil
}

// Sign computes the payment signature the gateway is expected to send:
// hex-encoded HMAC-SHA256 over "orderID|paymentID" with the key secret.
func Sign(gatewayOrderID, gatewayPaymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the expected signature and compares it in
// constant time.
func VerifySignature(gatewayOrderID, gatewayPaymentID, signature, secret string) bool {
	expected := Sign(gatewayOrderID, gatewayPaymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
