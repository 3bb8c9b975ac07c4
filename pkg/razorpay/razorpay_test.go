package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	sig := Sign("order_abc", "pay_123", "secret")

	assert.True(t, VerifySignature("order_abc", "pay_123", sig, "secret"))
	assert.False(t, VerifySignature("order_abc", "pay_123", sig, "other_secret"))
	assert.False(t, VerifySignature("order_abc", "pay_456", sig, "secret"))
	assert.False(t, VerifySignature("order_abc", "pay_123", sig+"00", "secret"))
	assert.False(t, VerifySignature("order_abc", "pay_123", "", "secret"))
}

func TestClient_CreateOrder(t *testing.T) {
	var gotIdempotencyKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)
		gotIdempotencyKey = r.Header.Get("X-Razorpay-Idempotency")

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(106200), payload["amount"])
		assert.Equal(t, "INR", payload["currency"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(GatewayOrder{
			ID:       "order_gw_1",
			Amount:   106200,
			Currency: "INR",
			Receipt:  payload["receipt"].(string),
			Status:   "created",
		})
	}))
	defer server.Close()

	client := NewClient(Config{KeyID: "rzp_test_key", KeySecret: "rzp_test_secret", BaseURL: server.URL})
	order, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		Amount:         106200,
		Currency:       "INR",
		Receipt:        "ORD-20260901-AB12CD34",
		IdempotencyKey: "key-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "order_gw_1", order.ID)
	assert.Equal(t, int64(106200), order.Amount)
	assert.Equal(t, "ORD-20260901-AB12CD34", order.Receipt)
	assert.Equal(t, "key-1", gotIdempotencyKey)
}

func TestClient_CreateOrderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{KeyID: "k", KeySecret: "s", BaseURL: server.URL})
	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 100, Currency: "INR"})

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_CreateOrderRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"description":"amount too small"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{KeyID: "k", KeySecret: "s", BaseURL: server.URL})
	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 0, Currency: "INR"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable, "client errors are not retryable")
}

func TestClient_CreateOrderUnreachable(t *testing.T) {
	client := NewClient(Config{KeyID: "k", KeySecret: "s", BaseURL: "http://127.0.0.1:1"})
	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 100, Currency: "INR"})

	assert.ErrorIs(t, err, ErrUnavailable)
}
