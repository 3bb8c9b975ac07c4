package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"
	"pasar/pkg/idempotency"
	"pasar/pkg/razorpay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeySecret = "test_secret_key"

// stubGateway counts calls and mints sequential gateway order IDs.
type stubGateway struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *stubGateway) CreateOrder(ctx context.Context, req razorpay.CreateOrderRequest) (*razorpay.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.calls++
	return &razorpay.GatewayOrder{
		ID:       fmt.Sprintf("order_gw_%d", g.calls),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

type paymentFixture struct {
	orders  *repositories.MockOrderRepository
	gateway *stubGateway
	events  *capturePublisher
	service *services.PaymentService
	order   *models.Order
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	f := &paymentFixture{
		orders:  repositories.NewMockOrderRepository(),
		gateway: &stubGateway{},
		events:  &capturePublisher{},
	}
	f.service = services.NewPaymentService(f.orders, f.gateway, testKeySecret, "INR", idempotency.NewMemoryStore(), f.events)

	f.order = &models.Order{
		ID:            "order-1",
		OrderNumber:   "ORD-20260901-AB12CD34",
		CustomerID:    "cust-1",
		Status:        models.StatusCreated,
		PaymentStatus: models.PaymentPending,
		Subtotal:      900,
		Tax:           162,
		Total:         1062,
		Items: []models.OrderItem{
			{ID: "item-1", OrderID: "order-1", ProductID: "prod-1", VendorID: "vendor-1", Title: "Widget", Quantity: 2, PricePerUnit: 450, TotalPrice: 900},
		},
	}
	require.NoError(t, f.orders.Create(f.order))
	return f
}

func TestPaymentService_CreateIntent(t *testing.T) {
	f := newPaymentFixture(t)

	intent, err := f.service.CreateIntent(context.Background(), f.order.ID, "key-1")

	require.NoError(t, err)
	assert.Equal(t, f.order.Total, intent.Amount, "amount must come from the stored order")
	assert.Equal(t, "INR", intent.Currency)
	assert.Equal(t, f.order.OrderNumber, intent.Receipt)

	stored, err := f.orders.GetByID(f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, intent.ID, stored.RazorpayOrderID)
}

func TestPaymentService_CreateIntentIdempotentByKey(t *testing.T) {
	f := newPaymentFixture(t)

	first, err := f.service.CreateIntent(context.Background(), f.order.ID, "key-1")
	require.NoError(t, err)
	second, err := f.service.CreateIntent(context.Background(), f.order.ID, "key-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.gateway.calls)
}

func TestPaymentService_CreateIntentReusesExistingGatewayOrder(t *testing.T) {
	f := newPaymentFixture(t)

	first, err := f.service.CreateIntent(context.Background(), f.order.ID, "key-1")
	require.NoError(t, err)

	// A retry without a key, after the cart is long gone, still resolves to
	// the same gateway order.
	second, err := f.service.CreateIntent(context.Background(), f.order.ID, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.gateway.calls)
}

func TestPaymentService_CreateIntentRejectsSettledOrder(t *testing.T) {
	f := newPaymentFixture(t)
	require.NoError(t, f.orders.MarkPaid(f.order.ID, "pay_done"))

	_, err := f.service.CreateIntent(context.Background(), f.order.ID, "key-1")

	assert.ErrorIs(t, err, services.ErrConflictingUpdate)
}

func TestPaymentService_CreateIntentGatewayDown(t *testing.T) {
	f := newPaymentFixture(t)
	f.gateway.err = fmt.Errorf("connect: %w", razorpay.ErrUnavailable)

	_, err := f.service.CreateIntent(context.Background(), f.order.ID, "key-1")

	assert.ErrorIs(t, err, razorpay.ErrUnavailable)
}

// settle creates the intent and returns the gateway order ID plus a valid
// signature for the given payment ID.
func (f *paymentFixture) settle(t *testing.T, paymentID string) (gatewayOrderID, signature string) {
	t.Helper()
	intent, err := f.service.CreateIntent(context.Background(), f.order.ID, "")
	require.NoError(t, err)
	return intent.ID, razorpay.Sign(intent.ID, paymentID, testKeySecret)
}

func TestPaymentService_VerifyMarksPaid(t *testing.T) {
	f := newPaymentFixture(t)
	gwOrderID, sig := f.settle(t, "pay_abc")

	order, err := f.service.Verify(context.Background(), f.order.ID, gwOrderID, "pay_abc", sig)

	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, "pay_abc", order.RazorpayPaymentID)
	assert.Contains(t, f.events.published(), "order.paid")
}

func TestPaymentService_VerifyTamperedSignature(t *testing.T) {
	f := newPaymentFixture(t)
	gwOrderID, _ := f.settle(t, "pay_abc")
	forged := razorpay.Sign(gwOrderID, "pay_abc", "wrong_secret")

	_, err := f.service.Verify(context.Background(), f.order.ID, gwOrderID, "pay_abc", forged)

	assert.ErrorIs(t, err, services.ErrSignatureInvalid)

	// A failed verification leaves the order pending.
	stored, getErr := f.orders.GetByID(f.order.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.PaymentPending, stored.PaymentStatus)
	assert.Empty(t, stored.RazorpayPaymentID)
	assert.NotContains(t, f.events.published(), "order.paid")
}

func TestPaymentService_VerifyMismatchedGatewayOrder(t *testing.T) {
	f := newPaymentFixture(t)
	f.settle(t, "pay_abc")
	sig := razorpay.Sign("order_gw_other", "pay_abc", testKeySecret)

	_, err := f.service.Verify(context.Background(), f.order.ID, "order_gw_other", "pay_abc", sig)

	assert.ErrorIs(t, err, services.ErrSignatureInvalid)
}

func TestPaymentService_VerifyReplayIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t)
	gwOrderID, sig := f.settle(t, "pay_abc")

	first, err := f.service.Verify(context.Background(), f.order.ID, gwOrderID, "pay_abc", sig)
	require.NoError(t, err)
	second, err := f.service.Verify(context.Background(), f.order.ID, gwOrderID, "pay_abc", sig)
	require.NoError(t, err)

	assert.Equal(t, first.RazorpayPaymentID, second.RazorpayPaymentID)
	assert.Equal(t, models.PaymentPaid, second.PaymentStatus)

	// Only the first confirmation emits the paid event.
	var paidEvents int
	for _, event := range f.events.published() {
		if event == "order.paid" {
			paidEvents++
		}
	}
	assert.Equal(t, 1, paidEvents)
}

func TestPaymentService_VerifyDifferentPaymentOnPaidOrder(t *testing.T) {
	f := newPaymentFixture(t)
	gwOrderID, sig := f.settle(t, "pay_abc")

	_, err := f.service.Verify(context.Background(), f.order.ID, gwOrderID, "pay_abc", sig)
	require.NoError(t, err)

	otherSig := razorpay.Sign(gwOrderID, "pay_xyz", testKeySecret)
	_, err = f.service.Verify(context.Background(), f.order.ID, gwOrderID, "pay_xyz", otherSig)

	assert.ErrorIs(t, err, services.ErrConflictingUpdate)
}
