package services_test

import (
	"testing"
	"time"

	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueryFixture(t *testing.T) (*repositories.MockOrderRepository, *services.OrderQueryService) {
	t.Helper()
	repo := repositories.NewMockOrderRepository()
	orders := []models.Order{
		{
			ID: "order-1", OrderNumber: "ORD-20260901-AAAA1111", CustomerID: "cust-1",
			Status: models.StatusCreated, PaymentStatus: models.PaymentPaid,
			Subtotal: 700, Total: 700,
			Items: []models.OrderItem{
				{ID: "i1", OrderID: "order-1", ProductID: "prod-1", VendorID: "vendor-1", Title: "Widget", Quantity: 5, PricePerUnit: 100, TotalPrice: 500, VendorName: "Acme Supplies"},
				{ID: "i2", OrderID: "order-1", ProductID: "prod-2", VendorID: "vendor-2", Title: "Gadget", Quantity: 1, PricePerUnit: 200, TotalPrice: 200, VendorName: "Bulk Traders"},
			},
		},
		{
			ID: "order-2", OrderNumber: "ORD-20260901-BBBB2222", CustomerID: "cust-2",
			Status: models.StatusPacked, PaymentStatus: models.PaymentPaid,
			Subtotal: 400, Total: 400,
			Items: []models.OrderItem{
				{ID: "i3", OrderID: "order-2", ProductID: "prod-2", VendorID: "vendor-2", Title: "Gadget", Quantity: 2, PricePerUnit: 200, TotalPrice: 400, VendorName: "Bulk Traders"},
			},
		},
	}
	for i := range orders {
		require.NoError(t, repo.Create(&orders[i]))
	}
	return repo, services.NewOrderQueryService(repo)
}

func TestOrderQueryService_ListForAdmin(t *testing.T) {
	_, svc := newQueryFixture(t)

	views, err := svc.ListForAdmin(services.OrderListParams{})
	require.NoError(t, err)
	require.Len(t, views, 2)

	var multiVendor *services.AdminOrderView
	for i := range views {
		if views[i].ID == "order-1" {
			multiVendor = &views[i]
		}
	}
	require.NotNil(t, multiVendor)
	require.Len(t, multiVendor.VendorTotals, 2)
	totals := map[string]int64{}
	for _, vt := range multiVendor.VendorTotals {
		totals[vt.VendorID] = vt.Subtotal
	}
	assert.Equal(t, int64(500), totals["vendor-1"])
	assert.Equal(t, int64(200), totals["vendor-2"])
}

func TestOrderQueryService_AdminOnlyScope(t *testing.T) {
	_, svc := newQueryFixture(t)

	views, err := svc.ListForAdmin(services.OrderListParams{Scope: services.ScopeAdminOnly})
	require.NoError(t, err)

	// Only order-2 (packed) is in the admin work queue; order-1 is still
	// with its vendors.
	require.Len(t, views, 1)
	assert.Equal(t, "order-2", views[0].ID)
}

func TestOrderQueryService_AdminOnlyScopeComposesWithPagination(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	now := time.Now()

	// Two fresh created orders sit in front of an older packed one. The
	// scope must narrow the result set before the page is cut, or the
	// queue order would vanish behind the limit.
	orders := []models.Order{
		{ID: "order-new-1", OrderNumber: "ORD-20260901-NEW00001", CustomerID: "cust-1", Status: models.StatusCreated, PlacedAt: now},
		{ID: "order-new-2", OrderNumber: "ORD-20260901-NEW00002", CustomerID: "cust-2", Status: models.StatusCreated, PlacedAt: now.Add(-time.Minute)},
		{ID: "order-queued", OrderNumber: "ORD-20260901-QUEUE001", CustomerID: "cust-3", Status: models.StatusPacked, PlacedAt: now.Add(-time.Hour),
			Items: []models.OrderItem{{ID: "i1", ProductID: "prod-1", VendorID: "vendor-1", Title: "Widget", Quantity: 1, PricePerUnit: 100, TotalPrice: 100, VendorName: "Acme Supplies"}}},
	}
	for i := range orders {
		require.NoError(t, repo.Create(&orders[i]))
	}
	svc := services.NewOrderQueryService(repo)

	views, err := svc.ListForAdmin(services.OrderListParams{Scope: services.ScopeAdminOnly, Limit: 2})
	require.NoError(t, err)

	require.Len(t, views, 1)
	assert.Equal(t, "order-queued", views[0].ID)
}

// filterSpyRepo records the last filter the query service handed down.
type filterSpyRepo struct {
	*repositories.MockOrderRepository
	lastFilter repositories.OrderFilter
}

func (r *filterSpyRepo) List(filter repositories.OrderFilter) ([]models.Order, error) {
	r.lastFilter = filter
	return r.MockOrderRepository.List(filter)
}

func TestOrderQueryService_LimitIsClamped(t *testing.T) {
	spy := &filterSpyRepo{MockOrderRepository: repositories.NewMockOrderRepository()}
	svc := services.NewOrderQueryService(spy)

	_, err := svc.ListForCustomer("cust-1", services.OrderListParams{Limit: 100000})
	require.NoError(t, err)
	assert.Equal(t, 200, spy.lastFilter.Limit)

	_, err = svc.ListForAdmin(services.OrderListParams{})
	require.NoError(t, err)
	assert.Equal(t, 50, spy.lastFilter.Limit, "default page size when none requested")
}

func TestOrderQueryService_ListForVendorOmitsOtherVendorsAndPII(t *testing.T) {
	_, svc := newQueryFixture(t)

	views, err := svc.ListForVendor("vendor-1", services.OrderListParams{})
	require.NoError(t, err)

	require.Len(t, views, 1)
	view := views[0]
	assert.Equal(t, "order-1", view.ID)
	require.Len(t, view.Items, 1, "only the vendor's own items")
	assert.Equal(t, "vendor-1", view.Items[0].VendorID)
	assert.Equal(t, int64(500), view.Subtotal, "subtotal covers only the vendor's items")
}

func TestOrderQueryService_ListForCustomer(t *testing.T) {
	_, svc := newQueryFixture(t)

	orders, err := svc.ListForCustomer("cust-1", services.OrderListParams{})
	require.NoError(t, err)

	require.Len(t, orders, 1)
	assert.Equal(t, "order-1", orders[0].ID)
	assert.Equal(t, "cust-1", orders[0].CustomerID)
}

func TestOrderQueryService_StatusFilterAndSearch(t *testing.T) {
	_, svc := newQueryFixture(t)

	packed, err := svc.ListForAdmin(services.OrderListParams{Status: models.StatusPacked})
	require.NoError(t, err)
	require.Len(t, packed, 1)
	assert.Equal(t, "order-2", packed[0].ID)

	byNumber, err := svc.ListForAdmin(services.OrderListParams{Search: "AAAA1111"})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)
	assert.Equal(t, "order-1", byNumber[0].ID)

	byTitle, err := svc.ListForAdmin(services.OrderListParams{Search: "widget"})
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "order-1", byTitle[0].ID)
}

func TestOrderQueryService_GetForActor(t *testing.T) {
	_, svc := newQueryFixture(t)

	// Customer sees their own order, not someone else's.
	view, err := svc.GetForActor(services.Actor{UserID: "cust-1", Role: models.RoleCustomer}, "order-1")
	require.NoError(t, err)
	order, ok := view.(*models.Order)
	require.True(t, ok)
	assert.Equal(t, "order-1", order.ID)

	_, err = svc.GetForActor(services.Actor{UserID: "cust-1", Role: models.RoleCustomer}, "order-2")
	assert.ErrorIs(t, err, services.ErrForbidden)

	// Vendor only sees orders carrying their items.
	view, err = svc.GetForActor(services.Actor{UserID: "vendor-2", Role: models.RoleVendor}, "order-1")
	require.NoError(t, err)
	vendorView, ok := view.(services.VendorOrderView)
	require.True(t, ok)
	require.Len(t, vendorView.Items, 1)
	assert.Equal(t, "vendor-2", vendorView.Items[0].VendorID)

	_, err = svc.GetForActor(services.Actor{UserID: "vendor-1", Role: models.RoleVendor}, "order-2")
	assert.ErrorIs(t, err, services.ErrForbidden)

	// Admin sees everything with vendor totals.
	view, err = svc.GetForActor(services.Actor{UserID: "admin-1", Role: models.RoleAdmin}, "order-1")
	require.NoError(t, err)
	adminView, ok := view.(services.AdminOrderView)
	require.True(t, ok)
	assert.Len(t, adminView.VendorTotals, 2)
}

func TestOrderQueryService_Pagination(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	for i := 0; i < 5; i++ {
		order := models.Order{
			ID:          string(rune('a' + i)),
			OrderNumber: "ORD-20260901-000000" + string(rune('0'+i)),
			CustomerID:  "cust-1",
			Status:      models.StatusCreated,
		}
		require.NoError(t, repo.Create(&order))
	}
	svc := services.NewOrderQueryService(repo)

	page, err := svc.ListForCustomer("cust-1", services.OrderListParams{Limit: 2, Skip: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	tail, err := svc.ListForCustomer("cust-1", services.OrderListParams{Limit: 10, Skip: 4})
	require.NoError(t, err)
	assert.Len(t, tail, 1)
}
