package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validCheckout(lines ...domain.OrderLineRequest) CheckoutInput {
	return CheckoutInput{
		CustomerName:    "Maria Silva",
		Email:           "maria@example.com",
		Phone:           "11987654321",
		DeliveryAddress: "Rua das Flores, 123",
		Lines:           lines,
	}
}

func validAdmin(lines ...domain.OrderLineRequest) AdminOrderInput {
	return AdminOrderInput{
		CustomerName:    "João Pereira",
		Phone:           "(11) 98765-4321",
		DeliveryAddress: "Av. Brasil, 500",
		Lines:           lines,
	}
}

func setupOrderService(products map[string]domain.Product) (*OrderService, *mockCatalog, *mockOrderRepo, *mockCache) {
	catalog := &mockCatalog{products: products}
	repo := newMockOrderRepo()
	c := &mockCache{}
	return NewOrderService(catalog, repo, c, logger.Discard()), catalog, repo, c
}

func TestPlaceOrder_Success(t *testing.T) {
	svc, catalog, repo, c := setupOrderService(map[string]domain.Product{
		"A": {ID: "A", Name: "Burger", Price: dec("10.00")},
		"B": {ID: "B", Name: "Fries", Price: dec("4.50")},
	})

	res := svc.PlaceOrder(context.Background(), validCheckout(
		domain.OrderLineRequest{ProductID: "A", Quantity: 2},
		domain.OrderLineRequest{ProductID: "B", Quantity: 1},
	))

	require.True(t, res.Success, res.Error)
	require.NotEmpty(t, res.OrderID)
	assert.Equal(t, 1, catalog.calls)
	assert.ElementsMatch(t, []string{"A", "B"}, catalog.lastIDs)
	assert.Equal(t, 1, c.invalidations())

	stored := repo.get(res.OrderID)
	require.NotNil(t, stored)
	assert.Equal(t, domain.OrderSourceStorefront, stored.Source)
	assert.Equal(t, "maria@example.com", stored.Email)
	require.Len(t, stored.Lines, 2)
	assert.Equal(t, res.OrderID, stored.Lines[0].OrderID)
	assert.True(t, dec("24.50").Equal(stored.Total()))

	require.Len(t, repo.events, 1)
	assert.Equal(t, domain.EventOrderCreated, repo.events[0].EventType)
	assert.Equal(t, res.OrderID, repo.events[0].AggregateID)
}

func TestPlaceOrder_ResultJSON(t *testing.T) {
	svc, _, _, _ := setupOrderService(map[string]domain.Product{"A": {ID: "A", Price: dec("1")}})

	ok := svc.PlaceOrder(context.Background(), validCheckout(domain.OrderLineRequest{ProductID: "A", Quantity: 1}))
	data, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"orderId":"`+ok.OrderID+`"}`, string(data))

	bad := svc.PlaceOrder(context.Background(), validCheckout())
	data, err = json.Marshal(bad)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"add at least one item to the order"}`, string(data))
}

func TestPlaceOrder_EmptyCartNeverReachesCollaborators(t *testing.T) {
	svc, catalog, repo, _ := setupOrderService(nil)

	res := svc.PlaceOrder(context.Background(), validCheckout())

	assert.False(t, res.Success)
	assert.Equal(t, KindValidation, res.Kind)
	assert.Equal(t, "add at least one item to the order", res.Error)
	assert.Zero(t, catalog.calls)
	assert.Zero(t, repo.callCount())
}

func TestPlaceOrder_ValidationMessages(t *testing.T) {
	line := domain.OrderLineRequest{ProductID: "A", Quantity: 1}
	cases := []struct {
		name   string
		mutate func(*CheckoutInput)
		want   string
	}{
		{"short name", func(in *CheckoutInput) { in.CustomerName = "Al" }, "customer name must have at least 3 characters"},
		{"name only spaces", func(in *CheckoutInput) { in.CustomerName = "   Al   " }, "customer name must have at least 3 characters"},
		{"bad email", func(in *CheckoutInput) { in.Email = "not-an-email" }, "invalid email"},
		{"missing email", func(in *CheckoutInput) { in.Email = "" }, "invalid email"},
		{"short phone", func(in *CheckoutInput) { in.Phone = "123" }, "phone must have at least 10 digits"},
		{"long phone", func(in *CheckoutInput) { in.Phone = "1234567890123456" }, "phone must have at most 15 digits"},
		{"short address", func(in *CheckoutInput) { in.DeliveryAddress = "Rua 1" }, "address must have at least 10 characters"},
		{"zero quantity", func(in *CheckoutInput) { in.Lines[0].Quantity = 0 }, "item quantity must be at least 1"},
		{"missing product", func(in *CheckoutInput) { in.Lines[0].ProductID = " " }, "every item needs a product"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, catalog, repo, _ := setupOrderService(nil)
			in := validCheckout(line)
			tc.mutate(&in)

			res := svc.PlaceOrder(context.Background(), in)

			assert.Equal(t, tc.want, res.Error)
			assert.Equal(t, KindValidation, res.Kind)
			assert.Zero(t, catalog.calls)
			assert.Zero(t, repo.callCount())
		})
	}
}

func TestPlaceOrder_FirstViolationWins(t *testing.T) {
	svc, _, _, _ := setupOrderService(nil)
	in := validCheckout()
	in.CustomerName = "A"
	in.Email = "bad"

	res := svc.PlaceOrder(context.Background(), in)
	assert.Equal(t, "customer name must have at least 3 characters", res.Error)
}

func TestPlaceOrder_TrimsInput(t *testing.T) {
	svc, _, repo, _ := setupOrderService(map[string]domain.Product{"A": {ID: "A", Price: dec("3")}})
	in := validCheckout(domain.OrderLineRequest{ProductID: " A ", Quantity: 1})
	in.CustomerName = "  Maria Silva  "

	res := svc.PlaceOrder(context.Background(), in)
	require.True(t, res.Success, res.Error)

	stored := repo.get(res.OrderID)
	assert.Equal(t, "Maria Silva", stored.CustomerName)
	assert.Equal(t, "A", stored.Lines[0].ProductID)
	assert.True(t, dec("3").Equal(stored.Lines[0].UnitPrice))
}

func TestPlaceOrder_SnapshotsCatalogPrice(t *testing.T) {
	products := map[string]domain.Product{"P": {ID: "P", Name: "Pizza", Price: dec("10.00")}}
	svc, _, repo, _ := setupOrderService(products)

	// the cart captured 10.00, then the catalog price moved to 15.00
	products["P"] = domain.Product{ID: "P", Name: "Pizza", Price: dec("15.00")}
	hint := dec("10.00")

	res := svc.PlaceOrder(context.Background(), validCheckout(
		domain.OrderLineRequest{ProductID: "P", Quantity: 2, UnitPriceHint: &hint},
	))
	require.True(t, res.Success, res.Error)

	stored := repo.get(res.OrderID)
	assert.True(t, dec("15.00").Equal(stored.Lines[0].UnitPrice))
	assert.True(t, dec("30.00").Equal(stored.Total()))
}

func TestPlaceOrder_BogusHintIgnored(t *testing.T) {
	svc, _, repo, _ := setupOrderService(map[string]domain.Product{"P": {ID: "P", Price: dec("12.00")}})
	hint := dec("0.01")

	res := svc.PlaceOrder(context.Background(), validCheckout(
		domain.OrderLineRequest{ProductID: "P", Quantity: 1, UnitPriceHint: &hint},
	))
	require.True(t, res.Success, res.Error)
	assert.True(t, dec("12.00").Equal(repo.get(res.OrderID).Lines[0].UnitPrice))
}

func TestPlaceOrder_UnknownProductPricedAtZero(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	catalog := &mockCatalog{products: map[string]domain.Product{"A": {ID: "A", Price: dec("7.00")}}}
	repo := newMockOrderRepo()
	svc := NewOrderService(catalog, repo, &mockCache{}, log)

	res := svc.PlaceOrder(context.Background(), validCheckout(
		domain.OrderLineRequest{ProductID: "A", Quantity: 1},
		domain.OrderLineRequest{ProductID: "ghost", Quantity: 3},
	))
	require.True(t, res.Success, res.Error)

	stored := repo.get(res.OrderID)
	require.Len(t, stored.Lines, 2)
	assert.True(t, dec("7.00").Equal(stored.Lines[0].UnitPrice))
	assert.True(t, stored.Lines[1].UnitPrice.IsZero())
	assert.Equal(t, 3, stored.Lines[1].Quantity)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "product_id=ghost")
}

func TestPlaceOrder_DuplicateProductsLookedUpOnce(t *testing.T) {
	svc, catalog, repo, _ := setupOrderService(map[string]domain.Product{"A": {ID: "A", Price: dec("2")}})

	res := svc.PlaceOrder(context.Background(), validCheckout(
		domain.OrderLineRequest{ProductID: "A", Quantity: 1},
		domain.OrderLineRequest{ProductID: "A", Quantity: 2},
	))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"A"}, catalog.lastIDs)
	assert.Len(t, repo.get(res.OrderID).Lines, 2)
}

func TestPlaceOrder_PersistenceFailure(t *testing.T) {
	svc, _, repo, c := setupOrderService(map[string]domain.Product{"A": {ID: "A", Price: dec("2")}})
	repo.createErr = errors.New("connection refused")

	res := svc.PlaceOrder(context.Background(), validCheckout(domain.OrderLineRequest{ProductID: "A", Quantity: 1}))

	assert.False(t, res.Success)
	assert.Equal(t, KindFailure, res.Kind)
	assert.Equal(t, MsgOrderFailed, res.Error)
	assert.Empty(t, res.OrderID)
	assert.Zero(t, c.invalidations())
}

func TestPlaceOrder_CatalogFailure(t *testing.T) {
	svc, catalog, repo, _ := setupOrderService(nil)
	catalog.err = errors.New("db down")

	res := svc.PlaceOrder(context.Background(), validCheckout(domain.OrderLineRequest{ProductID: "A", Quantity: 1}))

	assert.Equal(t, MsgOrderFailed, res.Error)
	assert.Zero(t, repo.callCount())
}

func TestCreateOrder_AdminPhoneMask(t *testing.T) {
	svc, _, repo, _ := setupOrderService(map[string]domain.Product{"A": {ID: "A", Price: dec("5")}})
	line := domain.OrderLineRequest{ProductID: "A", Quantity: 1}

	for _, phone := range []string{"(11) 9876-5432", "(11) 98765-4321"} {
		in := validAdmin(line)
		in.Phone = phone
		res := svc.CreateOrder(context.Background(), in)
		require.True(t, res.Success, phone)
		assert.Equal(t, domain.OrderSourceAdmin, repo.get(res.OrderID).Source)
		assert.Empty(t, repo.get(res.OrderID).Email)
	}

	for _, phone := range []string{"11987654321", "(11)98765-4321", "(1) 98765-4321", ""} {
		in := validAdmin(line)
		in.Phone = phone
		res := svc.CreateOrder(context.Background(), in)
		assert.Equal(t, "invalid phone", res.Error, phone)
	}
}

func TestCreateOrder_AdminAddressMinimum(t *testing.T) {
	svc, _, _, _ := setupOrderService(map[string]domain.Product{"A": {ID: "A", Price: dec("5")}})
	line := domain.OrderLineRequest{ProductID: "A", Quantity: 1}

	in := validAdmin(line)
	in.DeliveryAddress = "Rua"
	assert.Equal(t, "address must have at least 5 characters", svc.CreateOrder(context.Background(), in).Error)

	in.DeliveryAddress = "Rua 1"
	assert.True(t, svc.CreateOrder(context.Background(), in).Success)
}

func TestEditOrder_ReplacesLines(t *testing.T) {
	svc, catalog, repo, c := setupOrderService(map[string]domain.Product{
		"A": {ID: "A", Price: dec("10")},
		"B": {ID: "B", Price: dec("3")},
	})
	created := svc.CreateOrder(context.Background(), validAdmin(domain.OrderLineRequest{ProductID: "A", Quantity: 1}))
	require.True(t, created.Success)

	catalog.products["A"] = domain.Product{ID: "A", Price: dec("11")}
	in := validAdmin(
		domain.OrderLineRequest{ProductID: "A", Quantity: 2},
		domain.OrderLineRequest{ProductID: "B", Quantity: 4},
	)
	in.CustomerName = "João Edited"

	res := svc.EditOrder(context.Background(), created.OrderID, in)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, created.OrderID, res.OrderID)

	stored := repo.get(created.OrderID)
	assert.Equal(t, "João Edited", stored.CustomerName)
	require.Len(t, stored.Lines, 2)
	assert.True(t, dec("34").Equal(stored.Total()))
	assert.Equal(t, 2, c.invalidations())
	assert.Equal(t, domain.EventOrderUpdated, repo.events[len(repo.events)-1].EventType)
}

func TestEditOrder_FailureKeepsOriginalLines(t *testing.T) {
	svc, _, repo, c := setupOrderService(map[string]domain.Product{
		"A": {ID: "A", Price: dec("10")},
		"B": {ID: "B", Price: dec("3")},
	})
	created := svc.CreateOrder(context.Background(), validAdmin(
		domain.OrderLineRequest{ProductID: "A", Quantity: 1},
		domain.OrderLineRequest{ProductID: "B", Quantity: 2},
	))
	require.True(t, created.Success)
	before := repo.get(created.OrderID).Lines

	repo.replaceErr = errors.New("insert order line: connection reset")
	res := svc.EditOrder(context.Background(), created.OrderID, validAdmin(domain.OrderLineRequest{ProductID: "B", Quantity: 9}))

	assert.False(t, res.Success)
	assert.Equal(t, MsgOrderFailed, res.Error)
	assert.Equal(t, KindFailure, res.Kind)
	assert.Equal(t, before, repo.get(created.OrderID).Lines)
	assert.Equal(t, 1, c.invalidations())
}

func TestEditOrder_NotFound(t *testing.T) {
	svc, _, _, _ := setupOrderService(map[string]domain.Product{"A": {ID: "A", Price: dec("10")}})

	res := svc.EditOrder(context.Background(), "missing", validAdmin(domain.OrderLineRequest{ProductID: "A", Quantity: 1}))

	assert.Equal(t, KindNotFound, res.Kind)
	assert.Equal(t, MsgOrderNotFound, res.Error)
}

func TestEditOrder_ValidationFirst(t *testing.T) {
	svc, catalog, repo, _ := setupOrderService(nil)

	res := svc.EditOrder(context.Background(), "any", validAdmin())

	assert.Equal(t, KindValidation, res.Kind)
	assert.Zero(t, catalog.calls)
	assert.Zero(t, repo.callCount())
}

func TestDeleteOrder(t *testing.T) {
	svc, _, repo, c := setupOrderService(map[string]domain.Product{"A": {ID: "A", Price: dec("10")}})
	created := svc.CreateOrder(context.Background(), validAdmin(domain.OrderLineRequest{ProductID: "A", Quantity: 1}))
	require.True(t, created.Success)

	res := svc.DeleteOrder(context.Background(), created.OrderID)
	require.True(t, res.Success)
	assert.Nil(t, repo.get(created.OrderID))
	assert.Equal(t, 2, c.invalidations())
	assert.Equal(t, domain.EventOrderDeleted, repo.events[len(repo.events)-1].EventType)

	again := svc.DeleteOrder(context.Background(), created.OrderID)
	assert.Equal(t, KindNotFound, again.Kind)

	repo.deleteErr = errors.New("boom")
	failed := svc.DeleteOrder(context.Background(), "x")
	assert.Equal(t, KindFailure, failed.Kind)
}

func TestListOrders_CachesResult(t *testing.T) {
	svc, _, repo, c := setupOrderService(map[string]domain.Product{"A": {ID: "A", Price: dec("10")}})
	created := svc.CreateOrder(context.Background(), validAdmin(domain.OrderLineRequest{ProductID: "A", Quantity: 1}))
	require.True(t, created.Success)

	orders, err := svc.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)

	require.Eventually(t, func() bool { return c.cached() != nil }, time.Second, 10*time.Millisecond)

	orders, err = svc.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 1, repo.listCalls)
}

func TestListOrders_CacheErrorFallsBackToRepo(t *testing.T) {
	svc, _, repo, c := setupOrderService(nil)
	c.getErr = errors.New("redis down")

	orders, err := svc.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, 1, repo.listCalls)
}

func TestListOrders_RepoError(t *testing.T) {
	svc, _, repo, _ := setupOrderService(nil)
	repo.listErr = errors.New("db down")

	_, err := svc.ListOrders(context.Background())
	assert.Error(t, err)
}

func TestGetOrder_NotFound(t *testing.T) {
	svc, _, _, _ := setupOrderService(nil)
	_, err := svc.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrders_WriteDuringReadIsNotCachedStale(t *testing.T) {
	svc, _, repo, c := setupOrderService(map[string]domain.Product{"A": {ID: "A", Price: dec("10")}})

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	repo.listHook = func() {
		once.Do(func() {
			close(started)
			<-release
		})
	}

	done := make(chan []domain.Order)
	go func() {
		orders, err := svc.ListOrders(context.Background())
		assert.NoError(t, err)
		done <- orders
	}()

	<-started
	created := svc.CreateOrder(context.Background(), validAdmin(domain.OrderLineRequest{ProductID: "A", Quantity: 1}))
	require.True(t, created.Success)
	close(release)

	assert.Empty(t, <-done)
	assert.Never(t, func() bool { return c.cached() != nil }, 100*time.Millisecond, 10*time.Millisecond)

	orders, err := svc.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, created.OrderID, orders[0].ID)
}

func TestEditOrder_EventKeepsStoredSource(t *testing.T) {
	svc, _, repo, _ := setupOrderService(map[string]domain.Product{"A": {ID: "A", Price: dec("10")}})
	placed := svc.PlaceOrder(context.Background(), validCheckout(domain.OrderLineRequest{ProductID: "A", Quantity: 1}))
	require.True(t, placed.Success)

	res := svc.EditOrder(context.Background(), placed.OrderID, validAdmin(domain.OrderLineRequest{ProductID: "A", Quantity: 2}))
	require.True(t, res.Success, res.Error)

	assert.Equal(t, domain.OrderSourceStorefront, repo.get(placed.OrderID).Source)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(repo.events[len(repo.events)-1].Payload, &payload))
	assert.Equal(t, placed.OrderID, payload["order_id"])
	assert.NotContains(t, payload, "source")
}
