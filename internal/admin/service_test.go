package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/db/dbtest"
	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *checkout.SQLRepository) {
	t.Helper()
	conn := dbtest.SQLite(t)
	orders := checkout.NewSQLRepository(conn)
	return NewService(catalog.NewSQLRepository(conn), orders), orders
}

func validInput() ProductInput {
	return ProductInput{
		Name:          "  OLED 65 ",
		Slug:          "OLED-65",
		Price:         decimal.NewFromInt(150000),
		StockQuantity: 3,
		Images:        []string{"oled.jpg"},
	}
}

func TestCreateProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, validInput())
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "OLED 65", p.Name)
	assert.Equal(t, "oled-65", p.Slug)
	assert.True(t, p.IsActive, "products are active unless stated otherwise")

	stored, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"oled.jpg"}, stored.Images)

	_, err = svc.CreateProduct(ctx, validInput())
	assert.ErrorIs(t, err, catalog.ErrSlugTaken)
}

func TestCreateProduct_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProductInput)
		field  string
	}{
		{name: "name", mutate: func(in *ProductInput) { in.Name = " " }, field: "name"},
		{name: "slug missing", mutate: func(in *ProductInput) { in.Slug = "" }, field: "slug"},
		{name: "slug format", mutate: func(in *ProductInput) { in.Slug = "oled 65!" }, field: "slug"},
		{name: "negative price", mutate: func(in *ProductInput) { in.Price = decimal.NewFromInt(-1) }, field: "price"},
		{name: "negative original price", mutate: func(in *ProductInput) {
			in.OriginalPrice = decimal.NewNullDecimal(decimal.NewFromInt(-5))
		}, field: "original_price"},
		{name: "negative stock", mutate: func(in *ProductInput) { in.StockQuantity = -1 }, field: "stock_quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			in := validInput()
			tt.mutate(&in)

			_, err := svc.CreateProduct(context.Background(), in)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Price = decimal.NewFromInt(140000)
	inactive := false
	in.IsActive = &inactive
	updated, err := svc.UpdateProduct(ctx, p.ID, in)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.True(t, decimal.NewFromInt(140000).Equal(updated.Price))

	_, err = svc.UpdateProduct(ctx, 9999, validInput())
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, svc.DeleteProduct(ctx, p.ID), catalog.ErrProductNotFound)
}

func TestOrders(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	orders, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i, owner := range []string{"alice", "bob"} {
		o := &domain.Order{
			ID:             uuid.New(),
			Owner:          owner,
			IdempotencyKey: owner + "-key",
			Customer:       domain.Customer{Name: owner, Email: owner + "@example.com", Phone: "1", Address: "x"},
			PaymentMethod:  checkout.PaymentCashOnDelivery,
			Items:          []domain.LineItem{{ID: 1, Price: decimal.NewFromInt(10), Quantity: 1}},
			Subtotal:       decimal.NewFromInt(10),
			Shipping:       decimal.Zero,
			Total:          decimal.NewFromInt(10),
			Currency:       "USD",
			Status:         domain.OrderStatusPlaced,
			CreatedAt:      base.Add(time.Duration(i) * time.Hour),
		}
		ev := &domain.OutboxEvent{ID: uuid.New(), AggregateID: o.ID.String(), EventType: domain.EventOrderPlaced, Payload: []byte(`{}`), CreatedAt: o.CreatedAt}
		require.NoError(t, repo.CreateOrder(ctx, o, ev))
		ids = append(ids, o.ID)
	}

	orders, err = svc.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "bob", orders[0].Owner)

	got, err := svc.GetOrder(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)

	_, err = svc.GetOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, checkout.ErrOrderNotFound)
}
