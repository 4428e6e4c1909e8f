package checkout

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

// Repository persists placed orders. CreateOrder stores the order and its outbox event atomically.
type Repository interface {
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	CreateOrder(ctx context.Context, order *domain.Order, event *domain.OutboxEvent) error
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByOwner(ctx context.Context, owner string) ([]domain.Order, error)
	ListOrders(ctx context.Context, limit int) ([]domain.Order, error)
}
