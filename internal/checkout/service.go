package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Cart is the part of the cart store checkout needs.
type Cart interface {
	// Snapshot reads the cart from storage, skipping any cache.
	Snapshot(ctx context.Context, owner string) ([]domain.LineItem, error)
	ClearOrdered(ctx context.Context, owner string, ordered []domain.LineItem) (bool, error)
}

type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	Currency              string
}

// Result is where a submission ended up. Order and Redirect are set once State is COMPLETED.
type Result struct {
	State    domain.CheckoutState `json:"state"`
	Order    *domain.Order        `json:"order,omitempty"`
	Redirect string               `json:"redirect,omitempty"`
}

type Service struct {
	repo    Repository
	cart    Cart
	pricing Pricing
	now     func() time.Time
}

func NewService(repo Repository, cart Cart, pricing Pricing) *Service {
	return &Service{
		repo:    repo,
		cart:    cart,
		pricing: pricing,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ConfirmationPath is where the shopper is sent after placing order id.
func ConfirmationPath(id uuid.UUID) string {
	return fmt.Sprintf("/orders/%s/confirmation", id)
}

// Submit places an order from the owner's cart. The returned Result is never nil; on error its
// State is EDITING so the shopper can correct the form and try again. Repeating a submission
// with the same idempotency key returns the order placed the first time.
func (s *Service) Submit(ctx context.Context, owner, idempotencyKey string, form Form) (*Result, error) {
	log := logger.FromContext(ctx).With(zap.String("idempotency_key", idempotencyKey))
	editing := &Result{State: domain.CheckoutStateEditing}

	form.Normalize()
	if err := form.Validate(); err != nil {
		return editing, err
	}
	if idempotencyKey == "" {
		return editing, ErrMissingIdempotencyKey
	}

	state, err := transition(domain.CheckoutStateEditing, domain.CheckoutStateSubmitting)
	if err != nil {
		return editing, err
	}

	existing, err := s.repo.GetOrderByIdempotencyKey(ctx, idempotencyKey)
	if err != nil && !errors.Is(err, ErrOrderNotFound) {
		return editing, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		log.Info("duplicate checkout request", zap.String("order_id", existing.ID.String()))
		return s.replay(state, owner, existing)
	}

	items, err := s.cart.Snapshot(ctx, owner)
	if err != nil {
		return s.abort(state, fmt.Errorf("read cart: %w", err))
	}
	if len(items) == 0 {
		return s.abort(state, ErrEmptyCart)
	}

	order := s.newOrder(owner, idempotencyKey, form, items)
	event, err := orderPlacedEvent(order)
	if err != nil {
		return s.abort(state, err)
	}

	err = s.repo.CreateOrder(ctx, order, event)
	if errors.Is(err, ErrDuplicateOrder) {
		// a concurrent submission with the same key won the insert
		existing, errGet := s.repo.GetOrderByIdempotencyKey(ctx, idempotencyKey)
		if errGet != nil {
			return s.abort(state, fmt.Errorf("load concurrent order: %w", errGet))
		}
		return s.replay(state, owner, existing)
	}
	if err != nil {
		return s.abort(state, err)
	}

	// lines added while the order was written stay in the cart
	cleared, err := s.cart.ClearOrdered(ctx, owner, items)
	if err != nil {
		// the order stands; a stale cart is an inconvenience, not a failed checkout
		log.Error("failed to clear cart after checkout", zap.String("order_id", order.ID.String()), zap.Error(err))
	} else if !cleared {
		log.Info("cart changed during checkout, kept", zap.String("order_id", order.ID.String()))
	}
	log.Info("order placed", zap.String("order_id", order.ID.String()), zap.String("total", order.Total.String()))

	return s.complete(state, order)
}

func (s *Service) GetOrder(ctx context.Context, owner string, id uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Owner != owner {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, owner string) ([]domain.Order, error) {
	return s.repo.ListOrdersByOwner(ctx, owner)
}

func (s *Service) newOrder(owner, idempotencyKey string, form Form, items []domain.LineItem) *domain.Order {
	totals := service.ComputeTotals(items, s.pricing.FreeShippingThreshold, s.pricing.FlatShippingFee)
	return &domain.Order{
		ID:             uuid.New(),
		Owner:          owner,
		IdempotencyKey: idempotencyKey,
		Customer:       form.Customer,
		PaymentMethod:  form.PaymentMethod,
		Items:          items,
		Subtotal:       totals.Subtotal,
		Shipping:       totals.Shipping,
		Total:          totals.Total,
		Currency:       s.pricing.Currency,
		Status:         domain.OrderStatusPlaced,
		CreatedAt:      s.now(),
	}
}

func (s *Service) replay(state domain.CheckoutState, owner string, existing *domain.Order) (*Result, error) {
	if existing.Owner != owner {
		return s.abort(state, ErrIdempotencyKeyReused)
	}
	return s.complete(state, existing)
}

func (s *Service) complete(state domain.CheckoutState, order *domain.Order) (*Result, error) {
	next, err := transition(state, domain.CheckoutStateCompleted)
	if err != nil {
		return &Result{State: state}, err
	}
	return &Result{State: next, Order: order, Redirect: ConfirmationPath(order.ID)}, nil
}

func (s *Service) abort(state domain.CheckoutState, cause error) (*Result, error) {
	next, err := transition(state, domain.CheckoutStateEditing)
	if err != nil {
		return &Result{State: state}, errors.Join(cause, err)
	}
	return &Result{State: next}, cause
}

func transition(from, to domain.CheckoutState) (domain.CheckoutState, error) {
	if !domain.CanTransitionTo(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return to, nil
}

type orderPlacedPayload struct {
	OrderID       uuid.UUID         `json:"order_id"`
	Owner         string            `json:"owner"`
	CustomerEmail string            `json:"customer_email"`
	Items         []domain.LineItem `json:"items"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	Shipping      decimal.Decimal   `json:"shipping"`
	Total         decimal.Decimal   `json:"total"`
	Currency      string            `json:"currency"`
	PlacedAt      time.Time         `json:"placed_at"`
}

func orderPlacedEvent(order *domain.Order) (*domain.OutboxEvent, error) {
	payload, err := json.Marshal(orderPlacedPayload{
		OrderID:       order.ID,
		Owner:         order.Owner,
		CustomerEmail: order.Customer.Email,
		Items:         order.Items,
		Subtotal:      order.Subtotal,
		Shipping:      order.Shipping,
		Total:         order.Total,
		Currency:      order.Currency,
		PlacedAt:      order.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %w", err)
	}
	return &domain.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: order.ID.String(),
		EventType:   domain.EventOrderPlaced,
		Payload:     payload,
		CreatedAt:   order.CreatedAt,
	}, nil
}
