package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/circuitbreaker"
	"github.com/fjod/storefront/internal/domain"
	"go.uber.org/zap"
)

// ErrUnavailable wraps every failure to reach the catalog, so callers can tell "no results" from
// "could not load results".
var ErrUnavailable = errors.New("catalog unavailable")

const MaxListLimit = 100

// Service is the shopper-facing catalog query layer. Only active products are visible through it.
type Service struct {
	repo    Repository
	breaker *circuitbreaker.Breaker[any]
}

func NewService(repo Repository, log *zap.Logger) *Service {
	settings := circuitbreaker.DefaultSettings("catalog")
	settings.Expected = []error{ErrProductNotFound}
	return &Service{
		repo:    repo,
		breaker: circuitbreaker.New[any](settings, log),
	}
}

func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if filter.Limit <= 0 || filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	return guarded(s.breaker, func() ([]domain.Product, error) {
		return s.repo.ListProducts(ctx, filter)
	})
}

// GetProduct returns the active product with slug.
func (s *Service) GetProduct(ctx context.Context, slug string) (*domain.Product, error) {
	p, err := guarded(s.breaker, func() (*domain.Product, error) {
		return s.repo.GetProductBySlug(ctx, slug)
	})
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// GetProductByID resolves a product a shopper is adding to their cart or wishlist.
func (s *Service) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := guarded(s.breaker, func() (*domain.Product, error) {
		return s.repo.GetProductByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return guarded(s.breaker, func() ([]domain.Category, error) {
		return s.repo.ListCategories(ctx)
	})
}

func (s *Service) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	return guarded(s.breaker, func() ([]domain.Brand, error) {
		return s.repo.ListBrands(ctx)
	})
}

// guarded runs fn through the breaker. Anything other than a not-found or a cancelled request
// is reported as ErrUnavailable.
func guarded[T any](b *circuitbreaker.Breaker[any], fn func() (T, error)) (T, error) {
	var zero T
	v, err := b.Execute(func() (any, error) {
		return fn()
	})
	switch {
	case err == nil:
		return v.(T), nil
	case errors.Is(err, ErrProductNotFound), errors.Is(err, context.Canceled):
		return zero, err
	default:
		return zero, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}
