package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fjod/storefront/internal/circuitbreaker"
	"github.com/fjod/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	m          sync.RWMutex
	products   []domain.Product
	err        error
	calls      int
	lastFilter domain.ProductFilter
}

func (m *mockRepository) ListProducts(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	m.lastFilter = f
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *mockRepository) find(match func(domain.Product) bool) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if match(p) {
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}

func (m *mockRepository) GetProductBySlug(_ context.Context, slug string) (*domain.Product, error) {
	return m.find(func(p domain.Product) bool { return p.Slug == slug })
}

func (m *mockRepository) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	return m.find(func(p domain.Product) bool { return p.ID == id })
}

func (m *mockRepository) ListCategories(context.Context) ([]domain.Category, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Category{{ID: 1, Name: "Televisions", Slug: "televisions", IsActive: true}}, nil
}

func (m *mockRepository) ListBrands(context.Context) ([]domain.Brand, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Brand{}, nil
}

func (m *mockRepository) CreateProduct(context.Context, *domain.Product) error { return nil }
func (m *mockRepository) UpdateProduct(context.Context, *domain.Product) error { return nil }
func (m *mockRepository) DeleteProduct(context.Context, int64) error          { return nil }

func TestService_GetProductHidesInactive(t *testing.T) {
	repo := &mockRepository{products: []domain.Product{
		{ID: 1, Slug: "on-sale", IsActive: true},
		{ID: 2, Slug: "retired", IsActive: false},
	}}
	svc := NewService(repo, nil)
	ctx := context.Background()

	p, err := svc.GetProduct(ctx, "on-sale")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)

	_, err = svc.GetProduct(ctx, "retired")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.GetProductByID(ctx, 2)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.GetProductByID(ctx, 404)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_ListProductsClampsLimit(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo, nil)

	_, err := svc.ListProducts(context.Background(), domain.ProductFilter{Limit: 10000})
	require.NoError(t, err)
	assert.Equal(t, MaxListLimit, repo.lastFilter.Limit)

	_, err = svc.ListProducts(context.Background(), domain.ProductFilter{Limit: 12})
	require.NoError(t, err)
	assert.Equal(t, 12, repo.lastFilter.Limit)
}

func TestService_FailureIsDistinctFromEmpty(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo, nil)
	ctx := context.Background()

	products, err := svc.ListProducts(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, products)

	repo.err = errors.New("database is locked")
	_, err = svc.ListProducts(ctx, domain.ProductFilter{})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = svc.ListBrands(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestService_BreakerOpensOnRepeatedFailures(t *testing.T) {
	repo := &mockRepository{err: errors.New("connection refused")}
	svc := NewService(repo, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.ListProducts(ctx, domain.ProductFilter{})
		require.ErrorIs(t, err, ErrUnavailable)
	}
	calls := repo.calls

	_, err := svc.ListProducts(ctx, domain.ProductFilter{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, calls, repo.calls, "open breaker must not reach the repository")
}

func TestService_NotFoundDoesNotTripBreaker(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo, nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := svc.GetProduct(ctx, "missing")
		require.ErrorIs(t, err, ErrProductNotFound)
	}

	repo.products = []domain.Product{{ID: 1, Slug: "back", IsActive: true}}
	p, err := svc.GetProduct(ctx, "back")
	require.NoError(t, err)
	assert.Equal(t, "back", p.Slug)
}
