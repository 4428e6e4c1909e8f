package service

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/repository"
)

type CartStore struct {
	slots *SlotStore
}

func NewCartStore(slots *SlotStore) *CartStore {
	return &CartStore{slots: slots}
}

func cartKey(owner string) repository.Key {
	return repository.Key{Owner: owner, Slot: domain.SlotCart}
}

// Items returns the cart of owner in insertion order.
func (c *CartStore) Items(ctx context.Context, owner string) ([]domain.LineItem, error) {
	rec, err := c.slots.load(ctx, cartKey(owner))
	if err != nil {
		return nil, err
	}
	return decodeList[domain.LineItem](ctx, domain.SlotCart, rec.Data), nil
}

// Snapshot reads the cart straight from the repository. Checkout prices from it so an order is
// never built from a cached copy.
func (c *CartStore) Snapshot(ctx context.Context, owner string) ([]domain.LineItem, error) {
	rec, err := c.slots.loadFresh(ctx, cartKey(owner))
	if err != nil {
		return nil, err
	}
	return decodeList[domain.LineItem](ctx, domain.SlotCart, rec.Data), nil
}

// Add puts quantity units of product into the cart. A product already in the cart has its
// quantity increased instead of getting a second line.
// The summed quantity may not exceed MaxLineQuantity.
func (c *CartStore) Add(ctx context.Context, owner string, product domain.Product, quantity int) ([]domain.LineItem, error) {
	if quantity < 1 || quantity > MaxLineQuantity {
		return nil, ErrInvalidQuantity
	}
	overLimit := false
	items, err := c.update(ctx, owner, func(items []domain.LineItem) ([]domain.LineItem, bool) {
		overLimit = false
		for i := range items {
			if items[i].ID == product.ID {
				if items[i].Quantity+quantity > MaxLineQuantity {
					overLimit = true
					return items, false
				}
				items[i].Quantity += quantity
				return items, true
			}
		}
		return append(items, product.LineItem(quantity)), true
	})
	if err != nil {
		return nil, err
	}
	if overLimit {
		return nil, ErrInvalidQuantity
	}
	return items, nil
}

// UpdateQuantity sets the quantity of one line. Quantities below 1 and unknown products leave the
// cart untouched; removing a line is Remove's job. Quantities above MaxLineQuantity are rejected.
func (c *CartStore) UpdateQuantity(ctx context.Context, owner string, productID int64, quantity int) ([]domain.LineItem, error) {
	if quantity > MaxLineQuantity {
		return nil, ErrInvalidQuantity
	}
	if quantity < 1 {
		return c.Items(ctx, owner)
	}
	return c.update(ctx, owner, func(items []domain.LineItem) ([]domain.LineItem, bool) {
		for i := range items {
			if items[i].ID == productID {
				if items[i].Quantity == quantity {
					return items, false
				}
				items[i].Quantity = quantity
				return items, true
			}
		}
		return items, false
	})
}

func (c *CartStore) Remove(ctx context.Context, owner string, productID int64) ([]domain.LineItem, error) {
	return c.update(ctx, owner, func(items []domain.LineItem) ([]domain.LineItem, bool) {
		kept := items[:0]
		for _, it := range items {
			if it.ID != productID {
				kept = append(kept, it)
			}
		}
		return kept, true
	})
}

// Clear empties the cart. It always writes and notifies once, even for an empty cart.
func (c *CartStore) Clear(ctx context.Context, owner string) error {
	_, err := c.update(ctx, owner, func([]domain.LineItem) ([]domain.LineItem, bool) {
		return []domain.LineItem{}, true
	})
	return err
}

// ClearOrdered empties the cart only while it still holds exactly the ordered lines, so an
// asynchronous cleanup never drops items added after the order. It reports whether it cleared.
func (c *CartStore) ClearOrdered(ctx context.Context, owner string, ordered []domain.LineItem) (bool, error) {
	cleared := false
	_, err := c.update(ctx, owner, func(items []domain.LineItem) ([]domain.LineItem, bool) {
		if len(items) == 0 || !sameLines(items, ordered) {
			return items, false
		}
		cleared = true
		return []domain.LineItem{}, true
	})
	return cleared, err
}

func sameLines(a, b []domain.LineItem) bool {
	if len(a) != len(b) {
		return false
	}
	quantities := make(map[int64]int, len(b))
	for _, it := range b {
		quantities[it.ID] += it.Quantity
	}
	for _, it := range a {
		if quantities[it.ID] != it.Quantity {
			return false
		}
	}
	return true
}

func (c *CartStore) update(ctx context.Context, owner string, fn func([]domain.LineItem) ([]domain.LineItem, bool)) ([]domain.LineItem, error) {
	var result []domain.LineItem
	err := c.slots.mutate(ctx, cartKey(owner), notify.EventCartUpdated, func(current []byte) ([]byte, bool, error) {
		items, changed := fn(decodeList[domain.LineItem](ctx, domain.SlotCart, current))
		result = items
		if !changed {
			return nil, false, nil
		}
		data, err := encodeList(items)
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
