package service

import (
	"context"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/repository"
)

type WishlistStore struct {
	slots *SlotStore
	cart  *CartStore
}

func NewWishlistStore(slots *SlotStore, cart *CartStore) *WishlistStore {
	return &WishlistStore{slots: slots, cart: cart}
}

func wishlistKey(owner string) repository.Key {
	return repository.Key{Owner: owner, Slot: domain.SlotWishlist}
}

func (w *WishlistStore) Items(ctx context.Context, owner string) ([]domain.WishlistItem, error) {
	rec, err := w.slots.load(ctx, wishlistKey(owner))
	if err != nil {
		return nil, err
	}
	return decodeList[domain.WishlistItem](ctx, domain.SlotWishlist, rec.Data), nil
}

// Add saves product to the wishlist. Adding a product twice returns ErrAlreadyInWishlist and
// writes nothing.
func (w *WishlistStore) Add(ctx context.Context, owner string, product domain.Product) ([]domain.WishlistItem, error) {
	var result []domain.WishlistItem
	err := w.slots.mutate(ctx, wishlistKey(owner), notify.EventWishlistUpdated, func(current []byte) ([]byte, bool, error) {
		items := decodeList[domain.WishlistItem](ctx, domain.SlotWishlist, current)
		for _, it := range items {
			if it.ID == product.ID {
				return nil, false, ErrAlreadyInWishlist
			}
		}
		result = append(items, product.WishlistItem())
		data, err := encodeList(result)
		return data, err == nil, err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (w *WishlistStore) Remove(ctx context.Context, owner string, productID int64) ([]domain.WishlistItem, error) {
	var result []domain.WishlistItem
	err := w.slots.mutate(ctx, wishlistKey(owner), notify.EventWishlistUpdated, func(current []byte) ([]byte, bool, error) {
		result = removeWishlistItem(decodeList[domain.WishlistItem](ctx, domain.SlotWishlist, current), productID)
		data, err := encodeList(result)
		return data, err == nil, err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (w *WishlistStore) Clear(ctx context.Context, owner string) error {
	return w.slots.mutate(ctx, wishlistKey(owner), notify.EventWishlistUpdated, func([]byte) ([]byte, bool, error) {
		data, err := encodeList([]domain.WishlistItem{})
		return data, err == nil, err
	})
}

// MoveToCart adds one unit of a wishlist product to the cart and then drops it from the wishlist.
// The cart is written first so a failure in between leaves the product in both lists, never in
// neither.
func (w *WishlistStore) MoveToCart(ctx context.Context, owner string, productID int64) ([]domain.LineItem, error) {
	items, err := w.Items(ctx, owner)
	if err != nil {
		return nil, err
	}

	var found *domain.WishlistItem
	for i := range items {
		if items[i].ID == productID {
			found = &items[i]
			break
		}
	}
	if found == nil {
		return nil, ErrNotInWishlist
	}

	product := domain.Product{
		ID:     found.ID,
		Name:   found.Name,
		Slug:   found.Slug,
		Price:  found.Price,
		Images: nonEmpty(found.Image),
	}
	cart, err := w.cart.Add(ctx, owner, product, 1)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	if _, err := w.Remove(ctx, owner, productID); err != nil {
		return nil, fmt.Errorf("remove from wishlist: %w", err)
	}
	return cart, nil
}

func removeWishlistItem(items []domain.WishlistItem, productID int64) []domain.WishlistItem {
	kept := items[:0]
	for _, it := range items {
		if it.ID != productID {
			kept = append(kept, it)
		}
	}
	return kept
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
