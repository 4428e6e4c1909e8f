package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to CheckoutState
		want     bool
	}{
		{CheckoutStateEditing, CheckoutStateSubmitting, true},
		{CheckoutStateSubmitting, CheckoutStateCompleted, true},
		{CheckoutStateSubmitting, CheckoutStateEditing, true},
		{CheckoutStateEditing, CheckoutStateCompleted, false},
		{CheckoutStateCompleted, CheckoutStateEditing, false},
		{CheckoutStateCompleted, CheckoutStateSubmitting, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransitionTo(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestCheckoutState_IsTerminal(t *testing.T) {
	assert.True(t, CheckoutStateCompleted.IsTerminal())
	assert.False(t, CheckoutStateEditing.IsTerminal())
	assert.False(t, CheckoutStateSubmitting.IsTerminal())
}

func TestProduct_LineItemUsesFirstImage(t *testing.T) {
	p := Product{
		ID:     7,
		Name:   "OLED TV",
		Slug:   "oled-tv",
		Price:  decimal.NewFromInt(30000),
		Images: []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
	}

	item := p.LineItem(2)
	assert.Equal(t, int64(7), item.ID)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "https://cdn.example.com/a.jpg", item.Image)
	assert.Equal(t, "oled-tv", item.Slug)

	assert.Equal(t, "", Product{}.PrimaryImage())
	assert.Equal(t, "OLED TV", p.WishlistItem().Name)
}
