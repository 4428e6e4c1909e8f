package checkout

import (
	"net/mail"
	"strings"

	"github.com/fjod/storefront/internal/domain"
)

const (
	PaymentCashOnDelivery = "cash_on_delivery"
	PaymentBankTransfer   = "bank_transfer"
	PaymentCard           = "card"
)

// Form is what the shopper fills in on the checkout page.
type Form struct {
	Customer      domain.Customer `json:"customer"`
	PaymentMethod string          `json:"payment_method"`
}

// Normalize trims every field and applies the default payment method.
func (f *Form) Normalize() {
	c := &f.Customer
	for _, s := range []*string{&c.Name, &c.Email, &c.Phone, &c.Address, &c.City, &c.PostalCode, &c.Notes, &f.PaymentMethod} {
		*s = strings.TrimSpace(*s)
	}
	if f.PaymentMethod == "" {
		f.PaymentMethod = PaymentCashOnDelivery
	}
}

// Validate returns a *domain.ValidationError naming every invalid field, or nil.
func (f Form) Validate() error {
	fields := map[string]string{}
	required := []struct{ name, value string }{
		{"name", f.Customer.Name},
		{"email", f.Customer.Email},
		{"phone", f.Customer.Phone},
		{"address", f.Customer.Address},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			fields[r.name] = "is required"
		}
	}

	if _, missing := fields["email"]; !missing {
		if addr, err := mail.ParseAddress(f.Customer.Email); err != nil || addr.Address != f.Customer.Email {
			fields["email"] = "is not a valid email address"
		}
	}

	switch f.PaymentMethod {
	case "", PaymentCashOnDelivery, PaymentBankTransfer, PaymentCard:
	default:
		fields["payment_method"] = "is not supported"
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
