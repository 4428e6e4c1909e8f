package domain

type CheckoutState string

const (
	CheckoutStateEditing    CheckoutState = "EDITING"
	CheckoutStateSubmitting CheckoutState = "SUBMITTING"
	CheckoutStateCompleted  CheckoutState = "COMPLETED"
)

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateEditing:    {CheckoutStateSubmitting},
	CheckoutStateSubmitting: {CheckoutStateCompleted, CheckoutStateEditing},
}

// CanTransitionTo reports whether the checkout flow may move from one state to another.
func CanTransitionTo(from, to CheckoutState) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateCompleted
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}
