// Package notify broadcasts slot change notifications to every view of the same owner.
package notify

import "context"

const (
	EventCartUpdated     = "cartUpdated"
	EventWishlistUpdated = "wishlistUpdated"
)

// Event carries no payload: listeners re-read the slot named by Name.
type Event struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// Broker fans events out to subscribers of the event's owner.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe delivers events for owner until ctx is done, then closes the channel.
	Subscribe(ctx context.Context, owner string) (<-chan Event, error)
}
