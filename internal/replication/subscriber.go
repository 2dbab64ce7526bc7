package replication

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/dreamware/userdir/internal/directory"
)

// Subscriber is a pair of callbacks notified synchronously on every
// mutation the coordinator applies. Both callbacks receive the record as
// committed, id included.
type Subscriber struct {
	OnAdd    func(directory.User) error
	OnRemove func(directory.User) error
}

// registration pairs a subscriber with its identity
type registration struct {
	id  string
	sub Subscriber
}

// SubscriberRegistry is an ordered mapping from subscriber identity to
// callback pair. Iteration order is registration order, so fan-out is
// deterministic and reproducible in tests.
type SubscriberRegistry struct {
	mu   sync.RWMutex
	subs []registration
}

// NewSubscriberRegistry creates an empty registry
func NewSubscriberRegistry() *SubscriberRegistry {
	return &SubscriberRegistry{}
}

// Add registers a subscriber under the given identity.
// An empty identity or missing callbacks return ErrInvalidArgument.
// Re-registering an existing identity replaces the callbacks in place,
// keeping the original position in the fan-out order.
func (r *SubscriberRegistry) Add(id string, sub Subscriber) error {
	if id == "" {
		return fmt.Errorf("%w: subscriber id cannot be empty", directory.ErrInvalidArgument)
	}
	if sub.OnAdd == nil || sub.OnRemove == nil {
		return fmt.Errorf("%w: subscriber %q must provide both callbacks", directory.ErrInvalidArgument, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.IndexFunc(r.subs, func(reg registration) bool { return reg.id == id })
	if idx >= 0 {
		r.subs[idx].sub = sub
	} else {
		r.subs = append(r.subs, registration{id: id, sub: sub})
	}
	return nil
}

// Remove deregisters the subscriber with the given identity.
// Removing an unknown identity is a no-op.
func (r *SubscriberRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.IndexFunc(r.subs, func(reg registration) bool { return reg.id == id })
	if idx >= 0 {
		r.subs = append(r.subs[:idx], r.subs[idx+1:]...)
	}
}

// Len returns the number of registered subscribers
func (r *SubscriberRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// snapshot returns a copy of the registrations in fan-out order
func (r *SubscriberRegistry) snapshot() []registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]registration(nil), r.subs...)
}
