// Package subscription keeps the in-memory set of tracked flights, one per user.
package subscription

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"flight_bot/internal/model"
)

// Validation errors returned by Upsert.
var (
	ErrMissingUser       = errors.New("subscription requires a user address")
	ErrMissingFlightCode = errors.New("subscription requires a flight code")
)

// Change describes what Observe updated on a subscription.
type Change struct {
	UserAddress string
	FlightCode  string

	GateChanged bool
	OldGate     string
	NewGate     string

	StatusChanged bool
	OldStatus     string
	NewStatus     string
}

// Any reports whether at least one field changed.
func (c Change) Any() bool {
	return c.GateChanged || c.StatusChanged
}

// Registry is a concurrency-safe map of user address to Subscription.
// The zero value is not usable; use NewRegistry.
type Registry struct {
	mu   sync.Mutex
	subs map[string]model.Subscription
	now  func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		subs: make(map[string]model.Subscription),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Upsert stores sub, replacing any subscription the user already has.
func (r *Registry) Upsert(sub model.Subscription) error {
	sub.UserAddress = strings.TrimSpace(sub.UserAddress)
	sub.FlightCode = strings.ToUpper(strings.TrimSpace(sub.FlightCode))
	if sub.UserAddress == "" {
		return ErrMissingUser
	}
	if sub.FlightCode == "" {
		return ErrMissingFlightCode
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	r.subs[sub.UserAddress] = sub
	return nil
}

// Remove deletes the user's subscription. It reports whether one existed.
func (r *Registry) Remove(userAddress string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.subs[userAddress]
	delete(r.subs, userAddress)
	return ok
}

// Get returns the user's subscription, if any.
func (r *Registry) Get(userAddress string) (model.Subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[userAddress]
	return sub, ok
}

// Len returns the number of subscriptions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Snapshot returns a copy of all subscriptions ordered by user address.
func (r *Registry) Snapshot() []model.Subscription {
	r.mu.Lock()
	out := make([]model.Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		out = append(out, sub)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UserAddress < out[j].UserAddress })
	return out
}

// Observe records freshly fetched gate and status values for a user's
// subscription and returns what changed. The update is applied only if the
// user is still tracking flightCode; otherwise ok is false and nothing is
// modified.
//
// A gate change is reported only for a non-empty gate that differs from the
// last known one. An empty status is not an observation.
func (r *Registry) Observe(userAddress, flightCode, gate, status string) (Change, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[userAddress]
	if !ok || sub.FlightCode != flightCode {
		return Change{}, false
	}

	c := Change{UserAddress: userAddress, FlightCode: flightCode}
	if gate != "" && gate != sub.LastKnownGate {
		c.GateChanged = true
		c.OldGate, c.NewGate = sub.LastKnownGate, gate
		sub.LastKnownGate = gate
	}
	if status != "" && status != sub.LastKnownStatus {
		c.StatusChanged = true
		c.OldStatus, c.NewStatus = sub.LastKnownStatus, status
		sub.LastKnownStatus = status
	}
	if c.Any() {
		sub.UpdatedAt = r.now()
		r.subs[userAddress] = sub
	}
	return c, true
}
