// Package registry maps channels to the tickets and applications they back.
// It replaces deriving identity from channel names.
package registry

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// ErrNotTracked is returned for channels the registry does not know.
var ErrNotTracked = errors.New("registry: channel not tracked")

// Registry is the identity-to-channel map shared by the lifecycle services
// and the inactivity monitor.
type Registry struct {
	mu           sync.RWMutex
	tickets      map[string]*domain.Ticket
	applications map[string]*domain.Application
	reservations Reservations
	ttl          time.Duration
}

// New builds a registry backed by the given reservation set. A zero ttl keeps
// reservations until they are released.
func New(reservations Reservations, ttl time.Duration) *Registry {
	if reservations == nil {
		reservations = NewMemoryReservations()
	}
	return &Registry{
		tickets:      make(map[string]*domain.Ticket),
		applications: make(map[string]*domain.Application),
		reservations: reservations,
		ttl:          ttl,
	}
}

// TicketKey is the reservation key for a requester and category.
func TicketKey(requesterID, category string) string {
	return "ticket:" + requesterID + ":" + strings.ToLower(strings.TrimSpace(category))
}

// ApplicationKey is the reservation key for an applicant.
func ApplicationKey(applicantID string) string {
	return "application:" + applicantID
}

// Reserve claims key atomically. It returns false when the key is taken.
func (r *Registry) Reserve(ctx context.Context, key string) (bool, error) {
	return r.reservations.Reserve(ctx, key, r.ttl)
}

// Held reports whether key is reserved.
func (r *Registry) Held(ctx context.Context, key string) (bool, error) {
	return r.reservations.Held(ctx, key)
}

// Bind records the channel that a reservation ended up creating.
func (r *Registry) Bind(ctx context.Context, key, channelID string) error {
	return r.reservations.Bind(ctx, key, channelID)
}

// Owner returns the channel bound to key. held is false when key is free.
func (r *Registry) Owner(ctx context.Context, key string) (owner string, held bool, err error) {
	return r.reservations.Owner(ctx, key)
}

// ReleaseOwned frees key only while it is bound to owner.
func (r *Registry) ReleaseOwned(ctx context.Context, key, owner string) (bool, error) {
	return r.reservations.ReleaseOwned(ctx, key, owner)
}

// Release frees key.
func (r *Registry) Release(ctx context.Context, key string) error {
	return r.reservations.Release(ctx, key)
}

// PutTicket starts tracking a ticket under its channel id.
func (r *Registry) PutTicket(t domain.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[t.Channel.ID] = &t
}

// AdoptTicket tracks t unless its channel is already tracked, and returns the
// ticket that ends up tracked.
func (r *Registry) AdoptTicket(t domain.Ticket) domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.tickets[t.Channel.ID]; ok {
		return *existing
	}
	r.tickets[t.Channel.ID] = &t
	return t
}

// Ticket returns a copy of the ticket backed by channelID.
func (r *Registry) Ticket(channelID string) (domain.Ticket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[channelID]
	if !ok {
		return domain.Ticket{}, false
	}
	return *t, true
}

// UpdateTicket applies fn to the tracked ticket under the registry lock. If fn
// returns an error the ticket is left unchanged.
func (r *Registry) UpdateTicket(channelID string, fn func(*domain.Ticket) error) (domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[channelID]
	if !ok {
		return domain.Ticket{}, ErrNotTracked
	}
	updated := *t
	if err := fn(&updated); err != nil {
		return *t, err
	}
	*t = updated
	return updated, nil
}

// RemoveTicket stops tracking a ticket.
func (r *Registry) RemoveTicket(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tickets, channelID)
}

// ActiveTickets returns OPEN and CLAIMED tickets ordered by sequence.
func (r *Registry) ActiveTickets() []domain.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		if t.Status.Active() {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// HasActiveTicket reports whether requester has an OPEN or CLAIMED ticket in category.
func (r *Registry) HasActiveTicket(requesterID, category string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tickets {
		if t.Status.Active() && t.Requester.ID == requesterID && strings.ToLower(t.Category) == category {
			return true
		}
	}
	return false
}

// PutApplication starts tracking an application under its channel id.
func (r *Registry) PutApplication(a domain.Application) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applications[a.Channel.ID] = &a
}

// Application returns a copy of the application backed by channelID.
func (r *Registry) Application(channelID string) (domain.Application, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.applications[channelID]
	if !ok {
		return domain.Application{}, false
	}
	return *a, true
}

// RemoveApplication stops tracking an application.
func (r *Registry) RemoveApplication(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.applications, channelID)
}

// PendingApplications returns the applications still awaiting a decision.
func (r *Registry) PendingApplications() []domain.Application {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Application, 0, len(r.applications))
	for _, a := range r.applications {
		if a.Status == domain.ApplicationStatusPending {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out
}
