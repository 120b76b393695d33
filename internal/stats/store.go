// Package stats aggregates ticket counters for the lifetime of the process.
package stats

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the ticket counters.
type Snapshot struct {
	TotalTickets        int64         `json:"total_tickets"`
	OpenTickets         int64         `json:"open_tickets"`
	ClosedTickets       int64         `json:"closed_tickets"`
	ClaimedTickets      int64         `json:"claimed_tickets"`
	AverageResponseTime time.Duration `json:"average_response_time"`
}

// Store holds the counters. Only the ticket lifecycle mutates it.
type Store struct {
	mu            sync.Mutex
	total         int64
	open          int64
	closed        int64
	claimed       int64
	responseTotal time.Duration
}

// NewStore returns zeroed counters.
func NewStore() *Store {
	return &Store{}
}

// TicketOpened records a newly created ticket.
func (s *Store) TicketOpened() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.open++
}

// TicketClaimed records the time between creation and the first claim.
func (s *Store) TicketClaimed(responseTime time.Duration) {
	if responseTime < 0 {
		responseTime = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimed++
	s.responseTotal += responseTime
}

// TicketClosed moves one ticket from open to closed.
func (s *Store) TicketClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open > 0 {
		s.open--
	}
	s.closed++
}

// Snapshot copies the counters.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		TotalTickets:   s.total,
		OpenTickets:    s.open,
		ClosedTickets:  s.closed,
		ClaimedTickets: s.claimed,
	}
	if s.claimed > 0 {
		snap.AverageResponseTime = s.responseTotal / time.Duration(s.claimed)
	}
	return snap
}
