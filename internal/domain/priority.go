package domain

import (
	"sort"
	"strings"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// PriorityProfile carries display color and the maximum response time in hours.
type PriorityProfile struct {
	Level           TicketPriority
	Color           int
	MaxResponseTime int
}

// PriorityCatalog maps priority names to profiles. It is read-only after
// construction.
type PriorityCatalog struct {
	profiles map[TicketPriority]PriorityProfile
}

// DefaultPriorityCatalog returns the built-in SLA table.
func DefaultPriorityCatalog() *PriorityCatalog {
	return NewPriorityCatalog([]PriorityProfile{
		{Level: TicketPriorityLow, Color: 0x00ff00, MaxResponseTime: 24},
		{Level: TicketPriorityMedium, Color: 0xffff00, MaxResponseTime: 12},
		{Level: TicketPriorityHigh, Color: 0xff9900, MaxResponseTime: 6},
		{Level: TicketPriorityUrgent, Color: 0xff0000, MaxResponseTime: 1},
	})
}

// NewPriorityCatalog builds a catalog from profiles; later entries win.
func NewPriorityCatalog(profiles []PriorityProfile) *PriorityCatalog {
	c := &PriorityCatalog{profiles: make(map[TicketPriority]PriorityProfile, len(profiles))}
	for _, p := range profiles {
		p.Level = TicketPriority(strings.ToUpper(strings.TrimSpace(string(p.Level))))
		c.profiles[p.Level] = p
	}
	return c
}

// Get looks a profile up by name, case-insensitively.
func (c *PriorityCatalog) Get(name string) (PriorityProfile, bool) {
	p, ok := c.profiles[TicketPriority(strings.ToUpper(strings.TrimSpace(name)))]
	return p, ok
}

// Levels returns the known priority names sorted by urgency, most urgent last.
func (c *PriorityCatalog) Levels() []TicketPriority {
	levels := make([]TicketPriority, 0, len(c.profiles))
	for level := range c.profiles {
		levels = append(levels, level)
	}
	sort.Slice(levels, func(i, j int) bool {
		return c.profiles[levels[i]].MaxResponseTime > c.profiles[levels[j]].MaxResponseTime
	})
	return levels
}

// With returns a copy of the catalog with overrides applied.
func (c *PriorityCatalog) With(overrides []PriorityProfile) *PriorityCatalog {
	merged := make([]PriorityProfile, 0, len(c.profiles)+len(overrides))
	for _, p := range c.profiles {
		merged = append(merged, p)
	}
	return NewPriorityCatalog(append(merged, overrides...))
}
