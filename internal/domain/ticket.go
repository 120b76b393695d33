package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "OPEN"
	TicketStatusClaimed TicketStatus = "CLAIMED"
	TicketStatusClosing TicketStatus = "CLOSING"
	TicketStatusClosed  TicketStatus = "CLOSED"
)

// Active reports whether the ticket still counts against the one-per-category rule.
func (s TicketStatus) Active() bool {
	return s == TicketStatusOpen || s == TicketStatusClaimed
}

// Ticket is a support request bound to a private channel.
type Ticket struct {
	Sequence    int
	Requester   User
	Category    string
	Priority    PriorityProfile
	Description string
	Claimant    *User
	Status      TicketStatus
	Channel     ChannelRef
	CreatedAt   time.Time
	ClaimedAt   *time.Time
	ClosedAt    *time.Time

	// WarnedAt is set when an inactivity warning was posted for the current
	// quiet period; WarningMessageID identifies that warning.
	WarnedAt         *time.Time
	WarningMessageID string
}

// ChannelRef is the handle of a channel on the chat platform.
type ChannelRef struct {
	ID       string
	Name     string
	ParentID string
	Topic    string
}
