package dto

import (
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/stats"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Requester   UserPayload `json:"requester"`
	Category    string      `json:"category"`
	Priority    string      `json:"priority"`
	Description string      `json:"description"`
}

// Intake extracts the form fields.
func (r CreateTicketRequest) Intake() domain.TicketIntake {
	return domain.TicketIntake{Category: r.Category, Priority: r.Priority, Description: r.Description}
}

// TicketActionRequest carries the actor of claim, close and transcript intents.
type TicketActionRequest struct {
	Actor UserPayload `json:"actor"`
}

// TicketResponse describes a tracked ticket.
type TicketResponse struct {
	ChannelID   string                `json:"channel_id"`
	ChannelName string                `json:"channel_name"`
	Sequence    int                   `json:"sequence"`
	Requester   UserResponse          `json:"requester"`
	Category    string                `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Color       int                   `json:"color"`
	MaxHours    int                   `json:"max_response_hours"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	Claimant    *UserResponse         `json:"claimant,omitempty"`
	Topic       string                `json:"topic,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	ClaimedAt   *time.Time            `json:"claimed_at,omitempty"`
	ClosedAt    *time.Time            `json:"closed_at,omitempty"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ChannelID:   t.Channel.ID,
		ChannelName: t.Channel.Name,
		Sequence:    t.Sequence,
		Requester:   *NewUserResponse(&t.Requester),
		Category:    t.Category,
		Priority:    t.Priority.Level,
		Color:       t.Priority.Color,
		MaxHours:    t.Priority.MaxResponseTime,
		Description: t.Description,
		Status:      t.Status,
		Claimant:    NewUserResponse(t.Claimant),
		Topic:       t.Channel.Topic,
		CreatedAt:   t.CreatedAt,
		ClaimedAt:   t.ClaimedAt,
		ClosedAt:    t.ClosedAt,
	}
}

// TranscriptResponse returns the rendered transcript of a ticket channel.
type TranscriptResponse struct {
	FileName string `json:"file_name"`
	Lines    int    `json:"lines"`
	Content  string `json:"content"`
}

// StatsResponse is the statistics snapshot with the average in seconds.
type StatsResponse struct {
	TotalTickets               int64   `json:"totalTickets"`
	OpenTickets                int64   `json:"openTickets"`
	ClosedTickets              int64   `json:"closedTickets"`
	ClaimedTickets             int64   `json:"claimedTickets"`
	AverageResponseTimeSeconds float64 `json:"averageResponseTime"`
}

// NewStatsResponse maps a snapshot.
func NewStatsResponse(s stats.Snapshot) StatsResponse {
	return StatsResponse{
		TotalTickets:               s.TotalTickets,
		OpenTickets:                s.OpenTickets,
		ClosedTickets:              s.ClosedTickets,
		ClaimedTickets:             s.ClaimedTickets,
		AverageResponseTimeSeconds: s.AverageResponseTime.Seconds(),
	}
}
