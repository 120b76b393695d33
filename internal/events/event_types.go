package events

import (
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketClaimed        EventType = "ticket_claimed"
	EventTicketClosed         EventType = "ticket_closed"
	EventTicketDeleted        EventType = "ticket_deleted"
	EventTicketInactive       EventType = "ticket_inactive"
	EventTranscriptArchived   EventType = "transcript_archived"
	EventApplicationSubmitted EventType = "application_submitted"
	EventApplicationDecided   EventType = "application_decided"
	EventOperatorAlert        EventType = "operator_alert"
)

// Actor identifies who triggered an event. A zero Actor means the bot itself.
type Actor struct {
	UserID string `json:"user_id,omitempty"`
	Tag    string `json:"tag,omitempty"`
}

// ActorFrom builds an Actor from a platform user.
func ActorFrom(u domain.User) Actor {
	return Actor{UserID: u.ID, Tag: u.DisplayTag()}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ChannelID string      `json:"channel_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Sequence    int                   `json:"sequence"`
	Category    string                `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	RequesterID string                `json:"requester_id"`
}

// TicketClaimedPayload payload.
type TicketClaimedPayload struct {
	PreviousClaimantID string        `json:"previous_claimant_id,omitempty"`
	ResponseTime       time.Duration `json:"response_time"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	Automatic bool                `json:"automatic"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Error string `json:"error,omitempty"`
}

// TicketInactivePayload payload.
type TicketInactivePayload struct {
	QuietFor time.Duration `json:"quiet_for"`
}

// TranscriptArchivedPayload payload.
type TranscriptArchivedPayload struct {
	FileName string `json:"file_name"`
	Lines    int    `json:"lines"`
}

// ApplicationSubmittedPayload payload.
type ApplicationSubmittedPayload struct {
	ApplicantID string `json:"applicant_id"`
}

// ApplicationDecidedPayload payload.
type ApplicationDecidedPayload struct {
	ApplicantID string                   `json:"applicant_id"`
	Status      domain.ApplicationStatus `json:"status"`
	Reason      string                   `json:"reason"`
}

// OperatorAlertPayload payload.
type OperatorAlertPayload struct {
	Operation string `json:"operation"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}
