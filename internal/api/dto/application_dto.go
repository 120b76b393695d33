package dto

import (
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// CreateApplicationRequest payload.
type CreateApplicationRequest struct {
	Applicant    UserPayload `json:"applicant"`
	Name         string      `json:"name"`
	Age          string      `json:"age"`
	Experience   string      `json:"experience"`
	Motivation   string      `json:"motivation"`
	Availability string      `json:"availability"`
}

// Intake extracts the form fields.
func (r CreateApplicationRequest) Intake() domain.ApplicationIntake {
	return domain.ApplicationIntake{
		Name:         r.Name,
		Age:          r.Age,
		Experience:   r.Experience,
		Motivation:   r.Motivation,
		Availability: r.Availability,
	}
}

// DecideApplicationRequest payload for accept and reject.
type DecideApplicationRequest struct {
	Decider UserPayload `json:"decider"`
	Reason  string      `json:"reason"`
}

// ApplicationResponse describes an application.
type ApplicationResponse struct {
	ChannelID   string                   `json:"channel_id"`
	ChannelName string                   `json:"channel_name"`
	Applicant   UserResponse             `json:"applicant"`
	Status      domain.ApplicationStatus `json:"status"`
	Reason      string                   `json:"reason,omitempty"`
	Decider     *UserResponse            `json:"decider,omitempty"`
	SubmittedAt time.Time                `json:"submitted_at,omitempty"`
	DecidedAt   *time.Time               `json:"decided_at,omitempty"`
}

// NewApplicationResponse maps a domain application.
func NewApplicationResponse(a *domain.Application) ApplicationResponse {
	return ApplicationResponse{
		ChannelID:   a.Channel.ID,
		ChannelName: a.Channel.Name,
		Applicant:   *NewUserResponse(&a.Applicant),
		Status:      a.Status,
		Reason:      a.Reason,
		Decider:     NewUserResponse(a.Decider),
		SubmittedAt: a.SubmittedAt,
		DecidedAt:   a.DecidedAt,
	}
}
