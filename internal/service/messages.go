package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
)

// Button ids the dispatch glue routes back to the core.
const (
	ButtonCloseTicket       = "close_ticket"
	ButtonClaimTicket       = "claim_ticket"
	ButtonTranscriptTicket  = "transcript_ticket"
	ButtonAcceptApplication = "accept_application"
	ButtonRejectApplication = "reject_application"
)

const (
	colorIntake   = 0x00ff00
	colorClaim    = 0x3498db
	colorClosing  = 0xff0000
	colorWarning  = 0xff9900
	colorAccepted = 0x00ff00
	colorRejected = 0xff0000
)

func ticketIntakeMessage(t domain.Ticket, supportMention string, at time.Time) platform.OutgoingMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "**User:** <@%s>\n", t.Requester.ID)
	fmt.Fprintf(&b, "**Category:** %s\n", t.Category)
	fmt.Fprintf(&b, "**Priority:** %s\n", t.Priority.Level)
	fmt.Fprintf(&b, "**Description:** %s\n\n", t.Description)
	if supportMention != "" {
		fmt.Fprintf(&b, "A %s member will help you as soon as possible.", supportMention)
	} else {
		b.WriteString("A support member will help you as soon as possible.")
	}
	return platform.OutgoingMessage{
		Embeds: []platform.Embed{{
			Title:       "New Ticket",
			Description: b.String(),
			Color:       colorIntake,
			Timestamp:   &at,
		}},
		Buttons: []platform.Button{
			{CustomID: ButtonCloseTicket, Label: "Close Ticket", Style: platform.ButtonDanger, Emoji: "🔒"},
			{CustomID: ButtonClaimTicket, Label: "Claim Ticket", Style: platform.ButtonPrimary, Emoji: "✋"},
			{CustomID: ButtonTranscriptTicket, Label: "Transcript", Style: platform.ButtonSecondary, Emoji: "📝"},
		},
	}
}

func priorityNotice(p domain.PriorityProfile) platform.OutgoingMessage {
	return platform.OutgoingMessage{Embeds: []platform.Embed{{
		Title:       fmt.Sprintf("Priority: %s", p.Level),
		Description: fmt.Sprintf("Response expected within %d hours", p.MaxResponseTime),
		Color:       p.Color,
	}}}
}

func claimNotice(claimant domain.User) platform.OutgoingMessage {
	return platform.OutgoingMessage{Embeds: []platform.Embed{{
		Description: fmt.Sprintf("Ticket claimed by <@%s>", claimant.ID),
		Color:       colorClaim,
	}}}
}

func claimTopic(claimant domain.User) string {
	return claimTopicPrefix + claimant.DisplayTag()
}

func closingNotice(closer domain.User) platform.OutgoingMessage {
	by := "the inactivity monitor"
	if closer.ID != SystemUserID {
		by = fmt.Sprintf("<@%s>", closer.ID)
	}
	return platform.OutgoingMessage{Embeds: []platform.Embed{{
		Description: fmt.Sprintf("Ticket is being closed by %s...", by),
		Color:       colorClosing,
	}}}
}

// InactivityWarning is the notice posted on quiet tickets.
func InactivityWarning(threshold, grace time.Duration, autoClose bool) platform.OutgoingMessage {
	desc := fmt.Sprintf("This ticket has been inactive for %s.", humanHours(threshold))
	if autoClose {
		desc += fmt.Sprintf(" It will be automatically closed in %s if there is no activity.", humanHours(grace))
	} else {
		desc += " Please reply if you still need help."
	}
	return platform.OutgoingMessage{Embeds: []platform.Embed{{
		Title:       "⚠️ Inactivity Warning",
		Description: desc,
		Color:       colorWarning,
	}}}
}

func applicationMessage(applicant domain.User, form domain.ApplicationIntake, at time.Time) platform.OutgoingMessage {
	return platform.OutgoingMessage{
		Embeds: []platform.Embed{{
			Title:       "New Staff Application",
			Description: "Application from " + applicant.DisplayTag(),
			Color:       colorAccepted,
			Fields: []platform.EmbedField{
				{Name: "Name", Value: form.Name},
				{Name: "Age", Value: form.Age},
				{Name: "Experience", Value: form.Experience},
				{Name: "Motivation", Value: form.Motivation},
				{Name: "Availability", Value: form.Availability},
			},
			Timestamp: &at,
		}},
		Buttons: []platform.Button{
			{CustomID: ButtonAcceptApplication, Label: "Accept", Style: platform.ButtonSuccess},
			{CustomID: ButtonRejectApplication, Label: "Reject", Style: platform.ButtonDanger},
		},
	}
}

func decisionMessage(accepted bool, decider domain.User, reason string, at time.Time) platform.OutgoingMessage {
	title, color := "❌ Application Rejected", colorRejected
	if accepted {
		title, color = "✅ Application Accepted", colorAccepted
	}
	return platform.OutgoingMessage{Embeds: []platform.Embed{{
		Title:       title,
		Description: fmt.Sprintf("By: %s\nReason: %s", decider.DisplayTag(), reason),
		Color:       color,
		Timestamp:   &at,
	}}}
}

func humanHours(d time.Duration) string {
	h := int(d.Hours())
	if h == 1 {
		return "1 hour"
	}
	if h >= 1 {
		return fmt.Sprintf("%d hours", h)
	}
	return d.String()
}
