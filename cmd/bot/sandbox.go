package main

import (
	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/platform/memory"
)

// newSandboxGuild builds an in-memory guild holding every channel and role
// the configuration refers to. Unset ids get sandbox defaults. Membership is
// open, since no platform exists to say who belongs.
func newSandboxGuild(cfg *config.GuildConfig) *memory.Guild {
	setDefault(&cfg.TicketCategoryID, "sandbox-tickets")
	setDefault(&cfg.ApplicationCategoryID, "sandbox-applications")
	setDefault(&cfg.TranscriptChannelID, "sandbox-transcripts")
	setDefault(&cfg.SupportRoleID, "sandbox-support")
	setDefault(&cfg.StaffRoleID, "sandbox-staff")

	g := memory.NewGuild(cfg.ID, memory.WithOpenMembership())
	g.AddChannel(cfg.TicketCategoryID, "tickets", "")
	g.AddChannel(cfg.ApplicationCategoryID, "applications", "")
	g.AddChannel(cfg.TranscriptChannelID, "transcripts", "")
	if cfg.OpsAlertChannelID != "" {
		g.AddChannel(cfg.OpsAlertChannelID, "ops-alerts", "")
	}
	g.AddRole(cfg.SupportRoleID, "Support")
	g.AddRole(cfg.StaffRoleID, "Staff")
	for tier, roleID := range cfg.SupportTiers {
		if roleID != "" {
			g.AddRole(roleID, tier)
		}
	}
	return g
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
