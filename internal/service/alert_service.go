package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/platform"
)

// AlertService logs lifecycle events and forwards operator alerts to the
// ops channel.
type AlertService struct {
	dispatcher events.Dispatcher
	guild      platform.Guild
	logger     *zap.Logger
	cfg        config.GuildConfig
}

// NewAlertService creates the service.
func NewAlertService(dispatcher events.Dispatcher, guild platform.Guild, logger *zap.Logger, cfg config.GuildConfig) *AlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertService{
		dispatcher: dispatcher,
		guild:      guild,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (a *AlertService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketClaimed,
		events.EventTicketClosed,
		events.EventTicketDeleted,
		events.EventTicketInactive,
		events.EventTranscriptArchived,
		events.EventApplicationSubmitted,
		events.EventApplicationDecided,
	} {
		a.dispatcher.Subscribe(t, a.handleLifecycle)
	}
	a.dispatcher.Subscribe(events.EventOperatorAlert, a.handleOperatorAlert)
}

func (a *AlertService) handleLifecycle(_ context.Context, event events.Event) error {
	a.logger.Debug(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("channel_id", event.ChannelID),
		zap.String("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload))
	return nil
}

func (a *AlertService) handleOperatorAlert(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.OperatorAlertPayload)
	a.logger.Error("operator alert",
		zap.String("event_id", event.ID),
		zap.String("operation", payload.Operation),
		zap.String("code", payload.Code),
		zap.String("message", payload.Message))
	if strings.TrimSpace(a.cfg.OpsAlertChannelID) == "" || a.guild == nil {
		return nil
	}
	_, err := a.guild.Send(ctx, a.cfg.OpsAlertChannelID, platform.OutgoingMessage{
		Embeds: []platform.Embed{{
			Title:       "Bot misconfiguration",
			Description: fmt.Sprintf("`%s` failed with %s: %s", payload.Operation, payload.Code, payload.Message),
			Color:       colorClosing,
		}},
	})
	if err != nil {
		return fmt.Errorf("post operator alert: %w", err)
	}
	return nil
}
