package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-bot/internal/events"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// Scheduler runs fn once after delay. Implementations must not block the caller.
type Scheduler interface {
	After(delay time.Duration, name string, fn func(ctx context.Context))
}

// SystemUserID identifies the bot when it acts on its own, e.g. auto-close.
const SystemUserID = "system"

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, now func() time.Time, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now()
	}
	_ = dispatcher.Publish(ctx, event)
}

// alertOperators publishes an operator alert for misconfiguration errors and
// returns err unchanged.
func alertOperators(ctx context.Context, dispatcher events.Dispatcher, now func() time.Time, operation, channelID string, err error) error {
	if !apperrors.IsOperatorError(err) {
		return err
	}
	de := apperrors.ToDomainError(err)
	publishEvent(ctx, dispatcher, now, events.Event{
		Type:      events.EventOperatorAlert,
		ChannelID: channelID,
		Payload: events.OperatorAlertPayload{
			Operation: operation,
			Code:      de.Code,
			Message:   de.Error(),
		},
	})
	return err
}
