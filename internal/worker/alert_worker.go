package worker

import (
	"github.com/spec-kit/ticket-bot/internal/service"
)

// StartAlertWorker registers the alert handlers on the dispatcher.
func StartAlertWorker(alerts *service.AlertService) {
	if alerts == nil {
		return
	}
	alerts.RegisterHandlers()
}
