package worker

import (
	"github.com/spec-kit/ticket-triage/internal/service"
)

// StartNotificationWorker subscribes the notification service to ticket events.
// Delivery runs inline with the publishing request; there is no queue.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
