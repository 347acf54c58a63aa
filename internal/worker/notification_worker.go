package worker

import (
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/service"
)

// StartNotificationWorker registers notification handlers and, when a
// forwarder is given, bridges every event to the broker.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, forwarder *EventForwarder) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if dispatcher != nil && forwarder != nil {
		events.SubscribeAll(dispatcher, forwarder.Handle)
	}
}
