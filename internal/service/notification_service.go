package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/config"
	"github.com/deskline/helpdesk/internal/events"
)

// audience is a bit set of notification channels.
type audience uint8

const (
	audienceStaff audience = 1 << iota
	audienceCustomer
)

// eventAudiences decides who hears about each event. Comment events are
// narrowed further by visibility in audienceFor.
var eventAudiences = map[events.EventType]audience{
	events.EventTicketCreated:       audienceStaff,
	events.EventTicketStatusChanged: audienceStaff | audienceCustomer,
	events.EventTicketAssigned:      audienceStaff,
	events.EventTicketCommentAdded:  audienceStaff | audienceCustomer,
	events.EventCategoryDeleted:     audienceStaff,
}

// NotificationService turns ticket events into staff webhook posts and
// customer emails. Delivery is logged only; no transport is attached.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every routed event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for eventType := range eventAudiences {
		n.dispatcher.Subscribe(eventType, n.notify)
	}
}

func (n *NotificationService) notify(_ context.Context, event events.Event) error {
	to := audienceFor(event)
	n.logger.Info("notification routed",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.ID),
		zap.Bool("staff", to&audienceStaff != 0),
		zap.Bool("customer", to&audienceCustomer != 0))

	if to&audienceStaff != 0 && strings.TrimSpace(n.cfg.WebhookURL) != "" {
		n.logger.Debug("staff webhook queued",
			zap.String("url", n.cfg.WebhookURL),
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
	if to&audienceCustomer != 0 && strings.TrimSpace(n.cfg.EmailFrom) != "" {
		n.logger.Debug("customer email queued",
			zap.String("from", n.cfg.EmailFrom),
			zap.String("event_id", event.ID),
			zap.String("ticket_id", event.TicketID))
	}
	return nil
}

// audienceFor keeps internal comments away from the customer channel.
func audienceFor(event events.Event) audience {
	to := eventAudiences[event.Type]
	if payload, ok := event.Payload.(events.TicketCommentAddedPayload); ok && payload.Internal {
		to &^= audienceCustomer
	}
	return to
}
