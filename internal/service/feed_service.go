package service

import (
	"context"
	"strings"

	"shopnest-be/internal/pkg/logger"
	"shopnest-be/internal/pkg/mailer"
	internalWS "shopnest-be/internal/websocket"
	"shopnest-be/pkg/events"
	pkgNats "shopnest-be/pkg/nats"
)

// IFeedService bridges workflow events from the bus onto the live dashboard
// feed and notifies customers when their case reaches a final state.
type IFeedService interface {
	Start() error
}

type feedService struct {
	subscriber *pkgNats.Subscriber
	hub        *internalWS.Hub
	mailer     mailer.IEmailService
	logger     logger.ILogger
}

func NewFeedService(subscriber *pkgNats.Subscriber, hub *internalWS.Hub, emailService mailer.IEmailService, log logger.ILogger) IFeedService {
	return &feedService{
		subscriber: subscriber,
		hub:        hub,
		mailer:     emailService,
		logger:     log,
	}
}

func (s *feedService) Start() error {
	return s.subscriber.Subscribe("events.>", "resolution-feed", s.handleEvent)
}

func (s *feedService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	update := internalWS.FeedUpdate{
		EventType:  strings.TrimPrefix(event.EventType(), "events."),
		Data:       payload,
		OccurredAt: event.Timestamp(),
	}
	if v, ok := payload["request_id"].(string); ok {
		update.RequestId = v
	}
	if v, ok := payload["order_id"].(string); ok {
		update.OrderId = v
	}

	if s.hub != nil {
		s.hub.Broadcast(update)
	}

	s.notifyCustomer(update)
	return nil
}

// notifyCustomer emails the customer on terminal outcomes. The email address
// rides on the event payload; events without one are feed-only.
func (s *feedService) notifyCustomer(update internalWS.FeedUpdate) {
	if s.mailer == nil {
		return
	}
	email, ok := update.Data["customer_email"].(string)
	if !ok || email == "" {
		return
	}

	var outcome, detail string
	switch update.EventType {
	case "RESOLUTION_REJECTED":
		outcome = "Request Rejected"
		detail = "Your request was reviewed and could not be approved. See the admin comment on your order page for details."
	case "REFUND_COMPLETED":
		outcome = "Refund Completed"
		detail = "Your refund has been processed and should reach you shortly."
	case "RESOLUTION_DELIVERED":
		outcome = "Replacement Delivered"
		detail = "Your replacement items have been delivered."
	default:
		return
	}

	if err := s.mailer.SendResolutionOutcome(email, update.OrderId, outcome, detail); err != nil {
		s.logger.Error("FEED", "Failed to send outcome email", map[string]interface{}{
			"orderId": update.OrderId,
			"error":   err.Error(),
		})
	}
}
