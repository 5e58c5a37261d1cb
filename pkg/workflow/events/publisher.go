package events

import (
	"context"
	"time"

	"shopnest-be/internal/pkg/logger"
	pkgEvents "shopnest-be/pkg/events"
	pkgNats "shopnest-be/pkg/nats"

	"github.com/google/uuid"
)

// Publisher abstracts event publishing for the resolution workflow.
type Publisher interface {
	PublishResolutionSubmitted(ctx context.Context, requestId uuid.UUID, orderId, requestType string)
	PublishResolutionApproved(ctx context.Context, requestId uuid.UUID, orderId, awb string)
	PublishResolutionRejected(ctx context.Context, requestId uuid.UUID, orderId, comment string)
	PublishPickupCompleted(ctx context.Context, requestId uuid.UUID, orderId string)
	PublishReplacementShipped(ctx context.Context, requestId uuid.UUID, orderId, awb string)
	PublishRefundCompleted(ctx context.Context, requestId uuid.UUID, orderId string, amount float64, transactionId string)
	PublishResolutionDelivered(ctx context.Context, requestId uuid.UUID, orderId string)
}

// NatsPublisher implements Publisher on the JetStream bus.
type NatsPublisher struct {
	publisher *pkgNats.Publisher
	logger    logger.ILogger
}

func NewNatsPublisher(publisher *pkgNats.Publisher, logger logger.ILogger) *NatsPublisher {
	return &NatsPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *NatsPublisher) emit(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.publisher == nil {
		return
	}

	now := time.Now()
	data["occurred_at"] = now

	evt := pkgEvents.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: now,
	}

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("WORKFLOW", "Failed to publish "+eventType+" event", map[string]interface{}{"error": err.Error()})
	}
}

func (p *NatsPublisher) PublishResolutionSubmitted(ctx context.Context, requestId uuid.UUID, orderId, requestType string) {
	p.emit(ctx, "RESOLUTION_SUBMITTED", map[string]interface{}{
		"request_id": requestId.String(),
		"order_id":   orderId,
		"type":       requestType,
	})
}

func (p *NatsPublisher) PublishResolutionApproved(ctx context.Context, requestId uuid.UUID, orderId, awb string) {
	p.emit(ctx, "RESOLUTION_APPROVED", map[string]interface{}{
		"request_id": requestId.String(),
		"order_id":   orderId,
		"pickup_awb": awb,
	})
}

func (p *NatsPublisher) PublishResolutionRejected(ctx context.Context, requestId uuid.UUID, orderId, comment string) {
	p.emit(ctx, "RESOLUTION_REJECTED", map[string]interface{}{
		"request_id": requestId.String(),
		"order_id":   orderId,
		"comment":    comment,
	})
}

func (p *NatsPublisher) PublishPickupCompleted(ctx context.Context, requestId uuid.UUID, orderId string) {
	p.emit(ctx, "PICKUP_COMPLETED", map[string]interface{}{
		"request_id": requestId.String(),
		"order_id":   orderId,
	})
}

func (p *NatsPublisher) PublishReplacementShipped(ctx context.Context, requestId uuid.UUID, orderId, awb string) {
	p.emit(ctx, "REPLACEMENT_SHIPPED", map[string]interface{}{
		"request_id":   requestId.String(),
		"order_id":     orderId,
		"shipment_awb": awb,
	})
}

func (p *NatsPublisher) PublishRefundCompleted(ctx context.Context, requestId uuid.UUID, orderId string, amount float64, transactionId string) {
	p.emit(ctx, "REFUND_COMPLETED", map[string]interface{}{
		"request_id":     requestId.String(),
		"order_id":       orderId,
		"amount":         amount,
		"transaction_id": transactionId,
	})
}

func (p *NatsPublisher) PublishResolutionDelivered(ctx context.Context, requestId uuid.UUID, orderId string) {
	p.emit(ctx, "RESOLUTION_DELIVERED", map[string]interface{}{
		"request_id": requestId.String(),
		"order_id":   orderId,
	})
}
