package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"shopnest-be/internal/dto"
	"shopnest-be/internal/entity"
	"shopnest-be/internal/pkg/apperrors"
	"shopnest-be/internal/pkg/logger"
	"shopnest-be/internal/repository/specification"
	"shopnest-be/internal/repository/unitofwork"
	workflowEvents "shopnest-be/pkg/workflow/events"

	"github.com/google/uuid"
)

const (
	ChannelPickup   = "pickup"
	ChannelShipment = "shipment"
)

type IWebhookService interface {
	// VerifySignature checks the carrier's HMAC over the raw body.
	VerifySignature(body []byte, signature string) bool

	// HandleCourierEvent applies one carrier callback. Duplicate and stale
	// deliveries are acknowledged without touching the request.
	HandleCourierEvent(ctx context.Context, req *dto.CourierWebhookRequest) error
}

type webhookService struct {
	factory   unitofwork.RepositoryFactory
	publisher workflowEvents.Publisher
	logger    logger.ILogger
	secret    string
}

func NewWebhookService(
	factory unitofwork.RepositoryFactory,
	publisher workflowEvents.Publisher,
	logger logger.ILogger,
	secret string,
) IWebhookService {
	return &webhookService{
		factory:   factory,
		publisher: publisher,
		logger:    logger,
		secret:    secret,
	}
}

func (s *webhookService) VerifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *webhookService) HandleCourierEvent(ctx context.Context, req *dto.CourierWebhookRequest) error {
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	// Dedupe first: the insert races replayed deliveries on the unique
	// event id, so only one of them proceeds past this point.
	applied, err := uow.CourierEventRepository().InsertOnce(ctx, req.EventId, req.RequestId, req.Channel, req.Status, req.Timestamp)
	if err != nil {
		return err
	}
	if !applied {
		s.logger.Info("WEBHOOK", "Duplicate courier event ignored", map[string]interface{}{
			"eventId":   req.EventId,
			"requestId": req.RequestId.String(),
		})
		return uow.Commit()
	}

	request, err := uow.ResolutionRepository().FindOne(ctx, specification.ByID{ID: req.RequestId})
	if err != nil {
		return err
	}

	// Terminal requests accept nothing but their recorded history. The event
	// stays deduped so the carrier stops resending it.
	if entity.IsTerminal(request.Status) {
		s.logger.Info("WEBHOOK", "Event for terminal request discarded", map[string]interface{}{
			"eventId":   req.EventId,
			"requestId": req.RequestId.String(),
			"status":    string(request.Status),
		})
		return uow.Commit()
	}

	if stale(request, req.Channel, req.Timestamp) {
		s.logger.Info("WEBHOOK", "Stale courier event discarded", map[string]interface{}{
			"eventId":   req.EventId,
			"requestId": req.RequestId.String(),
			"status":    req.Status,
		})
		return uow.Commit()
	}

	expected := request.Status
	eventAt := req.Timestamp
	var stage string
	var publish func()

	switch req.Channel {
	case ChannelPickup:
		if request.Pickup == nil {
			err := apperrors.NewValidation("no pickup exists for request %s", req.RequestId)
			s.auditFailure(ctx, req.RequestId, err)
			return err
		}
		request.Pickup.Status = req.Status
		request.Pickup.EventAt = &eventAt

		if req.Status == "completed" {
			next, ok := entity.NextStatus(request.Status, entity.EventPickupCompleted)
			if !ok {
				// Sub-status still recorded; lifecycle state stays put.
				break
			}
			request.Status = next
			stage = entity.StagePickupCompleted
			publish = func() { s.publisher.PublishPickupCompleted(ctx, request.Id, request.OrderId) }
		}

	case ChannelShipment:
		if request.Shipment == nil {
			err := apperrors.NewValidation("no shipment exists for request %s", req.RequestId)
			s.auditFailure(ctx, req.RequestId, err)
			return err
		}
		request.Shipment.Status = req.Status
		request.Shipment.EventAt = &eventAt

		if req.Status == "delivered" {
			next, ok := entity.NextStatus(request.Status, entity.EventDelivered)
			if !ok {
				break
			}
			request.Status = next
			stage = entity.StageDelivered
			publish = func() { s.publisher.PublishResolutionDelivered(ctx, request.Id, request.OrderId) }
		}

	default:
		err := apperrors.NewValidation("unknown webhook channel %s", req.Channel)
		s.auditFailure(ctx, req.RequestId, err)
		return err
	}

	applied, err = uow.ResolutionRepository().UpdateGuarded(ctx, request, expected)
	if err != nil {
		return err
	}
	if !applied {
		// Lost the race against another writer. Roll everything back,
		// including the dedupe row, so the carrier's retry can reapply.
		s.auditFailure(ctx, req.RequestId, apperrors.ErrConcurrencyConflict)
		return apperrors.ErrConcurrencyConflict
	}

	if stage != "" {
		if err := uow.ResolutionRepository().AppendTimeline(ctx, request.Id, stage); err != nil {
			return err
		}
		if err := uow.ResolutionRepository().AppendAudit(ctx, &entity.AuditEntry{
			RequestId: request.Id,
			Action:    "courier_" + req.Channel + "_" + req.Status,
			Actor:     "system:courier-webhook",
		}); err != nil {
			return err
		}
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	s.logger.Info("WEBHOOK", "Courier event applied", map[string]interface{}{
		"eventId":   req.EventId,
		"requestId": request.Id.String(),
		"channel":   req.Channel,
		"status":    req.Status,
	})
	if publish != nil {
		publish()
	}

	return nil
}

// auditFailure records a rejected or conflicted event on the trail, outside
// the webhook's own transaction so it survives the rollback.
func (s *webhookService) auditFailure(ctx context.Context, requestId uuid.UUID, cause error) {
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		s.logger.Error("WEBHOOK", "Failed to open audit transaction", map[string]interface{}{
			"requestId": requestId.String(),
			"error":     err.Error(),
		})
		return
	}
	defer uow.Rollback()

	if err := uow.ResolutionRepository().AppendAudit(ctx, &entity.AuditEntry{
		RequestId: requestId,
		Action:    "courier_event_failed",
		Actor:     "system:courier-webhook",
		Comment:   cause.Error(),
	}); err != nil {
		s.logger.Error("WEBHOOK", "Failed to record failure audit", map[string]interface{}{
			"requestId": requestId.String(),
			"error":     err.Error(),
		})
		return
	}
	if err := uow.Commit(); err != nil {
		s.logger.Error("WEBHOOK", "Failed to commit failure audit", map[string]interface{}{
			"requestId": requestId.String(),
			"error":     err.Error(),
		})
	}
}

// stale reports whether the event's timestamp is not strictly newer than the
// channel's last applied event. Ties lose: two events with the same
// timestamp cannot be ordered, so the second to arrive is dropped.
func stale(request *entity.ResolutionRequest, channel string, ts time.Time) bool {
	var watermark *time.Time
	switch channel {
	case ChannelPickup:
		if request.Pickup != nil {
			watermark = request.Pickup.EventAt
		}
	case ChannelShipment:
		if request.Shipment != nil {
			watermark = request.Shipment.EventAt
		}
	}
	return watermark != nil && !ts.After(*watermark)
}
