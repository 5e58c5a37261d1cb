package service

import (
	"context"
	"encoding/json"
	"time"

	"shopnest-be/internal/config"
	"shopnest-be/internal/dto"
	"shopnest-be/internal/entity"
	"shopnest-be/internal/pkg/apperrors"
	"shopnest-be/internal/pkg/logger"
	"shopnest-be/internal/repository/specification"
	"shopnest-be/internal/repository/unitofwork"
	"shopnest-be/pkg/payment"
	workflowEvents "shopnest-be/pkg/workflow/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// IReconciliationService settles refunds whose gateway call timed out. It
// consumes reconcile jobs from the background bus and also sweeps the
// refund ledger periodically so nothing stays in doubt forever.
type IReconciliationService interface {
	Consume(ctx context.Context) error
	StartSweeper(ctx context.Context)
}

type reconciliationService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	factory   unitofwork.RepositoryFactory
	refunder  payment.RefundProcessor
	publisher workflowEvents.Publisher
	logger    logger.ILogger
	cfg       config.ResolutionConfig
}

func NewReconciliationService(
	pubSub *gochannel.GoChannel,
	topicName string,
	factory unitofwork.RepositoryFactory,
	refunder payment.RefundProcessor,
	publisher workflowEvents.Publisher,
	logger logger.ILogger,
	cfg config.ResolutionConfig,
) IReconciliationService {
	return &reconciliationService{
		pubSub:    pubSub,
		topicName: topicName,
		factory:   factory,
		refunder:  refunder,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
	}
}

func (rs *reconciliationService) Consume(ctx context.Context) error {
	messages, err := rs.pubSub.Subscribe(ctx, rs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			rs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (rs *reconciliationService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.RefundReconcileMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		rs.logger.Error("RECONCILE", "Failed to unmarshal reconcile message", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	if err := rs.reconcile(ctx, payload.RequestId); err != nil {
		rs.logger.Warn("RECONCILE", "Reconciliation attempt failed, will retry", map[string]interface{}{
			"requestId": payload.RequestId.String(),
			"error":     err.Error(),
		})
		msg.Nack()
		return
	}

	msg.Ack()
}

// StartSweeper re-checks every in-doubt refund on a fixed interval. Jobs on
// the bus usually settle a refund first; the sweeper is the safety net for
// process restarts and lost messages.
func (rs *reconciliationService) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(rs.cfg.ReconcileInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rs.sweep(ctx)
			}
		}
	}()
}

func (rs *reconciliationService) sweep(ctx context.Context) {
	uow := rs.factory.NewUnitOfWork(ctx)
	pending, err := uow.RefundTransactionRepository().FindByStatus(ctx, "processing")
	if err != nil {
		rs.logger.Error("RECONCILE", "Sweep query failed", map[string]interface{}{"error": err.Error()})
		return
	}

	for _, tx := range pending {
		if err := rs.reconcile(ctx, tx.RequestId); err != nil {
			rs.logger.Warn("RECONCILE", "Sweep reconciliation failed", map[string]interface{}{
				"requestId": tx.RequestId.String(),
				"error":     err.Error(),
			})
		}
	}
}

func (rs *reconciliationService) reconcile(ctx context.Context, requestId uuid.UUID) error {
	uow := rs.factory.NewUnitOfWork(ctx)

	tx, err := uow.RefundTransactionRepository().FindByRequestId(ctx, requestId)
	if err != nil {
		return err
	}
	if tx.Status == "settled" {
		return nil
	}

	request, err := uow.ResolutionRepository().FindOne(ctx, specification.ByID{ID: requestId})
	if err != nil {
		return err
	}
	if request.Status != entity.StatusRefundProcessing {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, rs.cfg.ExternalCallTimeout)
	defer cancel()

	result, err := rs.refunder.Status(callCtx, requestId.String(), request.OrderId)
	if err != nil {
		return err
	}
	if !result.Settled {
		// The original call never reached the gateway. Re-issue under the
		// same refund key; the gateway dedupes if we are wrong about that.
		result, err = rs.refunder.Issue(callCtx, requestId.String(), request.OrderId, tx.Amount, "return resolution")
		if err != nil {
			return err
		}
	}
	if !result.Settled {
		// Still unconfirmed, e.g. a deduped re-issue whose status check
		// came back pending. The ledger row stays processing and the next
		// sweep asks again.
		rs.logger.Warn("RECONCILE", "Refund still unconfirmed by gateway", map[string]interface{}{
			"requestId": requestId.String(),
		})
		return nil
	}

	next, ok := entity.NextStatus(request.Status, entity.EventRefundConfirmed)
	if !ok {
		return nil
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	expected := request.Status
	now := time.Now()
	request.Status = next
	request.Refund.TransactionId = result.TransactionId
	request.Refund.CompletedAt = &now

	applied, err := uow.ResolutionRepository().UpdateGuarded(ctx, request, expected)
	if err != nil {
		return err
	}
	if !applied {
		return apperrors.ErrConcurrencyConflict
	}

	if err := uow.RefundTransactionRepository().MarkSettled(ctx, requestId, result.TransactionId); err != nil {
		return err
	}
	if err := uow.ResolutionRepository().AppendTimeline(ctx, requestId, entity.StageRefundCompleted); err != nil {
		return err
	}
	if err := uow.ResolutionRepository().AppendAudit(ctx, &entity.AuditEntry{
		RequestId: requestId,
		Action:    "refund_reconciled",
		Actor:     "system:reconciler",
	}); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	rs.logger.Info("RECONCILE", "In-doubt refund settled", map[string]interface{}{
		"requestId":     requestId.String(),
		"transactionId": result.TransactionId,
		"amount":        tx.Amount,
	})
	rs.publisher.PublishRefundCompleted(ctx, requestId, request.OrderId, tx.Amount, result.TransactionId)

	return nil
}
