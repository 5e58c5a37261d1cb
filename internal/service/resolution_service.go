package service

import (
	"context"
	"encoding/json"
	"time"

	"shopnest-be/internal/config"
	"shopnest-be/internal/dto"
	"shopnest-be/internal/entity"
	"shopnest-be/internal/mapper"
	"shopnest-be/internal/model"
	"shopnest-be/internal/pkg/apperrors"
	"shopnest-be/internal/pkg/logger"
	"shopnest-be/internal/repository/specification"
	"shopnest-be/internal/repository/unitofwork"
	"shopnest-be/pkg/courier"
	"shopnest-be/pkg/payment"
	"shopnest-be/pkg/stock"
	workflowEvents "shopnest-be/pkg/workflow/events"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

type IResolutionService interface {
	Submit(ctx context.Context, customerId uuid.UUID, req *dto.SubmitResolutionRequest) (*dto.ResolutionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ResolutionResponse, error)
	List(ctx context.Context, query *dto.ListResolutionQuery) (*dto.ListResolutionResponse, error)
	Approve(ctx context.Context, id uuid.UUID, actor string) (*dto.ResolutionResponse, error)
	Reject(ctx context.Context, id uuid.UUID, actor string, req *dto.RejectResolutionRequest) (*dto.ResolutionResponse, error)
	VerifyAndResolve(ctx context.Context, id uuid.UUID, actor string, req *dto.VerifyResolveRequest) (*dto.ResolutionResponse, error)
}

type resolutionService struct {
	factory    unitofwork.RepositoryFactory
	gateway    courier.Gateway
	refunder   payment.RefundProcessor
	adjuster   *stock.Adjuster
	publisher  workflowEvents.Publisher
	reconciler IPublisherService
	logger     logger.ILogger
	cfg        config.ResolutionConfig
}

func NewResolutionService(
	factory unitofwork.RepositoryFactory,
	gateway courier.Gateway,
	refunder payment.RefundProcessor,
	adjuster *stock.Adjuster,
	publisher workflowEvents.Publisher,
	reconciler IPublisherService,
	logger logger.ILogger,
	cfg config.ResolutionConfig,
) IResolutionService {
	return &resolutionService{
		factory:    factory,
		gateway:    gateway,
		refunder:   refunder,
		adjuster:   adjuster,
		publisher:  publisher,
		reconciler: reconciler,
		logger:     logger,
		cfg:        cfg,
	}
}

func (s *resolutionService) Submit(ctx context.Context, customerId uuid.UUID, req *dto.SubmitResolutionRequest) (*dto.ResolutionResponse, error) {
	if req.Type == string(entity.RequestTypeReplacement) && len(req.ReplacementItems) == 0 {
		return nil, apperrors.NewValidation("replacement requests must list replacement items")
	}
	if req.Type == string(entity.RequestTypeReturn) && len(req.ReplacementItems) > 0 {
		return nil, apperrors.NewValidation("return requests cannot carry replacement items")
	}

	request := mapper.SubmitRequestToEntity(req)
	request.CustomerId = customerId
	request.RequestDate = time.Now()

	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ResolutionRepository().Create(ctx, request); err != nil {
		return nil, err
	}
	if err := uow.ResolutionRepository().AppendTimeline(ctx, request.Id, entity.StageSubmitted); err != nil {
		return nil, err
	}
	if err := uow.ResolutionRepository().AppendAudit(ctx, &entity.AuditEntry{
		RequestId: request.Id,
		Action:    "submitted",
		Actor:     "customer:" + customerId.String(),
		Comment:   req.Evidence.Comment,
	}); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("RESOLUTION", "Request submitted", map[string]interface{}{
		"requestId": request.Id.String(),
		"orderId":   request.OrderId,
		"type":      string(request.Type),
	})
	s.publisher.PublishResolutionSubmitted(ctx, request.Id, request.OrderId, string(request.Type))

	return s.loadResponse(ctx, request.Id)
}

func (s *resolutionService) Get(ctx context.Context, id uuid.UUID) (*dto.ResolutionResponse, error) {
	return s.loadResponse(ctx, id)
}

func (s *resolutionService) List(ctx context.Context, query *dto.ListResolutionQuery) (*dto.ListResolutionResponse, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var filters []specification.Specification
	if query.Status != "" {
		filters = append(filters, specification.Filter("status", query.Status))
	}
	if query.Type != "" {
		filters = append(filters, specification.Filter("type", query.Type))
	}
	if query.OrderId != "" {
		filters = append(filters, specification.ByOrderID{OrderID: query.OrderId})
	}

	uow := s.factory.NewUnitOfWork(ctx)
	repo := uow.ResolutionRepository()

	total, err := repo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	specs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	requests, err := repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListResolutionResponse{
		Items:      make([]dto.ResolutionResponse, 0, len(requests)),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
	for _, r := range requests {
		resp.Items = append(resp.Items, mapper.ResolutionToResponse(r))
	}
	return resp, nil
}

// Approve moves a pending request to pickup_scheduled. The pickup is booked
// with the carrier first (retried on transient failures, reference-keyed so
// retries cannot double-book), then committed behind the status guard.
func (s *resolutionService) Approve(ctx context.Context, id uuid.UUID, actor string) (*dto.ResolutionResponse, error) {
	uow := s.factory.NewUnitOfWork(ctx)
	request, err := uow.ResolutionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}

	next, ok := entity.NextStatus(request.Status, entity.EventApprove)
	if !ok {
		err := apperrors.NewTransition("approve", string(request.Status))
		s.auditFailure(ctx, id, "approve_failed", actor, err)
		return nil, err
	}

	pickup, err := s.schedulePickupWithRetry(ctx, request)
	if err != nil {
		s.logger.Error("RESOLUTION", "Pickup booking failed", map[string]interface{}{
			"requestId": id.String(),
			"error":     err.Error(),
		})
		s.auditFailure(ctx, id, "approve_failed", actor, err)
		return nil, err
	}

	expected := request.Status
	request.Status = next
	request.Pickup = &entity.Pickup{
		Partner:       pickup.Partner,
		Awb:           pickup.Awb,
		ScheduledDate: &pickup.ScheduledDate,
		Status:        "scheduled",
	}

	if err := s.commitTransition(ctx, request, expected, entity.StagePickupScheduled, &entity.AuditEntry{
		RequestId: id,
		Action:    "approved",
		Actor:     actor,
	}); err != nil {
		s.auditFailure(ctx, id, "approve_failed", actor, err)
		return nil, err
	}

	s.logger.Info("RESOLUTION", "Request approved, pickup scheduled", map[string]interface{}{
		"requestId": id.String(),
		"awb":       pickup.Awb,
		"partner":   pickup.Partner,
	})
	s.publisher.PublishResolutionApproved(ctx, id, request.OrderId, pickup.Awb)

	return s.loadResponse(ctx, id)
}

func (s *resolutionService) Reject(ctx context.Context, id uuid.UUID, actor string, req *dto.RejectResolutionRequest) (*dto.ResolutionResponse, error) {
	uow := s.factory.NewUnitOfWork(ctx)
	request, err := uow.ResolutionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}

	next, ok := entity.NextStatus(request.Status, entity.EventReject)
	if !ok {
		err := apperrors.NewTransition("reject", string(request.Status))
		s.auditFailure(ctx, id, "reject_failed", actor, err)
		return nil, err
	}

	expected := request.Status
	request.Status = next
	request.AdminComment = req.Comment

	if err := s.commitTransition(ctx, request, expected, entity.StageRejected, &entity.AuditEntry{
		RequestId: id,
		Action:    "rejected",
		Actor:     actor,
		Comment:   req.Comment,
	}); err != nil {
		s.auditFailure(ctx, id, "reject_failed", actor, err)
		return nil, err
	}

	s.logger.Info("RESOLUTION", "Request rejected", map[string]interface{}{
		"requestId": id.String(),
		"actor":     actor,
	})
	s.publisher.PublishResolutionRejected(ctx, id, request.OrderId, req.Comment)

	return s.loadResponse(ctx, id)
}

// VerifyAndResolve records the inspected item conditions, settles the stock
// decision and fires the type-specific resolution: a refund for returns, a
// replacement shipment otherwise. Stock is adjusted before any external call
// so a carrier or gateway failure rolls everything back together.
func (s *resolutionService) VerifyAndResolve(ctx context.Context, id uuid.UUID, actor string, req *dto.VerifyResolveRequest) (*dto.ResolutionResponse, error) {
	uow := s.factory.NewUnitOfWork(ctx)
	request, err := uow.ResolutionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}

	event := entity.EventVerifyShip
	if request.Type == entity.RequestTypeReturn {
		event = entity.EventVerifyRefund
	}
	if _, ok := entity.NextStatus(request.Status, event); !ok {
		err := apperrors.NewTransition("verify", string(request.Status))
		s.auditFailure(ctx, id, "verify_failed", actor, err)
		return nil, err
	}

	if err := applyConditions(request, req.Items); err != nil {
		s.auditFailure(ctx, id, "verify_failed", actor, err)
		return nil, err
	}

	resolve := s.resolveReplacement
	if request.Type == entity.RequestTypeReturn {
		resolve = s.resolveReturn
	}
	resp, err := resolve(ctx, request, actor, req)
	if err != nil {
		s.auditFailure(ctx, id, "verify_failed", actor, err)
	}
	return resp, err
}

// applyConditions stamps the verified condition onto each original item.
// Every submitted item must be inspected.
func applyConditions(request *entity.ResolutionRequest, verified []dto.VerifyItemRequest) error {
	conditions := make(map[string]entity.ItemCondition, len(verified))
	for _, v := range verified {
		conditions[v.Sku] = entity.ItemCondition(v.Condition)
	}
	for i := range request.OriginalItems {
		cond, ok := conditions[request.OriginalItems[i].Sku]
		if !ok {
			return apperrors.NewValidation("missing condition for sku %s", request.OriginalItems[i].Sku)
		}
		request.OriginalItems[i].Condition = cond
	}
	return nil
}

func (s *resolutionService) resolveReturn(ctx context.Context, request *entity.ResolutionRequest, actor string, req *dto.VerifyResolveRequest) (*dto.ResolutionResponse, error) {
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := s.adjuster.AdjustOnce(ctx, uow, request.Id, request.OriginalItems, entity.StockAction(req.StockAction)); err != nil {
		return nil, err
	}

	amount := request.RefundCap()
	result, refundErr := s.issueRefund(ctx, uow, request, amount)

	expected := request.Status
	now := time.Now()

	switch {
	case refundErr == nil:
		request.Status = entity.StatusRefunded
		request.Refund.Amount = amount
		request.Refund.TransactionId = result.TransactionId
		request.Refund.CompletedAt = &now
	case apperrors.IsPaymentTimeout(refundErr):
		// Outcome unknown: park the request and let reconciliation confirm
		// against the gateway instead of guessing.
		request.Status = entity.StatusRefundProcessing
		request.Refund.Amount = amount
	default:
		return nil, refundErr
	}

	applied, err := uow.ResolutionRepository().UpdateGuarded(ctx, request, expected)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.ErrConcurrencyConflict
	}

	if err := uow.ResolutionRepository().AppendTimeline(ctx, request.Id, entity.StageItemVerified); err != nil {
		return nil, err
	}
	if err := uow.ResolutionRepository().AppendTimeline(ctx, request.Id, entity.StageRefundInitiated); err != nil {
		return nil, err
	}
	if request.Status == entity.StatusRefunded {
		if err := uow.ResolutionRepository().AppendTimeline(ctx, request.Id, entity.StageRefundCompleted); err != nil {
			return nil, err
		}
	}
	if err := uow.ResolutionRepository().AppendAudit(ctx, &entity.AuditEntry{
		RequestId: request.Id,
		Action:    "verified_refund",
		Actor:     actor,
		Comment:   req.Comment,
	}); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if request.Status == entity.StatusRefunded {
		s.logger.Info("RESOLUTION", "Refund completed", map[string]interface{}{
			"requestId":     request.Id.String(),
			"amount":        amount,
			"transactionId": request.Refund.TransactionId,
		})
		s.publisher.PublishRefundCompleted(ctx, request.Id, request.OrderId, amount, request.Refund.TransactionId)
	} else {
		s.logger.Warn("RESOLUTION", "Refund outcome unknown, pending reconciliation", map[string]interface{}{
			"requestId": request.Id.String(),
			"amount":    amount,
		})
		s.enqueueReconcile(ctx, request.Id)
	}

	return s.loadResponse(ctx, request.Id)
}

// issueRefund consults the local refund ledger before calling the gateway so
// a retried verification never debits twice.
func (s *resolutionService) issueRefund(ctx context.Context, uow unitofwork.UnitOfWork, request *entity.ResolutionRequest, amount float64) (*payment.RefundResult, error) {
	ledger := uow.RefundTransactionRepository()

	existing, err := ledger.FindByRequestId(ctx, request.Id)
	if err == nil && existing.Status == "settled" {
		return &payment.RefundResult{TransactionId: existing.TransactionId, Settled: true}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ExternalCallTimeout)
	defer cancel()

	result, issueErr := s.refunder.Issue(callCtx, request.Id.String(), request.OrderId, amount, "return resolution")

	status := "settled"
	transactionId := ""
	if issueErr != nil {
		if !apperrors.IsPaymentTimeout(issueErr) {
			return nil, issueErr
		}
		status = "processing"
	} else {
		transactionId = result.TransactionId
	}

	if existing == nil {
		if err := ledger.Create(ctx, &model.RefundTransaction{
			RequestId:     request.Id,
			TransactionId: transactionId,
			Amount:        amount,
			Method:        string(request.Refund.Method),
			Status:        status,
		}); err != nil {
			return nil, err
		}
	} else if status == "settled" {
		if err := ledger.MarkSettled(ctx, request.Id, transactionId); err != nil {
			return nil, err
		}
	}

	return result, issueErr
}

func (s *resolutionService) resolveReplacement(ctx context.Context, request *entity.ResolutionRequest, actor string, req *dto.VerifyResolveRequest) (*dto.ResolutionResponse, error) {
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := s.adjuster.AdjustOnce(ctx, uow, request.Id, request.OriginalItems, entity.StockAction(req.StockAction)); err != nil {
		return nil, err
	}

	items := make([]courier.PickupItem, 0, len(request.ReplacementItems))
	for _, item := range request.ReplacementItems {
		items = append(items, courier.PickupItem{Sku: item.Sku, Name: item.Name, Qty: item.Qty})
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ExternalCallTimeout)
	defer cancel()
	shipment, err := s.gateway.CreateShipment(callCtx, request.Id.String(), items)
	if err != nil {
		return nil, err
	}

	expected := request.Status
	request.Status = entity.StatusReplacementShipped
	request.Shipment = &entity.Shipment{
		Partner: shipment.Partner,
		Awb:     shipment.Awb,
		Status:  "shipped",
	}

	applied, err := uow.ResolutionRepository().UpdateGuarded(ctx, request, expected)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.ErrConcurrencyConflict
	}

	if err := uow.ResolutionRepository().AppendTimeline(ctx, request.Id, entity.StageItemVerified); err != nil {
		return nil, err
	}
	if err := uow.ResolutionRepository().AppendTimeline(ctx, request.Id, entity.StageReplacementShipped); err != nil {
		return nil, err
	}
	if err := uow.ResolutionRepository().AppendAudit(ctx, &entity.AuditEntry{
		RequestId: request.Id,
		Action:    "verified_ship",
		Actor:     actor,
		Comment:   req.Comment,
	}); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("RESOLUTION", "Replacement shipped", map[string]interface{}{
		"requestId": request.Id.String(),
		"awb":       shipment.Awb,
	})
	s.publisher.PublishReplacementShipped(ctx, request.Id, request.OrderId, shipment.Awb)

	return s.loadResponse(ctx, request.Id)
}

// schedulePickupWithRetry books the reverse pickup, retrying transient
// carrier failures with exponential backoff. Permanent rejections abort
// immediately.
func (s *resolutionService) schedulePickupWithRetry(ctx context.Context, request *entity.ResolutionRequest) (*courier.PickupResult, error) {
	items := make([]courier.PickupItem, 0, len(request.OriginalItems))
	for _, item := range request.OriginalItems {
		items = append(items, courier.PickupItem{Sku: item.Sku, Name: item.Name, Qty: item.Qty})
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.PickupRetryBase
	retries := uint64(0)
	if s.cfg.PickupRetryMax > 1 {
		retries = uint64(s.cfg.PickupRetryMax - 1)
	}

	var result *courier.PickupResult
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.ExternalCallTimeout)
		defer cancel()

		booked, err := s.gateway.SchedulePickup(callCtx, request.Id.String(), items)
		if err != nil {
			if apperrors.IsTransientCarrier(err) {
				s.logger.Warn("RESOLUTION", "Transient carrier failure, will retry", map[string]interface{}{
					"requestId": request.Id.String(),
					"error":     err.Error(),
				})
				return err
			}
			return backoff.Permanent(err)
		}
		result = booked
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

// commitTransition runs the guarded status update plus its timeline and
// audit rows in one transaction.
func (s *resolutionService) commitTransition(ctx context.Context, request *entity.ResolutionRequest, expected entity.Status, stage string, audit *entity.AuditEntry) error {
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	applied, err := uow.ResolutionRepository().UpdateGuarded(ctx, request, expected)
	if err != nil {
		return err
	}
	if !applied {
		return apperrors.ErrConcurrencyConflict
	}

	if err := uow.ResolutionRepository().AppendTimeline(ctx, request.Id, stage); err != nil {
		return err
	}
	if err := uow.ResolutionRepository().AppendAudit(ctx, audit); err != nil {
		return err
	}

	return uow.Commit()
}

// auditFailure records a failed operation on the trail. It runs in its own
// transaction: the work that failed rolls back, the failure record must not.
func (s *resolutionService) auditFailure(ctx context.Context, requestId uuid.UUID, action, actor string, cause error) {
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		s.logger.Error("RESOLUTION", "Failed to open audit transaction", map[string]interface{}{
			"requestId": requestId.String(),
			"error":     err.Error(),
		})
		return
	}
	defer uow.Rollback()

	if err := uow.ResolutionRepository().AppendAudit(ctx, &entity.AuditEntry{
		RequestId: requestId,
		Action:    action,
		Actor:     actor,
		Comment:   cause.Error(),
	}); err != nil {
		s.logger.Error("RESOLUTION", "Failed to record failure audit", map[string]interface{}{
			"requestId": requestId.String(),
			"action":    action,
			"error":     err.Error(),
		})
		return
	}
	if err := uow.Commit(); err != nil {
		s.logger.Error("RESOLUTION", "Failed to commit failure audit", map[string]interface{}{
			"requestId": requestId.String(),
			"action":    action,
			"error":     err.Error(),
		})
	}
}

func (s *resolutionService) enqueueReconcile(ctx context.Context, requestId uuid.UUID) {
	if s.reconciler == nil {
		return
	}
	payload, err := json.Marshal(dto.RefundReconcileMessage{RequestId: requestId})
	if err != nil {
		return
	}
	if err := s.reconciler.Publish(ctx, payload); err != nil {
		s.logger.Error("RESOLUTION", "Failed to enqueue refund reconciliation", map[string]interface{}{
			"requestId": requestId.String(),
			"error":     err.Error(),
		})
	}
}

func (s *resolutionService) loadResponse(ctx context.Context, id uuid.UUID) (*dto.ResolutionResponse, error) {
	uow := s.factory.NewUnitOfWork(ctx)
	repo := uow.ResolutionRepository()

	request, err := repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if request.Timeline, err = repo.FindTimeline(ctx, id); err != nil {
		return nil, err
	}
	if request.AuditLog, err = repo.FindAudit(ctx, id); err != nil {
		return nil, err
	}

	resp := mapper.ResolutionToResponse(request)
	return &resp, nil
}
