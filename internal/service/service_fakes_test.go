package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"shopnest-be/internal/entity"
	"shopnest-be/internal/model"
	"shopnest-be/internal/pkg/apperrors"
	"shopnest-be/internal/repository/contract"
	"shopnest-be/internal/repository/specification"
	"shopnest-be/internal/repository/unitofwork"
	"shopnest-be/pkg/courier"
	"shopnest-be/pkg/payment"

	"github.com/google/uuid"
)

// noopLogger satisfies logger.ILogger without producing output.
type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

// fakeStore is the shared in-memory backing for all fake repositories.
// Courier event ids are staged per unit of work and only survive Commit,
// mirroring the transactional dedupe behavior the webhook service relies on.
type fakeStore struct {
	mu          sync.Mutex
	requests    map[uuid.UUID]*entity.ResolutionRequest
	timeline    map[uuid.UUID][]entity.TimelineEntry
	audit       map[uuid.UUID][]entity.AuditEntry
	courierIds  map[string]bool
	refunds     map[uuid.UUID]*model.RefundTransaction
	stock       map[string]*entity.StockLevel
	adjustments map[string]bool // requestId + "|" + sku
	admins      map[string]*model.AdminUser

	// beforeUpdate runs just before UpdateGuarded checks its guard, letting a
	// test simulate a concurrent writer sneaking in between read and write.
	beforeUpdate func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests:    make(map[uuid.UUID]*entity.ResolutionRequest),
		timeline:    make(map[uuid.UUID][]entity.TimelineEntry),
		audit:       make(map[uuid.UUID][]entity.AuditEntry),
		courierIds:  make(map[string]bool),
		refunds:     make(map[uuid.UUID]*model.RefundTransaction),
		stock:       make(map[string]*entity.StockLevel),
		adjustments: make(map[string]bool),
		admins:      make(map[string]*model.AdminUser),
	}
}

func (s *fakeStore) put(req *entity.ResolutionRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.Id] = cloneRequest(req)
}

// statusOf is safe to poll while a consumer goroutine applies updates.
func (s *fakeStore) statusOf(id uuid.UUID) entity.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req, ok := s.requests[id]; ok {
		return req.Status
	}
	return ""
}

func cloneRequest(req *entity.ResolutionRequest) *entity.ResolutionRequest {
	clone := *req
	clone.OriginalItems = append([]entity.ResolutionItem(nil), req.OriginalItems...)
	clone.ReplacementItems = append([]entity.ReplacementItem(nil), req.ReplacementItems...)
	if req.Pickup != nil {
		pickup := *req.Pickup
		clone.Pickup = &pickup
	}
	if req.Shipment != nil {
		shipment := *req.Shipment
		clone.Shipment = &shipment
	}
	if req.Refund != nil {
		refund := *req.Refund
		clone.Refund = &refund
	}
	return &clone
}

// fakeFactory hands out units of work sharing one store.
type fakeFactory struct {
	store *fakeStore
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store *fakeStore
	// pendingEvents holds courier event ids staged in this transaction.
	pendingEvents []string
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }

func (u *fakeUow) Commit() error {
	for _, id := range u.pendingEvents {
		u.store.courierIds[id] = true
	}
	u.pendingEvents = nil
	return nil
}

func (u *fakeUow) Rollback() error {
	u.pendingEvents = nil
	return nil
}

func (u *fakeUow) ResolutionRepository() contract.ResolutionRepository {
	return &fakeResolutionRepo{store: u.store}
}

func (u *fakeUow) AdminUserRepository() contract.AdminUserRepository {
	return &fakeAdminRepo{store: u.store}
}

func (u *fakeUow) CourierEventRepository() contract.CourierEventRepository {
	return &fakeCourierEventRepo{uow: u}
}

func (u *fakeUow) InventoryRepository() contract.InventoryRepository {
	return &fakeInventoryRepo{store: u.store}
}

func (u *fakeUow) RefundTransactionRepository() contract.RefundTransactionRepository {
	return &fakeRefundRepo{store: u.store}
}

type fakeResolutionRepo struct {
	store *fakeStore
}

func (r *fakeResolutionRepo) Create(ctx context.Context, req *entity.ResolutionRequest) error {
	if req.Id == uuid.Nil {
		req.Id = uuid.New()
	}
	r.store.put(req)
	return nil
}

func (r *fakeResolutionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ResolutionRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			if req, found := r.store.requests[byID.ID]; found {
				return cloneRequest(req), nil
			}
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeResolutionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ResolutionRequest, error) {
	out := make([]*entity.ResolutionRequest, 0, len(r.store.requests))
	for _, req := range r.store.requests {
		out = append(out, cloneRequest(req))
	}
	return out, nil
}

func (r *fakeResolutionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.store.requests)), nil
}

func (r *fakeResolutionRepo) UpdateGuarded(ctx context.Context, req *entity.ResolutionRequest, expected entity.Status) (bool, error) {
	if r.store.beforeUpdate != nil {
		hook := r.store.beforeUpdate
		r.store.beforeUpdate = nil
		hook()
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, found := r.store.requests[req.Id]
	if !found {
		return false, apperrors.ErrNotFound
	}
	if current.Status != expected {
		return false, nil
	}
	r.store.requests[req.Id] = cloneRequest(req)
	return true, nil
}

func (r *fakeResolutionRepo) AppendTimeline(ctx context.Context, requestId uuid.UUID, stage string) error {
	entries := r.store.timeline[requestId]
	r.store.timeline[requestId] = append(entries, entity.TimelineEntry{
		Id:        uuid.New(),
		RequestId: requestId,
		Seq:       len(entries) + 1,
		Stage:     stage,
		Done:      true,
		CreatedAt: time.Now(),
	})
	return nil
}

func (r *fakeResolutionRepo) AppendAudit(ctx context.Context, entry *entity.AuditEntry) error {
	entry.Id = uuid.New()
	entry.CreatedAt = time.Now()
	r.store.audit[entry.RequestId] = append(r.store.audit[entry.RequestId], *entry)
	return nil
}

func (r *fakeResolutionRepo) FindTimeline(ctx context.Context, requestId uuid.UUID) ([]entity.TimelineEntry, error) {
	return r.store.timeline[requestId], nil
}

func (r *fakeResolutionRepo) FindAudit(ctx context.Context, requestId uuid.UUID) ([]entity.AuditEntry, error) {
	return r.store.audit[requestId], nil
}

type fakeAdminRepo struct {
	store *fakeStore
}

func (r *fakeAdminRepo) FindByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	if user, ok := r.store.admins[email]; ok {
		return user, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeAdminRepo) Create(ctx context.Context, user *model.AdminUser) error {
	r.store.admins[user.Email] = user
	return nil
}

type fakeCourierEventRepo struct {
	uow *fakeUow
}

func (r *fakeCourierEventRepo) InsertOnce(ctx context.Context, eventId string, requestId uuid.UUID, channel, status string, eventTime time.Time) (bool, error) {
	if r.uow.store.courierIds[eventId] {
		return false, nil
	}
	for _, pending := range r.uow.pendingEvents {
		if pending == eventId {
			return false, nil
		}
	}
	r.uow.pendingEvents = append(r.uow.pendingEvents, eventId)
	return true, nil
}

func (r *fakeCourierEventRepo) LastApplied(ctx context.Context, requestId uuid.UUID, channel string) (*time.Time, error) {
	return nil, nil
}

type fakeInventoryRepo struct {
	store *fakeStore
}

func (r *fakeInventoryRepo) FindStock(ctx context.Context, sku string) (*entity.StockLevel, error) {
	if level, ok := r.store.stock[sku]; ok {
		return level, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeInventoryRepo) RecordAdjustment(ctx context.Context, adj *entity.StockAdjustment) (bool, error) {
	key := adj.RequestId.String() + "|" + adj.Sku
	if r.store.adjustments[key] {
		return false, nil
	}
	r.store.adjustments[key] = true
	return true, nil
}

func (r *fakeInventoryRepo) ApplyDelta(ctx context.Context, sku string, qty int, action entity.StockAction) error {
	level, ok := r.store.stock[sku]
	if !ok {
		return errors.New("unknown sku")
	}
	if action == entity.StockActionRestock {
		level.Available += qty
	} else {
		level.WrittenOff += qty
	}
	return nil
}

func (r *fakeInventoryRepo) FindAdjustments(ctx context.Context, requestId uuid.UUID) ([]entity.StockAdjustment, error) {
	return nil, nil
}

type fakeRefundRepo struct {
	store *fakeStore
}

func (r *fakeRefundRepo) FindByRequestId(ctx context.Context, requestId uuid.UUID) (*model.RefundTransaction, error) {
	if tx, ok := r.store.refunds[requestId]; ok {
		return tx, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeRefundRepo) Create(ctx context.Context, tx *model.RefundTransaction) error {
	r.store.refunds[tx.RequestId] = tx
	return nil
}

func (r *fakeRefundRepo) MarkSettled(ctx context.Context, requestId uuid.UUID, transactionId string) error {
	tx, ok := r.store.refunds[requestId]
	if !ok {
		return apperrors.ErrNotFound
	}
	tx.Status = "settled"
	tx.TransactionId = transactionId
	return nil
}

func (r *fakeRefundRepo) FindByStatus(ctx context.Context, status string) ([]*model.RefundTransaction, error) {
	var out []*model.RefundTransaction
	for _, tx := range r.store.refunds {
		if tx.Status == status {
			out = append(out, tx)
		}
	}
	return out, nil
}

// fakeGateway emulates the carrier. Bookings are reference-keyed so a
// retried call for the same request resolves to the AWB already issued.
type fakeGateway struct {
	pickupCalls   int
	shipmentCalls int
	failTransient int
	failPermanent bool
	bookings      map[string]string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{bookings: make(map[string]string)}
}

func (g *fakeGateway) SchedulePickup(ctx context.Context, requestId string, items []courier.PickupItem) (*courier.PickupResult, error) {
	g.pickupCalls++
	if g.failPermanent {
		return nil, &apperrors.CarrierError{Op: "pickup", Err: errors.New("address not serviceable")}
	}
	if g.failTransient > 0 {
		g.failTransient--
		return nil, &apperrors.CarrierError{Transient: true, Op: "pickup", Err: errors.New("gateway timeout")}
	}
	awb, ok := g.bookings[requestId]
	if !ok {
		awb = "AWB-" + requestId[:8]
		g.bookings[requestId] = awb
	}
	return &courier.PickupResult{
		Awb:           awb,
		Partner:       "sicepat",
		ScheduledDate: time.Now().Add(24 * time.Hour),
	}, nil
}

func (g *fakeGateway) CreateShipment(ctx context.Context, requestId string, items []courier.PickupItem) (*courier.ShipmentResult, error) {
	g.shipmentCalls++
	if g.failPermanent {
		return nil, &apperrors.CarrierError{Op: "shipment", Err: errors.New("address not serviceable")}
	}
	awb, ok := g.bookings[requestId]
	if !ok {
		awb = "SHP-" + requestId[:8]
		g.bookings[requestId] = awb
	}
	return &courier.ShipmentResult{Awb: awb, Partner: "sicepat"}, nil
}

func (g *fakeGateway) Track(ctx context.Context, awb string) (string, error) {
	return "in_transit", nil
}

// fakeRefunder emulates the payment gateway refund rail.
type fakeRefunder struct {
	issueCalls  int
	statusCalls int
	timeout     bool
	settled     bool // answer for Status
	unsettled   bool // Issue resolves without confirmation, like a deduped re-issue
}

func (r *fakeRefunder) Issue(ctx context.Context, requestId, orderId string, amount float64, reason string) (*payment.RefundResult, error) {
	r.issueCalls++
	if r.timeout {
		return nil, &apperrors.PaymentGatewayError{Timeout: true, Err: context.DeadlineExceeded}
	}
	if r.unsettled {
		return &payment.RefundResult{Settled: false}, nil
	}
	return &payment.RefundResult{TransactionId: "TXN-" + requestId[:8], Settled: true}, nil
}

func (r *fakeRefunder) Status(ctx context.Context, requestId, orderId string) (*payment.RefundResult, error) {
	r.statusCalls++
	if r.settled {
		return &payment.RefundResult{TransactionId: "TXN-" + requestId[:8], Settled: true}, nil
	}
	return &payment.RefundResult{Settled: false}, nil
}

// fakePublisher records workflow events by type.
type fakePublisher struct {
	events []string
}

func (p *fakePublisher) record(event string) {
	p.events = append(p.events, event)
}

func (p *fakePublisher) PublishResolutionSubmitted(ctx context.Context, requestId uuid.UUID, orderId, requestType string) {
	p.record("RESOLUTION_SUBMITTED")
}

func (p *fakePublisher) PublishResolutionApproved(ctx context.Context, requestId uuid.UUID, orderId, awb string) {
	p.record("RESOLUTION_APPROVED")
}

func (p *fakePublisher) PublishResolutionRejected(ctx context.Context, requestId uuid.UUID, orderId, comment string) {
	p.record("RESOLUTION_REJECTED")
}

func (p *fakePublisher) PublishPickupCompleted(ctx context.Context, requestId uuid.UUID, orderId string) {
	p.record("PICKUP_COMPLETED")
}

func (p *fakePublisher) PublishReplacementShipped(ctx context.Context, requestId uuid.UUID, orderId, awb string) {
	p.record("REPLACEMENT_SHIPPED")
}

func (p *fakePublisher) PublishRefundCompleted(ctx context.Context, requestId uuid.UUID, orderId string, amount float64, transactionId string) {
	p.record("REFUND_COMPLETED")
}

func (p *fakePublisher) PublishResolutionDelivered(ctx context.Context, requestId uuid.UUID, orderId string) {
	p.record("RESOLUTION_DELIVERED")
}

func (p *fakePublisher) has(event string) bool {
	for _, e := range p.events {
		if e == event {
			return true
		}
	}
	return false
}

// fakeQueue records reconciliation payloads.
type fakeQueue struct {
	payloads [][]byte
}

func (q *fakeQueue) Publish(ctx context.Context, payload []byte) error {
	q.payloads = append(q.payloads, payload)
	return nil
}
