package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"shopnest-be/internal/config"
	"shopnest-be/internal/dto"
	"shopnest-be/internal/entity"
	"shopnest-be/internal/model"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type reconcileHarness struct {
	store     *fakeStore
	refunder  *fakeRefunder
	publisher *fakePublisher
	service   *reconciliationService
}

func newReconcileHarness(pubSub *gochannel.GoChannel) *reconcileHarness {
	store := newFakeStore()
	refunder := &fakeRefunder{}
	publisher := &fakePublisher{}
	return &reconcileHarness{
		store:     store,
		refunder:  refunder,
		publisher: publisher,
		service: &reconciliationService{
			pubSub:    pubSub,
			topicName: "REFUND_RECONCILE",
			factory:   &fakeFactory{store: store},
			refunder:  refunder,
			publisher: publisher,
			logger:    noopLogger{},
			cfg: config.ResolutionConfig{
				ExternalCallTimeout: time.Second,
				ReconcileInterval:   time.Minute,
			},
		},
	}
}

func (h *reconcileHarness) seedInDoubtRefund() *entity.ResolutionRequest {
	request := &entity.ResolutionRequest{
		Id:         uuid.New(),
		OrderId:    "ORD-4001",
		CustomerId: uuid.New(),
		Type:       entity.RequestTypeReturn,
		Status:     entity.StatusRefundProcessing,
		Refund:     &entity.RefundInfo{Method: entity.RefundMethodOriginal, Amount: 129.85},
	}
	h.store.put(request)
	h.store.refunds[request.Id] = &model.RefundTransaction{
		RequestId: request.Id,
		Amount:    129.85,
		Method:    string(entity.RefundMethodOriginal),
		Status:    "processing",
	}
	return request
}

func TestReconcileSettlesViaGatewayStatus(t *testing.T) {
	h := newReconcileHarness(nil)
	request := h.seedInDoubtRefund()
	h.refunder.settled = true

	err := h.service.reconcile(context.Background(), request.Id)

	assert.NoError(t, err)
	assert.Equal(t, 1, h.refunder.statusCalls)
	assert.Equal(t, 0, h.refunder.issueCalls, "a settled refund must not be issued again")

	stored := h.store.requests[request.Id]
	assert.Equal(t, entity.StatusRefunded, stored.Status)
	assert.NotEmpty(t, stored.Refund.TransactionId)
	assert.NotNil(t, stored.Refund.CompletedAt)
	assert.Equal(t, "settled", h.store.refunds[request.Id].Status)
	assert.True(t, h.publisher.has("REFUND_COMPLETED"))
}

func TestReconcileReissuesWhenGatewayNeverExecuted(t *testing.T) {
	h := newReconcileHarness(nil)
	request := h.seedInDoubtRefund()
	h.refunder.settled = false

	err := h.service.reconcile(context.Background(), request.Id)

	assert.NoError(t, err)
	assert.Equal(t, 1, h.refunder.statusCalls)
	assert.Equal(t, 1, h.refunder.issueCalls, "the lost refund is re-issued under the same key")
	assert.Equal(t, entity.StatusRefunded, h.store.requests[request.Id].Status)
	assert.Equal(t, "settled", h.store.refunds[request.Id].Status)
}

func TestReconcileParksUnconfirmedReissue(t *testing.T) {
	h := newReconcileHarness(nil)
	request := h.seedInDoubtRefund()

	// The gateway deduped the re-issue but has not confirmed it yet: both
	// the status check and the re-issue come back unsettled without error.
	h.refunder.settled = false
	h.refunder.unsettled = true

	err := h.service.reconcile(context.Background(), request.Id)

	assert.NoError(t, err)
	assert.Equal(t, 1, h.refunder.statusCalls)
	assert.Equal(t, 1, h.refunder.issueCalls)
	assert.Equal(t, entity.StatusRefundProcessing, h.store.requests[request.Id].Status,
		"an unconfirmed refund must not be reported as refunded")
	assert.Equal(t, "processing", h.store.refunds[request.Id].Status)
	assert.False(t, h.publisher.has("REFUND_COMPLETED"))
	assert.Empty(t, h.store.timeline[request.Id])
}

func TestReconcileNoopWhenLedgerSettled(t *testing.T) {
	h := newReconcileHarness(nil)
	request := h.seedInDoubtRefund()
	h.store.refunds[request.Id].Status = "settled"

	err := h.service.reconcile(context.Background(), request.Id)

	assert.NoError(t, err)
	assert.Equal(t, 0, h.refunder.statusCalls)
	assert.Equal(t, 0, h.refunder.issueCalls)
}

func TestReconcileNoopWhenRequestMovedOn(t *testing.T) {
	h := newReconcileHarness(nil)
	request := h.seedInDoubtRefund()
	h.store.requests[request.Id].Status = entity.StatusRefunded

	err := h.service.reconcile(context.Background(), request.Id)

	assert.NoError(t, err)
	assert.Equal(t, 0, h.refunder.statusCalls, "only refund_processing requests are reconciled")
}

func TestSweepReconcilesPendingLedgerRows(t *testing.T) {
	h := newReconcileHarness(nil)
	request := h.seedInDoubtRefund()
	h.refunder.settled = true

	h.service.sweep(context.Background())

	assert.Equal(t, entity.StatusRefunded, h.store.requests[request.Id].Status)
	assert.Equal(t, "settled", h.store.refunds[request.Id].Status)
}

func TestConsumeProcessesReconcileJob(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	h := newReconcileHarness(pubSub)
	request := h.seedInDoubtRefund()
	h.refunder.settled = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.NoError(t, h.service.Consume(ctx))

	queue := NewPublisherService(pubSub, "REFUND_RECONCILE")
	payload, err := json.Marshal(dto.RefundReconcileMessage{RequestId: request.Id})
	assert.NoError(t, err)
	assert.NoError(t, queue.Publish(ctx, payload))

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if h.store.statusOf(request.Id) == entity.StatusRefunded {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, entity.StatusRefunded, h.store.statusOf(request.Id))
}
