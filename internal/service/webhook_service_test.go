package service

import (
	"context"
	"testing"
	"time"

	"shopnest-be/internal/dto"
	"shopnest-be/internal/entity"
	"shopnest-be/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type webhookHarness struct {
	store     *fakeStore
	publisher *fakePublisher
	service   IWebhookService
}

func newWebhookHarness() *webhookHarness {
	store := newFakeStore()
	publisher := &fakePublisher{}
	return &webhookHarness{
		store:     store,
		publisher: publisher,
		service:   NewWebhookService(&fakeFactory{store: store}, publisher, noopLogger{}, "whsec-test"),
	}
}

func (h *webhookHarness) seedPickupScheduled() *entity.ResolutionRequest {
	request := &entity.ResolutionRequest{
		Id:         uuid.New(),
		OrderId:    "ORD-3001",
		CustomerId: uuid.New(),
		Type:       entity.RequestTypeReturn,
		Status:     entity.StatusPickupScheduled,
		Pickup:     &entity.Pickup{Partner: "sicepat", Awb: "AWB-1", Status: "scheduled"},
		Refund:     &entity.RefundInfo{Method: entity.RefundMethodOriginal},
	}
	h.store.put(request)
	return request
}

func (h *webhookHarness) seedReplacementShipped() *entity.ResolutionRequest {
	request := &entity.ResolutionRequest{
		Id:         uuid.New(),
		OrderId:    "ORD-3002",
		CustomerId: uuid.New(),
		Type:       entity.RequestTypeReplacement,
		Status:     entity.StatusReplacementShipped,
		Pickup:     &entity.Pickup{Partner: "sicepat", Awb: "AWB-1", Status: "completed"},
		Shipment:   &entity.Shipment{Partner: "sicepat", Awb: "SHP-1", Status: "shipped"},
	}
	h.store.put(request)
	return request
}

func pickupEvent(requestId uuid.UUID, eventId, status string, ts time.Time) *dto.CourierWebhookRequest {
	return &dto.CourierWebhookRequest{
		EventId:   eventId,
		RequestId: requestId,
		Channel:   ChannelPickup,
		Status:    status,
		Timestamp: ts,
	}
}

func TestVerifySignature(t *testing.T) {
	h := newWebhookHarness()
	body := []byte(`{"event_id":"evt-1"}`)

	// HMAC-SHA256("whsec-test", body), hex encoded.
	valid := "ce4696dee0cc9b2a8af89edba90db1ce7f2e703bf66d26df6d60cfabaa68bbbd"

	assert.True(t, h.service.VerifySignature(body, valid))
	assert.False(t, h.service.VerifySignature(body, "deadbeef"))
	assert.False(t, h.service.VerifySignature([]byte(`tampered`), valid))
}

func TestPickupCompletedAdvancesRequest(t *testing.T) {
	h := newWebhookHarness()
	request := h.seedPickupScheduled()
	ts := time.Now()

	err := h.service.HandleCourierEvent(context.Background(), pickupEvent(request.Id, "evt-1", "completed", ts))

	assert.NoError(t, err)
	stored := h.store.requests[request.Id]
	assert.Equal(t, entity.StatusPickupCompleted, stored.Status)
	assert.Equal(t, "completed", stored.Pickup.Status)
	assert.NotNil(t, stored.Pickup.EventAt)
	assert.True(t, h.store.courierIds["evt-1"])
	assert.True(t, h.publisher.has("PICKUP_COMPLETED"))

	stages := make([]string, 0)
	for _, e := range h.store.timeline[request.Id] {
		stages = append(stages, e.Stage)
	}
	assert.Contains(t, stages, entity.StagePickupCompleted)
}

func TestPickupSubStatusDoesNotAdvanceLifecycle(t *testing.T) {
	h := newWebhookHarness()
	request := h.seedPickupScheduled()

	err := h.service.HandleCourierEvent(context.Background(), pickupEvent(request.Id, "evt-1", "driver_assigned", time.Now()))

	assert.NoError(t, err)
	stored := h.store.requests[request.Id]
	assert.Equal(t, entity.StatusPickupScheduled, stored.Status, "sub-status events leave the lifecycle alone")
	assert.Equal(t, "driver_assigned", stored.Pickup.Status)
	assert.Empty(t, h.store.timeline[request.Id])
	assert.Empty(t, h.publisher.events)
}

func TestDuplicateEventIsIgnored(t *testing.T) {
	h := newWebhookHarness()
	request := h.seedPickupScheduled()
	ts := time.Now()

	assert.NoError(t, h.service.HandleCourierEvent(context.Background(), pickupEvent(request.Id, "evt-1", "completed", ts)))
	assert.NoError(t, h.service.HandleCourierEvent(context.Background(), pickupEvent(request.Id, "evt-1", "completed", ts)))

	assert.Equal(t, entity.StatusPickupCompleted, h.store.requests[request.Id].Status)
	assert.Len(t, h.store.timeline[request.Id], 1, "the replayed delivery must not append a second milestone")
}

func TestStaleEventIsDiscarded(t *testing.T) {
	h := newWebhookHarness()
	request := h.seedPickupScheduled()
	newer := time.Now()
	older := newer.Add(-time.Minute)

	assert.NoError(t, h.service.HandleCourierEvent(context.Background(), pickupEvent(request.Id, "evt-2", "completed", newer)))

	// The delayed "driver_assigned" arrives after "completed" was applied.
	assert.NoError(t, h.service.HandleCourierEvent(context.Background(), pickupEvent(request.Id, "evt-1", "driver_assigned", older)))

	stored := h.store.requests[request.Id]
	assert.Equal(t, entity.StatusPickupCompleted, stored.Status)
	assert.Equal(t, "completed", stored.Pickup.Status, "the stale sub-status must not overwrite the newer one")
	assert.True(t, h.store.courierIds["evt-1"], "the stale event is still recorded as seen")
}

func TestEqualTimestampLosesTie(t *testing.T) {
	h := newWebhookHarness()
	request := h.seedPickupScheduled()
	ts := time.Now()

	assert.NoError(t, h.service.HandleCourierEvent(context.Background(), pickupEvent(request.Id, "evt-1", "completed", ts)))
	assert.NoError(t, h.service.HandleCourierEvent(context.Background(), pickupEvent(request.Id, "evt-2", "picked_up", ts)))

	stored := h.store.requests[request.Id]
	assert.Equal(t, "completed", stored.Pickup.Status, "an event carrying the watermark timestamp cannot be ordered, so it is dropped")
}

func TestShipmentDeliveredCompletesReplacement(t *testing.T) {
	h := newWebhookHarness()
	request := h.seedReplacementShipped()

	err := h.service.HandleCourierEvent(context.Background(), &dto.CourierWebhookRequest{
		EventId:   "evt-9",
		RequestId: request.Id,
		Channel:   ChannelShipment,
		Status:    "delivered",
		Timestamp: time.Now(),
	})

	assert.NoError(t, err)
	stored := h.store.requests[request.Id]
	assert.Equal(t, entity.StatusDelivered, stored.Status)
	assert.Equal(t, "delivered", stored.Shipment.Status)
	assert.True(t, h.publisher.has("RESOLUTION_DELIVERED"))
}

func TestPickupEventWithoutPickup(t *testing.T) {
	h := newWebhookHarness()
	request := &entity.ResolutionRequest{
		Id:     uuid.New(),
		Status: entity.StatusPending,
		Type:   entity.RequestTypeReturn,
	}
	h.store.put(request)

	err := h.service.HandleCourierEvent(context.Background(), pickupEvent(request.Id, "evt-1", "completed", time.Now()))

	assert.True(t, apperrors.IsValidation(err))

	audit := h.store.audit[request.Id]
	assert.NotEmpty(t, audit, "the rejected event must reach the trail")
	assert.Equal(t, "courier_event_failed", audit[len(audit)-1].Action)
	assert.Equal(t, "system:courier-webhook", audit[len(audit)-1].Actor)
}

func TestTerminalRequestDiscardsLateEvents(t *testing.T) {
	h := newWebhookHarness()
	request := &entity.ResolutionRequest{
		Id:         uuid.New(),
		OrderId:    "ORD-3003",
		CustomerId: uuid.New(),
		Type:       entity.RequestTypeReturn,
		Status:     entity.StatusRefunded,
		Pickup:     &entity.Pickup{Partner: "sicepat", Awb: "AWB-1", Status: "completed"},
		Refund:     &entity.RefundInfo{Method: entity.RefundMethodOriginal, Amount: 89.90},
	}
	h.store.put(request)

	err := h.service.HandleCourierEvent(context.Background(), pickupEvent(request.Id, "evt-late", "pod_scanned", time.Now()))

	assert.NoError(t, err)
	stored := h.store.requests[request.Id]
	assert.Equal(t, entity.StatusRefunded, stored.Status)
	assert.Equal(t, "completed", stored.Pickup.Status, "a terminal request must not take sub-status writes")
	assert.True(t, h.store.courierIds["evt-late"], "the event stays deduped so the carrier stops resending")
	assert.Empty(t, h.store.timeline[request.Id])
	assert.Empty(t, h.publisher.events)
}

func TestConflictRollsBackDedupeRow(t *testing.T) {
	h := newWebhookHarness()
	request := h.seedPickupScheduled()
	ts := time.Now()

	// Another writer moves the request while this event is in flight.
	h.store.beforeUpdate = func() {
		h.store.requests[request.Id].Status = entity.StatusRejected
	}

	err := h.service.HandleCourierEvent(context.Background(), pickupEvent(request.Id, "evt-1", "completed", ts))
	assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)
	assert.False(t, h.store.courierIds["evt-1"], "the dedupe row must roll back with the conflict")

	// The carrier retries the same event id once the dust settles.
	h.store.requests[request.Id].Status = entity.StatusPickupScheduled
	assert.NoError(t, h.service.HandleCourierEvent(context.Background(), pickupEvent(request.Id, "evt-1", "completed", ts)))
	assert.Equal(t, entity.StatusPickupCompleted, h.store.requests[request.Id].Status)
}

func TestUnknownChannelRejected(t *testing.T) {
	h := newWebhookHarness()
	request := h.seedPickupScheduled()

	err := h.service.HandleCourierEvent(context.Background(), &dto.CourierWebhookRequest{
		EventId:   "evt-1",
		RequestId: request.Id,
		Channel:   "warehouse",
		Status:    "completed",
		Timestamp: time.Now(),
	})

	assert.True(t, apperrors.IsValidation(err))
}
