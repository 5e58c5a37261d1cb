package courier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shopnest-be/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
)

// carrierStub is a minimal in-memory carrier aggregator. Bookings are stored
// by reference so the lookup-before-create behavior can be exercised.
type carrierStub struct {
	bookings   map[string]bookingResponse
	createHits int
	lookupHits int
	trackHits  int
	// failCreates makes the next N create calls return 503.
	failCreates int
}

func newCarrierStub() *carrierStub {
	return &carrierStub{bookings: make(map[string]bookingResponse)}
}

func (c *carrierStub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/bookings", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			c.lookupHits++
			ref := r.URL.Query().Get("reference")
			if booking, ok := c.bookings[ref]; ok {
				json.NewEncoder(w).Encode(booking)
				return
			}
			w.WriteHeader(http.StatusNotFound)
			return
		}

		c.createHits++
		if c.failCreates > 0 {
			c.failCreates--
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		var req bookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if len(req.Items) == 0 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message":"empty manifest"}`))
			return
		}

		scheduled := time.Now().Add(24 * time.Hour)
		booking := bookingResponse{
			Awb:           "AWB-" + req.Reference,
			Partner:       "sicepat",
			ScheduledDate: &scheduled,
			Status:        "scheduled",
		}
		c.bookings[req.Reference] = booking
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(booking)
	})

	mux.HandleFunc("/v1/tracking/", func(w http.ResponseWriter, r *http.Request) {
		c.trackHits++
		json.NewEncoder(w).Encode(map[string]string{"status": "in_transit"})
	})

	return mux
}

func newTestGateway(t *testing.T, stub *carrierStub) Gateway {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)
	return NewHTTPGateway(srv.URL, "test-key", 2*time.Second)
}

func TestSchedulePickupCreatesBooking(t *testing.T) {
	stub := newCarrierStub()
	gateway := newTestGateway(t, stub)

	result, err := gateway.SchedulePickup(context.Background(), "req-1", []PickupItem{
		{Sku: "SNK-RUN-42-BLK", Name: "Runner Sneaker", Qty: 1},
	})

	assert.NoError(t, err)
	assert.Equal(t, "AWB-req-1", result.Awb)
	assert.Equal(t, "sicepat", result.Partner)
	assert.False(t, result.ScheduledDate.IsZero())
	assert.Equal(t, 1, stub.createHits)
}

func TestSchedulePickupReusesExistingBooking(t *testing.T) {
	stub := newCarrierStub()
	gateway := newTestGateway(t, stub)

	items := []PickupItem{{Sku: "SNK-RUN-42-BLK", Name: "Runner Sneaker", Qty: 1}}

	first, err := gateway.SchedulePickup(context.Background(), "req-2", items)
	assert.NoError(t, err)

	// The retried call must resolve to the AWB the carrier already issued.
	second, err := gateway.SchedulePickup(context.Background(), "req-2", items)
	assert.NoError(t, err)

	assert.Equal(t, first.Awb, second.Awb)
	assert.Equal(t, 1, stub.createHits, "the second call must not create a new booking")
	assert.Equal(t, 2, stub.lookupHits)
}

func TestBookClassifiesServerErrorAsTransient(t *testing.T) {
	stub := newCarrierStub()
	stub.failCreates = 1
	gateway := newTestGateway(t, stub)

	_, err := gateway.SchedulePickup(context.Background(), "req-3", []PickupItem{
		{Sku: "SNK-RUN-42-BLK", Name: "Runner Sneaker", Qty: 1},
	})

	assert.True(t, apperrors.IsTransientCarrier(err))
}

func TestBookClassifiesRejectionAsPermanent(t *testing.T) {
	stub := newCarrierStub()
	gateway := newTestGateway(t, stub)

	_, err := gateway.SchedulePickup(context.Background(), "req-4", nil)

	assert.True(t, apperrors.IsCarrier(err))
	assert.False(t, apperrors.IsTransientCarrier(err), "a 4xx rejection must not be retried")
}

func TestBookClassifiesNetworkErrorAsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listens anymore

	gateway := NewHTTPGateway(srv.URL, "test-key", time.Second)
	_, err := gateway.SchedulePickup(context.Background(), "req-5", []PickupItem{
		{Sku: "SNK-RUN-42-BLK", Name: "Runner Sneaker", Qty: 1},
	})

	assert.True(t, apperrors.IsTransientCarrier(err))
}

func TestCreateShipmentUsesForwardDirection(t *testing.T) {
	stub := newCarrierStub()
	gateway := newTestGateway(t, stub)

	result, err := gateway.CreateShipment(context.Background(), "req-6", []PickupItem{
		{Sku: "SNK-RUN-43-BLK", Name: "Runner Sneaker", Qty: 1},
	})

	assert.NoError(t, err)
	assert.Equal(t, "AWB-req-6", result.Awb)
}

func TestTrackCachesStatus(t *testing.T) {
	stub := newCarrierStub()
	gateway := newTestGateway(t, stub)

	status, err := gateway.Track(context.Background(), "AWB-1")
	assert.NoError(t, err)
	assert.Equal(t, "in_transit", status)

	_, err = gateway.Track(context.Background(), "AWB-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, stub.trackHits, "the second lookup must be served from cache")
}
