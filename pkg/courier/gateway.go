package courier

import (
	"context"
	"time"
)

// PickupResult is what the carrier returns once a reverse pickup is booked.
type PickupResult struct {
	Awb           string
	Partner       string
	ScheduledDate time.Time
}

// ShipmentResult is the booking confirmation for a replacement delivery.
type ShipmentResult struct {
	Awb     string
	Partner string
}

// PickupItem is one line of the parcel manifest.
type PickupItem struct {
	Sku  string
	Name string
	Qty  int
}

// Gateway is the carrier integration boundary. Implementations return
// apperrors.CarrierError so callers can distinguish transient failures
// (worth retrying) from permanent rejections.
type Gateway interface {
	// SchedulePickup books a reverse pickup for a resolution request. The
	// requestId doubles as the carrier-side reference so a retried booking
	// resolves to the already-issued AWB instead of creating a second one.
	SchedulePickup(ctx context.Context, requestId string, items []PickupItem) (*PickupResult, error)

	// CreateShipment books the outbound replacement delivery.
	CreateShipment(ctx context.Context, requestId string, items []PickupItem) (*ShipmentResult, error)

	// Track returns the carrier's latest known status for an AWB.
	Track(ctx context.Context, awb string) (string, error)
}
