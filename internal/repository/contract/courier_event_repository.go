package contract

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CourierEventRepository persists applied webhook events for deduplication.
type CourierEventRepository interface {
	// InsertOnce inserts the event keyed by its provider event id. Returns
	// false when the id was already recorded (duplicate delivery).
	InsertOnce(ctx context.Context, eventId string, requestId uuid.UUID, channel, status string, eventTime time.Time) (bool, error)

	// LastApplied returns the newest applied event time for a request's
	// sub-channel (pickup or shipment), or nil when none was applied yet.
	LastApplied(ctx context.Context, requestId uuid.UUID, channel string) (*time.Time, error)
}
