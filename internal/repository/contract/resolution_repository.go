package contract

import (
	"context"

	"shopnest-be/internal/entity"
	"shopnest-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ResolutionRepository is the durable store for resolution requests.
// Pure data access; the state machine lives in the service layer.
type ResolutionRepository interface {
	Create(ctx context.Context, req *entity.ResolutionRequest) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ResolutionRequest, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ResolutionRequest, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// UpdateGuarded writes the request's mutable fields in a single UPDATE
	// guarded by `WHERE status = expected`. It returns false (and no error)
	// when the guard did not match, i.e. another writer got there first.
	UpdateGuarded(ctx context.Context, req *entity.ResolutionRequest, expected entity.Status) (bool, error)

	AppendTimeline(ctx context.Context, requestId uuid.UUID, stage string) error
	AppendAudit(ctx context.Context, entry *entity.AuditEntry) error
	FindTimeline(ctx context.Context, requestId uuid.UUID) ([]entity.TimelineEntry, error)
	FindAudit(ctx context.Context, requestId uuid.UUID) ([]entity.AuditEntry, error)
}
