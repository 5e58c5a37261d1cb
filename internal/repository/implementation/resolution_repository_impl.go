package implementation

import (
	"context"
	"errors"

	"shopnest-be/internal/entity"
	"shopnest-be/internal/mapper"
	"shopnest-be/internal/model"
	"shopnest-be/internal/pkg/apperrors"
	"shopnest-be/internal/repository/contract"
	"shopnest-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type resolutionRepository struct {
	db *gorm.DB
}

func NewResolutionRepository(db *gorm.DB) contract.ResolutionRepository {
	return &resolutionRepository{db: db}
}

func (r *resolutionRepository) Create(ctx context.Context, req *entity.ResolutionRequest) error {
	m, err := mapper.ResolutionToModel(req)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	req.Id = m.Id
	req.CreatedAt = m.CreatedAt
	req.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *resolutionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ResolutionRequest, error) {
	var m model.ResolutionRequest
	query := r.db.WithContext(ctx).Model(&model.ResolutionRequest{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return mapper.ResolutionToEntity(&m)
}

func (r *resolutionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ResolutionRequest, error) {
	var models []model.ResolutionRequest
	query := r.db.WithContext(ctx).Model(&model.ResolutionRequest{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	results := make([]*entity.ResolutionRequest, 0, len(models))
	for i := range models {
		e, err := mapper.ResolutionToEntity(&models[i])
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, nil
}

func (r *resolutionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.ResolutionRequest{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateGuarded is the compare-and-swap write. All mutable fields go out in
// one UPDATE whose WHERE clause pins the expected current status; zero rows
// affected means a concurrent writer already moved the request.
func (r *resolutionRepository) UpdateGuarded(ctx context.Context, req *entity.ResolutionRequest, expected entity.Status) (bool, error) {
	m, err := mapper.ResolutionToModel(req)
	if err != nil {
		return false, err
	}

	updates := map[string]interface{}{
		"status":        m.Status,
		"admin_comment": m.AdminComment,

		"original_items": m.OriginalItems,

		"pickup_partner":        m.PickupPartner,
		"pickup_awb":            m.PickupAwb,
		"pickup_scheduled_date": m.PickupScheduledDate,
		"pickup_status":         m.PickupStatus,
		"pickup_event_at":       m.PickupEventAt,

		"shipment_partner":  m.ShipmentPartner,
		"shipment_awb":      m.ShipmentAwb,
		"shipment_status":   m.ShipmentStatus,
		"shipment_event_at": m.ShipmentEventAt,

		"refund_method":         m.RefundMethod,
		"refund_amount":         m.RefundAmount,
		"refund_transaction_id": m.RefundTransactionId,
		"refund_completed_at":   m.RefundCompletedAt,
	}

	result := r.db.WithContext(ctx).
		Model(&model.ResolutionRequest{}).
		Where("id = ? AND status = ?", req.Id, string(expected)).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *resolutionRepository) AppendTimeline(ctx context.Context, requestId uuid.UUID, stage string) error {
	// Seq is derived inside the same transaction as the status change, so
	// the unique (request_id, seq) index cannot be violated by a sibling.
	var maxSeq int
	if err := r.db.WithContext(ctx).
		Model(&model.TimelineEntry{}).
		Where("request_id = ?", requestId).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error; err != nil {
		return err
	}

	entry := model.TimelineEntry{
		RequestId: requestId,
		Seq:       maxSeq + 1,
		Stage:     stage,
		Done:      true,
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

func (r *resolutionRepository) AppendAudit(ctx context.Context, entry *entity.AuditEntry) error {
	m := mapper.AuditToModel(entry)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *resolutionRepository) FindTimeline(ctx context.Context, requestId uuid.UUID) ([]entity.TimelineEntry, error) {
	var models []model.TimelineEntry
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestId).
		Order("seq ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	entries := make([]entity.TimelineEntry, 0, len(models))
	for i := range models {
		entries = append(entries, mapper.TimelineToEntity(&models[i]))
	}
	return entries, nil
}

func (r *resolutionRepository) FindAudit(ctx context.Context, requestId uuid.UUID) ([]entity.AuditEntry, error) {
	var models []model.AuditLog
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestId).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	entries := make([]entity.AuditEntry, 0, len(models))
	for i := range models {
		entries = append(entries, mapper.AuditToEntity(&models[i]))
	}
	return entries, nil
}
