package implementation

import (
	"context"
	"errors"

	"shopnest-be/internal/entity"
	"shopnest-be/internal/mapper"
	"shopnest-be/internal/model"
	"shopnest-be/internal/pkg/apperrors"
	"shopnest-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) contract.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) FindStock(ctx context.Context, sku string) (*entity.StockLevel, error) {
	var m model.StockLevel
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return mapper.StockLevelToEntity(&m), nil
}

func (r *inventoryRepository) RecordAdjustment(ctx context.Context, adj *entity.StockAdjustment) (bool, error) {
	m := mapper.StockAdjustmentToModel(adj)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}, {Name: "sku"}},
			DoNothing: true,
		}).
		Create(m)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *inventoryRepository) ApplyDelta(ctx context.Context, sku string, qty int, action entity.StockAction) error {
	column := "available"
	if action == entity.StockActionDiscard {
		column = "written_off"
	}
	result := r.db.WithContext(ctx).
		Model(&model.StockLevel{}).
		Where("sku = ?", sku).
		Update(column, gorm.Expr(column+" + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) FindAdjustments(ctx context.Context, requestId uuid.UUID) ([]entity.StockAdjustment, error) {
	var models []model.StockAdjustment
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestId).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	adjustments := make([]entity.StockAdjustment, 0, len(models))
	for i := range models {
		adjustments = append(adjustments, mapper.StockAdjustmentToEntity(&models[i]))
	}
	return adjustments, nil
}
