package stock

import (
	"context"
	"fmt"

	"shopnest-be/internal/entity"
	"shopnest-be/internal/pkg/apperrors"
	"shopnest-be/internal/pkg/logger"
	"shopnest-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Adjuster applies the verify-and-resolve stock decision to the inventory
// ledger. It runs inside the caller's unit of work so the adjustment commits
// or rolls back together with the request's status change.
type Adjuster struct {
	logger logger.ILogger
}

func NewAdjuster(logger logger.ILogger) *Adjuster {
	return &Adjuster{logger: logger}
}

// AdjustOnce applies restock/discard for each item of the request exactly
// once. The adjustment ledger's unique (request_id, sku) key makes replays a
// no-op: an already-recorded sku is skipped without touching stock levels.
func (a *Adjuster) AdjustOnce(ctx context.Context, uow unitofwork.UnitOfWork, requestId uuid.UUID, items []entity.ResolutionItem, action entity.StockAction) error {
	repo := uow.InventoryRepository()

	for _, item := range items {
		applied, err := repo.RecordAdjustment(ctx, &entity.StockAdjustment{
			RequestId: requestId,
			Sku:       item.Sku,
			Qty:       item.Qty,
			Action:    action,
		})
		if err != nil {
			return &apperrors.InventoryError{Sku: item.Sku, Err: err}
		}
		if !applied {
			a.logger.Info("STOCK", "Adjustment already applied, skipping", map[string]interface{}{
				"requestId": requestId.String(),
				"sku":       item.Sku,
			})
			continue
		}

		if err := repo.ApplyDelta(ctx, item.Sku, item.Qty, action); err != nil {
			return &apperrors.InventoryError{
				Sku: item.Sku,
				Err: fmt.Errorf("apply %s of %d units: %w", action, item.Qty, err),
			}
		}

		a.logger.Info("STOCK", "Stock adjusted", map[string]interface{}{
			"requestId": requestId.String(),
			"sku":       item.Sku,
			"qty":       item.Qty,
			"action":    string(action),
		})
	}

	return nil
}
