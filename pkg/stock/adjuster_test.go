package stock

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopnest-be/internal/entity"
	"shopnest-be/internal/pkg/apperrors"
	"shopnest-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stubLogger struct{}

func (stubLogger) Debug(module, message string, details map[string]interface{}) {}
func (stubLogger) Info(module, message string, details map[string]interface{})  {}
func (stubLogger) Warn(module, message string, details map[string]interface{})  {}
func (stubLogger) Error(module, message string, details map[string]interface{}) {}
func (stubLogger) Sync() error                                                  { return nil }

type memInventory struct {
	levels      map[string]*entity.StockLevel
	adjustments map[string]bool
	deltaCalls  int
}

func newMemInventory() *memInventory {
	return &memInventory{
		levels:      make(map[string]*entity.StockLevel),
		adjustments: make(map[string]bool),
	}
}

func (m *memInventory) FindStock(ctx context.Context, sku string) (*entity.StockLevel, error) {
	if level, ok := m.levels[sku]; ok {
		return level, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *memInventory) RecordAdjustment(ctx context.Context, adj *entity.StockAdjustment) (bool, error) {
	key := adj.RequestId.String() + "|" + adj.Sku
	if m.adjustments[key] {
		return false, nil
	}
	m.adjustments[key] = true
	return true, nil
}

func (m *memInventory) ApplyDelta(ctx context.Context, sku string, qty int, action entity.StockAction) error {
	m.deltaCalls++
	level, ok := m.levels[sku]
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

func (m *memInventory) FindAdjustments(ctx context.Context, requestId uuid.UUID) ([]entity.StockAdjustment, error) {
	return nil, nil
}

// memUow only serves the inventory repository; the adjuster touches nothing else.
type memUow struct {
	inventory *memInventory
}

func (u *memUow) Begin(ctx context.Context) error { return nil }
func (u *memUow) Commit() error                   { return nil }
func (u *memUow) Rollback() error                 { return nil }

func (u *memUow) ResolutionRepository() contract.ResolutionRepository { return nil }
func (u *memUow) AdminUserRepository() contract.AdminUserRepository   { return nil }
func (u *memUow) CourierEventRepository() contract.CourierEventRepository {
	return nil
}
func (u *memUow) InventoryRepository() contract.InventoryRepository { return u.inventory }
func (u *memUow) RefundTransactionRepository() contract.RefundTransactionRepository {
	return nil
}

func items() []entity.ResolutionItem {
	return []entity.ResolutionItem{
		{Sku: "SNK-RUN-42-BLK", Name: "Runner Sneaker", Qty: 1, PaidPrice: 89.90},
		{Sku: "TSH-CRW-M-WHT", Name: "Crew T-Shirt", Qty: 2, PaidPrice: 19.95},
	}
}

func TestAdjustOnceRestocks(t *testing.T) {
	inv := newMemInventory()
	inv.levels["SNK-RUN-42-BLK"] = &entity.StockLevel{Sku: "SNK-RUN-42-BLK", Available: 10, UpdatedAt: time.Now()}
	inv.levels["TSH-CRW-M-WHT"] = &entity.StockLevel{Sku: "TSH-CRW-M-WHT", Available: 50, UpdatedAt: time.Now()}

	adjuster := NewAdjuster(stubLogger{})
	err := adjuster.AdjustOnce(context.Background(), &memUow{inventory: inv}, uuid.New(), items(), entity.StockActionRestock)

	assert.NoError(t, err)
	assert.Equal(t, 11, inv.levels["SNK-RUN-42-BLK"].Available)
	assert.Equal(t, 52, inv.levels["TSH-CRW-M-WHT"].Available)
}

func TestAdjustOnceDiscardsToWriteOff(t *testing.T) {
	inv := newMemInventory()
	inv.levels["SNK-RUN-42-BLK"] = &entity.StockLevel{Sku: "SNK-RUN-42-BLK", Available: 10}
	inv.levels["TSH-CRW-M-WHT"] = &entity.StockLevel{Sku: "TSH-CRW-M-WHT", Available: 50}

	adjuster := NewAdjuster(stubLogger{})
	err := adjuster.AdjustOnce(context.Background(), &memUow{inventory: inv}, uuid.New(), items(), entity.StockActionDiscard)

	assert.NoError(t, err)
	assert.Equal(t, 10, inv.levels["SNK-RUN-42-BLK"].Available, "discard must not raise sellable stock")
	assert.Equal(t, 1, inv.levels["SNK-RUN-42-BLK"].WrittenOff)
	assert.Equal(t, 2, inv.levels["TSH-CRW-M-WHT"].WrittenOff)
}

func TestAdjustOnceIsIdempotentPerRequest(t *testing.T) {
	inv := newMemInventory()
	inv.levels["SNK-RUN-42-BLK"] = &entity.StockLevel{Sku: "SNK-RUN-42-BLK", Available: 10}
	inv.levels["TSH-CRW-M-WHT"] = &entity.StockLevel{Sku: "TSH-CRW-M-WHT", Available: 50}

	adjuster := NewAdjuster(stubLogger{})
	requestId := uuid.New()
	uow := &memUow{inventory: inv}

	assert.NoError(t, adjuster.AdjustOnce(context.Background(), uow, requestId, items(), entity.StockActionRestock))
	assert.NoError(t, adjuster.AdjustOnce(context.Background(), uow, requestId, items(), entity.StockActionRestock))

	assert.Equal(t, 11, inv.levels["SNK-RUN-42-BLK"].Available, "a replay must not double-apply")
	assert.Equal(t, 2, inv.deltaCalls, "one delta per sku, replay skipped")
}

func TestAdjustOnceWrapsUnknownSku(t *testing.T) {
	inv := newMemInventory()

	adjuster := NewAdjuster(stubLogger{})
	err := adjuster.AdjustOnce(context.Background(), &memUow{inventory: inv}, uuid.New(), items(), entity.StockActionRestock)

	assert.True(t, apperrors.IsInventory(err))
}
