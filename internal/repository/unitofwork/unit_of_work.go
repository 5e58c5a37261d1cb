package unitofwork

import (
	"context"

	"shopnest-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ResolutionRepository() contract.ResolutionRepository
	AdminUserRepository() contract.AdminUserRepository
	CourierEventRepository() contract.CourierEventRepository
	InventoryRepository() contract.InventoryRepository
	RefundTransactionRepository() contract.RefundTransactionRepository
}
