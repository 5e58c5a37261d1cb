package unitofwork

import (
	"context"
	"fmt"

	"shopnest-be/internal/repository/contract"
	"shopnest-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) ResolutionRepository() contract.ResolutionRepository {
	return implementation.NewResolutionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) AdminUserRepository() contract.AdminUserRepository {
	return implementation.NewAdminUserRepository(u.getDB())
}

func (u *UnitOfWorkImpl) CourierEventRepository() contract.CourierEventRepository {
	return implementation.NewCourierEventRepository(u.getDB())
}

func (u *UnitOfWorkImpl) InventoryRepository() contract.InventoryRepository {
	return implementation.NewInventoryRepository(u.getDB())
}

func (u *UnitOfWorkImpl) RefundTransactionRepository() contract.RefundTransactionRepository {
	return implementation.NewRefundTransactionRepository(u.getDB())
}
