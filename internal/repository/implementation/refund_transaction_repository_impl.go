package implementation

import (
	"context"
	"errors"

	"shopnest-be/internal/model"
	"shopnest-be/internal/pkg/apperrors"
	"shopnest-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type refundTransactionRepository struct {
	db *gorm.DB
}

func NewRefundTransactionRepository(db *gorm.DB) contract.RefundTransactionRepository {
	return &refundTransactionRepository{db: db}
}

func (r *refundTransactionRepository) FindByRequestId(ctx context.Context, requestId uuid.UUID) (*model.RefundTransaction, error) {
	var tx model.RefundTransaction
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestId).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r *refundTransactionRepository) Create(ctx context.Context, tx *model.RefundTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *refundTransactionRepository) MarkSettled(ctx context.Context, requestId uuid.UUID, transactionId string) error {
	return r.db.WithContext(ctx).
		Model(&model.RefundTransaction{}).
		Where("request_id = ?", requestId).
		Updates(map[string]interface{}{
			"status":         "settled",
			"transaction_id": transactionId,
		}).Error
}

func (r *refundTransactionRepository) FindByStatus(ctx context.Context, status string) ([]*model.RefundTransaction, error) {
	var txs []*model.RefundTransaction
	if err := r.db.WithContext(ctx).Where("status = ?", status).Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}
