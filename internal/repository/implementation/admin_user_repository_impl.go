package implementation

import (
	"context"
	"errors"

	"shopnest-be/internal/model"
	"shopnest-be/internal/pkg/apperrors"
	"shopnest-be/internal/repository/contract"

	"gorm.io/gorm"
)

type adminUserRepository struct {
	db *gorm.DB
}

func NewAdminUserRepository(db *gorm.DB) contract.AdminUserRepository {
	return &adminUserRepository{db: db}
}

func (r *adminUserRepository) FindByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	var user model.AdminUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *adminUserRepository) Create(ctx context.Context, user *model.AdminUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}
