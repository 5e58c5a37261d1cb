package service

import (
	"context"
	"errors"
	"os"
	"time"

	"shopnest-be/internal/dto"
	"shopnest-be/internal/pkg/apperrors"
	"shopnest-be/internal/pkg/logger"
	"shopnest-be/internal/repository/unitofwork"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	factory unitofwork.RepositoryFactory
	logger  logger.ILogger
}

func NewAuthService(factory unitofwork.RepositoryFactory, log logger.ILogger) IAuthService {
	return &authService{
		factory: factory,
		logger:  log,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.factory.NewUnitOfWork(ctx)

	user, err := uow.AdminUserRepository().FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewValidation("invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("AUTH", "Failed login attempt", map[string]interface{}{"email": req.Email})
		return nil, apperrors.NewValidation("invalid email or password")
	}

	claims := jwt.MapClaims{
		"user_id": user.Id.String(),
		"role":    user.Role,
		"exp":     time.Now().Add(12 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		return nil, err
	}

	s.logger.Info("AUTH", "Admin logged in", map[string]interface{}{"email": req.Email})

	return &dto.LoginResponse{
		Token:    signed,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	}, nil
}
