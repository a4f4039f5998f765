package user

import (
	"context"
	"errors"

	"kantinku-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Login(ctx context.Context, email, password string) (string, *User, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Login checks credentials and issues the actor token the dashboard and
// mobile client attach to every request.
func (s *service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !CheckPasswordHash(password, u.PasswordHash) {
		logger.FromCtx(ctx).Warn("failed login attempt", zap.String("email", email))
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateJWT(u.ID, u.Role, u.Email, u.CafeteriaID)
	if err != nil {
		return "", nil, err
	}

	return token, u, nil
}
