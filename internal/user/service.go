package user

import (
	"context"
	"strings"

	"shoply-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, input RegisterInput) (string, *User, error)
	Login(ctx context.Context, input LoginInput) (string, *User, error)
}

type service struct {
	repo   Repository
	tokens *TokenManager
}

func NewService(repo Repository, tokens *TokenManager) Service {
	return &service{repo: repo, tokens: tokens}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (string, *User, error) {
	log := logger.FromCtx(ctx)

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return "", nil, ErrInvalidInput
	}
	if len(input.Password) < 8 {
		return "", nil, ErrWeakPassword
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", nil, err
	}

	u, err := s.repo.Create(ctx, input.Username, input.Email, hashed)
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Generate(u.ID, u.Email)
	if err != nil {
		log.Error("failed to generate jwt", zap.Uint("user_id", u.ID), zap.Error(err))
		return "", nil, err
	}

	log.Info("register service completed", zap.Uint("user_id", u.ID))

	return token, u, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (string, *User, error) {
	log := logger.FromCtx(ctx)

	u, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		log.Debug("login: email not found", zap.Error(err))
		return "", nil, ErrInvalidCredentials
	}

	if !CheckPasswordHash(input.Password, u.Password) {
		log.Debug("login: password mismatch", zap.Uint("user_id", u.ID))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(u.ID, u.Email)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}
