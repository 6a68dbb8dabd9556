package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lessonforge/lessonplan-api/internal/entity"
	"github.com/lessonforge/lessonplan-api/internal/modules/user/dto"
	"github.com/lessonforge/lessonplan-api/internal/modules/user/repository"
	"github.com/lessonforge/lessonplan-api/pkg/apperror"
	"github.com/lessonforge/lessonplan-api/pkg/auth"
	"github.com/lessonforge/lessonplan-api/pkg/ratelimiter"
	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, clientKey string, req dto.RegisterRequest) (*entity.User, error)
	Login(ctx context.Context, clientKey string, form dto.LoginForm) (*dto.TokenResponse, error)
}

type authService struct {
	repo    repository.UserRepository
	hasher  *auth.Hasher
	tokens  *auth.TokenService
	limiter *ratelimiter.Limiter
}

func NewAuthService(repo repository.UserRepository, hasher *auth.Hasher, tokens *auth.TokenService, limiter *ratelimiter.Limiter) AuthService {
	return &authService{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		limiter: limiter,
	}
}

func (s *authService) Register(ctx context.Context, clientKey string, req dto.RegisterRequest) (*entity.User, error) {
	if err := s.checkRateLimit(ctx, clientKey, ratelimiter.ActionRegister); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &entity.User{
		Email:          req.Email,
		Username:       req.Username,
		FullName:       req.FullName,
		HashedPassword: hashed,
		IsActive:       true,
	}

	err = s.repo.Transaction(ctx, func(repo repository.UserRepository) error {
		if _, err := repo.FindByEmail(ctx, req.Email); err == nil {
			return apperror.Wrap(apperror.ErrConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if _, err := repo.FindByUsername(ctx, req.Username); err == nil {
			return apperror.Wrap(apperror.ErrConflict, "username already taken")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return repo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, clientKey string, form dto.LoginForm) (*dto.TokenResponse, error) {
	if err := s.checkRateLimit(ctx, clientKey, ratelimiter.ActionLogin); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByUsername(ctx, form.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Wrap(apperror.ErrUnauthorized, "incorrect username or password")
		}
		return nil, err
	}

	if err := s.hasher.Verify(user.HashedPassword, form.Password); err != nil {
		return nil, apperror.Wrap(apperror.ErrUnauthorized, "incorrect username or password")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

func (s *authService) checkRateLimit(ctx context.Context, clientKey, action string) error {
	allowed, retryAfter, err := s.limiter.Allow(ctx, clientKey, action)
	if err != nil {
		return err
	}
	if !allowed {
		return &ratelimiter.RateLimitError{RetryAfter: retryAfter}
	}
	return nil
}
