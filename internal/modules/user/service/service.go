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
	"gorm.io/gorm"
)

type UserService interface {
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	UpdateSelf(ctx context.Context, user *entity.User, req dto.UpdateUserRequest) (*entity.User, error)
}

type userService struct {
	repo   repository.UserRepository
	hasher *auth.Hasher
}

func NewUserService(repo repository.UserRepository, hasher *auth.Hasher) UserService {
	return &userService{repo: repo, hasher: hasher}
}

func (s *userService) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Wrap(apperror.ErrNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

// UpdateSelf applies the fields present in req to the calling user.
// Username and email are uniqueness-checked only when they actually change.
func (s *userService) UpdateSelf(ctx context.Context, user *entity.User, req dto.UpdateUserRequest) (*entity.User, error) {
	err := s.repo.Transaction(ctx, func(repo repository.UserRepository) error {
		if req.Username != nil && *req.Username != user.Username {
			if _, err := repo.FindByUsername(ctx, *req.Username); err == nil {
				return apperror.Wrap(apperror.ErrConflict, "username already taken")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			user.Username = *req.Username
		}

		if req.Email != nil && *req.Email != user.Email {
			if _, err := repo.FindByEmail(ctx, *req.Email); err == nil {
				return apperror.Wrap(apperror.ErrConflict, "email already registered")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			user.Email = *req.Email
		}

		if req.FullName != nil {
			user.FullName = req.FullName
		}

		if req.Password != nil {
			hashed, err := s.hasher.Hash(*req.Password)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}
			user.HashedPassword = hashed
		}

		return repo.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}
