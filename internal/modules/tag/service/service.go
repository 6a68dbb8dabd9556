package service

import (
	"context"
	"errors"

	"github.com/lessonforge/lessonplan-api/internal/entity"
	"github.com/lessonforge/lessonplan-api/internal/modules/tag/dto"
	"github.com/lessonforge/lessonplan-api/internal/modules/tag/repository"
	"github.com/lessonforge/lessonplan-api/pkg/apperror"
	"gorm.io/gorm"
)

type TagService interface {
	Create(ctx context.Context, req dto.CreateTagRequest) (*entity.Tag, error)
	List(ctx context.Context, skip, limit int) ([]*entity.Tag, error)
	GetByID(ctx context.Context, id uint) (*entity.Tag, error)
	Delete(ctx context.Context, id uint) error
}

type tagService struct {
	repo repository.TagRepository
}

func NewTagService(repo repository.TagRepository) TagService {
	return &tagService{repo: repo}
}

// Create rejects duplicate names. The match is case-sensitive and exact;
// "Math" and "math" are distinct tags.
func (s *tagService) Create(ctx context.Context, req dto.CreateTagRequest) (*entity.Tag, error) {
	tag := &entity.Tag{
		Name:        req.Name,
		Description: req.Description,
	}

	err := s.repo.Transaction(ctx, func(repo repository.TagRepository) error {
		if _, err := repo.FindByName(ctx, req.Name); err == nil {
			return apperror.Wrap(apperror.ErrConflict, "tag with this name already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return repo.Create(ctx, tag)
	})
	if err != nil {
		return nil, err
	}

	return tag, nil
}

func (s *tagService) List(ctx context.Context, skip, limit int) ([]*entity.Tag, error) {
	tags, err := s.repo.FindAll(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []*entity.Tag{}
	}
	return tags, nil
}

func (s *tagService) GetByID(ctx context.Context, id uint) (*entity.Tag, error) {
	tag, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Wrap(apperror.ErrNotFound, "tag not found")
		}
		return nil, err
	}
	return tag, nil
}

// Delete has no ownership check: any authenticated caller may delete a tag.
func (s *tagService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Wrap(apperror.ErrNotFound, "tag not found")
		}
		return err
	}

	return s.repo.Delete(ctx, id)
}
