package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/lessonforge/lessonplan-api/internal/entity"
	"github.com/lessonforge/lessonplan-api/internal/modules/lessonplan/dto"
	"github.com/lessonforge/lessonplan-api/internal/modules/lessonplan/repository"
	tagRepo "github.com/lessonforge/lessonplan-api/internal/modules/tag/repository"
	"github.com/lessonforge/lessonplan-api/pkg/apperror"
	"gorm.io/gorm"
)

type LessonPlanService interface {
	Create(ctx context.Context, owner *entity.User, req dto.CreateLessonPlanRequest) (*entity.LessonPlan, error)
	List(ctx context.Context, query dto.ListLessonPlansQuery) ([]*entity.LessonPlan, error)
	ListMine(ctx context.Context, ownerID uint, skip, limit int) ([]*entity.LessonPlan, error)
	GetByID(ctx context.Context, id uint) (*entity.LessonPlan, error)
	Update(ctx context.Context, caller *entity.User, id uint, req dto.UpdateLessonPlanRequest) (*entity.LessonPlan, error)
	Delete(ctx context.Context, caller *entity.User, id uint) error
}

type lessonPlanService struct {
	repo repository.LessonPlanRepository
	tags tagRepo.TagRepository
}

func NewLessonPlanService(repo repository.LessonPlanRepository, tags tagRepo.TagRepository) LessonPlanService {
	return &lessonPlanService{repo: repo, tags: tags}
}

// Create stores a new plan owned by the caller, at version 1. Tag ids that
// do not exist are silently dropped (set intersection, not an error).
func (s *lessonPlanService) Create(ctx context.Context, owner *entity.User, req dto.CreateLessonPlanRequest) (*entity.LessonPlan, error) {
	tags, err := s.tags.FindByIDs(ctx, req.TagIDs)
	if err != nil {
		return nil, err
	}

	plan := &entity.LessonPlan{
		Title:           req.Title,
		Subject:         req.Subject,
		GradeLevel:      req.GradeLevel,
		DurationMinutes: req.DurationMinutes,
		Difficulty:      req.Difficulty,
		Objectives:      req.Objectives,
		Materials:       req.Materials,
		Procedure:       req.Procedure,
		Assessment:      req.Assessment,
		Notes:           req.Notes,
		Version:         1,
		OwnerID:         owner.ID,
		Tags:            tags,
	}

	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, err
	}

	return plan, nil
}

func (s *lessonPlanService) List(ctx context.Context, query dto.ListLessonPlansQuery) ([]*entity.LessonPlan, error) {
	tagIDs, err := parseTagIDs(query.TagIDs)
	if err != nil {
		return nil, err
	}

	filter := repository.Filter{
		Subject:    query.Subject,
		GradeLevel: query.GradeLevel,
		Difficulty: query.Difficulty,
		Search:     query.Search,
		TagIDs:     tagIDs,
	}

	plans, err := s.repo.FindAll(ctx, filter, query.Skip, query.Limit)
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []*entity.LessonPlan{}
	}

	return plans, nil
}

func (s *lessonPlanService) ListMine(ctx context.Context, ownerID uint, skip, limit int) ([]*entity.LessonPlan, error) {
	plans, err := s.repo.FindByOwnerID(ctx, ownerID, skip, limit)
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []*entity.LessonPlan{}
	}
	return plans, nil
}

func (s *lessonPlanService) GetByID(ctx context.Context, id uint) (*entity.LessonPlan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Wrap(apperror.ErrNotFound, "lesson plan not found")
		}
		return nil, err
	}
	return plan, nil
}

// Update applies only the fields present in req and always bumps the version
// by exactly one, even when nothing actually changed value. When TagIDs is
// present the whole tag set is replaced. Owner check and mutation run inside
// one transaction.
func (s *lessonPlanService) Update(ctx context.Context, caller *entity.User, id uint, req dto.UpdateLessonPlanRequest) (*entity.LessonPlan, error) {
	var updated *entity.LessonPlan

	err := s.repo.Transaction(ctx, func(repo repository.LessonPlanRepository) error {
		plan, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Wrap(apperror.ErrNotFound, "lesson plan not found")
			}
			return err
		}

		if plan.OwnerID != caller.ID {
			return apperror.Wrap(apperror.ErrForbidden, "not authorized to update this lesson plan")
		}

		applyUpdate(plan, req)

		plan.Version++
		now := time.Now()
		plan.UpdatedAt = &now

		if err := repo.Update(ctx, plan); err != nil {
			return err
		}

		if req.TagIDs != nil {
			tags, err := s.tags.FindByIDs(ctx, *req.TagIDs)
			if err != nil {
				return err
			}
			if err := repo.ReplaceTags(ctx, plan, tags); err != nil {
				return err
			}
		}

		updated = plan
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *lessonPlanService) Delete(ctx context.Context, caller *entity.User, id uint) error {
	return s.repo.Transaction(ctx, func(repo repository.LessonPlanRepository) error {
		plan, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Wrap(apperror.ErrNotFound, "lesson plan not found")
			}
			return err
		}

		if plan.OwnerID != caller.ID {
			return apperror.Wrap(apperror.ErrForbidden, "not authorized to delete this lesson plan")
		}

		return repo.Delete(ctx, id)
	})
}

func applyUpdate(plan *entity.LessonPlan, req dto.UpdateLessonPlanRequest) {
	if req.Title != nil {
		plan.Title = *req.Title
	}
	if req.Subject != nil {
		plan.Subject = *req.Subject
	}
	if req.GradeLevel != nil {
		plan.GradeLevel = *req.GradeLevel
	}
	if req.DurationMinutes != nil {
		plan.DurationMinutes = req.DurationMinutes
	}
	if req.Difficulty != nil {
		plan.Difficulty = req.Difficulty
	}
	if req.Objectives != nil {
		plan.Objectives = req.Objectives
	}
	if req.Materials != nil {
		plan.Materials = req.Materials
	}
	if req.Procedure != nil {
		plan.Procedure = *req.Procedure
	}
	if req.Assessment != nil {
		plan.Assessment = req.Assessment
	}
	if req.Notes != nil {
		plan.Notes = req.Notes
	}
}

// parseTagIDs parses the comma-separated tag_ids query value. Any
// non-integer token is a client error.
func parseTagIDs(raw string) ([]uint, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, apperror.Wrap(apperror.ErrBadRequest, "invalid tag_ids format")
		}
		ids = append(ids, uint(id))
	}

	return ids, nil
}
