package repository

import (
	"context"

	"github.com/lessonforge/lessonplan-api/internal/entity"
	"gorm.io/gorm"
)

// Filter holds the already-validated listing filters. Zero values mean
// "not filtering on this".
type Filter struct {
	Subject    string
	GradeLevel string
	Difficulty string
	Search     string
	TagIDs     []uint
}

type LessonPlanRepository interface {
	Create(ctx context.Context, plan *entity.LessonPlan) error
	FindByID(ctx context.Context, id uint) (*entity.LessonPlan, error)
	FindAll(ctx context.Context, filter Filter, offset, limit int) ([]*entity.LessonPlan, error)
	FindByOwnerID(ctx context.Context, ownerID uint, offset, limit int) ([]*entity.LessonPlan, error)
	Update(ctx context.Context, plan *entity.LessonPlan) error
	ReplaceTags(ctx context.Context, plan *entity.LessonPlan, tags []entity.Tag) error
	Delete(ctx context.Context, id uint) error
	Transaction(ctx context.Context, fn func(repo LessonPlanRepository) error) error
}

type lessonPlanRepository struct {
	db *gorm.DB
}

func NewLessonPlanRepository(db *gorm.DB) LessonPlanRepository {
	return &lessonPlanRepository{db: db}
}

func (r *lessonPlanRepository) Create(ctx context.Context, plan *entity.LessonPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *lessonPlanRepository) FindByID(ctx context.Context, id uint) (*entity.LessonPlan, error) {
	var plan entity.LessonPlan
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *lessonPlanRepository) FindAll(ctx context.Context, filter Filter, offset, limit int) ([]*entity.LessonPlan, error) {
	var plans []*entity.LessonPlan

	query := r.db.WithContext(ctx).
		Model(&entity.LessonPlan{}).
		Preload("Tags")

	if filter.Subject != "" {
		query = query.Where("subject ILIKE ?", "%"+filter.Subject+"%")
	}

	if filter.GradeLevel != "" {
		query = query.Where("grade_level = ?", filter.GradeLevel)
	}

	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR subject ILIKE ? OR procedure ILIKE ?", pattern, pattern, pattern)
	}

	if len(filter.TagIDs) > 0 {
		// A plan matches when it carries at least one of the given tags.
		query = query.
			Joins("JOIN lesson_plan_tags lpt ON lpt.lesson_plan_id = lesson_plans.id").
			Where("lpt.tag_id IN ?", filter.TagIDs).
			Distinct("lesson_plans.*")
	}

	if err := query.
		Order("lesson_plans.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&plans).Error; err != nil {
		return nil, err
	}

	return plans, nil
}

func (r *lessonPlanRepository) FindByOwnerID(ctx context.Context, ownerID uint, offset, limit int) ([]*entity.LessonPlan, error) {
	var plans []*entity.LessonPlan
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// Update persists scalar columns only; the tag set is managed through
// ReplaceTags so removed associations are actually deleted.
func (r *lessonPlanRepository) Update(ctx context.Context, plan *entity.LessonPlan) error {
	return r.db.WithContext(ctx).Omit("Tags").Save(plan).Error
}

func (r *lessonPlanRepository) ReplaceTags(ctx context.Context, plan *entity.LessonPlan, tags []entity.Tag) error {
	if err := r.db.WithContext(ctx).Model(plan).Association("Tags").Replace(tags); err != nil {
		return err
	}
	plan.Tags = tags
	return nil
}

func (r *lessonPlanRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.LessonPlan{}, "id = ?", id).Error
}

func (r *lessonPlanRepository) Transaction(ctx context.Context, fn func(repo LessonPlanRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&lessonPlanRepository{db: tx})
	})
}
