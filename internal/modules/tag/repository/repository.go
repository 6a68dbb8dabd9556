package repository

import (
	"context"

	"github.com/lessonforge/lessonplan-api/internal/entity"
	"gorm.io/gorm"
)

type TagRepository interface {
	Create(ctx context.Context, tag *entity.Tag) error
	FindByID(ctx context.Context, id uint) (*entity.Tag, error)
	FindByName(ctx context.Context, name string) (*entity.Tag, error)
	FindByIDs(ctx context.Context, ids []uint) ([]entity.Tag, error)
	FindAll(ctx context.Context, offset, limit int) ([]*entity.Tag, error)
	Delete(ctx context.Context, id uint) error
	Transaction(ctx context.Context, fn func(repo TagRepository) error) error
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(ctx context.Context, tag *entity.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

func (r *tagRepository) FindByID(ctx context.Context, id uint) (*entity.Tag, error) {
	var tag entity.Tag
	if err := r.db.WithContext(ctx).First(&tag, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindByName matches exactly, case-sensitively.
func (r *tagRepository) FindByName(ctx context.Context, name string) (*entity.Tag, error) {
	var tag entity.Tag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindByIDs returns the tags that exist among ids. Missing ids are simply
// absent from the result, not an error.
func (r *tagRepository) FindByIDs(ctx context.Context, ids []uint) ([]entity.Tag, error) {
	if len(ids) == 0 {
		return []entity.Tag{}, nil
	}

	var tags []entity.Tag
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) FindAll(ctx context.Context, offset, limit int) ([]*entity.Tag, error) {
	var tags []*entity.Tag
	if err := r.db.WithContext(ctx).Offset(offset).Limit(limit).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// Delete removes the tag; join rows go with it via ON DELETE CASCADE.
func (r *tagRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Tag{}, "id = ?", id).Error
}

func (r *tagRepository) Transaction(ctx context.Context, fn func(repo TagRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&tagRepository{db: tx})
	})
}
