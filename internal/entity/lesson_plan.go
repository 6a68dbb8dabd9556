package entity

import "time"

type GradeLevel string

const (
	GradeElementary   GradeLevel = "elementary"
	GradeMiddleSchool GradeLevel = "middle_school"
	GradeHighSchool   GradeLevel = "high_school"
	GradeCollege      GradeLevel = "college"
	GradeProfessional GradeLevel = "professional"
)

type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

type LessonPlan struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	Title           string           `gorm:"size:200;not null;index" json:"title"`
	Subject         string           `gorm:"size:100;not null;index" json:"subject"`
	GradeLevel      GradeLevel       `gorm:"type:text;not null" json:"grade_level"`
	DurationMinutes *int             `json:"duration_minutes,omitempty"`
	Difficulty      *DifficultyLevel `gorm:"type:text" json:"difficulty,omitempty"`

	Objectives *string `gorm:"type:text" json:"objectives,omitempty"`
	Materials  *string `gorm:"type:text" json:"materials,omitempty"`
	Procedure  string  `gorm:"type:text;not null" json:"procedure"`
	Assessment *string `gorm:"type:text" json:"assessment,omitempty"`
	Notes      *string `gorm:"type:text" json:"notes,omitempty"`

	// Incremented by exactly one on every successful update.
	Version int `gorm:"not null;default:1" json:"version"`

	OwnerID uint `gorm:"not null;index" json:"owner_id"`
	Owner   User `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	Tags []Tag `gorm:"many2many:lesson_plan_tags;constraint:OnDelete:CASCADE" json:"tags"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex:idx_tags_name;not null" json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	LessonPlans []LessonPlan `gorm:"many2many:lesson_plan_tags" json:"-"`
}
