package dto

import "github.com/lessonforge/lessonplan-api/internal/entity"

type CreateLessonPlanRequest struct {
	Title           string                  `json:"title" binding:"required,min=1,max=200"`
	Subject         string                  `json:"subject" binding:"required,min=1,max=100"`
	GradeLevel      entity.GradeLevel       `json:"grade_level" binding:"required,oneof=elementary middle_school high_school college professional"`
	DurationMinutes *int                    `json:"duration_minutes" binding:"omitempty,gte=1,lte=480"`
	Difficulty      *entity.DifficultyLevel `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Objectives      *string                 `json:"objectives"`
	Materials       *string                 `json:"materials"`
	Procedure       string                  `json:"procedure" binding:"required,min=10"`
	Assessment      *string                 `json:"assessment"`
	Notes           *string                 `json:"notes"`
	TagIDs          []uint                  `json:"tag_ids"`
}

// UpdateLessonPlanRequest is a partial update: only non-nil fields are
// applied. TagIDs distinguishes absent (nil, keep tags) from present-empty
// (replace with no tags).
type UpdateLessonPlanRequest struct {
	Title           *string                 `json:"title" binding:"omitempty,min=1,max=200"`
	Subject         *string                 `json:"subject" binding:"omitempty,min=1,max=100"`
	GradeLevel      *entity.GradeLevel      `json:"grade_level" binding:"omitempty,oneof=elementary middle_school high_school college professional"`
	DurationMinutes *int                    `json:"duration_minutes" binding:"omitempty,gte=1,lte=480"`
	Difficulty      *entity.DifficultyLevel `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Objectives      *string                 `json:"objectives"`
	Materials       *string                 `json:"materials"`
	Procedure       *string                 `json:"procedure" binding:"omitempty,min=10"`
	Assessment      *string                 `json:"assessment"`
	Notes           *string                 `json:"notes"`
	TagIDs          *[]uint                 `json:"tag_ids"`
}

// ListLessonPlansQuery carries the public listing filters. TagIDs is the raw
// comma-separated value; the service parses and rejects non-integer tokens.
type ListLessonPlansQuery struct {
	Skip       int    `form:"skip,default=0" binding:"gte=0"`
	Limit      int    `form:"limit,default=100" binding:"gte=1,lte=100"`
	Subject    string `form:"subject"`
	GradeLevel string `form:"grade_level" binding:"omitempty,oneof=elementary middle_school high_school college professional"`
	Difficulty string `form:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Search     string `form:"search"`
	TagIDs     string `form:"tag_ids"`
}

type ListMineQuery struct {
	Skip  int `form:"skip,default=0" binding:"gte=0"`
	Limit int `form:"limit,default=100" binding:"gte=1,lte=100"`
}
