package entity

import "time"

type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"size:100;uniqueIndex:idx_users_email;not null" json:"email"`
	Username       string    `gorm:"size:50;uniqueIndex:idx_users_username;not null" json:"username"`
	FullName       *string   `gorm:"size:100" json:"full_name,omitempty"`
	HashedPassword string    `gorm:"size:255;not null" json:"-"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`

	LessonPlans []LessonPlan `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}
