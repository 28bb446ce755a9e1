package models

import (
	"time"
)

type Completion struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_completion_user_resource" json:"user_id"`
	ResourceID    uint      `gorm:"not null;uniqueIndex:idx_completion_user_resource;index" json:"resource_id"`
	OnTime        bool      `gorm:"not null" json:"on_time"`
	PointsAwarded int       `gorm:"not null" json:"points_awarded"`
	CompletedAt   time.Time `gorm:"not null" json:"completed_at"`
}

// UnitCompletion joins a completion with the creation time of its resource.
type UnitCompletion struct {
	UserID            uint
	DisplayName       string
	ResourceID        uint
	ResourceCreatedAt time.Time
	CompletedAt       time.Time
}
