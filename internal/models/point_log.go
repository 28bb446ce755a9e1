package models

import (
	"time"
)

// PointLog is one entry of a user's points ledger.
type PointLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Amount    int       `gorm:"not null" json:"amount"` // applied delta after flooring, may be 0
	Action    string    `gorm:"size:50;not null;index" json:"action"`
	Reference string    `gorm:"size:64" json:"reference"` // e.g. "resource:12"
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
