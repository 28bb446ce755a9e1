package models

import (
	"time"
)

// Session is an authenticated login, acquired on login and invalidated on logout.
type Session struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	Token     string     `gorm:"uniqueIndex;size:36;not null" json:"token"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `gorm:"index" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
