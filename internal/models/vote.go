package models

import (
	"time"
)

type VoteDirection string

const (
	VoteNone    VoteDirection = ""
	VoteLike    VoteDirection = "like"
	VoteDislike VoteDirection = "dislike"
)

func (d VoteDirection) Valid() bool {
	return d == VoteLike || d == VoteDislike
}

// Vote is the server-side record of one user's vote on a resource.
// The unique (user_id, resource_id) index makes "one vote per user" a storage invariant.
type Vote struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	UserID     uint          `gorm:"not null;uniqueIndex:idx_vote_user_resource" json:"user_id"`
	ResourceID uint          `gorm:"not null;uniqueIndex:idx_vote_user_resource;index" json:"resource_id"`
	Direction  VoteDirection `gorm:"size:10;not null" json:"direction"`
	CreatedAt  time.Time     `json:"created_at"`
}
