package models

import (
	"time"
)

type ResourceType string

const (
	ResourceAssignment ResourceType = "assignment"
	ResourceNote       ResourceType = "note"
	ResourcePastPaper  ResourceType = "past_paper"
)

func (t ResourceType) Valid() bool {
	switch t {
	case ResourceAssignment, ResourceNote, ResourcePastPaper:
		return true
	}
	return false
}

type Resource struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Type        ResourceType `gorm:"size:20;not null;index:idx_unit_type" json:"type"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	OwnerID     uint         `gorm:"not null;index" json:"owner_id"`
	UnitID      uint         `gorm:"not null;index:idx_unit_type" json:"unit_id"`
	Deadline    *time.Time   `json:"deadline,omitempty"` // assignments only
	Likes       int          `gorm:"default:0;not null" json:"likes"`
	Dislikes    int          `gorm:"default:0;not null" json:"dislikes"`
	FilePath    string       `json:"file_path,omitempty"` // object key in the file store
	FileName    string       `json:"file_name,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (r *Resource) HasFile() bool {
	return r.FilePath != ""
}
