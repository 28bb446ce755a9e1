package models

import (
	"time"
)

type Program struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;unique" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Course struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProgramID uint      `gorm:"not null;index" json:"program_id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ClassInstance is a concrete offering of a course for one year, semester and group.
type ClassInstance struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_class_offering" json:"course_id"`
	Year      int       `gorm:"not null;uniqueIndex:idx_class_offering" json:"year"`
	Semester  int       `gorm:"not null;uniqueIndex:idx_class_offering" json:"semester"`
	Group     string    `gorm:"column:group_name;size:20;not null;uniqueIndex:idx_class_offering" json:"group"`
	CreatedAt time.Time `json:"created_at"`
}

type Unit struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ClassInstanceID uint      `gorm:"not null;index" json:"class_instance_id"`
	Code            string    `gorm:"size:20;not null" json:"code"`
	Name            string    `gorm:"not null" json:"name"`
	CreatedAt       time.Time `json:"created_at"`
}
