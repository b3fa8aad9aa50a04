package models

import "time"

type AvailabilityOverride struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	InstructorID uint       `gorm:"not null;uniqueIndex:ux_override_instructor_date" json:"instructor_id"`
	Instructor   Instructor `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	Date        string `gorm:"type:varchar(10);not null;uniqueIndex:ux_override_instructor_date" json:"date"`
	IsAvailable bool   `gorm:"not null" json:"is_available"`
	Reason      string `gorm:"size:255" json:"reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
