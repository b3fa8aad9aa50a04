package models

import "time"

// Instructor works the catalog slots that fall inside [StartTime, EndTime]
// on the weekdays listed in AvailableDays (0 = Monday .. 6 = Sunday).
type Instructor struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:100;not null" json:"name"`
	Email string `gorm:"size:100" json:"email"`
	Bio   string `gorm:"type:text" json:"bio"`

	StartTime     string `gorm:"size:8;not null;default:'09:00:00'" json:"start_time"`
	EndTime       string `gorm:"size:8;not null;default:'17:00:00'" json:"end_time"`
	AvailableDays string `gorm:"size:20;not null;default:'0,1,2,3,4'" json:"available_days"`
	Active        bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
