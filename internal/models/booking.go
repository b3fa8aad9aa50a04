package models

import "time"

// Booking.Date is stored as YYYY-MM-DD and Booking.Time as HH:MM:SS so the
// (instructor_id, date, time) partial unique index compares plain strings.
type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	PackageID uint            `gorm:"not null" json:"package_id"`
	Package   TrainingPackage `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"package"`

	WeaponID *uint   `json:"weapon_id"`
	Weapon   *Weapon `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"weapon,omitempty"`

	InstructorID uint       `gorm:"not null;index:ix_bookings_slot" json:"instructor_id"`
	Instructor   Instructor `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"instructor"`

	LocationID *uint          `json:"location_id"`
	Location   *RangeLocation `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"location,omitempty"`

	Date        string `gorm:"type:varchar(10);not null;index:ix_bookings_slot" json:"date"`
	Time        string `gorm:"type:varchar(8);not null;index:ix_bookings_slot" json:"time"`
	DurationMin int    `gorm:"not null" json:"duration_min"`

	PaymentMethod    string `gorm:"size:20;not null" json:"payment_method"`
	PaymentStatus    string `gorm:"size:20;not null;default:'unpaid'" json:"payment_status"`
	PaymentReference string `gorm:"size:100" json:"payment_reference,omitempty"`

	Status string `gorm:"size:20;not null;default:'pending'" json:"status"`

	Notes       string     `gorm:"size:500" json:"notes"`
	CancelledAt *time.Time `json:"cancelled_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
