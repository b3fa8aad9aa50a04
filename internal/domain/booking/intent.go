package booking

import "time"

// Intent is a booking request waiting for its online payment. It lives in
// the session stash only, never in durable storage.
type Intent struct {
	UserID       uint      `json:"user_id"`
	PackageID    uint      `json:"package_id"`
	WeaponID     *uint     `json:"weapon_id,omitempty"`
	InstructorID uint      `json:"instructor_id"`
	LocationID   *uint     `json:"location_id,omitempty"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	DurationMin  int       `json:"duration_min"`
	Notes        string    `json:"notes"`
	Amount       float64   `json:"amount"`
	StagedAt     time.Time `json:"staged_at"`
}
