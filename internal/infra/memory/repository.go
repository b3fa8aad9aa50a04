// Package memory holds in-memory implementations of the booking ports. They
// keep the same guarantees as the postgres and redis adapters and back the
// usecase tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

type Repository struct {
	mu sync.Mutex

	Users       map[uint]*models.User
	Instructors map[uint]*models.Instructor
	Packages    map[uint]*models.TrainingPackage
	Weapons     map[uint]*models.Weapon
	Locations   map[uint]*models.RangeLocation
	Overrides   map[string]*models.AvailabilityOverride
	Bookings    []*models.Booking

	// Fail, when set, is returned by the named method.
	Fail map[string]error

	nextID uint
}

func NewRepository() *Repository {
	return &Repository{
		Users:       map[uint]*models.User{},
		Instructors: map[uint]*models.Instructor{},
		Packages:    map[uint]*models.TrainingPackage{},
		Weapons:     map[uint]*models.Weapon{},
		Locations:   map[uint]*models.RangeLocation{},
		Overrides:   map[string]*models.AvailabilityOverride{},
		Fail:        map[string]error{},
	}
}

func overrideKey(instructorID uint, date string) string {
	return fmt.Sprintf("%d/%s", instructorID, date)
}

func (r *Repository) fail(op string) error {
	return r.Fail[op]
}

func (r *Repository) GetUser(_ context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("GetUser"); err != nil {
		return nil, err
	}
	u, ok := r.Users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *Repository) GetInstructor(_ context.Context, id uint) (*models.Instructor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("GetInstructor"); err != nil {
		return nil, err
	}
	ins, ok := r.Instructors[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *ins
	return &cp, nil
}

func (r *Repository) GetPackage(_ context.Context, id uint) (*models.TrainingPackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Packages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *Repository) GetWeapon(_ context.Context, id uint) (*models.Weapon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.Weapons[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *Repository) GetLocation(_ context.Context, id uint) (*models.RangeLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.Locations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *Repository) GetOverride(_ context.Context, instructorID uint, date string) (*models.AvailabilityOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("GetOverride"); err != nil {
		return nil, err
	}
	o, ok := r.Overrides[overrideKey(instructorID, date)]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *Repository) UpsertOverride(_ context.Context, o *models.AvailabilityOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := overrideKey(o.InstructorID, o.Date)
	if existing, ok := r.Overrides[key]; ok {
		o.ID = existing.ID
	} else {
		r.nextID++
		o.ID = r.nextID
	}
	cp := *o
	r.Overrides[key] = &cp
	return nil
}

func (r *Repository) DeleteOverride(_ context.Context, instructorID uint, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := overrideKey(instructorID, date)
	if _, ok := r.Overrides[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.Overrides, key)
	return nil
}

func (r *Repository) UpdateInstructorSchedule(_ context.Context, ins *models.Instructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.Instructors[ins.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.StartTime = ins.StartTime
	stored.EndTime = ins.EndTime
	stored.AvailableDays = ins.AvailableDays
	return nil
}

func (r *Repository) ListTakenTimes(_ context.Context, instructorID uint, date string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("ListTakenTimes"); err != nil {
		return nil, err
	}
	var out []string
	for _, b := range r.Bookings {
		if b.InstructorID == instructorID && b.Date == date && domain.IsActive(domain.Status(b.Status)) {
			out = append(out, b.Time)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *Repository) HasActiveBooking(_ context.Context, instructorID uint, date, t string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("HasActiveBooking"); err != nil {
		return false, err
	}
	return r.slotTaken(instructorID, date, t), nil
}

func (r *Repository) slotTaken(instructorID uint, date, t string) bool {
	for _, b := range r.Bookings {
		if b.InstructorID == instructorID && b.Date == date && b.Time == t &&
			domain.IsActive(domain.Status(b.Status)) {
			return true
		}
	}
	return false
}

// InsertIfSlotFree holds the repository lock across check, insert and
// finalize, mirroring the transaction plus unique index of the SQL adapter.
func (r *Repository) InsertIfSlotFree(_ context.Context, b *models.Booking, finalize func(*models.Booking) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("InsertIfSlotFree"); err != nil {
		return err
	}
	if r.slotTaken(b.InstructorID, b.Date, b.Time) {
		return domain.ErrSlotUnavailable
	}

	candidate := *b
	if finalize != nil {
		if err := finalize(&candidate); err != nil {
			return err
		}
	}

	r.nextID++
	now := time.Now()
	candidate.ID = r.nextID
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	stored := candidate
	r.Bookings = append(r.Bookings, &stored)
	*b = candidate
	return nil
}

func (r *Repository) GetBookingForUser(_ context.Context, bookingID, userID uint) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.Bookings {
		if b.ID == bookingID && b.UserID == userID {
			cp := *b
			r.attach(&cp)
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *Repository) attach(b *models.Booking) {
	if p, ok := r.Packages[b.PackageID]; ok {
		b.Package = *p
	}
	if ins, ok := r.Instructors[b.InstructorID]; ok {
		b.Instructor = *ins
	}
}

func (r *Repository) UpdateBooking(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("UpdateBooking"); err != nil {
		return err
	}
	for i, stored := range r.Bookings {
		if stored.ID == b.ID {
			cp := *b
			cp.UpdatedAt = time.Now()
			r.Bookings[i] = &cp
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *Repository) ListBookingsForUser(_ context.Context, userID uint) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.Bookings {
		if b.UserID == userID {
			cp := *b
			r.attach(&cp)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

// ActiveBookings counts pending and confirmed rows.
func (r *Repository) ActiveBookings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.Bookings {
		if domain.IsActive(domain.Status(b.Status)) {
			n++
		}
	}
	return n
}

var _ domain.Repository = (*Repository)(nil)
