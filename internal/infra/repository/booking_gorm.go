package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

// uniqueViolation is the postgres SQLSTATE raised by ux_bookings_active_slot.
const uniqueViolation = "23505"

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// --------------------------------------------------
// Catalog entities
// --------------------------------------------------

func (r *BookingGormRepository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *BookingGormRepository) GetInstructor(ctx context.Context, id uint) (*models.Instructor, error) {
	var ins models.Instructor
	if err := r.db.WithContext(ctx).First(&ins, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ins, nil
}

func (r *BookingGormRepository) GetPackage(ctx context.Context, id uint) (*models.TrainingPackage, error) {
	var p models.TrainingPackage
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *BookingGormRepository) GetWeapon(ctx context.Context, id uint) (*models.Weapon, error) {
	var w models.Weapon
	if err := r.db.WithContext(ctx).First(&w, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &w, nil
}

func (r *BookingGormRepository) GetLocation(ctx context.Context, id uint) (*models.RangeLocation, error) {
	var l models.RangeLocation
	if err := r.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

// --------------------------------------------------
// Availability
// --------------------------------------------------

func (r *BookingGormRepository) GetOverride(
	ctx context.Context,
	instructorID uint,
	date string,
) (*models.AvailabilityOverride, error) {

	var o models.AvailabilityOverride
	err := r.db.WithContext(ctx).
		Where("instructor_id = ? AND date = ?", instructorID, date).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *BookingGormRepository) UpsertOverride(ctx context.Context, o *models.AvailabilityOverride) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instructor_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_available", "reason", "updated_at"}),
		}).
		Create(o).Error
}

func (r *BookingGormRepository) DeleteOverride(ctx context.Context, instructorID uint, date string) error {
	res := r.db.WithContext(ctx).
		Where("instructor_id = ? AND date = ?", instructorID, date).
		Delete(&models.AvailabilityOverride{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BookingGormRepository) UpdateInstructorSchedule(ctx context.Context, ins *models.Instructor) error {
	return r.db.WithContext(ctx).
		Model(ins).
		Select("start_time", "end_time", "available_days").
		Updates(ins).Error
}

func (r *BookingGormRepository) ListTakenTimes(
	ctx context.Context,
	instructorID uint,
	date string,
) ([]string, error) {

	var times []string
	if err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("instructor_id = ? AND date = ? AND status IN ?", instructorID, date, domain.ActiveStatuses).
		Order("time ASC").
		Pluck("time", &times).Error; err != nil {
		return nil, err
	}
	return times, nil
}

func (r *BookingGormRepository) HasActiveBooking(
	ctx context.Context,
	instructorID uint,
	date string,
	time string,
) (bool, error) {
	return hasActiveBooking(r.db.WithContext(ctx), instructorID, date, time, false)
}

func hasActiveBooking(db *gorm.DB, instructorID uint, date, time string, lock bool) (bool, error) {
	q := db.Model(&models.Booking{})
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var ids []uint
	if err := q.
		Where(
			"instructor_id = ? AND date = ? AND time = ? AND status IN ?",
			instructorID, date, time, domain.ActiveStatuses,
		).
		Limit(1).
		Pluck("id", &ids).Error; err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// --------------------------------------------------
// Booking (create / conflict)
// --------------------------------------------------

func (r *BookingGormRepository) InsertIfSlotFree(
	ctx context.Context,
	b *models.Booking,
	finalize func(*models.Booking) error,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := hasActiveBooking(tx, b.InstructorID, b.Date, b.Time, true)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrSlotUnavailable
		}

		if err := tx.Omit(clause.Associations).Create(b).Error; err != nil {
			return err
		}

		if finalize == nil {
			return nil
		}
		if err := finalize(b); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(b).Error
	})

	if err != nil && isUniqueViolation(err) {
		return domain.ErrSlotUnavailable
	}
	return err
}

// --------------------------------------------------
// Booking (owner)
// --------------------------------------------------

func (r *BookingGormRepository) GetBookingForUser(
	ctx context.Context,
	bookingID uint,
	userID uint,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Package").
		Preload("Instructor").
		Preload("Weapon").
		Preload("Location").
		Where("id = ? AND user_id = ?", bookingID, userID).
		First(&b).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *BookingGormRepository) UpdateBooking(ctx context.Context, b *models.Booking) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(b).Error
}

func (r *BookingGormRepository) ListBookingsForUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	var out []models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Package").
		Preload("Instructor").
		Preload("Location").
		Where("user_id = ?", userID).
		Order("date ASC, time ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Compile-time check
var _ domain.Repository = (*BookingGormRepository)(nil)
