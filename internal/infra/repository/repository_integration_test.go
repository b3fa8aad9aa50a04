//go:build integration

package repository

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	dbpkg "github.com/BruksfildServices01/lesson-scheduler/internal/db"
	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

// openTestDB connects to TEST_DATABASE_URL, migrates and truncates.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, dbpkg.Migrate(db))

	require.NoError(t, db.Exec(`TRUNCATE bookings, availability_overrides, payment_notifications,
		payment_issues, audit_logs, instructors, training_packages, weapons, range_locations, users RESTART IDENTITY CASCADE`).Error)
	return db
}

type seed struct {
	user       models.User
	instructor models.Instructor
	pkg        models.TrainingPackage
}

func seedCatalog(t *testing.T, db *gorm.DB) seed {
	t.Helper()

	s := seed{
		user: models.User{Name: "Ana", Email: "ana@example.com"},
		instructor: models.Instructor{
			Name: "Dana", StartTime: "09:00:00", EndTime: "17:00:00", AvailableDays: "0,1,2,3,4", Active: true,
		},
		pkg: models.TrainingPackage{Name: "Pistol basics", DurationMin: 90, Price: 150, Active: true},
	}
	require.NoError(t, db.Create(&s.user).Error)
	require.NoError(t, db.Create(&s.instructor).Error)
	require.NoError(t, db.Create(&s.pkg).Error)
	return s
}

func (s seed) booking(date, t string) *models.Booking {
	return &models.Booking{
		UserID:        s.user.ID,
		PackageID:     s.pkg.ID,
		InstructorID:  s.instructor.ID,
		Date:          date,
		Time:          t,
		DurationMin:   90,
		PaymentMethod: string(domain.PaymentCash),
		PaymentStatus: string(domain.PaymentUnpaid),
		Status:        string(domain.StatusPending),
	}
}

func TestInsertIfSlotFree_ConcurrentSingleWinner(t *testing.T) {
	db := openTestDB(t)
	s := seedCatalog(t, db)
	repo := NewBookingGormRepository(db)

	const attempts = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		won      int
		conflict int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.InsertIfSlotFree(context.Background(), s.booking("2025-06-02", "10:00:00"), domain.Confirm)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case assert.ErrorIs(t, err, domain.ErrSlotUnavailable):
				conflict++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, attempts-1, conflict)

	taken, err := repo.ListTakenTimes(context.Background(), s.instructor.ID, "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00:00"}, taken)
}

func TestInsertIfSlotFree_CancelledFreesSlot(t *testing.T) {
	db := openTestDB(t)
	s := seedCatalog(t, db)
	repo := NewBookingGormRepository(db)
	ctx := context.Background()

	first := s.booking("2025-06-03", "11:00:00")
	require.NoError(t, repo.InsertIfSlotFree(ctx, first, domain.Confirm))

	first.Status = string(domain.StatusCancelled)
	require.NoError(t, repo.UpdateBooking(ctx, first))

	second := s.booking("2025-06-03", "11:00:00")
	require.NoError(t, repo.InsertIfSlotFree(ctx, second, domain.Confirm))

	taken, err := repo.HasActiveBooking(ctx, s.instructor.ID, "2025-06-03", "11:00:00")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestUniqueIndexRejectsDirectDuplicate(t *testing.T) {
	db := openTestDB(t)
	s := seedCatalog(t, db)

	require.NoError(t, db.Create(s.booking("2025-06-04", "09:00:00")).Error)
	err := db.Create(s.booking("2025-06-04", "09:00:00")).Error

	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}

func TestOverrides_UpsertAndDelete(t *testing.T) {
	db := openTestDB(t)
	s := seedCatalog(t, db)
	repo := NewBookingGormRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertOverride(ctx, &models.AvailabilityOverride{
		InstructorID: s.instructor.ID, Date: "2025-06-07", IsAvailable: true, Reason: "weekend clinic",
	}))
	require.NoError(t, repo.UpsertOverride(ctx, &models.AvailabilityOverride{
		InstructorID: s.instructor.ID, Date: "2025-06-07", IsAvailable: false, Reason: "cancelled clinic",
	}))

	o, err := repo.GetOverride(ctx, s.instructor.ID, "2025-06-07")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.False(t, o.IsAvailable)
	assert.Equal(t, "cancelled clinic", o.Reason)

	require.NoError(t, repo.DeleteOverride(ctx, s.instructor.ID, "2025-06-07"))
	assert.ErrorIs(t, repo.DeleteOverride(ctx, s.instructor.ID, "2025-06-07"), domain.ErrNotFound)
}

func TestPayments_NotificationLifecycle(t *testing.T) {
	db := openTestDB(t)
	payments := NewPaymentGormRepository(db)
	ctx := context.Background()

	n := &models.PaymentNotification{
		ProviderPaymentID: "555", Status: "pending", CorrelationToken: "42", Amount: 150, Currency: "USD",
	}
	require.NoError(t, payments.SaveNotification(ctx, n))

	got, err := payments.LatestCompletedNotification(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, payments.SaveNotification(ctx, &models.PaymentNotification{
		ProviderPaymentID: "555", Status: NotificationCompleted, CorrelationToken: "42", Amount: 150, Currency: "USD",
	}))

	got, err = payments.LatestCompletedNotification(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "555", got.ProviderPaymentID)

	require.NoError(t, payments.MarkNotificationConsumed(ctx, got.ID, nil))
	got, err = payments.LatestCompletedNotification(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, got)
}
