package instructor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/lesson-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

type UpdateScheduleInput struct {
	AdminID      uint
	InstructorID uint
	StartTime    string
	EndTime      string
	Days         []int
}

// UpdateSchedule replaces an instructor's weekly working hours and days.
// Existing bookings are left alone.
type UpdateSchedule struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	log   *zap.Logger
}

func NewUpdateSchedule(repo domain.Repository, audit *audit.Dispatcher, log *zap.Logger) *UpdateSchedule {
	return &UpdateSchedule{repo: repo, audit: audit, log: log}
}

func (uc *UpdateSchedule) Execute(ctx context.Context, in UpdateScheduleInput) (*models.Instructor, error) {
	start, err := domain.ParseTime(in.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseTime(in.EndTime)
	if err != nil {
		return nil, err
	}
	if _, err := domain.NewSchedule(start, end, domain.WeekdaysOf(in.Days...)); err != nil {
		return nil, err
	}
	days, err := domain.NormalizeWeekdays(in.Days)
	if err != nil {
		return nil, err
	}

	ins, err := loadInstructor(ctx, uc.repo, in.InstructorID)
	if err != nil {
		return nil, err
	}

	ins.StartTime = start.String()
	ins.EndTime = end.String()
	ins.AvailableDays = days

	if err := uc.repo.UpdateInstructorSchedule(ctx, ins); err != nil {
		uc.log.Error("update schedule", zap.Uint("instructor_id", ins.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: update schedule", domain.ErrPersistence)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &in.AdminID,
		Action:   audit.ActionScheduleUpdated,
		Entity:   audit.EntityInstructor,
		EntityID: &ins.ID,
		Metadata: map[string]any{"start": ins.StartTime, "end": ins.EndTime, "days": days},
	})

	return ins, nil
}

func loadInstructor(ctx context.Context, repo domain.Repository, id uint) (*models.Instructor, error) {
	ins, err := repo.GetInstructor(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load instructor %d: %v", domain.ErrPersistence, id, err)
	}
	return ins, nil
}
