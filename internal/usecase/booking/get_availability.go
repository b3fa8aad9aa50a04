package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

type GetAvailability struct {
	repo domain.Repository
	log  *zap.Logger
}

func NewGetAvailability(repo domain.Repository, log *zap.Logger) *GetAvailability {
	return &GetAvailability{repo: repo, log: log}
}

// Execute lists the open catalog slots of an instructor on a date. An unknown
// or inactive instructor is a validation error; anything else that goes wrong
// is logged and yields no slots.
func (uc *GetAvailability) Execute(
	ctx context.Context,
	instructorID uint,
	date time.Time,
) ([]domain.Slot, error) {

	ins, err := uc.repo.GetInstructor(ctx, instructorID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown instructor %d", domain.ErrValidation, instructorID)
	}
	if err != nil {
		uc.log.Error("availability: load instructor",
			zap.Uint("instructor_id", instructorID),
			zap.String("date", domain.FormatDate(date)),
			zap.Error(err),
		)
		return []domain.Slot{}, nil
	}
	if !ins.Active {
		return nil, fmt.Errorf("%w: instructor %d is not active", domain.ErrValidation, instructorID)
	}

	slots, err := uc.slotsFor(ctx, ins, date)
	if err != nil {
		uc.log.Error("availability: resolve slots",
			zap.Uint("instructor_id", instructorID),
			zap.String("date", domain.FormatDate(date)),
			zap.Error(err),
		)
		return []domain.Slot{}, nil
	}
	return slots, nil
}

// slotsFor applies the working pattern, the date override and the taken
// slots. Errors are returned so callers decide how to degrade.
func (uc *GetAvailability) slotsFor(
	ctx context.Context,
	ins *models.Instructor,
	date time.Time,
) ([]domain.Slot, error) {

	schedule, err := domain.ScheduleOf(ins)
	if err != nil {
		return nil, err
	}

	day := domain.FormatDate(date)

	override, err := uc.repo.GetOverride(ctx, ins.ID, day)
	if err != nil {
		return nil, fmt.Errorf("load override: %w", err)
	}
	if !schedule.WorksOn(date, override) {
		return []domain.Slot{}, nil
	}

	times, err := uc.repo.ListTakenTimes(ctx, ins.ID, day)
	if err != nil {
		return nil, fmt.Errorf("load taken slots: %w", err)
	}

	taken := make(map[domain.TimeOfDay]bool, len(times))
	for _, raw := range times {
		t, err := domain.ParseTime(raw)
		if err != nil {
			return nil, fmt.Errorf("booked time %q: %w", raw, err)
		}
		taken[t] = true
	}

	return schedule.OpenSlots(date, override, taken), nil
}
