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

const maxReasonLength = 200

type SetOverrideInput struct {
	AdminID      uint
	InstructorID uint
	Date         string
	IsAvailable  bool
	Reason       string
}

// SetOverride opens or closes one date for an instructor regardless of the
// weekday rule. A second call for the same date replaces the first.
type SetOverride struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	log   *zap.Logger
}

func NewSetOverride(repo domain.Repository, audit *audit.Dispatcher, log *zap.Logger) *SetOverride {
	return &SetOverride{repo: repo, audit: audit, log: log}
}

func (uc *SetOverride) Execute(ctx context.Context, in SetOverrideInput) (*models.AvailabilityOverride, error) {
	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	if len(in.Reason) > maxReasonLength {
		return nil, fmt.Errorf("%w: reason longer than %d characters", domain.ErrValidation, maxReasonLength)
	}

	if _, err := loadInstructor(ctx, uc.repo, in.InstructorID); err != nil {
		return nil, err
	}

	o := &models.AvailabilityOverride{
		InstructorID: in.InstructorID,
		Date:         domain.FormatDate(date),
		IsAvailable:  in.IsAvailable,
		Reason:       in.Reason,
	}
	if err := uc.repo.UpsertOverride(ctx, o); err != nil {
		uc.log.Error("set override", zap.Uint("instructor_id", in.InstructorID), zap.String("date", o.Date), zap.Error(err))
		return nil, fmt.Errorf("%w: save override", domain.ErrPersistence)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &in.AdminID,
		Action:   audit.ActionOverrideSet,
		Entity:   audit.EntityInstructor,
		EntityID: &o.InstructorID,
		Metadata: map[string]any{"date": o.Date, "is_available": o.IsAvailable, "reason": o.Reason},
	})

	return o, nil
}

// RemoveOverride returns the date to the weekday rule.
type RemoveOverride struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	log   *zap.Logger
}

func NewRemoveOverride(repo domain.Repository, audit *audit.Dispatcher, log *zap.Logger) *RemoveOverride {
	return &RemoveOverride{repo: repo, audit: audit, log: log}
}

func (uc *RemoveOverride) Execute(ctx context.Context, adminID, instructorID uint, rawDate string) error {
	date, err := domain.ParseDate(rawDate)
	if err != nil {
		return err
	}
	day := domain.FormatDate(date)

	err = uc.repo.DeleteOverride(ctx, instructorID, day)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}
	if err != nil {
		uc.log.Error("remove override", zap.Uint("instructor_id", instructorID), zap.String("date", day), zap.Error(err))
		return fmt.Errorf("%w: remove override", domain.ErrPersistence)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &adminID,
		Action:   audit.ActionOverrideRemoved,
		Entity:   audit.EntityInstructor,
		EntityID: &instructorID,
		Metadata: map[string]any{"date": day},
	})
	return nil
}
