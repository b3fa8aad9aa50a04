package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
)

// Candidate is a requested (instructor, date, slot).
type Candidate struct {
	InstructorID uint
	Date         time.Time
	Time         domain.TimeOfDay
}

// ConflictGuard decides whether a candidate can be booked right now. It
// re-derives availability instead of trusting what the client was shown.
// Any failure answers false.
type ConflictGuard struct {
	availability *GetAvailability
	repo         domain.Repository
	log          *zap.Logger
}

func NewConflictGuard(availability *GetAvailability, repo domain.Repository, log *zap.Logger) *ConflictGuard {
	return &ConflictGuard{availability: availability, repo: repo, log: log}
}

func (g *ConflictGuard) IsBookable(ctx context.Context, c Candidate) bool {
	ok, err := g.check(ctx, c)
	if err != nil {
		g.log.Error("conflict guard failed closed",
			zap.Uint("instructor_id", c.InstructorID),
			zap.String("date", domain.FormatDate(c.Date)),
			zap.String("time", c.Time.String()),
			zap.Error(err),
		)
		return false
	}
	return ok
}

func (g *ConflictGuard) check(ctx context.Context, c Candidate) (bool, error) {
	if _, ok := domain.LookupSlot(c.Time); !ok {
		return false, nil
	}

	ins, err := g.repo.GetInstructor(ctx, c.InstructorID)
	if err != nil {
		return false, err
	}
	if !ins.Active {
		return false, nil
	}

	slots, err := g.availability.slotsFor(ctx, ins, c.Date)
	if err != nil {
		return false, err
	}

	offered := false
	for _, s := range slots {
		if s.Time == c.Time {
			offered = true
			break
		}
	}
	if !offered {
		return false, nil
	}

	taken, err := g.repo.HasActiveBooking(ctx, c.InstructorID, domain.FormatDate(c.Date), c.Time.String())
	if err != nil {
		return false, err
	}
	return !taken, nil
}
