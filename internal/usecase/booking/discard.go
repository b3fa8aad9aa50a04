package booking

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
)

// DiscardPending drops the intent staged by a session whose checkout was
// abandoned at the provider.
type DiscardPending struct {
	stash domain.Stash
	log   *zap.Logger
}

func NewDiscardPending(stash domain.Stash, log *zap.Logger) *DiscardPending {
	return &DiscardPending{stash: stash, log: log}
}

func (uc *DiscardPending) Execute(ctx context.Context, sessionID string) error {
	if err := uc.stash.Discard(ctx, sessionID); err != nil {
		uc.log.Error("discard staged intent", zap.String("session_id", sessionID), zap.Error(err))
		return fmt.Errorf("%w: discard staged payment", domain.ErrPersistence)
	}
	return nil
}
