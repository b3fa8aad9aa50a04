package audit

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Actions recorded by the booking flows.
const (
	ActionBookingCreated    = "booking_created"
	ActionBookingConflict   = "booking_conflict"
	ActionBookingCancelled  = "booking_cancelled"
	ActionPaymentReconciled = "payment_reconciled"
	ActionPaymentIssue      = "payment_issue"
	ActionScheduleUpdated   = "schedule_updated"
	ActionOverrideSet       = "availability_override_set"
	ActionOverrideRemoved   = "availability_override_removed"

	EntityBooking      = "booking"
	EntityInstructor   = "instructor"
	EntityPaymentIssue = "payment_issue"
)

type Event struct {
	UserID   *uint
	Action   string
	Entity   string
	EntityID *uint
	Metadata any
}

type Dispatcher struct {
	store Store
	log   *zap.Logger
	queue chan Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(store Store, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		store: store,
		log:   log,
		queue: make(chan Event, 100),
		done:  make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for ev := range d.queue {
		if err := d.store.Log(
			context.Background(),
			ev.UserID,
			ev.Action,
			ev.Entity,
			ev.EntityID,
			ev.Metadata,
		); err != nil {
			d.log.Error("audit write failed", zap.String("action", ev.Action), zap.Error(err))
		}
	}
}

// Dispatch never blocks the request; a full queue drops the event.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	select {
	case d.queue <- ev:
	default:
		d.log.Warn("audit queue full, dropping event", zap.String("action", ev.Action))
	}
}

func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.done
}
