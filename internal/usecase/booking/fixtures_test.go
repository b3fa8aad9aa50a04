package booking

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/infra/memory"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
	"github.com/BruksfildServices01/lesson-scheduler/internal/timezone"
)

// Sunday 2025-06-01 10:00 UTC. 2025-06-02 is a Monday.
var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

const (
	customerID   = uint(42)
	otherUserID  = uint(43)
	instructorID = uint(7)
	packageID    = uint(1)
	monday       = "2025-06-02"
	saturday     = "2025-06-07"
)

func fixedClock(now time.Time) timezone.Clock {
	return timezone.Clock{Loc: time.UTC, Now: func() time.Time { return now }}
}

func seededRepo() *memory.Repository {
	repo := memory.NewRepository()
	repo.Users[customerID] = &models.User{ID: customerID, Name: "Ana", Email: "ana@example.com"}
	repo.Users[otherUserID] = &models.User{ID: otherUserID, Name: "Bo", Email: "bo@example.com"}
	repo.Instructors[instructorID] = &models.Instructor{
		ID:            instructorID,
		Name:          "Dana",
		StartTime:     "09:00:00",
		EndTime:       "17:00:00",
		AvailableDays: "0,1,2,3,4",
		Active:        true,
	}
	repo.Packages[packageID] = &models.TrainingPackage{
		ID: packageID, Name: "Pistol basics", DurationMin: 90, Price: 150, Active: true,
	}
	repo.Weapons[3] = &models.Weapon{ID: 3, Name: "Glock 17", Active: true}
	repo.Weapons[4] = &models.Weapon{ID: 4, Name: "Retired", Active: false}
	repo.Locations[5] = &models.RangeLocation{ID: 5, Name: "Lane 2", Active: true}
	return repo
}

func addBooking(repo *memory.Repository, userID uint, date, t string, status domain.Status) *models.Booking {
	b := &models.Booking{
		UserID:        userID,
		PackageID:     packageID,
		InstructorID:  instructorID,
		Date:          date,
		Time:          t,
		DurationMin:   90,
		PaymentMethod: string(domain.PaymentCash),
		PaymentStatus: string(domain.PaymentUnpaid),
		Status:        string(domain.StatusPending),
	}
	finalize := func(b *models.Booking) error {
		b.Status = string(status)
		return nil
	}
	if err := repo.InsertIfSlotFree(context.Background(), b, finalize); err != nil {
		panic(err)
	}
	return b
}

// --------------------------------------------------
// Collaborator fakes
// --------------------------------------------------

type fakeGateway struct {
	mu       sync.Mutex
	requests []domain.CheckoutRequest
	url      string
	err      error
	payments map[string]*domain.PaymentInfo
}

func (g *fakeGateway) CreateCheckout(_ context.Context, req domain.CheckoutRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	return g.url, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, id string) (*domain.PaymentInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.payments[id]
	if !ok {
		return nil, domain.ErrPaymentGateway
	}
	cp := *p
	return &cp, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []*models.Booking
	cancelled []*models.Booking
	issues    []*models.PaymentIssue
}

func (n *recordingNotifier) BookingConfirmed(b *models.Booking, _ *models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, b)
}

func (n *recordingNotifier) BookingCancelled(b *models.Booking, _ *models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, b)
}

func (n *recordingNotifier) PaymentIssueRaised(issue *models.PaymentIssue, _ *models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.issues = append(n.issues, issue)
}

// --------------------------------------------------
// Harness
// --------------------------------------------------

type harness struct {
	repo     *memory.Repository
	payments *memory.Payments
	stash    *memory.Stash
	gateway  *fakeGateway
	notifier *recordingNotifier

	availability *GetAvailability
	guard        *ConflictGuard
	create       *CreateBooking
	cancel       *CancelBooking
	reconcile    *ReconcilePayment
}

func newHarness(now time.Time) *harness {
	log := zap.NewNop()
	h := &harness{
		repo:     seededRepo(),
		payments: memory.NewPayments(),
		stash:    memory.NewStash(),
		gateway:  &fakeGateway{url: "https://pay.example/checkout/1", payments: map[string]*domain.PaymentInfo{}},
		notifier: &recordingNotifier{},
	}
	clock := fixedClock(now)

	h.availability = NewGetAvailability(h.repo, log)
	h.guard = NewConflictGuard(h.availability, h.repo, log)
	h.create = NewCreateBooking(h.repo, h.guard, h.stash, h.gateway, CheckoutConfig{
		Currency:   "USD",
		SuccessURL: "https://lessons.example.com/api/payments/success",
		CancelURL:  "https://lessons.example.com/api/payments/cancel",
		NotifyURL:  "https://lessons.example.com/api/payments/notify",
	}, h.notifier, nil, nil, clock, log)
	h.cancel = NewCancelBooking(h.repo, h.notifier, nil, nil, clock, log)
	h.reconcile = NewReconcilePayment(h.repo, h.payments, h.stash, h.guard, h.gateway, h.notifier, nil, nil, log)
	return h
}

func cashInput(date, t string) CreateBookingInput {
	return CreateBookingInput{
		UserID:        customerID,
		SessionID:     "sess-ana",
		PackageID:     packageID,
		InstructorID:  instructorID,
		Date:          date,
		Time:          t,
		PaymentMethod: string(domain.PaymentCash),
	}
}

func onlineInput(userID uint, session, date, t string) CreateBookingInput {
	in := cashInput(date, t)
	in.UserID = userID
	in.SessionID = session
	in.PaymentMethod = string(domain.PaymentOnline)
	return in
}

func completedPayment(h *harness, providerID string, userID uint) *models.PaymentNotification {
	n := &models.PaymentNotification{
		ProviderPaymentID: providerID,
		Status:            string(domain.PaymentCompleted),
		CorrelationToken:  correlationToken(userID),
		Amount:            150,
		Currency:          "USD",
	}
	if err := h.payments.SaveNotification(context.Background(), n); err != nil {
		panic(err)
	}
	return n
}
