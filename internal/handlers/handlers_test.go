package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/infra/memory"
	"github.com/BruksfildServices01/lesson-scheduler/internal/middleware"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
	"github.com/BruksfildServices01/lesson-scheduler/internal/timezone"
	ucBooking "github.com/BruksfildServices01/lesson-scheduler/internal/usecase/booking"
	ucInstructor "github.com/BruksfildServices01/lesson-scheduler/internal/usecase/instructor"
)

const (
	testUser       = uint(42)
	testAdmin      = uint(1)
	testInstructor = uint(7)
	testPackage    = uint(1)
	testMonday     = "2025-06-02"
	testWednesday  = "2025-06-04"
)

type stubGateway struct {
	payments map[string]*domain.PaymentInfo
}

func (g *stubGateway) CreateCheckout(context.Context, domain.CheckoutRequest) (string, error) {
	return "https://pay.example/checkout/1", nil
}

func (g *stubGateway) GetPayment(_ context.Context, id string) (*domain.PaymentInfo, error) {
	p, ok := g.payments[id]
	if !ok {
		return nil, domain.ErrPaymentGateway
	}
	cp := *p
	return &cp, nil
}

type silentNotifier struct{}

func (silentNotifier) BookingConfirmed(*models.Booking, *models.User) {}
func (silentNotifier) BookingCancelled(*models.Booking, *models.User) {}
func (silentNotifier) PaymentIssueRaised(*models.PaymentIssue, *models.User) {}

// asUser stands in for AuthMiddleware.
func asUser(id uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Set(middleware.ContextUserRole, role)
		c.Set(middleware.ContextSessionID, "session-1")
		c.Next()
	}
}

type testServer struct {
	engine   *gin.Engine
	repo     *memory.Repository
	stash    *memory.Stash
	payments *memory.Payments
	gateway  *stubGateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := memory.NewRepository()
	repo.Users[testUser] = &models.User{ID: testUser, Name: "Ana", Email: "ana@example.com"}
	repo.Users[testAdmin] = &models.User{ID: testAdmin, Name: "Desk", Email: "desk@example.com", Role: models.RoleAdmin}
	repo.Instructors[testInstructor] = &models.Instructor{
		ID:            testInstructor,
		Name:          "Dana",
		StartTime:     "09:00:00",
		EndTime:       "17:00:00",
		AvailableDays: "0,1,2,3,4",
		Active:        true,
	}
	repo.Packages[testPackage] = &models.TrainingPackage{
		ID: testPackage, Name: "Pistol basics", DurationMin: 90, Price: 150, Active: true,
	}

	payments := memory.NewPayments()
	stash := memory.NewStash()
	gateway := &stubGateway{payments: map[string]*domain.PaymentInfo{}}
	log := zap.NewNop()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := timezone.Clock{Loc: time.UTC, Now: func() time.Time { return now }}

	availability := ucBooking.NewGetAvailability(repo, log)
	guard := ucBooking.NewConflictGuard(availability, repo, log)

	bookings := NewBookingHandler(
		ucBooking.NewCreateBooking(repo, guard, stash, nil, ucBooking.CheckoutConfig{}, silentNotifier{}, nil, nil, clock, log),
		ucBooking.NewCancelBooking(repo, silentNotifier{}, nil, nil, clock, log),
		ucBooking.NewListBookings(repo, clock, log),
		ucBooking.NewGetBooking(repo, clock, log),
	)
	payment := NewPaymentHandler(
		ucBooking.NewReconcilePayment(repo, payments, stash, guard, gateway, silentNotifier{}, nil, nil, log),
		ucBooking.NewDiscardPending(stash, log),
		log,
	)
	admin := NewAdminHandler(
		ucInstructor.NewUpdateSchedule(repo, nil, log),
		ucInstructor.NewSetOverride(repo, nil, log),
		ucInstructor.NewRemoveOverride(repo, nil, log),
		ucBooking.NewListPaymentIssues(payments, log),
	)
	public := NewPublicHandler(nil, availability)

	r := gin.New()
	r.GET("/api/slots", public.Slots)
	r.GET("/api/instructors/:id/availability", public.Availability)
	r.POST("/api/payments/notify", payment.Notify)

	customer := r.Group("/api", asUser(testUser, models.RoleCustomer))
	customer.POST("/bookings", bookings.Create)
	customer.GET("/bookings", bookings.List)
	customer.GET("/bookings/:id", bookings.Get)
	customer.POST("/bookings/:id/cancel", bookings.Cancel)
	customer.GET("/payments/success", payment.Success)
	customer.GET("/payments/cancel", payment.Cancel)

	staff := r.Group("/api/admin", asUser(testAdmin, models.RoleAdmin))
	staff.PUT("/instructors/:id/schedule", admin.UpdateSchedule)
	staff.PUT("/instructors/:id/overrides/:date", admin.SetOverride)
	staff.DELETE("/instructors/:id/overrides/:date", admin.RemoveOverride)
	staff.GET("/payment-issues", admin.PaymentIssues)

	return &testServer{engine: r, repo: repo, stash: stash, payments: payments, gateway: gateway}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"error_code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func cashBooking(t string) gin.H {
	return cashBookingOn(testMonday, t)
}

func cashBookingOn(date, t string) gin.H {
	return gin.H{
		"package_id":     testPackage,
		"instructor_id":  testInstructor,
		"date":           date,
		"time":           t,
		"payment_method": "cash",
	}
}

func TestCreateBooking_CashReturnsCreated(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/bookings", cashBooking("10:00"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var b models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Equal(t, string(domain.StatusConfirmed), b.Status)
	assert.Equal(t, "10:00:00", b.Time)
	assert.Equal(t, 90, b.DurationMin)
}

func TestCreateBooking_SecondRequestForSlotConflicts(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/bookings", cashBooking("10:00")).Code)

	w := s.do(http.MethodPost, "/api/bookings", cashBooking("10:00"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "slot_unavailable", errorCode(t, w))
	assert.Len(t, s.repo.ActiveBookings(), 1)
}

func TestCreateBooking_BadInput(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		body gin.H
		code string
	}{
		{"missing fields", gin.H{"date": testMonday}, "invalid_request"},
		{"bad date", gin.H{"package_id": 1, "instructor_id": 7, "date": "02/06/2025", "time": "10:00", "payment_method": "cash"}, "invalid_date"},
		{"bad time", gin.H{"package_id": 1, "instructor_id": 7, "date": testMonday, "time": "ten", "payment_method": "cash"}, "invalid_time"},
		{"online without gateway", gin.H{"package_id": 1, "instructor_id": 7, "date": testMonday, "time": "10:00", "payment_method": "online"}, "invalid_request"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/bookings", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.code, errorCode(t, w))
		})
	}
}

func TestAvailability_ExcludesBookedSlot(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/bookings", cashBooking("10:00")).Code)

	w := s.do(http.MethodGet, "/api/instructors/7/availability?date="+testMonday, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []domain.Slot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data)
	for _, slot := range body.Data {
		assert.NotEqual(t, "10:00:00", slot.Time.String())
	}
}

func TestAvailability_Errors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/instructors/7/availability?date=tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_date", errorCode(t, w))

	w = s.do(http.MethodGet, "/api/instructors/abc/availability?date="+testMonday, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_id", errorCode(t, w))
}

func TestCancelBooking_ThenAgainIsInvalidStatus(t *testing.T) {
	s := newTestServer(t)

	// The cancellation deadline for Wednesday is Tuesday 00:00.
	created := s.do(http.MethodPost, "/api/bookings", cashBookingOn(testWednesday, "11:00"))
	require.Equal(t, http.StatusCreated, created.Code)
	var b models.Booking
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &b))

	path := "/api/bookings/" + itoa(b.ID) + "/cancel"
	w := s.do(http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, path, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_status", errorCode(t, w))
}

func TestGetBooking_UnknownIsNotFound(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/bookings/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListBookings_SplitsUpcoming(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/bookings", cashBooking("09:00")).Code)

	w := s.do(http.MethodGet, "/api/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var dash struct {
		Upcoming []json.RawMessage `json:"upcoming"`
		Past     []json.RawMessage `json:"past"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.Len(t, dash.Upcoming, 1)
	assert.Empty(t, dash.Past)
}

func TestPaymentSuccess_WithoutPaymentIsProcessing(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/payments/success", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), string(ucBooking.ReconcileProcessing))
}

func TestPaymentNotify_IgnoresOtherTopics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/payments/notify?topic=merchant_order&id=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/payments/notify", gin.H{"type": "plan", "data": gin.H{"id": "9"}})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPaymentNotify_UnknownPaymentIsBadGateway(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/payments/notify", gin.H{"type": "payment", "data": gin.H{"id": "123"}})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "payment_unavailable", errorCode(t, w))
}

func TestPaymentNotify_SlotTakenIsRecordedAsIssue(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.stash.Put(context.Background(), "session-1", domain.Intent{
		UserID:       testUser,
		PackageID:    testPackage,
		InstructorID: testInstructor,
		Date:         testMonday,
		Time:         "10:00:00",
		DurationMin:  90,
		Amount:       150,
		StagedAt:     time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}))
	// The slot goes to a cash booking while the payer is at checkout.
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/bookings", cashBooking("10:00")).Code)

	s.gateway.payments["991"] = &domain.PaymentInfo{
		ProviderID: "991", Status: "completed", CorrelationToken: "42", Amount: 150, Currency: "USD",
	}

	w := s.do(http.MethodPost, "/api/payments/notify", gin.H{"type": "payment", "data": gin.H{"id": "991"}})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"status":"issue_recorded"}`, w.Body.String())
	assert.Len(t, s.payments.Issues, 1)
	assert.Equal(t, 1, s.repo.ActiveBookings())
}

func TestAdmin_OverrideClosesDay(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPut, "/api/admin/instructors/7/overrides/"+testMonday, gin.H{"is_available": false, "reason": "range maintenance"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/instructors/7/availability?date="+testMonday, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"total":0}`, w.Body.String())

	w = s.do(http.MethodDelete, "/api/admin/instructors/7/overrides/"+testMonday, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodDelete, "/api/admin/instructors/7/overrides/"+testMonday, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_OverrideRequiresFlag(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPut, "/api/admin/instructors/7/overrides/"+testMonday, gin.H{"reason": "?"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_UpdateScheduleRejectsInvertedHours(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPut, "/api/admin/instructors/7/schedule", gin.H{
		"start_time":     "18:00",
		"end_time":       "09:00",
		"available_days": []int{0, 1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", errorCode(t, w))
}

func TestAdmin_PaymentIssuesEmpty(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/admin/payment-issues", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"total":0}`, w.Body.String())
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestCancelBooking_InsideWindowIsRejected(t *testing.T) {
	s := newTestServer(t)

	created := s.do(http.MethodPost, "/api/bookings", cashBooking("12:00"))
	require.Equal(t, http.StatusCreated, created.Code)
	var b models.Booking
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &b))

	w := s.do(http.MethodPost, "/api/bookings/"+itoa(b.ID)+"/cancel", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "cancellation_window_expired", errorCode(t, w))
}

func TestPaymentCancel_DiscardsStagedIntent(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.stash.Put(context.Background(), "session-1", domain.Intent{
		UserID:       testUser,
		PackageID:    testPackage,
		InstructorID: testInstructor,
		Date:         testMonday,
		Time:         "10:00:00",
	}))

	w := s.do(http.MethodGet, "/api/payments/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, s.stash.Len())
}
