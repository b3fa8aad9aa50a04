package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/lesson-scheduler/internal/httperr"
	"github.com/BruksfildServices01/lesson-scheduler/internal/httpresp"
	ucBooking "github.com/BruksfildServices01/lesson-scheduler/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type BookingHandler struct {
	create *ucBooking.CreateBooking
	cancel *ucBooking.CancelBooking
	list   *ucBooking.ListBookings
	get    *ucBooking.GetBooking
}

func NewBookingHandler(
	create *ucBooking.CreateBooking,
	cancel *ucBooking.CancelBooking,
	list *ucBooking.ListBookings,
	get *ucBooking.GetBooking,
) *BookingHandler {
	return &BookingHandler{
		create: create,
		cancel: cancel,
		list:   list,
		get:    get,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateBookingRequest struct {
	PackageID     uint   `json:"package_id" binding:"required"`
	InstructorID  uint   `json:"instructor_id" binding:"required"`
	WeaponID      *uint  `json:"weapon_id"`
	LocationID    *uint  `json:"location_id"`
	Date          string `json:"date" binding:"required"` // YYYY-MM-DD
	Time          string `json:"time" binding:"required"` // HH:MM[:SS]
	DurationMin   int    `json:"duration_min"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	Notes         string `json:"notes"`
}

// ======================================================
// CREATE
// ======================================================

func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Missing or malformed booking fields.")
		return
	}

	res, err := h.create.Execute(c.Request.Context(), ucBooking.CreateBookingInput{
		UserID:        currentUser(c),
		SessionID:     currentSession(c),
		PackageID:     req.PackageID,
		WeaponID:      req.WeaponID,
		InstructorID:  req.InstructorID,
		LocationID:    req.LocationID,
		Date:          req.Date,
		Time:          req.Time,
		DurationMin:   req.DurationMin,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	if res.CheckoutURL != "" {
		httpresp.Accepted(c, gin.H{
			"status":       "payment_pending",
			"checkout_url": res.CheckoutURL,
		})
		return
	}

	httpresp.Created(c, res.Booking)
}

// ======================================================
// LIST / DETAIL
// ======================================================

func (h *BookingHandler) List(c *gin.Context) {
	dash, err := h.list.Execute(c.Request.Context(), currentUser(c))
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, dash)
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	v, err := h.get.Execute(c.Request.Context(), currentUser(c), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, v)
}

// ======================================================
// CANCEL
// ======================================================

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	b, err := h.cancel.Execute(c.Request.Context(), currentUser(c), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, b)
}
