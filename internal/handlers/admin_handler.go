package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/lesson-scheduler/internal/httperr"
	"github.com/BruksfildServices01/lesson-scheduler/internal/httpresp"
	ucBooking "github.com/BruksfildServices01/lesson-scheduler/internal/usecase/booking"
	ucInstructor "github.com/BruksfildServices01/lesson-scheduler/internal/usecase/instructor"
)

type AdminHandler struct {
	schedule       *ucInstructor.UpdateSchedule
	setOverride    *ucInstructor.SetOverride
	removeOverride *ucInstructor.RemoveOverride
	issues         *ucBooking.ListPaymentIssues
}

func NewAdminHandler(
	schedule *ucInstructor.UpdateSchedule,
	setOverride *ucInstructor.SetOverride,
	removeOverride *ucInstructor.RemoveOverride,
	issues *ucBooking.ListPaymentIssues,
) *AdminHandler {
	return &AdminHandler{
		schedule:       schedule,
		setOverride:    setOverride,
		removeOverride: removeOverride,
		issues:         issues,
	}
}

type UpdateScheduleRequest struct {
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Days      []int  `json:"available_days"`
}

func (h *AdminHandler) UpdateSchedule(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "start_time and end_time are required.")
		return
	}

	ins, err := h.schedule.Execute(c.Request.Context(), ucInstructor.UpdateScheduleInput{
		AdminID:      currentUser(c),
		InstructorID: id,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Days:         req.Days,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, ins)
}

type SetOverrideRequest struct {
	IsAvailable *bool  `json:"is_available" binding:"required"`
	Reason      string `json:"reason"`
}

func (h *AdminHandler) SetOverride(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req SetOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "is_available is required.")
		return
	}

	o, err := h.setOverride.Execute(c.Request.Context(), ucInstructor.SetOverrideInput{
		AdminID:      currentUser(c),
		InstructorID: id,
		Date:         c.Param("date"),
		IsAvailable:  *req.IsAvailable,
		Reason:       req.Reason,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, o)
}

func (h *AdminHandler) RemoveOverride(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.removeOverride.Execute(c.Request.Context(), currentUser(c), id, c.Param("date")); err != nil {
		httperr.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) PaymentIssues(c *gin.Context) {
	issues, err := h.issues.Execute(c.Request.Context())
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.List(c, issues)
}
