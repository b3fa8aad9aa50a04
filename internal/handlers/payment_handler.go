package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/httperr"
	"github.com/BruksfildServices01/lesson-scheduler/internal/httpresp"
	ucBooking "github.com/BruksfildServices01/lesson-scheduler/internal/usecase/booking"
)

type PaymentHandler struct {
	reconcile *ucBooking.ReconcilePayment
	discard   *ucBooking.DiscardPending
	log       *zap.Logger
}

func NewPaymentHandler(
	reconcile *ucBooking.ReconcilePayment,
	discard *ucBooking.DiscardPending,
	log *zap.Logger,
) *PaymentHandler {
	return &PaymentHandler{reconcile: reconcile, discard: discard, log: log}
}

// Success is where the provider sends the payer back after checkout.
func (h *PaymentHandler) Success(c *gin.Context) {
	res, err := h.reconcile.Execute(c.Request.Context(), currentUser(c), currentSession(c))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	if res.Status == ucBooking.ReconcileProcessing {
		httpresp.Accepted(c, res)
		return
	}
	httpresp.OK(c, res)
}

func (h *PaymentHandler) Cancel(c *gin.Context) {
	if err := h.discard.Execute(c.Request.Context(), currentSession(c)); err != nil {
		httperr.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

type notifyRequest struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Notify receives the provider webhook. Both the JSON body and the legacy
// query form (?topic=payment&id=) are accepted. Non-payment topics are
// acknowledged and ignored.
func (h *PaymentHandler) Notify(c *gin.Context) {
	var req notifyRequest
	_ = c.ShouldBindJSON(&req)

	kind, id := req.Type, req.Data.ID
	if kind == "" {
		kind = c.DefaultQuery("type", c.Query("topic"))
	}
	if id == "" {
		id = c.DefaultQuery("data.id", c.Query("id"))
	}

	if kind != "payment" || id == "" {
		c.Status(http.StatusOK)
		return
	}

	res, err := h.reconcile.HandleNotification(c.Request.Context(), id)
	switch {
	case errors.Is(err, domain.ErrPaymentReconciliationConflict):
		// Recorded as a payment issue; a retry would not change anything.
		c.JSON(http.StatusOK, gin.H{"status": "issue_recorded"})
	case err != nil:
		h.log.Warn("payment notification not processed", zap.String("provider_payment_id", id), zap.Error(err))
		httperr.FromError(c, err)
	default:
		c.JSON(http.StatusOK, res)
	}
}
