package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
)

func render(err error) (int, HTTPError) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, err)

	var body HTTPError
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body
}

func TestFromError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrInvalidDateFormat, http.StatusBadRequest, "invalid_date"},
		{fmt.Errorf("%w: %q", domain.ErrInvalidTimeFormat, "25:00"), http.StatusBadRequest, "invalid_time"},
		{domain.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
		{domain.ErrCancellationWindowExpired, http.StatusUnprocessableEntity, "cancellation_window_expired"},
		{domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{domain.ErrPaymentReconciliationConflict, http.StatusConflict, "payment_reconciliation_conflict"},
		{domain.ErrPaymentGateway, http.StatusBadGateway, "payment_unavailable"},
		{fmt.Errorf("%w: create booking", domain.ErrPersistence), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			status, body := render(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestFromError_ValidationCarriesDetail(t *testing.T) {
	status, body := render(fmt.Errorf("%w: notes longer than 500 characters", domain.ErrValidation))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", body.Code)
	assert.Contains(t, body.Message, "notes longer than 500")
}

func TestFromError_HidesUnknownErrors(t *testing.T) {
	status, body := render(errors.New("pq: password authentication failed for user lesson"))

	require.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, body.Message, "password")
}
