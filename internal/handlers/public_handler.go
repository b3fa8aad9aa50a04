package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/httperr"
	"github.com/BruksfildServices01/lesson-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
	ucBooking "github.com/BruksfildServices01/lesson-scheduler/internal/usecase/booking"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

// PublicHandler serves what the booking form needs before login.
type PublicHandler struct {
	db           *gorm.DB
	availability *ucBooking.GetAvailability
}

func NewPublicHandler(db *gorm.DB, availability *ucBooking.GetAvailability) *PublicHandler {
	return &PublicHandler{db: db, availability: availability}
}

////////////////////////////////////////////////////////
// CATALOG
////////////////////////////////////////////////////////

type catalogResponse struct {
	Packages    []models.TrainingPackage `json:"packages"`
	Instructors []models.Instructor      `json:"instructors"`
	Weapons     []models.Weapon          `json:"weapons"`
	Locations   []models.RangeLocation   `json:"locations"`
	Slots       []domain.Slot            `json:"slots"`
}

// Catalog lists the active bookable resources.
func (h *PublicHandler) Catalog(c *gin.Context) {
	out := catalogResponse{Slots: domain.Catalog()}

	q := h.db.WithContext(c.Request.Context()).
		Where("active = ?", true).
		Order("name ASC").
		Session(&gorm.Session{})
	for _, dst := range []any{&out.Packages, &out.Instructors, &out.Weapons, &out.Locations} {
		if err := q.Find(dst).Error; err != nil {
			httperr.Internal(c, "catalog_failed", "Could not load the catalog.")
			return
		}
	}

	httpresp.OK(c, out)
}

func (h *PublicHandler) Slots(c *gin.Context) {
	httpresp.List(c, domain.Catalog())
}

////////////////////////////////////////////////////////
// AVAILABILITY
////////////////////////////////////////////////////////

func (h *PublicHandler) Availability(c *gin.Context) {
	instructorID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	date, err := domain.ParseDate(c.Query("date"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	slots, err := h.availability.Execute(c.Request.Context(), instructorID, date)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, slots)
}
