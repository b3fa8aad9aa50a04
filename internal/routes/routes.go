package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/lesson-scheduler/internal/audit"
	"github.com/BruksfildServices01/lesson-scheduler/internal/config"
	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/handlers"
	"github.com/BruksfildServices01/lesson-scheduler/internal/metrics"
	"github.com/BruksfildServices01/lesson-scheduler/internal/middleware"
	"github.com/BruksfildServices01/lesson-scheduler/internal/timezone"
	ucBooking "github.com/BruksfildServices01/lesson-scheduler/internal/usecase/booking"
	ucInstructor "github.com/BruksfildServices01/lesson-scheduler/internal/usecase/instructor"
)

// Deps are the singletons built by main. Gateway is nil when online payment
// is not configured.
type Deps struct {
	DB       *gorm.DB
	Repo     domain.Repository
	Payments domain.PaymentRepository
	Stash    domain.Stash
	Gateway  domain.PaymentGateway
	Notifier domain.Notifier
	Audit    *audit.Dispatcher
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps, cfg *config.Config) {

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(middleware.RequestLogger(d.Log, d.Metrics))
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	clock := timezone.NewClock(cfg.BusinessTimezone)

	// ======================================================
	// USE CASES
	// ======================================================
	availabilityUC := ucBooking.NewGetAvailability(d.Repo, d.Log)
	guard := ucBooking.NewConflictGuard(availabilityUC, d.Repo, d.Log)

	createUC := ucBooking.NewCreateBooking(
		d.Repo,
		guard,
		d.Stash,
		d.Gateway,
		ucBooking.CheckoutConfig{
			Currency:   cfg.PaymentCurrency,
			SuccessURL: cfg.PaymentSuccessURL(),
			CancelURL:  cfg.PaymentCancelURL(),
			NotifyURL:  cfg.PaymentNotifyURL(),
		},
		d.Notifier,
		d.Audit,
		d.Metrics,
		clock,
		d.Log,
	)

	cancelUC := ucBooking.NewCancelBooking(d.Repo, d.Notifier, d.Audit, d.Metrics, clock, d.Log)
	listUC := ucBooking.NewListBookings(d.Repo, clock, d.Log)
	getUC := ucBooking.NewGetBooking(d.Repo, clock, d.Log)

	reconcileUC := ucBooking.NewReconcilePayment(
		d.Repo,
		d.Payments,
		d.Stash,
		guard,
		d.Gateway,
		d.Notifier,
		d.Audit,
		d.Metrics,
		d.Log,
	)
	discardUC := ucBooking.NewDiscardPending(d.Stash, d.Log)
	issuesUC := ucBooking.NewListPaymentIssues(d.Payments, d.Log)

	scheduleUC := ucInstructor.NewUpdateSchedule(d.Repo, d.Audit, d.Log)
	setOverrideUC := ucInstructor.NewSetOverride(d.Repo, d.Audit, d.Log)
	removeOverrideUC := ucInstructor.NewRemoveOverride(d.Repo, d.Audit, d.Log)

	// ======================================================
	// HANDLERS
	// ======================================================
	publicHandler := handlers.NewPublicHandler(d.DB, availabilityUC)
	bookingHandler := handlers.NewBookingHandler(createUC, cancelUC, listUC, getUC)
	paymentHandler := handlers.NewPaymentHandler(reconcileUC, discardUC, d.Log)
	adminHandler := handlers.NewAdminHandler(scheduleUC, setOverrideUC, removeOverrideUC, issuesUC)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB)

	// ======================================================
	// OPS
	// ======================================================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// --------------------------------------------------
		// Public
		// --------------------------------------------------
		api.GET("/catalog", publicHandler.Catalog)
		api.GET("/slots", publicHandler.Slots)
		api.GET("/instructors/:id/availability", publicHandler.Availability)

		// Provider webhook, unauthenticated.
		api.POST("/payments/notify", paymentHandler.Notify)

		// --------------------------------------------------
		// Authenticated
		// --------------------------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		{
			secured.POST("/bookings", bookingHandler.Create)
			secured.GET("/bookings", bookingHandler.List)
			secured.GET("/bookings/:id", bookingHandler.Get)
			secured.POST("/bookings/:id/cancel", bookingHandler.Cancel)

			secured.GET("/payments/success", paymentHandler.Success)
			secured.GET("/payments/cancel", paymentHandler.Cancel)
		}

		// --------------------------------------------------
		// Admin
		// --------------------------------------------------
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(cfg.JWTSecret), middleware.RequireAdmin())
		{
			admin.PUT("/instructors/:id/schedule", adminHandler.UpdateSchedule)
			admin.PUT("/instructors/:id/overrides/:date", adminHandler.SetOverride)
			admin.DELETE("/instructors/:id/overrides/:date", adminHandler.RemoveOverride)
			admin.GET("/payment-issues", adminHandler.PaymentIssues)
			admin.GET("/audit-logs", auditLogsHandler.List)
		}
	}
}
