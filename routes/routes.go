package routes

import (
	"almanara_go/apiclient"
	"almanara_go/config"
	"almanara_go/controllers"
	"almanara_go/database"
	"almanara_go/middleware"
	"almanara_go/services/catalog"
	"almanara_go/services/countries"
	"almanara_go/services/notifications"
	"almanara_go/services/notifier"
	"almanara_go/services/payments"
	"almanara_go/services/reports"
	"almanara_go/services/roster"
	ws "almanara_go/services/websocket"
	"almanara_go/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, hub *ws.Hub, notifSvc *notifications.Service) {
	api := apiclient.New()
	chat := notifier.New()

	store, err := storage.NewStorageService()
	if err != nil {
		logrus.WithError(err).Warn("Receipt storage unavailable")
		store = nil
	}

	paymentSvc := payments.NewService(api, database.GetDB(), chat)
	catalogSvc := catalog.NewService(api)
	countrySvc := countries.NewService(database.GetRedisClient())
	distributor := roster.NewDistributor(api, chat, hub, config.AppConfig.DistributionWorkers)
	exporter := reports.NewExporter(api)

	authCtl := &controllers.AuthController{}
	paymentCtl := controllers.NewPaymentController(paymentSvc, api, store, notifSvc)
	catalogCtl := controllers.NewCatalogController(catalogSvc, countrySvc, api)
	rosterCtl := controllers.NewRosterController(distributor, api)
	reportCtl := controllers.NewReportController(exporter)
	notifCtl := &controllers.NotificationController{}
	wsCtl := controllers.NewWebSocketController(hub)
	healthCtl := &controllers.HealthController{}

	app.Get("/health", healthCtl.GetHealth)

	v1 := app.Group("/api")

	// Public browse views and the learner payment flow. No session required:
	// learners submit payments and check status by email.
	public := v1.Group("/public")
	public.Get("/courses", catalogCtl.GetCourses)
	public.Get("/courses/:id/details", catalogCtl.GetCourseDetails)
	public.Get("/teachers", catalogCtl.GetTeachers)
	public.Get("/specializations", catalogCtl.GetSpecializations)
	public.Get("/payment-methods", catalogCtl.GetPaymentMethods)
	public.Get("/lessons", catalogCtl.GetLessons)
	public.Get("/assignments", catalogCtl.GetAssignments)
	public.Get("/countries", catalogCtl.GetCountries)
	public.Post("/payments", paymentCtl.SubmitPayment)
	public.Post("/payments/receipt", paymentCtl.UploadReceipt)
	public.Get("/payments", paymentCtl.GetPaymentsByEmail)

	// Auth
	auth := v1.Group("/auth")
	auth.Post("/login", authCtl.Login)
	auth.Get("/profile", middleware.JWTMiddleware(), authCtl.GetProfile)
	auth.Put("/password", middleware.JWTMiddleware(), authCtl.ChangePassword)
	auth.Post("/register", middleware.JWTMiddleware(), middleware.RequireAdmin(), authCtl.Register)

	protected := v1.Group("", middleware.JWTMiddleware())

	// Staff views
	staff := protected.Group("", middleware.RequireTeacherOrAbove())
	staff.Get("/students", catalogCtl.GetStudents)
	staff.Get("/assignments/:id/exams", catalogCtl.GetAssignmentExams)
	staff.Get("/assignments/:id/grades", catalogCtl.GetAssignmentGrades)
	staff.Get("/assignments/:id/attendance", catalogCtl.GetAssignmentAttendance)
	staff.Get("/assignments/:id/roster", rosterCtl.GetRoster)

	// Admin payment review and distribution workflows
	admin := protected.Group("", middleware.RequireAdmin())
	admin.Get("/payments", paymentCtl.GetPayments)
	admin.Post("/payments/:id/review", paymentCtl.ReviewPayment)
	admin.Get("/payments/:id/reviews", paymentCtl.GetPaymentReviews)
	admin.Get("/enrollments/notdivided", rosterCtl.GetUndistributedEnrollments)
	admin.Post("/assignments/:id/distribute", rosterCtl.Distribute)

	// Reports
	admin.Get("/reports/payments.xlsx", reportCtl.DownloadPaymentsReport)
	admin.Post("/reports/payments/archive", reportCtl.ArchivePaymentsReport)
	admin.Get("/reports/archives", reportCtl.GetReportArchives)

	// Ops
	admin.Get("/sagas", healthCtl.GetSagas)
	admin.Get("/ws/stats", wsCtl.GetStats)

	// Notifications for the signed-in user
	protected.Get("/notifications", notifCtl.GetNotifications)
	protected.Put("/notifications/:id/read", notifCtl.MarkNotificationRead)
	protected.Put("/notifications/read-all", notifCtl.MarkAllNotificationsRead)

	// Live workflow progress stream
	protected.Use("/ws", wsCtl.UpgradeGuard)
	protected.Get("/ws", wsCtl.Handler())
}
