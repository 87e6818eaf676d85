package routes

import (
	"unitimetable/controllers"
	"unitimetable/middleware"
	"unitimetable/services"
	"unitimetable/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// SetupRoutes wires every endpoint. Reads are open to any authenticated
// user; timetable mutations are admin-only, status updates also accept
// professors.
func SetupRoutes(app *fiber.App, hub *websocket.Hub) {
	reservations := services.NewReservationService()
	availabilityService := services.NewAvailabilityService(reservations)
	statusService := services.NewStatusService(hub)
	publishService := services.NewPublishService(reservations, hub)
	exportService := services.NewExportService(publishService)
	notificationService := services.NewNotificationService()
	archiveService := services.NewLogArchiveService()

	authController := &controllers.AuthController{}
	referenceController := &controllers.ReferenceController{}
	availabilityController := controllers.NewAvailabilityController(availabilityService)
	classController := controllers.NewClassStatusController(statusService)
	timetableController := controllers.NewTimetableController(publishService, exportService)
	notificationController := controllers.NewNotificationController(notificationService)
	logController := controllers.NewLogController(archiveService)
	wsController := controllers.NewWebSocketController(hub)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Public
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)

	// Everything else requires a valid session
	protected := api.Group("", middleware.JWTMiddleware(), middleware.LogActivityMiddleware())

	protected.Post("/auth/logout", authController.Logout)
	protected.Get("/auth/profile", authController.GetProfile)
	protected.Post("/auth/change-password", authController.ChangePassword)

	// Reference data for the editor pickers
	protected.Get("/years", referenceController.GetYears)
	protected.Get("/groups", referenceController.GetGroups)
	protected.Get("/subjects", referenceController.GetSubjects)
	protected.Get("/rooms", referenceController.GetRooms)
	protected.Get("/professors", referenceController.GetProfessors)
	protected.Get("/vocabularies", referenceController.GetVocabularies)
	protected.Post("/rooms", middleware.RequireAdmin(), referenceController.CreateRoom)
	protected.Put("/rooms/:id", middleware.RequireAdmin(), referenceController.UpdateRoom)
	protected.Post("/subjects", middleware.RequireAdmin(), referenceController.CreateSubject)
	protected.Put("/subjects/:id", middleware.RequireAdmin(), referenceController.UpdateSubject)
	protected.Delete("/subjects/:id", middleware.RequireAdmin(), referenceController.DeleteSubject)

	// Availability checks run before an admin commits a cell
	availability := protected.Group("/availability", middleware.RequireAdmin())
	availability.Post("/check_room", availabilityController.CheckRoom)
	availability.Post("/check_professor", availabilityController.CheckProfessor)

	// Class status actions: professors manage their own slots, admins any
	classes := protected.Group("/classes", middleware.RequireProfessorOrAdmin())
	classes.Post("/update_status", classController.UpdateStatus)

	// Timetable grid
	timetables := protected.Group("/timetables")
	timetables.Get("/get", timetableController.Get)
	timetables.Get("/export", timetableController.Export)
	timetables.Post("/save", middleware.RequireAdmin(), timetableController.Save)
	timetables.Post("/publish", middleware.RequireAdmin(), timetableController.Publish)
	timetables.Post("/publish_all", middleware.RequireAdmin(), timetableController.PublishAll)
	timetables.Post("/delete", middleware.RequireAdmin(), timetableController.Delete)
	timetables.Post("/clear", middleware.RequireAdmin(), timetableController.Clear)

	// Status notification feed for admins
	notifications := protected.Group("/notifications", middleware.RequireAdmin())
	notifications.Get("/", notificationController.List)

	// Activity logs and archives
	logs := protected.Group("/logs", middleware.RequireAdmin())
	logs.Get("/", logController.GetLogs)
	logs.Post("/flush", logController.FlushLogs)
	logs.Get("/archives", logController.GetArchives)
	logs.Get("/archives/:id/download", logController.DownloadArchive)

	protected.Get("/ws/stats", middleware.RequireAdmin(), wsController.Stats)

	// WebSocket endpoint; the token travels as a query parameter
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", wsController.Handler())
}
