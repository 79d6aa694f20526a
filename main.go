package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"almanara_go/apiclient"
	"almanara_go/config"
	"almanara_go/database"
	"almanara_go/routes"
	"almanara_go/services"
	"almanara_go/services/notifications"
	"almanara_go/services/reports"
	ws "almanara_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	appmiddleware "almanara_go/middleware"
)

func main() {
	config.LoadConfig()
	setupLogging()

	database.Connect()
	defer database.Close()

	hub := ws.NewHub()
	go hub.Run()

	notifSvc := notifications.NewService()
	notifSvc.SetWebSocketHub(hub)
	stopWorker := make(chan struct{})
	notifSvc.StartWorker(stopWorker)

	exporter := reports.NewExporter(apiclient.New())
	scheduler := services.NewScheduler(exporter, notifSvc)
	scheduler.Start()

	app := fiber.New(fiber.Config{
		AppName:      "Al-Manara Academy Gateway",
		ErrorHandler: customErrorHandler,
		BodyLimit:    int(config.AppConfig.MaxFileSize) + 1024*1024,
	})

	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(appmiddleware.LoggerMiddleware())

	routes.SetupRoutes(app, hub, notifSvc)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Route not found",
		})
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		logrus.Info("Shutting down...")
		scheduler.Stop()
		close(stopWorker)
		_ = app.Shutdown()
	}()

	logrus.Infof("Starting server on port %s (env=%s)", config.AppConfig.Port, config.AppConfig.AppEnv)
	if err := app.Listen(":" + config.AppConfig.Port); err != nil {
		logrus.Fatal("Server failed to start: ", err)
	}
}

func setupLogging() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(config.AppConfig.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	logFile := config.AppConfig.LogFile
	if logFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		logrus.WithError(err).Warn("Failed to create log directory, logging to stdout only")
		return
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logrus.WithError(err).Warn("Failed to open log file, logging to stdout only")
		return
	}
	logrus.SetOutput(f)
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	logrus.WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"status": code,
	}).WithError(err).Error("Request failed")

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
