package middleware

import (
	"encoding/json"
	"time"

	"almanara_go/database"
	"almanara_go/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logrus.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"duration":   duration.String(),
			"ip":         c.IP(),
			"user_agent": c.Get("User-Agent"),
		}).Info("HTTP Request")

		return err
	}
}

// LogActivity records an admin/teacher action against a resource. The write
// happens off the request path; a lost audit row must not fail the request.
func LogActivity(c *fiber.Ctx, action, resource string, resourceID uint, details interface{}) {
	var userID uint
	if claims, ok := c.Locals("claims").(*Claims); ok {
		userID = claims.UserID
	}

	var detailsJSON models.JSON
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = models.JSON(b)
		}
	}

	entry := models.ActivityLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    detailsJSON,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	}

	go func() {
		db := database.GetDB()
		if db == nil {
			return
		}
		if err := db.Create(&entry).Error; err != nil {
			logrus.WithError(err).Error("Failed to record activity log")
		}
	}()
}
