package controllers

import (
	"context"
	"time"

	"almanara_go/database"
	"almanara_go/models"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct{}

// GetHealth reports liveness plus the state of the local dependencies.
// The academy API is intentionally not probed here; its failures surface as
// degraded list responses, not as gateway unhealthiness.
func (hc *HealthController) GetHealth(c *fiber.Ctx) error {
	checks := fiber.Map{}
	healthy := true

	if db := database.GetDB(); db != nil {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			checks["database"] = "down"
			healthy = false
		} else {
			checks["database"] = "up"
		}
	} else {
		checks["database"] = "not connected"
		healthy = false
	}

	if rdb := database.GetRedisClient(); rdb != nil {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			checks["redis"] = "down"
		} else {
			checks["redis"] = "up"
		}
	} else {
		checks["redis"] = "disabled"
	}

	status := "ok"
	code := fiber.StatusOK
	if !healthy {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"time":   time.Now().UTC(),
		"checks": checks,
	})
}

// GetSagas lists recent saga journal entries for the ops dashboard.
func (hc *HealthController) GetSagas(c *fiber.Ctx) error {
	var sagas []models.SagaRecord
	query := database.DB.Preload("Steps").Order("created_at DESC").Limit(100)
	if state := c.Query("state"); state != "" {
		query = query.Where("state = ?", state)
	}
	if err := query.Find(&sagas).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch sagas",
		})
	}
	return c.JSON(fiber.Map{
		"sagas": sagas,
		"total": len(sagas),
	})
}
