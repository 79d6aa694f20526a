package controllers

import (
	"fmt"
	"time"

	"almanara_go/database"
	"almanara_go/middleware"
	"almanara_go/models"
	"almanara_go/services/reports"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	exporter *reports.Exporter
}

func NewReportController(exporter *reports.Exporter) *ReportController {
	return &ReportController{exporter: exporter}
}

// DownloadPaymentsReport streams the payments workbook as an xlsx download.
func (rc *ReportController) DownloadPaymentsReport(c *fiber.Ctx) error {
	buf, count, err := rc.exporter.PaymentsWorkbook(c.Context())
	if err != nil {
		return upstreamError(c, err)
	}

	middleware.LogActivity(c, "EXPORT", "payments", 0, fiber.Map{"rows": count})

	fileName := fmt.Sprintf("payments_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	return c.Send(buf.Bytes())
}

// ArchivePaymentsReport builds the workbook and uploads it to S3 on demand,
// outside the nightly schedule.
func (rc *ReportController) ArchivePaymentsReport(c *fiber.Ctx) error {
	if err := rc.exporter.ArchivePayments(c.Context()); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Report archived"})
}

// GetReportArchives lists past archive runs and their outcomes.
func (rc *ReportController) GetReportArchives(c *fiber.Ctx) error {
	var archives []models.ReportArchive
	if err := database.DB.Order("created_at DESC").Limit(100).Find(&archives).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch report archives",
		})
	}
	return c.JSON(fiber.Map{
		"archives": archives,
		"total":    len(archives),
	})
}
