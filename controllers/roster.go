package controllers

import (
	"errors"
	"strconv"

	"almanara_go/apiclient"
	"almanara_go/middleware"
	"almanara_go/models"
	"almanara_go/services/roster"

	"github.com/gofiber/fiber/v2"
)

type RosterController struct {
	distributor *roster.Distributor
	api         *apiclient.Client
}

func NewRosterController(distributor *roster.Distributor, api *apiclient.Client) *RosterController {
	return &RosterController{distributor: distributor, api: api}
}

// GetUndistributedEnrollments lists enrollments waiting to be placed on an
// assignment roster.
func (rc *RosterController) GetUndistributedEnrollments(c *fiber.Ctx) error {
	list, err := rc.api.EnrollmentsNotDivided(c.Context())
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(fiber.Map{
		"enrollments": list,
		"total":       len(list),
	})
}

type distributeRequest struct {
	Enrollments []models.Enrollment `json:"enrollments"`
}

// Distribute assigns the selected enrollments to an assignment roster and
// fans out notification emails. Progress events stream over the websocket
// "distribution" topic while the run is in flight.
func (rc *RosterController) Distribute(c *fiber.Ctx) error {
	assignmentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment ID",
		})
	}

	var req distributeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.Enrollments) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one enrollment is required",
		})
	}

	result, err := rc.distributor.Distribute(c.Context(), uint(assignmentID), req.Enrollments)
	if err != nil {
		if errors.Is(err, roster.ErrNoStudents) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "None of the selected enrollments match the assignment's course",
			})
		}
		return upstreamError(c, err)
	}

	middleware.LogActivity(c, "DISTRIBUTE", "co_ass", uint(assignmentID), fiber.Map{
		"assigned": result.Assigned,
		"notified": result.Notified,
	})

	return c.JSON(fiber.Map{
		"message": "Distribution completed",
		"result":  result,
	})
}

// GetRoster lists the students already placed on an assignment.
func (rc *RosterController) GetRoster(c *fiber.Ctx) error {
	assignmentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment ID",
		})
	}

	records, err := rc.api.CourseStudentsByAssignment(c.Context(), uint(assignmentID))
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(fiber.Map{
		"students": records,
		"total":    len(records),
	})
}
