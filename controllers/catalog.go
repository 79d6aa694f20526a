package controllers

import (
	"strconv"
	"time"

	"almanara_go/apiclient"
	"almanara_go/services/catalog"
	"almanara_go/services/countries"

	"github.com/gofiber/fiber/v2"
)

// CatalogController serves the public read-side views. Lists are fetched
// from the academy API, filtered and sorted here, and degrade to a fallback
// dataset when the upstream is down.
type CatalogController struct {
	service   *catalog.Service
	countries *countries.Service
	api       *apiclient.Client
}

func NewCatalogController(service *catalog.Service, countrySvc *countries.Service, api *apiclient.Client) *CatalogController {
	return &CatalogController{service: service, countries: countrySvc, api: api}
}

// listOptions reads the shared filter/sort query parameters:
// search, nationality, spec_id, co_name, phase, sort=name|recent, order=asc|desc.
func listOptions(c *fiber.Ctx) catalog.ListOptions {
	opts := catalog.ListOptions{
		Search:      c.Query("search"),
		Nationality: c.Query("nationality"),
		CourseName:  c.Query("co_name"),
		Phase:       catalog.Phase(c.Query("phase")),
		SortDesc:    c.Query("order") == "desc",
		SortRecent:  c.Query("sort") == "recent",
	}
	if specID, err := strconv.ParseUint(c.Query("spec_id"), 10, 32); err == nil {
		opts.SpecID = uint(specID)
	}
	return opts
}

func (cc *CatalogController) GetCourses(c *fiber.Ctx) error {
	return c.JSON(cc.service.Courses(c.Context(), listOptions(c)))
}

func (cc *CatalogController) GetTeachers(c *fiber.Ctx) error {
	return c.JSON(cc.service.Teachers(c.Context(), listOptions(c)))
}

func (cc *CatalogController) GetStudents(c *fiber.Ctx) error {
	return c.JSON(cc.service.Students(c.Context(), listOptions(c)))
}

func (cc *CatalogController) GetSpecializations(c *fiber.Ctx) error {
	return c.JSON(cc.service.Specializations(c.Context(), listOptions(c)))
}

func (cc *CatalogController) GetPaymentMethods(c *fiber.Ctx) error {
	return c.JSON(cc.service.PaymentMethods(c.Context(), listOptions(c)))
}

func (cc *CatalogController) GetLessons(c *fiber.Ctx) error {
	return c.JSON(cc.service.Lessons(c.Context(), listOptions(c)))
}

// GetAssignments lists assignments with their derived lifecycle phase.
// ?phase=planned|running|finished filters on the derived phase.
func (cc *CatalogController) GetAssignments(c *fiber.Ctx) error {
	opts := listOptions(c)
	switch opts.Phase {
	case "", catalog.Planned, catalog.Running, catalog.Finished:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Phase must be one of: planned, running, finished",
		})
	}
	return c.JSON(cc.service.Assignments(c.Context(), opts, time.Now()))
}

// GetCountries returns the cached country name list for the nationality
// dropdowns, falling back to a bundled list when the lookup API is down.
func (cc *CatalogController) GetCountries(c *fiber.Ctx) error {
	names, degraded := cc.countries.Names(c.Context())
	return c.JSON(fiber.Map{
		"countries": names,
		"total":     len(names),
		"degraded":  degraded,
	})
}

// GetCourseDetails returns the curriculum/outline rows for a course page.
func (cc *CatalogController) GetCourseDetails(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}
	details, err := cc.api.CourseDetails(c.Context(), uint(courseID))
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(fiber.Map{
		"details": details,
		"total":   len(details),
	})
}

// GetAssignmentExams lists the exams scheduled for one assignment.
func (cc *CatalogController) GetAssignmentExams(c *fiber.Ctx) error {
	assignmentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment ID",
		})
	}
	exams, err := cc.api.Exams(c.Context(), uint(assignmentID))
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(fiber.Map{
		"exams": exams,
		"total": len(exams),
	})
}

// GetAssignmentGrades proxies the grade sheet for one assignment (teacher view).
func (cc *CatalogController) GetAssignmentGrades(c *fiber.Ctx) error {
	assignmentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment ID",
		})
	}
	grades, err := cc.api.Grades(c.Context(), uint(assignmentID))
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(fiber.Map{
		"grades": grades,
		"total":  len(grades),
	})
}

// GetAssignmentAttendance proxies the attendance sheet for one assignment.
func (cc *CatalogController) GetAssignmentAttendance(c *fiber.Ctx) error {
	assignmentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment ID",
		})
	}
	attendance, err := cc.api.Attendance(c.Context(), uint(assignmentID))
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(fiber.Map{
		"attendance": attendance,
		"total":      len(attendance),
	})
}
