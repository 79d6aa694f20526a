package controllers

import (
	"errors"
	"strconv"

	"almanara_go/apiclient"
	"almanara_go/middleware"
	"almanara_go/models"
	"almanara_go/services/notifications"
	"almanara_go/services/payments"
	"almanara_go/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type PaymentController struct {
	service *payments.Service
	api     *apiclient.Client
	storage *storage.StorageService
	notifs  *notifications.Service
}

func NewPaymentController(service *payments.Service, api *apiclient.Client, store *storage.StorageService, notifs *notifications.Service) *PaymentController {
	return &PaymentController{service: service, api: api, storage: store, notifs: notifs}
}

// SubmitPayment accepts a learner's payment form (public). The amount must
// match the course price; field errors come back as a 400 with a fields map.
func (pc *PaymentController) SubmitPayment(c *fiber.Ctx) error {
	// A retried submission with the same client key replays the first
	// response instead of creating a second payment.
	clientKey := c.Get("Idempotency-Key")
	if rec, err := pc.service.LookupIdempotent(clientKey); err == nil && rec != nil {
		c.Set("Content-Type", "application/json")
		return c.Status(rec.StatusCode).Send(rec.Response)
	}

	var req payments.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	created, err := pc.service.Submit(c.Context(), req)
	if err != nil {
		var verr *payments.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "Validation failed",
				"fields": verr.Fields,
			})
		}
		return upstreamError(c, err)
	}

	if pc.notifs != nil {
		if nerr := pc.notifs.NotifyAdmins(
			"New payment awaiting review",
			created.Email+" submitted a payment for "+created.CourseName,
			"info",
			fiber.Map{"pay_id": created.ID},
		); nerr != nil {
			logrus.WithError(nerr).Warn("Failed to queue admin notification")
		}
	}

	resp := fiber.Map{
		"message": "Payment submitted successfully",
		"payment": created,
	}
	pc.service.RecordIdempotent(clientKey, fiber.StatusCreated, resp)
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UploadReceipt stores a receipt image and returns the key the learner
// includes in the payment form.
func (pc *PaymentController) UploadReceipt(c *fiber.Ctx) error {
	if pc.storage == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Receipt storage is not configured",
		})
	}

	email := c.FormValue("email")
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email is required",
		})
	}

	file, err := c.FormFile("receipt")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Receipt file is required",
		})
	}

	key, err := pc.storage.UploadReceipt(file, email)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"receipt_key": key,
	})
}

// GetPaymentsByEmail lists a learner's payment history (public, the
// check-status page looks payments up by the email used on submission).
func (pc *PaymentController) GetPaymentsByEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter 'email' is required",
		})
	}

	list, err := pc.api.PaymentsByEmail(c.Context(), email)
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(fiber.Map{
		"payments": list,
		"total":    len(list),
	})
}

// GetPayments lists all payments for the admin review queue.
func (pc *PaymentController) GetPayments(c *fiber.Ctx) error {
	list, err := pc.api.Payments(c.Context())
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(fiber.Map{
		"payments": list,
		"total":    len(list),
	})
}

type reviewRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// ReviewPayment applies an admin decision on a payment. Acceptance runs the
// enrollment saga; the response includes the per-step outcome.
func (pc *PaymentController) ReviewPayment(c *fiber.Ctx) error {
	paymentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payment ID",
		})
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var decision models.PaymentStatus
	switch req.Decision {
	case "accepted":
		decision = models.PaymentAccepted
	case "rejected":
		decision = models.PaymentRejected
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Decision must be 'accepted' or 'rejected'",
		})
	}

	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not authenticated",
		})
	}

	result, err := pc.service.Review(c.Context(), payments.ReviewRequest{
		PaymentID:  uint(paymentID),
		Decision:   decision,
		ReviewerID: claims.UserID,
		Reason:     req.Reason,
	})
	if err != nil {
		if errors.Is(err, payments.ErrCourseNotFound) {
			resp := fiber.Map{"error": "Course not found; payment acceptance was rolled back"}
			if result != nil {
				resp["saga"] = result
			}
			return c.Status(fiber.StatusConflict).JSON(resp)
		}
		logrus.WithField("pay_id", paymentID).WithError(err).Error("Payment review failed")
		resp := fiber.Map{"error": err.Error()}
		if result != nil {
			resp["saga"] = result
		}
		return c.Status(fiber.StatusBadGateway).JSON(resp)
	}

	middleware.LogActivity(c, "REVIEW", "payments", uint(paymentID), fiber.Map{
		"decision": req.Decision,
		"reason":   req.Reason,
	})

	return c.JSON(fiber.Map{
		"message": "Payment " + req.Decision,
		"saga":    result,
	})
}

// GetPaymentReviews returns the local decision log for a payment. A rejected
// payment is only distinguishable from a pending one through this log.
func (pc *PaymentController) GetPaymentReviews(c *fiber.Ctx) error {
	paymentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payment ID",
		})
	}

	reviews, err := pc.service.ReviewsFor(uint(paymentID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch reviews",
		})
	}

	return c.JSON(fiber.Map{
		"reviews": reviews,
		"total":   len(reviews),
	})
}
