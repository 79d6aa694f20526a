package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"almanara_go/models"
	"almanara_go/services/notifier"
	"almanara_go/services/saga"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AcademyAPI is the slice of the upstream client the payment workflows use.
type AcademyAPI interface {
	Courses(ctx context.Context) ([]models.Course, error)
	CourseByID(ctx context.Context, id uint) (*models.Course, error)
	CoursesByName(ctx context.Context, name string) ([]models.Course, error)
	PaymentByID(ctx context.Context, id uint) (*models.Payment, error)
	CreatePayment(ctx context.Context, p models.Payment, idemKey string) (*models.Payment, int, error)
	UpdatePaymentStatus(ctx context.Context, id uint, status models.PaymentStatus) error
	SendPaymentEmail(ctx context.Context, payload map[string]interface{}) error
	CreateEnrollment(ctx context.Context, enr models.Enrollment, idemKey string) (*models.Enrollment, error)
	DeleteEnrollment(ctx context.Context, id uint) error
}

// Notifier is the best-effort staff chat channel.
type Notifier interface {
	Send(ctx context.Context, text string)
}

// ErrCourseNotFound is returned when neither the course ID nor the stored
// course name resolves against the catalog.
var ErrCourseNotFound = errors.New("course not found")

// ValidationError carries per-field messages for a rejected submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// SubmitRequest is a learner's payment form.
type SubmitRequest struct {
	Email          string  `json:"email" validate:"required,email"`
	CourseID       uint    `json:"co_id" validate:"required"`
	Currency       string  `json:"currency" validate:"required,oneof=USD SAR"`
	Method         string  `json:"method" validate:"required"`
	AccountNumber  string  `json:"account_number" validate:"required"`
	TransactionNum string  `json:"transaction_number" validate:"required"`
	Amount         float64 `json:"amount" validate:"required"`
	WantedTime     string  `json:"wanted_time" validate:"required"`
	ReceiptKey     string  `json:"receipt_key"`
}

// ReviewRequest is an admin decision on a pending payment.
type ReviewRequest struct {
	PaymentID  uint
	Decision   models.PaymentStatus
	ReviewerID uint
	Reason     string
}

// Service orchestrates the payment submission and review workflows.
type Service struct {
	api          AcademyAPI
	db           *gorm.DB
	notifier     Notifier
	orchestrator *saga.Orchestrator
	validate     *validator.Validate
}

func NewService(api AcademyAPI, db *gorm.DB, notifier Notifier) *Service {
	return &Service{
		api:          api,
		db:           db,
		notifier:     notifier,
		orchestrator: saga.NewOrchestrator(db),
		validate:     validator.New(),
	}
}

// Submit validates and submits a learner payment. The amount must equal the
// course's price for the selected currency within 0.01; no upstream call is
// made when validation fails. On a 201 a staff chat notification fires
// best-effort.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.Payment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, asValidationError(err)
	}

	course, err := s.api.CourseByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	required := course.PriceFor(req.Currency)
	if math.Abs(req.Amount-required) >= 0.01 {
		return nil, &ValidationError{Fields: map[string]string{
			"amount": fmt.Sprintf("amount must equal the course price of %.2f %s", required, req.Currency),
		}}
	}

	idemKey := uuid.New().String()
	payment := models.Payment{
		Email:          req.Email,
		CourseID:       course.ID,
		CourseName:     course.Name,
		Method:         req.Method,
		AccountNumber:  req.AccountNumber,
		TransactionNum: req.TransactionNum,
		Amount:         req.Amount,
		Currency:       req.Currency,
		WantedTime:     req.WantedTime,
		ReceiptKey:     req.ReceiptKey,
		IdempotencyKey: idemKey,
	}

	created, status, err := s.api.CreatePayment(ctx, payment, idemKey)
	if err != nil {
		return nil, err
	}

	if status == http.StatusCreated && s.notifier != nil {
		s.notifier.Send(ctx, notifier.PaymentSubmitted(
			created.Email, created.CourseName, created.Method,
			created.Amount, created.Currency, created.WantedTime,
		))
	}
	return created, nil
}

// Review applies an admin decision. An acceptance runs as a saga: flip the
// status, resolve the course, create the enrollment, send the confirmation
// email. A course that cannot be resolved rolls the status flip back instead
// of stranding the payment in an accepted-but-unenrolled state.
func (s *Service) Review(ctx context.Context, req ReviewRequest) (*saga.Result, error) {
	payment, err := s.api.PaymentByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}

	if req.Decision == models.PaymentRejected {
		if err := s.api.UpdatePaymentStatus(ctx, payment.ID, models.PaymentRejected); err != nil {
			return nil, err
		}
		s.recordReview(req, "")
		if s.notifier != nil {
			s.notifier.Send(ctx, notifier.PaymentReviewed(payment.ID, payment.Email, payment.CourseName, "rejected"))
		}
		return &saga.Result{State: "completed"}, nil
	}

	var (
		course     *models.Course
		enrollment *models.Enrollment
	)
	enrollKey := uuid.New().String()

	steps := []saga.Step{
		{
			Name: "accept-payment",
			Run: func(ctx context.Context) error {
				return s.api.UpdatePaymentStatus(ctx, payment.ID, models.PaymentAccepted)
			},
			Compensate: func(ctx context.Context) error {
				return s.api.UpdatePaymentStatus(ctx, payment.ID, models.PaymentPending)
			},
		},
		{
			Name: "resolve-course",
			Run: func(ctx context.Context) error {
				c, err := s.resolveCourse(ctx, payment)
				if err != nil {
					return err
				}
				course = c
				return nil
			},
		},
		{
			Name: "create-enrollment",
			Run: func(ctx context.Context) error {
				enr, err := s.api.CreateEnrollment(ctx, models.Enrollment{
					Email:      payment.Email,
					CourseID:   course.ID,
					CourseName: course.Name,
					WantedTime: payment.WantedTime,
					PaymentID:  payment.ID,
				}, enrollKey)
				if err != nil {
					return err
				}
				enrollment = enr
				return nil
			},
			Compensate: func(ctx context.Context) error {
				if enrollment == nil {
					return nil
				}
				return s.api.DeleteEnrollment(ctx, enrollment.ID)
			},
		},
		{
			Name:       "send-confirmation-email",
			BestEffort: true,
			Run: func(ctx context.Context) error {
				return s.api.SendPaymentEmail(ctx, map[string]interface{}{
					"pay_id":  payment.ID,
					"email":   payment.Email,
					"co_name": payment.CourseName,
				})
			},
		},
	}

	result, err := s.orchestrator.Execute(ctx, "payment-acceptance", map[string]interface{}{
		"pay_id": payment.ID,
		"email":  payment.Email,
	}, steps)
	if err != nil {
		return result, err
	}

	s.recordReview(req, result.SagaID)
	if s.notifier != nil {
		s.notifier.Send(ctx, notifier.PaymentReviewed(payment.ID, payment.Email, payment.CourseName, "accepted"))
	}
	return result, nil
}

// resolveCourse prefers the stable ID reference; the trimmed
// case-insensitive name match only covers payments created before course IDs
// were recorded on them.
func (s *Service) resolveCourse(ctx context.Context, payment *models.Payment) (*models.Course, error) {
	if payment.CourseID != 0 {
		course, err := s.api.CourseByID(ctx, payment.CourseID)
		if err == nil {
			return course, nil
		}
		logrus.WithField("co_id", payment.CourseID).WithError(err).Warn("Course ID lookup failed, falling back to name match")
	}

	courses, err := s.api.Courses(ctx)
	if err != nil {
		return nil, err
	}
	wanted := strings.TrimSpace(payment.CourseName)
	for i := range courses {
		if strings.EqualFold(strings.TrimSpace(courses[i].Name), wanted) {
			return &courses[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrCourseNotFound, payment.CourseName)
}

func (s *Service) recordReview(req ReviewRequest, sagaID string) {
	if s.db == nil {
		return
	}
	review := models.PaymentReview{
		PaymentID:  req.PaymentID,
		ReviewerID: req.ReviewerID,
		Decision:   string(req.Decision),
		Reason:     req.Reason,
		SagaID:     sagaID,
	}
	if err := s.db.Create(&review).Error; err != nil {
		logrus.WithError(err).Error("Failed to record payment review")
	}
}

// LookupIdempotent returns the stored first response for a client-supplied
// idempotency key. A browser retrying a submission after a timeout replays
// the original response instead of creating a second payment.
func (s *Service) LookupIdempotent(key string) (*models.IdempotencyRecord, error) {
	if s.db == nil || key == "" {
		return nil, nil
	}
	var rec models.IdempotencyRecord
	err := s.db.Where("`key` = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecordIdempotent stores the first response for a client key.
func (s *Service) RecordIdempotent(key string, status int, resp interface{}) {
	if s.db == nil || key == "" {
		return
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return
	}
	rec := models.IdempotencyRecord{
		Key:        key,
		Resource:   "payments",
		StatusCode: status,
		Response:   models.JSON(body),
	}
	if err := s.db.Create(&rec).Error; err != nil {
		logrus.WithError(err).Warn("Failed to store idempotency record")
	}
}

// ReviewsFor returns the local decision log for a payment, which is the only
// place an explicit rejection is visible.
func (s *Service) ReviewsFor(paymentID uint) ([]models.PaymentReview, error) {
	if s.db == nil {
		return nil, nil
	}
	var reviews []models.PaymentReview
	err := s.db.Where("payment_id = ?", paymentID).Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}

func asValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "is required"
		case "email":
			fields[fe.Field()] = "must be a valid email address"
		case "oneof":
			fields[fe.Field()] = "must be one of: " + fe.Param()
		default:
			fields[fe.Field()] = "is invalid"
		}
	}
	return &ValidationError{Fields: fields}
}

