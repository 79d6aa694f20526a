package payments

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"almanara_go/models"
)

// fakeAPI records every upstream call in order and can be scripted to fail
// specific operations.
type fakeAPI struct {
	calls []string

	courses       []models.Course
	payment       *models.Payment
	createStatus  int
	failCreate    error
	failStatus    error
	failEnroll    error
	failEmail     error
	statusHistory []models.PaymentStatus
	enrollments   []models.Enrollment
	deleted       []uint
}

func (f *fakeAPI) Courses(ctx context.Context) ([]models.Course, error) {
	f.calls = append(f.calls, "Courses")
	return f.courses, nil
}

func (f *fakeAPI) CourseByID(ctx context.Context, id uint) (*models.Course, error) {
	f.calls = append(f.calls, "CourseByID")
	for i := range f.courses {
		if f.courses[i].ID == id {
			return &f.courses[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeAPI) CoursesByName(ctx context.Context, name string) ([]models.Course, error) {
	f.calls = append(f.calls, "CoursesByName")
	var out []models.Course
	for _, c := range f.courses {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeAPI) PaymentByID(ctx context.Context, id uint) (*models.Payment, error) {
	f.calls = append(f.calls, "PaymentByID")
	if f.payment == nil {
		return nil, errors.New("not found")
	}
	return f.payment, nil
}

func (f *fakeAPI) CreatePayment(ctx context.Context, p models.Payment, idemKey string) (*models.Payment, int, error) {
	f.calls = append(f.calls, "CreatePayment")
	if f.failCreate != nil {
		return nil, 0, f.failCreate
	}
	if idemKey == "" {
		return nil, 0, errors.New("missing idempotency key")
	}
	created := p
	created.ID = 100
	status := f.createStatus
	if status == 0 {
		status = http.StatusCreated
	}
	return &created, status, nil
}

func (f *fakeAPI) UpdatePaymentStatus(ctx context.Context, id uint, status models.PaymentStatus) error {
	f.calls = append(f.calls, "UpdatePaymentStatus:"+string(status))
	if f.failStatus != nil {
		return f.failStatus
	}
	f.statusHistory = append(f.statusHistory, status)
	return nil
}

func (f *fakeAPI) SendPaymentEmail(ctx context.Context, payload map[string]interface{}) error {
	f.calls = append(f.calls, "SendPaymentEmail")
	return f.failEmail
}

func (f *fakeAPI) CreateEnrollment(ctx context.Context, enr models.Enrollment, idemKey string) (*models.Enrollment, error) {
	f.calls = append(f.calls, "CreateEnrollment")
	if f.failEnroll != nil {
		return nil, f.failEnroll
	}
	created := enr
	created.ID = uint(len(f.enrollments) + 1)
	f.enrollments = append(f.enrollments, created)
	return &created, nil
}

func (f *fakeAPI) DeleteEnrollment(ctx context.Context, id uint) error {
	f.calls = append(f.calls, "DeleteEnrollment")
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Send(ctx context.Context, text string) {
	f.messages = append(f.messages, text)
}

func quranCourse() models.Course {
	return models.Course{ID: 1, Name: "Quran Recitation", PriceUSD: 50, PriceSAR: 187.5}
}

func validSubmit() SubmitRequest {
	return SubmitRequest{
		Email:          "student@academy.sa",
		CourseID:       1,
		Currency:       "USD",
		Method:         "Bank Transfer",
		AccountNumber:  "SA123",
		TransactionNum: "TX-1",
		Amount:         50,
		WantedTime:     "evening",
	}
}

func TestSubmitRejectsInvalidFormWithoutUpstreamCall(t *testing.T) {
	api := &fakeAPI{courses: []models.Course{quranCourse()}}
	svc := NewService(api, nil, nil)

	req := validSubmit()
	req.Email = "not-an-email"
	req.Method = ""

	_, err := svc.Submit(context.Background(), req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["Email"]; !ok {
		t.Errorf("expected Email field error, got %v", verr.Fields)
	}
	if _, ok := verr.Fields["Method"]; !ok {
		t.Errorf("expected Method field error, got %v", verr.Fields)
	}
	if len(api.calls) != 0 {
		t.Errorf("no upstream call may happen on validation failure, got %v", api.calls)
	}
}

func TestSubmitRejectsWrongAmount(t *testing.T) {
	api := &fakeAPI{courses: []models.Course{quranCourse()}}
	svc := NewService(api, nil, nil)

	req := validSubmit()
	req.Amount = 49

	_, err := svc.Submit(context.Background(), req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if msg := verr.Fields["amount"]; !strings.Contains(msg, "50.00 USD") {
		t.Errorf("amount error should name the required price, got %q", msg)
	}
	for _, call := range api.calls {
		if call == "CreatePayment" {
			t.Error("payment must not be created when the amount is wrong")
		}
	}
}

func TestSubmitUsesCurrencyPrice(t *testing.T) {
	api := &fakeAPI{courses: []models.Course{quranCourse()}}
	notif := &fakeNotifier{}
	svc := NewService(api, nil, notif)

	req := validSubmit()
	req.Currency = "SAR"
	req.Amount = 187.5

	created, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if created.ID != 100 {
		t.Errorf("expected created payment, got %+v", created)
	}
	if len(notif.messages) != 1 {
		t.Fatalf("expected 1 staff notification, got %d", len(notif.messages))
	}
	if !strings.Contains(notif.messages[0], "Quran Recitation") {
		t.Errorf("notification should name the course: %q", notif.messages[0])
	}
}

func TestSubmitNoNotificationWhenNotCreated(t *testing.T) {
	api := &fakeAPI{courses: []models.Course{quranCourse()}, createStatus: http.StatusOK}
	notif := &fakeNotifier{}
	svc := NewService(api, nil, notif)

	if _, err := svc.Submit(context.Background(), validSubmit()); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if len(notif.messages) != 0 {
		t.Errorf("notification only fires on a 201, got %v", notif.messages)
	}
}

func TestReviewRejectSkipsSaga(t *testing.T) {
	api := &fakeAPI{
		courses: []models.Course{quranCourse()},
		payment: &models.Payment{ID: 9, Email: "s@a.sa", CourseID: 1, CourseName: "Quran Recitation"},
	}
	notif := &fakeNotifier{}
	svc := NewService(api, nil, notif)

	res, err := svc.Review(context.Background(), ReviewRequest{PaymentID: 9, Decision: models.PaymentRejected, ReviewerID: 1})
	if err != nil {
		t.Fatalf("Review returned error: %v", err)
	}
	if res.State != "completed" {
		t.Errorf("expected completed, got %s", res.State)
	}
	if len(api.statusHistory) != 1 || api.statusHistory[0] != models.PaymentRejected {
		t.Errorf("status history: %v", api.statusHistory)
	}
	for _, call := range api.calls {
		if call == "CreateEnrollment" {
			t.Error("rejection must not create an enrollment")
		}
	}
	if len(notif.messages) != 1 || !strings.Contains(notif.messages[0], "rejected") {
		t.Errorf("rejection notification: %v", notif.messages)
	}
}

func TestReviewAcceptRunsFullWorkflow(t *testing.T) {
	api := &fakeAPI{
		courses: []models.Course{quranCourse()},
		payment: &models.Payment{ID: 9, Email: "s@a.sa", CourseID: 1, CourseName: "Quran Recitation", WantedTime: "evening"},
	}
	svc := NewService(api, nil, &fakeNotifier{})

	res, err := svc.Review(context.Background(), ReviewRequest{PaymentID: 9, Decision: models.PaymentAccepted, ReviewerID: 1})
	if err != nil {
		t.Fatalf("Review returned error: %v", err)
	}
	if res.State != "completed" {
		t.Errorf("expected completed, got %s", res.State)
	}

	want := []string{"PaymentByID", "UpdatePaymentStatus:accepted", "CourseByID", "CreateEnrollment", "SendPaymentEmail"}
	if len(api.calls) != len(want) {
		t.Fatalf("calls: got %v, want %v", api.calls, want)
	}
	for i := range want {
		if api.calls[i] != want[i] {
			t.Errorf("call %d: got %s, want %s", i, api.calls[i], want[i])
		}
	}

	if len(api.enrollments) != 1 {
		t.Fatalf("expected 1 enrollment, got %d", len(api.enrollments))
	}
	enr := api.enrollments[0]
	if enr.Email != "s@a.sa" || enr.CourseID != 1 || enr.PaymentID != 9 {
		t.Errorf("enrollment fields: %+v", enr)
	}
}

func TestReviewAcceptCourseNotFoundRollsBack(t *testing.T) {
	api := &fakeAPI{
		courses: []models.Course{},
		payment: &models.Payment{ID: 9, Email: "s@a.sa", CourseName: "Ghost Course"},
	}
	svc := NewService(api, nil, &fakeNotifier{})

	res, err := svc.Review(context.Background(), ReviewRequest{PaymentID: 9, Decision: models.PaymentAccepted, ReviewerID: 1})
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	if res == nil || res.State != "compensated" {
		t.Fatalf("expected compensated result, got %+v", res)
	}

	// The status flip must be undone: accepted then back to pending.
	if len(api.statusHistory) != 2 ||
		api.statusHistory[0] != models.PaymentAccepted ||
		api.statusHistory[1] != models.PaymentPending {
		t.Errorf("status history: %v", api.statusHistory)
	}
	if len(api.enrollments) != 0 {
		t.Error("no enrollment may survive a rollback")
	}
}

func TestReviewAcceptEnrollmentFailureRollsBackStatus(t *testing.T) {
	api := &fakeAPI{
		courses:    []models.Course{quranCourse()},
		payment:    &models.Payment{ID: 9, Email: "s@a.sa", CourseID: 1, CourseName: "Quran Recitation"},
		failEnroll: errors.New("upstream 500"),
	}
	svc := NewService(api, nil, &fakeNotifier{})

	_, err := svc.Review(context.Background(), ReviewRequest{PaymentID: 9, Decision: models.PaymentAccepted, ReviewerID: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(api.statusHistory) != 2 || api.statusHistory[1] != models.PaymentPending {
		t.Errorf("status flip not rolled back: %v", api.statusHistory)
	}
}

func TestReviewAcceptEmailFailureIsBestEffort(t *testing.T) {
	api := &fakeAPI{
		courses:   []models.Course{quranCourse()},
		payment:   &models.Payment{ID: 9, Email: "s@a.sa", CourseID: 1, CourseName: "Quran Recitation"},
		failEmail: errors.New("smtp down"),
	}
	svc := NewService(api, nil, &fakeNotifier{})

	res, err := svc.Review(context.Background(), ReviewRequest{PaymentID: 9, Decision: models.PaymentAccepted, ReviewerID: 1})
	if err != nil {
		t.Fatalf("email failure must not fail the acceptance: %v", err)
	}
	if res.State != "completed" {
		t.Errorf("expected completed, got %s", res.State)
	}
	if len(api.enrollments) != 1 {
		t.Error("enrollment must survive an email failure")
	}
	if len(api.deleted) != 0 {
		t.Error("nothing may be compensated on a best-effort failure")
	}
}

func TestResolveCourseFallsBackToNameMatch(t *testing.T) {
	api := &fakeAPI{
		courses: []models.Course{{ID: 3, Name: "Arabic for Beginners"}},
		payment: &models.Payment{ID: 9, Email: "s@a.sa", CourseName: "  arabic for beginners "},
	}
	svc := NewService(api, nil, &fakeNotifier{})

	res, err := svc.Review(context.Background(), ReviewRequest{PaymentID: 9, Decision: models.PaymentAccepted, ReviewerID: 1})
	if err != nil {
		t.Fatalf("Review returned error: %v", err)
	}
	if res.State != "completed" {
		t.Errorf("expected completed, got %s", res.State)
	}
	if len(api.enrollments) != 1 || api.enrollments[0].CourseID != 3 {
		t.Errorf("name match should resolve to course 3: %+v", api.enrollments)
	}
}
