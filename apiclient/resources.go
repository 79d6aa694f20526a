package apiclient

import (
	"context"
	"strconv"

	"almanara_go/models"
)

// Typed helpers over the generic client, one set per upstream collection.

func (c *Client) Courses(ctx context.Context) ([]models.Course, error) {
	var out []models.Course
	if err := c.List(ctx, "courses", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CourseByID(ctx context.Context, id uint) (*models.Course, error) {
	var out models.Course
	if err := c.Get(ctx, "courses", id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CoursesByName filters by exact name. Name matching is a compatibility shim
// for payments created before course IDs were recorded on them; new records
// carry co_id and should be resolved with CourseByID.
func (c *Client) CoursesByName(ctx context.Context, name string) ([]models.Course, error) {
	var out []models.Course
	if err := c.Find(ctx, "courses", map[string]string{"co_name": name}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Teachers(ctx context.Context) ([]models.Teacher, error) {
	var out []models.Teacher
	if err := c.List(ctx, "teachers", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Students(ctx context.Context) ([]models.StudentRecord, error) {
	var out []models.StudentRecord
	if err := c.List(ctx, "students", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Specializations(ctx context.Context) ([]models.Specialization, error) {
	var out []models.Specialization
	if err := c.List(ctx, "specializations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var out []models.PaymentMethod
	if err := c.List(ctx, "payment_methods", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Assignments lists teacher/course assignments. phase may be empty or one of
// "running", "finished", "planned" (upstream sub-resources).
func (c *Client) Assignments(ctx context.Context, phase string) ([]models.Assignment, error) {
	resource := "co_ass"
	if phase != "" {
		resource += "/" + phase
	}
	var out []models.Assignment
	if err := c.List(ctx, resource, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AssignmentByID(ctx context.Context, id uint) (*models.Assignment, error) {
	var out models.Assignment
	if err := c.Get(ctx, "co_ass", id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnrollmentsNotDivided lists enrollments not yet distributed to an
// assignment roster.
func (c *Client) EnrollmentsNotDivided(ctx context.Context) ([]models.Enrollment, error) {
	var out []models.Enrollment
	if err := c.List(ctx, "enrollments/notdivided", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) EnrollmentsByEmail(ctx context.Context, email string) ([]models.Enrollment, error) {
	var out []models.Enrollment
	if err := c.Find(ctx, "enrollments", map[string]string{"email": email}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateEnrollment(ctx context.Context, enr models.Enrollment, idemKey string) (*models.Enrollment, error) {
	var out models.Enrollment
	if _, err := c.Create(ctx, "enrollments", enr, idemKey, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEnrollment(ctx context.Context, id uint) error {
	return c.Delete(ctx, "enrollments", id)
}

func (c *Client) PaymentsByEmail(ctx context.Context, email string) ([]models.Payment, error) {
	var out []models.Payment
	if err := c.Find(ctx, "payments", map[string]string{"email": email}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Payments(ctx context.Context) ([]models.Payment, error) {
	var out []models.Payment
	if err := c.List(ctx, "payments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PaymentByID(ctx context.Context, id uint) (*models.Payment, error) {
	var out models.Payment
	if err := c.Get(ctx, "payments", id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePayment returns the created record and the upstream status code so
// the submission flow can distinguish 201 from other success codes.
func (c *Client) CreatePayment(ctx context.Context, p models.Payment, idemKey string) (*models.Payment, int, error) {
	var out models.Payment
	status, err := c.Create(ctx, "payments", p, idemKey, &out)
	if err != nil {
		return nil, status, err
	}
	return &out, status, nil
}

// UpdatePaymentStatus flips the upstream two-valued flag.
func (c *Client) UpdatePaymentStatus(ctx context.Context, id uint, status models.PaymentStatus) error {
	payload := map[string]int{"status": status.WireStatus()}
	_, err := c.Update(ctx, "payments", id, payload, nil)
	return err
}

// SendPaymentEmail asks the backend to mail a payment confirmation.
func (c *Client) SendPaymentEmail(ctx context.Context, payload map[string]interface{}) error {
	_, err := c.Create(ctx, "payments/sendemail", payload, "", nil)
	return err
}

func (c *Client) CourseStudentsByAssignment(ctx context.Context, assID uint) ([]models.CourseStudent, error) {
	var out []models.CourseStudent
	if err := c.Find(ctx, "course_students", map[string]string{"ass_id": strconv.FormatUint(uint64(assID), 10)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCourseStudents bulk-creates roster records in one call.
func (c *Client) CreateCourseStudents(ctx context.Context, records []models.CourseStudent, idemKey string) error {
	_, err := c.Create(ctx, "course_students", records, idemKey, nil)
	return err
}

// SendCourseStudentEmail notifies one distributed student.
func (c *Client) SendCourseStudentEmail(ctx context.Context, payload map[string]interface{}) error {
	_, err := c.Create(ctx, "course_students/sendemail", payload, "", nil)
	return err
}

func (c *Client) Lessons(ctx context.Context, filters map[string]string) ([]models.Lesson, error) {
	var out []models.Lesson
	if err := c.Find(ctx, "lessons", filters, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Exams(ctx context.Context, assID uint) ([]models.Exam, error) {
	var out []models.Exam
	if err := c.Find(ctx, "exams", map[string]string{"ass_id": strconv.FormatUint(uint64(assID), 10)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CourseDetails(ctx context.Context, courseID uint) ([]models.CourseDetail, error) {
	var out []models.CourseDetail
	if err := c.Find(ctx, "course_details", map[string]string{"co_id": strconv.FormatUint(uint64(courseID), 10)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Grades(ctx context.Context, assID uint) ([]models.Grade, error) {
	var out []models.Grade
	if err := c.Find(ctx, "grades", map[string]string{"ass_id": strconv.FormatUint(uint64(assID), 10)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Attendance(ctx context.Context, assID uint) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	if err := c.Find(ctx, "attendance", map[string]string{"ass_id": strconv.FormatUint(uint64(assID), 10)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
