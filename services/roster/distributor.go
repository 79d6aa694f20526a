package roster

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"almanara_go/models"
	"almanara_go/services/notifier"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AcademyAPI is the slice of the upstream client the distributor uses.
type AcademyAPI interface {
	AssignmentByID(ctx context.Context, id uint) (*models.Assignment, error)
	EnrollmentsNotDivided(ctx context.Context) ([]models.Enrollment, error)
	CreateCourseStudents(ctx context.Context, records []models.CourseStudent, idemKey string) error
	SendCourseStudentEmail(ctx context.Context, payload map[string]interface{}) error
}

// Broadcaster pushes per-student progress events to connected admin clients.
type Broadcaster interface {
	BroadcastToTopic(topic string, message interface{})
}

// Notifier is the best-effort staff chat channel.
type Notifier interface {
	Send(ctx context.Context, text string)
}

// Send statuses for one student, in transition order.
const (
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// ErrNoStudents is returned when the selection filters down to nothing.
var ErrNoStudents = errors.New("no matching students to distribute")

// Result is the outcome of one distribution run. Statuses is keyed by
// enrollment ID.
type Result struct {
	AssignmentID uint            `json:"ass_id"`
	CourseName   string          `json:"co_name"`
	Assigned     int             `json:"assigned"`
	Notified     int             `json:"notified"`
	Statuses     map[uint]string `json:"statuses"`
}

// Distributor bulk-assigns enrolled students to an assignment roster and
// fans out one notification email per student through a bounded worker pool.
type Distributor struct {
	api         AcademyAPI
	notifier    Notifier
	broadcaster Broadcaster
	workers     int
}

func NewDistributor(api AcademyAPI, n Notifier, b Broadcaster, workers int) *Distributor {
	if workers < 1 {
		workers = 1
	}
	return &Distributor{api: api, notifier: n, broadcaster: b, workers: workers}
}

// Distribute assigns the selected enrollments to the assignment. Selections
// are filtered to the assignment's course and de-duplicated before the one
// bulk create; a bulk failure aborts the whole run. Email sends then run
// concurrently, bounded by the pool size, and a per-student status map is
// returned. Email failures never roll back the student's roster record.
func (d *Distributor) Distribute(ctx context.Context, assignmentID uint, selected []models.Enrollment) (*Result, error) {
	assignment, err := d.api.AssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	students := DeduplicateForCourse(selected, assignment.CourseID, assignment.CourseName)
	if len(students) == 0 {
		return nil, ErrNoStudents
	}

	records := make([]models.CourseStudent, 0, len(students))
	for _, enr := range students {
		records = append(records, models.CourseStudent{
			AssignmentID: assignment.ID,
			EnrollmentID: enr.ID,
			Email:        enr.Email,
			CourseName:   assignment.CourseName,
			TeacherName:  assignment.TeacherName,
			WantedTime:   enr.WantedTime,
			StartTime:    assignment.StartTime,
		})
	}

	if err := d.api.CreateCourseStudents(ctx, records, uuid.New().String()); err != nil {
		return nil, err
	}

	result := &Result{
		AssignmentID: assignment.ID,
		CourseName:   assignment.CourseName,
		Assigned:     len(records),
		Statuses:     make(map[uint]string, len(records)),
	}

	var mu sync.Mutex
	setStatus := func(enrollmentID uint, status string) {
		mu.Lock()
		result.Statuses[enrollmentID] = status
		mu.Unlock()
		if d.broadcaster != nil {
			d.broadcaster.BroadcastToTopic("distribution", map[string]interface{}{
				"ass_id": assignment.ID,
				"en_id":  enrollmentID,
				"status": status,
			})
		}
	}

	for _, rec := range records {
		setStatus(rec.EnrollmentID, StatusSending)
	}

	jobs := make(chan models.CourseStudent)
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				err := d.api.SendCourseStudentEmail(ctx, map[string]interface{}{
					"en_id":      rec.EnrollmentID,
					"email":      rec.Email,
					"co_name":    rec.CourseName,
					"te_name":    rec.TeacherName,
					"start_time": rec.StartTime,
				})
				if err != nil {
					logrus.WithFields(logrus.Fields{
						"en_id": rec.EnrollmentID,
						"email": rec.Email,
					}).WithError(err).Warn("Roster email failed")
					setStatus(rec.EnrollmentID, StatusFailed)
					continue
				}
				setStatus(rec.EnrollmentID, StatusSent)
			}
		}()
	}
	for _, rec := range records {
		jobs <- rec
	}
	close(jobs)
	wg.Wait()

	for _, st := range result.Statuses {
		if st == StatusSent {
			result.Notified++
		}
	}

	if d.notifier != nil {
		d.notifier.Send(ctx, notifier.RosterDistributed(assignment.ID, assignment.CourseName, result.Assigned, result.Notified))
	}
	return result, nil
}

// DeduplicateForCourse filters enrollments to the assignment's course and
// collapses duplicates by (enrollment ID, course name). Course matching
// prefers the ID; the trimmed case-insensitive name compare covers records
// that predate ID references.
func DeduplicateForCourse(enrollments []models.Enrollment, courseID uint, courseName string) []models.Enrollment {
	wanted := strings.ToLower(strings.TrimSpace(courseName))
	seen := make(map[string]struct{}, len(enrollments))
	out := make([]models.Enrollment, 0, len(enrollments))
	for _, enr := range enrollments {
		name := strings.ToLower(strings.TrimSpace(enr.CourseName))
		if courseID != 0 && enr.CourseID != 0 {
			if enr.CourseID != courseID {
				continue
			}
		} else if name != wanted {
			continue
		}
		dedupeKey := name + "|" + strconv.FormatUint(uint64(enr.ID), 10)
		if _, dup := seen[dedupeKey]; dup {
			continue
		}
		seen[dedupeKey] = struct{}{}
		out = append(out, enr)
	}
	return out
}
