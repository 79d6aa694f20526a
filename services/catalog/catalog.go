package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"almanara_go/models"

	"github.com/sirupsen/logrus"
)

// AcademyAPI is the slice of the upstream client the read-side views use.
type AcademyAPI interface {
	Courses(ctx context.Context) ([]models.Course, error)
	Teachers(ctx context.Context) ([]models.Teacher, error)
	Students(ctx context.Context) ([]models.StudentRecord, error)
	Specializations(ctx context.Context) ([]models.Specialization, error)
	PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	Lessons(ctx context.Context, filters map[string]string) ([]models.Lesson, error)
	Assignments(ctx context.Context, phase string) ([]models.Assignment, error)
}

// Phase is the derived lifecycle state of an assignment.
type Phase string

const (
	Planned  Phase = "planned"
	Running  Phase = "running"
	Finished Phase = "finished"
)

// ListOptions are the client-side filter/sort parameters shared by all
// views. Sorting is stable so the same options over the same data always
// produce the same order.
type ListOptions struct {
	Search      string
	Nationality string
	SpecID      uint
	CourseName  string
	Phase       Phase
	SortDesc    bool
	SortRecent  bool
}

// Service implements the fetch-all-then-filter views. Lists are fetched in
// full from the upstream API and filtered/sorted in memory; on upstream
// failure a small hardcoded fallback dataset is served with Degraded set
// instead of an error.
type Service struct {
	api AcademyAPI
}

func NewService(api AcademyAPI) *Service {
	return &Service{api: api}
}

// ListResult wraps view items with the degraded flag.
type ListResult[T any] struct {
	Items    []T  `json:"items"`
	Total    int  `json:"total"`
	Degraded bool `json:"degraded"`
}

func (s *Service) Courses(ctx context.Context, opts ListOptions) ListResult[models.Course] {
	items, err := s.api.Courses(ctx)
	degraded := false
	if err != nil {
		logrus.WithError(err).Warn("Course list fetch failed, serving fallback")
		items, degraded = fallbackCourses(), true
	}
	filtered := items[:0:0]
	for _, c := range items {
		if opts.SpecID != 0 && c.SpecID != opts.SpecID {
			continue
		}
		if !matchSearch(opts.Search, c.Name, c.Description) {
			continue
		}
		filtered = append(filtered, c)
	}
	sortItems(filtered, opts,
		func(c models.Course) string { return c.Name },
		func(c models.Course) string { return c.CreatedAt })
	return ListResult[models.Course]{Items: filtered, Total: len(filtered), Degraded: degraded}
}

func (s *Service) Teachers(ctx context.Context, opts ListOptions) ListResult[models.Teacher] {
	items, err := s.api.Teachers(ctx)
	degraded := false
	if err != nil {
		logrus.WithError(err).Warn("Teacher list fetch failed, serving fallback")
		items, degraded = fallbackTeachers(), true
	}
	filtered := items[:0:0]
	for _, t := range items {
		if opts.Nationality != "" && !strings.EqualFold(t.Nationality, opts.Nationality) {
			continue
		}
		if !matchSearch(opts.Search, t.Name, t.Specialization) {
			continue
		}
		filtered = append(filtered, t)
	}
	sortItems(filtered, opts,
		func(t models.Teacher) string { return t.Name },
		func(t models.Teacher) string { return t.CreatedAt })
	return ListResult[models.Teacher]{Items: filtered, Total: len(filtered), Degraded: degraded}
}

func (s *Service) Students(ctx context.Context, opts ListOptions) ListResult[models.StudentRecord] {
	items, err := s.api.Students(ctx)
	degraded := false
	if err != nil {
		logrus.WithError(err).Warn("Student list fetch failed, serving fallback")
		items, degraded = nil, true
	}
	filtered := items[:0:0]
	for _, st := range items {
		if opts.Nationality != "" && !strings.EqualFold(st.Nationality, opts.Nationality) {
			continue
		}
		if !matchSearch(opts.Search, st.Name, st.Email) {
			continue
		}
		filtered = append(filtered, st)
	}
	sortItems(filtered, opts,
		func(st models.StudentRecord) string { return st.Name },
		func(st models.StudentRecord) string { return st.CreatedAt })
	return ListResult[models.StudentRecord]{Items: filtered, Total: len(filtered), Degraded: degraded}
}

func (s *Service) Specializations(ctx context.Context, opts ListOptions) ListResult[models.Specialization] {
	items, err := s.api.Specializations(ctx)
	degraded := false
	if err != nil {
		logrus.WithError(err).Warn("Specialization list fetch failed, serving fallback")
		items, degraded = fallbackSpecializations(), true
	}
	filtered := items[:0:0]
	for _, sp := range items {
		if !matchSearch(opts.Search, sp.Name) {
			continue
		}
		filtered = append(filtered, sp)
	}
	sortItems(filtered, opts,
		func(sp models.Specialization) string { return sp.Name },
		func(models.Specialization) string { return "" })
	return ListResult[models.Specialization]{Items: filtered, Total: len(filtered), Degraded: degraded}
}

func (s *Service) PaymentMethods(ctx context.Context, opts ListOptions) ListResult[models.PaymentMethod] {
	items, err := s.api.PaymentMethods(ctx)
	degraded := false
	if err != nil {
		logrus.WithError(err).Warn("Payment method list fetch failed, serving fallback")
		items, degraded = fallbackPaymentMethods(), true
	}
	sortItems(items, opts,
		func(m models.PaymentMethod) string { return m.Name },
		func(models.PaymentMethod) string { return "" })
	return ListResult[models.PaymentMethod]{Items: items, Total: len(items), Degraded: degraded}
}

func (s *Service) Lessons(ctx context.Context, opts ListOptions) ListResult[models.Lesson] {
	filters := map[string]string{}
	if opts.CourseName != "" {
		filters["co_name"] = opts.CourseName
	}
	items, err := s.api.Lessons(ctx, filters)
	degraded := false
	if err != nil {
		logrus.WithError(err).Warn("Lesson list fetch failed, serving fallback")
		items, degraded = nil, true
	}
	filtered := items[:0:0]
	for _, l := range items {
		if !matchSearch(opts.Search, l.Title) {
			continue
		}
		filtered = append(filtered, l)
	}
	sortItems(filtered, opts,
		func(l models.Lesson) string { return l.Title },
		func(l models.Lesson) string { return l.CreatedAt })
	return ListResult[models.Lesson]{Items: filtered, Total: len(filtered), Degraded: degraded}
}

// AssignmentView is an assignment plus its derived lifecycle phase.
type AssignmentView struct {
	models.Assignment
	Phase Phase `json:"phase"`
}

func (s *Service) Assignments(ctx context.Context, opts ListOptions, now time.Time) ListResult[AssignmentView] {
	items, err := s.api.Assignments(ctx, "")
	degraded := false
	if err != nil {
		logrus.WithError(err).Warn("Assignment list fetch failed, serving fallback")
		items, degraded = nil, true
	}
	views := make([]AssignmentView, 0, len(items))
	for _, a := range items {
		phase := Classify(a, now)
		if opts.Phase != "" && phase != opts.Phase {
			continue
		}
		if opts.CourseName != "" && !strings.EqualFold(strings.TrimSpace(a.CourseName), strings.TrimSpace(opts.CourseName)) {
			continue
		}
		if !matchSearch(opts.Search, a.CourseName, a.TeacherName) {
			continue
		}
		views = append(views, AssignmentView{Assignment: a, Phase: phase})
	}
	sortItems(views, opts,
		func(v AssignmentView) string { return v.CourseName },
		func(v AssignmentView) string { return v.CreatedAt })
	return ListResult[AssignmentView]{Items: views, Total: len(views), Degraded: degraded}
}

// Classify derives an assignment's lifecycle phase from its date window.
// Comparison is by calendar day: the phase is Planned until the start date's
// day begins, Running through the end date's full day, and Finished from the
// day after the end date. An unparseable start date classifies as Planned;
// an unparseable end date keeps a started assignment Running.
func Classify(a models.Assignment, now time.Time) Phase {
	today := truncateToDay(now)

	start, err := ParseDate(a.StartDate)
	if err != nil {
		return Planned
	}
	if today.Before(truncateToDay(start)) {
		return Planned
	}

	end, err := ParseDate(a.EndDate)
	if err != nil {
		return Running
	}
	if today.After(truncateToDay(end)) {
		return Finished
	}
	return Running
}

// ParseDate accepts the API's ISO date form plus the legacy dd/mm/yyyy form
// still present on older assignment rows.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layouts := []string{"2006-01-02", "02/01/2006", time.RFC3339}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// matchSearch reports whether any of the fields contains the search term
// (case-insensitive). An empty term matches everything.
func matchSearch(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(strings.TrimSpace(term))
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// sortItems applies the shared sorting contract: alphabetical by name
// (asc/desc) or most-recent-first by created_at. Both paths use stable
// sorting so repeated calls over identical data yield identical order.
func sortItems[T any](items []T, opts ListOptions, name func(T) string, created func(T) string) {
	if opts.SortRecent {
		sort.SliceStable(items, func(i, j int) bool {
			ti, erri := ParseDate(created(items[i]))
			tj, errj := ParseDate(created(items[j]))
			if erri != nil || errj != nil {
				return erri == nil && errj != nil
			}
			return ti.After(tj)
		})
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		a := strings.ToLower(name(items[i]))
		b := strings.ToLower(name(items[j]))
		if opts.SortDesc {
			return a > b
		}
		return a < b
	})
}
