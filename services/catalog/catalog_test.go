package catalog

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"almanara_go/models"
)

type fakeAPI struct {
	courses     []models.Course
	teachers    []models.Teacher
	assignments []models.Assignment
	fail        bool
}

var errDown = errors.New("upstream down")

func (f *fakeAPI) Courses(ctx context.Context) ([]models.Course, error) {
	if f.fail {
		return nil, errDown
	}
	return f.courses, nil
}

func (f *fakeAPI) Teachers(ctx context.Context) ([]models.Teacher, error) {
	if f.fail {
		return nil, errDown
	}
	return f.teachers, nil
}

func (f *fakeAPI) Students(ctx context.Context) ([]models.StudentRecord, error) {
	if f.fail {
		return nil, errDown
	}
	return nil, nil
}

func (f *fakeAPI) Specializations(ctx context.Context) ([]models.Specialization, error) {
	if f.fail {
		return nil, errDown
	}
	return nil, nil
}

func (f *fakeAPI) PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	if f.fail {
		return nil, errDown
	}
	return nil, nil
}

func (f *fakeAPI) Lessons(ctx context.Context, filters map[string]string) ([]models.Lesson, error) {
	if f.fail {
		return nil, errDown
	}
	return nil, nil
}

func (f *fakeAPI) Assignments(ctx context.Context, phase string) ([]models.Assignment, error) {
	if f.fail {
		return nil, errDown
	}
	return f.assignments, nil
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestClassify(t *testing.T) {
	a := models.Assignment{StartDate: "2026-03-10", EndDate: "2026-03-20"}

	tests := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{"day before start", day("2026-03-09"), Planned},
		{"start day", day("2026-03-10"), Running},
		{"mid window", day("2026-03-15"), Running},
		{"end day is still running", day("2026-03-20"), Running},
		{"day after end", day("2026-03-21"), Finished},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(a, tt.now); got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.now.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestClassifyTimeOfDayIsIgnored(t *testing.T) {
	a := models.Assignment{StartDate: "2026-03-10", EndDate: "2026-03-20"}
	lateOnEndDay := time.Date(2026, 3, 20, 23, 59, 0, 0, time.UTC)
	if got := Classify(a, lateOnEndDay); got != Running {
		t.Errorf("end of the end day must still be running, got %s", got)
	}
}

func TestClassifyLegacyDateFormat(t *testing.T) {
	a := models.Assignment{StartDate: "10/03/2026", EndDate: "20/03/2026"}
	if got := Classify(a, day("2026-03-15")); got != Running {
		t.Errorf("legacy dd/mm/yyyy dates: got %s, want %s", got, Running)
	}
}

func TestClassifyUnparseableDates(t *testing.T) {
	if got := Classify(models.Assignment{StartDate: "soon", EndDate: "2026-03-20"}, day("2026-03-15")); got != Planned {
		t.Errorf("bad start date: got %s, want %s", got, Planned)
	}
	if got := Classify(models.Assignment{StartDate: "2026-03-10", EndDate: "TBD"}, day("2026-09-01")); got != Running {
		t.Errorf("bad end date keeps a started assignment running: got %s", got)
	}
}

func TestAssignmentsPhaseFilter(t *testing.T) {
	api := &fakeAPI{assignments: []models.Assignment{
		{ID: 1, CourseName: "A", StartDate: "2026-03-01", EndDate: "2026-03-05"},
		{ID: 2, CourseName: "B", StartDate: "2026-03-10", EndDate: "2026-03-20"},
		{ID: 3, CourseName: "C", StartDate: "2026-04-01", EndDate: "2026-04-10"},
	}}
	svc := NewService(api)

	res := svc.Assignments(context.Background(), ListOptions{Phase: Running}, day("2026-03-15"))
	if res.Total != 1 || res.Items[0].ID != 2 {
		t.Fatalf("phase filter: %+v", res.Items)
	}
	if res.Items[0].Phase != Running {
		t.Errorf("derived phase: %s", res.Items[0].Phase)
	}
}

func TestCoursesFilterAndSortAreDeterministic(t *testing.T) {
	api := &fakeAPI{courses: []models.Course{
		{ID: 1, Name: "Tajweed", SpecID: 1},
		{ID: 2, Name: "arabic grammar", SpecID: 2},
		{ID: 3, Name: "Arabic Conversation", SpecID: 2},
		{ID: 4, Name: "Fiqh", SpecID: 1},
	}}
	svc := NewService(api)
	opts := ListOptions{Search: "arabic", SortDesc: false}

	first := svc.Courses(context.Background(), opts)
	if first.Total != 2 {
		t.Fatalf("expected 2 matches, got %d", first.Total)
	}
	if first.Items[0].Name != "Arabic Conversation" || first.Items[1].Name != "arabic grammar" {
		t.Errorf("case-insensitive sort order: %+v", first.Items)
	}

	// Same options over the same data must always produce the same order.
	for i := 0; i < 5; i++ {
		again := svc.Courses(context.Background(), opts)
		if !reflect.DeepEqual(first.Items, again.Items) {
			t.Fatalf("iteration %d: order changed: %+v vs %+v", i, first.Items, again.Items)
		}
	}
}

func TestCoursesSpecializationFilter(t *testing.T) {
	api := &fakeAPI{courses: []models.Course{
		{ID: 1, Name: "Tajweed", SpecID: 1},
		{ID: 2, Name: "Grammar", SpecID: 2},
	}}
	svc := NewService(api)

	res := svc.Courses(context.Background(), ListOptions{SpecID: 2})
	if res.Total != 1 || res.Items[0].ID != 2 {
		t.Errorf("spec filter: %+v", res.Items)
	}
}

func TestCoursesFallbackWhenUpstreamDown(t *testing.T) {
	svc := NewService(&fakeAPI{fail: true})

	res := svc.Courses(context.Background(), ListOptions{})
	if !res.Degraded {
		t.Error("degraded flag must be set on upstream failure")
	}
	if res.Total == 0 {
		t.Error("fallback course list must not be empty")
	}
}

func TestTeachersNationalityFilter(t *testing.T) {
	api := &fakeAPI{teachers: []models.Teacher{
		{ID: 1, Name: "Ahmad", Nationality: "Egyptian"},
		{ID: 2, Name: "Yusuf", Nationality: "saudi"},
		{ID: 3, Name: "Bilal", Nationality: "Saudi"},
	}}
	svc := NewService(api)

	res := svc.Teachers(context.Background(), ListOptions{Nationality: "Saudi"})
	if res.Total != 2 {
		t.Fatalf("nationality filter should be case-insensitive, got %d", res.Total)
	}
}

func TestSortRecent(t *testing.T) {
	api := &fakeAPI{courses: []models.Course{
		{ID: 1, Name: "Old", CreatedAt: "2025-01-01"},
		{ID: 2, Name: "New", CreatedAt: "2026-05-01"},
		{ID: 3, Name: "Mid", CreatedAt: "2025-12-01"},
	}}
	svc := NewService(api)

	res := svc.Courses(context.Background(), ListOptions{SortRecent: true})
	wantIDs := []uint{2, 3, 1}
	for i, want := range wantIDs {
		if res.Items[i].ID != want {
			t.Errorf("position %d: got course %d, want %d", i, res.Items[i].ID, want)
		}
	}
}
