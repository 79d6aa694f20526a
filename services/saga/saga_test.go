package saga

import (
	"context"
	"errors"
	"testing"
)

func TestExecuteRunsStepsInOrder(t *testing.T) {
	var order []string
	step := func(name string) Step {
		return Step{Name: name, Run: func(ctx context.Context) error {
			order = append(order, name)
			return nil
		}}
	}

	o := NewOrchestrator(nil)
	res, err := o.Execute(context.Background(), "test", nil, []Step{step("one"), step("two"), step("three")})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if res.State != "completed" {
		t.Errorf("expected completed, got %s", res.State)
	}
	want := []string{"one", "two", "three"}
	if len(order) != len(want) {
		t.Fatalf("expected %d steps run, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("step %d: got %s, want %s", i, order[i], want[i])
		}
	}
	for _, name := range want {
		if res.Steps[name] != StepDone {
			t.Errorf("step %s: got status %s, want %s", name, res.Steps[name], StepDone)
		}
	}
}

func TestExecuteCompensatesInReverseOrder(t *testing.T) {
	var compensated []string
	ok := func(name string) Step {
		return Step{
			Name: name,
			Run:  func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error {
				compensated = append(compensated, name)
				return nil
			},
		}
	}
	boom := errors.New("boom")

	o := NewOrchestrator(nil)
	res, err := o.Execute(context.Background(), "test", nil, []Step{
		ok("first"),
		ok("second"),
		{Name: "third", Run: func(ctx context.Context) error { return boom }},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped step error, got %v", err)
	}
	if res.State != "compensated" {
		t.Errorf("expected compensated, got %s", res.State)
	}
	if len(compensated) != 2 || compensated[0] != "second" || compensated[1] != "first" {
		t.Errorf("compensation order wrong: %v", compensated)
	}
	if res.Steps["third"] != StepFailed {
		t.Errorf("failed step status: %s", res.Steps["third"])
	}
	if res.Steps["first"] != StepCompensated || res.Steps["second"] != StepCompensated {
		t.Errorf("completed steps should be compensated: %v", res.Steps)
	}
}

func TestBestEffortFailureDoesNotAbort(t *testing.T) {
	var compensated bool
	o := NewOrchestrator(nil)
	res, err := o.Execute(context.Background(), "test", nil, []Step{
		{
			Name:       "core",
			Run:        func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { compensated = true; return nil },
		},
		{
			Name:       "email",
			BestEffort: true,
			Run:        func(ctx context.Context) error { return errors.New("smtp down") },
		},
	})
	if err != nil {
		t.Fatalf("best-effort failure must not abort the saga: %v", err)
	}
	if res.State != "completed" {
		t.Errorf("expected completed, got %s", res.State)
	}
	if compensated {
		t.Error("no compensation should run when only a best-effort step fails")
	}
	if res.Steps["email"] != StepFailed {
		t.Errorf("best-effort step status: %s", res.Steps["email"])
	}
}

func TestStepsAfterFailureDoNotRun(t *testing.T) {
	var ran bool
	o := NewOrchestrator(nil)
	_, err := o.Execute(context.Background(), "test", nil, []Step{
		{Name: "fail", Run: func(ctx context.Context) error { return errors.New("nope") }},
		{Name: "after", Run: func(ctx context.Context) error { ran = true; return nil }},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if ran {
		t.Error("steps after a failure must not run")
	}
}

func TestCompensationFailureContinues(t *testing.T) {
	var secondCompensated bool
	o := NewOrchestrator(nil)
	res, _ := o.Execute(context.Background(), "test", nil, []Step{
		{
			Name:       "a",
			Run:        func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { secondCompensated = true; return nil },
		},
		{
			Name:       "b",
			Run:        func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { return errors.New("undo failed") },
		},
		{Name: "c", Run: func(ctx context.Context) error { return errors.New("boom") }},
	})
	if !secondCompensated {
		t.Error("a failing compensation must not stop earlier compensations")
	}
	if res.Steps["a"] != StepCompensated {
		t.Errorf("step a status: %s", res.Steps["a"])
	}
}
