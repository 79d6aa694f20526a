package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"almanara_go/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Step is one unit of a multi-step workflow against the upstream API.
// Compensate undoes Run and may be nil when there is nothing to undo.
// BestEffort steps may fail without aborting the saga; their failure is
// journaled but no compensation runs.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
	BestEffort bool
}

// StepStatus mirrors models.SagaStepRecord statuses.
const (
	StepDone        = "done"
	StepFailed      = "failed"
	StepCompensated = "compensated"
)

// Result reports the outcome of a saga execution.
type Result struct {
	SagaID string
	State  string
	Steps  map[string]string
}

// Orchestrator executes sagas and journals step completion so partial runs
// are visible and compensable. With a nil DB (tests) it executes without
// journaling.
type Orchestrator struct {
	db *gorm.DB
}

func NewOrchestrator(db *gorm.DB) *Orchestrator {
	return &Orchestrator{db: db}
}

// Execute runs the steps in order. On a non-best-effort failure the
// compensations of previously completed steps run in reverse order, then the
// original step error is returned. The journal records every transition.
func (o *Orchestrator) Execute(ctx context.Context, name string, payload interface{}, steps []Step) (*Result, error) {
	res := &Result{
		SagaID: uuid.New().String(),
		State:  "running",
		Steps:  make(map[string]string, len(steps)),
	}

	var rec *models.SagaRecord
	if o.db != nil {
		var payloadJSON models.JSON
		if payload != nil {
			if b, err := json.Marshal(payload); err == nil {
				payloadJSON = models.JSON(b)
			}
		}
		rec = &models.SagaRecord{SagaID: res.SagaID, Name: name, State: "running", Payload: payloadJSON}
		if err := o.db.Create(rec).Error; err != nil {
			// Journal loss degrades crash recovery but must not block the
			// workflow itself.
			logrus.WithError(err).Error("Failed to journal saga start")
			rec = nil
		}
	}

	completed := make([]int, 0, len(steps))
	for i, step := range steps {
		err := step.Run(ctx)
		if err == nil {
			res.Steps[step.Name] = StepDone
			o.journalStep(rec, i, step.Name, StepDone, "")
			completed = append(completed, i)
			continue
		}

		if step.BestEffort {
			logrus.WithFields(logrus.Fields{
				"saga": name, "step": step.Name,
			}).WithError(err).Warn("Best-effort saga step failed")
			res.Steps[step.Name] = StepFailed
			o.journalStep(rec, i, step.Name, StepFailed, err.Error())
			continue
		}

		res.Steps[step.Name] = StepFailed
		o.journalStep(rec, i, step.Name, StepFailed, err.Error())
		o.compensate(ctx, name, steps, completed, res, rec)
		res.State = "compensated"
		o.finishSaga(rec, "compensated", err.Error())
		return res, fmt.Errorf("saga %s failed at step %s: %w", name, step.Name, err)
	}

	res.State = "completed"
	o.finishSaga(rec, "completed", "")
	return res, nil
}

// compensate undoes completed steps in reverse order. A failing compensation
// is logged and journaled but does not stop the remaining ones.
func (o *Orchestrator) compensate(ctx context.Context, name string, steps []Step, completed []int, res *Result, rec *models.SagaRecord) {
	for i := len(completed) - 1; i >= 0; i-- {
		idx := completed[i]
		step := steps[idx]
		if step.Compensate == nil || step.BestEffort {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			logrus.WithFields(logrus.Fields{
				"saga": name, "step": step.Name,
			}).WithError(err).Error("Saga compensation failed")
			o.journalStep(rec, idx, step.Name, StepFailed, "compensation: "+err.Error())
			continue
		}
		res.Steps[step.Name] = StepCompensated
		o.journalStep(rec, idx, step.Name, StepCompensated, "")
	}
}

func (o *Orchestrator) journalStep(rec *models.SagaRecord, index int, name, status, errMsg string) {
	if o.db == nil || rec == nil {
		return
	}
	step := models.SagaStepRecord{
		SagaRecordID: rec.ID,
		StepIndex:    index,
		StepName:     name,
		Status:       status,
		Error:        errMsg,
	}
	if err := o.db.Create(&step).Error; err != nil {
		logrus.WithError(err).Error("Failed to journal saga step")
	}
}

func (o *Orchestrator) finishSaga(rec *models.SagaRecord, state, errMsg string) {
	if o.db == nil || rec == nil {
		return
	}
	updates := map[string]interface{}{"state": state, "last_error": errMsg}
	if err := o.db.Model(rec).Updates(updates).Error; err != nil {
		logrus.WithError(err).Error("Failed to journal saga completion")
	}
}

// SweepStale marks sagas stuck in running (e.g. after a crash mid-workflow)
// as failed so they show up for manual review, and returns them.
func (o *Orchestrator) SweepStale(olderThan time.Duration) ([]models.SagaRecord, error) {
	if o.db == nil {
		return nil, nil
	}
	cutoff := time.Now().Add(-olderThan)
	var stale []models.SagaRecord
	if err := o.db.Where("state = ? AND updated_at < ?", "running", cutoff).Find(&stale).Error; err != nil {
		return nil, err
	}
	for i := range stale {
		if err := o.db.Model(&stale[i]).Updates(map[string]interface{}{
			"state":      "failed",
			"last_error": "stale: no progress recorded, needs manual review",
		}).Error; err != nil {
			logrus.WithError(err).Error("Failed to mark stale saga")
		}
	}
	return stale, nil
}
