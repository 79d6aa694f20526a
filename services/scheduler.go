package services

import (
	"context"
	"fmt"

	"almanara_go/config"
	"almanara_go/database"
	"almanara_go/services/notifications"
	"almanara_go/services/reports"
	"almanara_go/services/saga"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the recurring maintenance jobs: the saga sweep that
// surfaces workflows stuck mid-run, and the nightly payments report archive.
type Scheduler struct {
	cron     *cron.Cron
	exporter *reports.Exporter
	notifs   *notifications.Service
}

func NewScheduler(exporter *reports.Exporter, notifs *notifications.Service) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		exporter: exporter,
		notifs:   notifs,
	}
}

// Start registers and starts all jobs.
func (s *Scheduler) Start() {
	sweepSpec := "@every " + config.AppConfig.SagaSweepInterval.String()
	if _, err := s.cron.AddFunc(sweepSpec, s.sweepStaleSagas); err != nil {
		logrus.WithError(err).Error("Failed to schedule saga sweep")
	}

	if _, err := s.cron.AddFunc("0 2 * * *", s.archivePaymentsReport); err != nil {
		logrus.WithError(err).Error("Failed to schedule nightly payments report")
	}

	s.cron.Start()
	logrus.Info("Scheduler started")
}

// Stop stops the underlying cron runner.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// sweepStaleSagas marks sagas with no recent progress as failed and alerts
// the admins; a stuck payment-acceptance run means a payment may be flipped
// upstream without its enrollment.
func (s *Scheduler) sweepStaleSagas() {
	orchestrator := saga.NewOrchestrator(database.GetDB())
	stale, err := orchestrator.SweepStale(config.AppConfig.SagaSweepInterval * 2)
	if err != nil {
		logrus.WithError(err).Error("Saga sweep failed")
		return
	}
	if len(stale) == 0 {
		return
	}

	logrus.Warnf("Saga sweep flagged %d stalled workflow(s)", len(stale))
	for _, rec := range stale {
		err := s.notifs.NotifyAdmins(
			"Stalled workflow needs review",
			fmt.Sprintf("Workflow %s (%s) made no progress and was marked failed.", rec.Name, rec.SagaID),
			"warning",
			map[string]string{"saga_id": rec.SagaID},
		)
		if err != nil {
			logrus.WithError(err).Error("Failed to notify admins about stalled saga")
		}
	}
}

func (s *Scheduler) archivePaymentsReport() {
	if err := s.exporter.ArchivePayments(context.Background()); err != nil {
		logrus.WithError(err).Error("Nightly payments report failed")
	}
}
