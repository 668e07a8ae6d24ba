// Package scheduler publishes the daily report at a fixed time of day.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/queue"
	"github.com/soltixdb/homedash/internal/report"
	"github.com/soltixdb/homedash/internal/utils"
)

// Scheduler runs the daily report job
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       *gocron.Job
	builder   *report.Builder
	publisher queue.Publisher
	subject   string
	at        string
	logger    *logging.Logger
}

// New creates a scheduler that publishes today's report on subject every day
// at the given HH:MM, in the builder's timezone
func New(at, subject string, builder *report.Builder, publisher queue.Publisher, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Global()
	}
	if subject == "" {
		subject = utils.DailyReportSubject
	}
	s := gocron.NewScheduler(builder.Location())
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		builder:   builder,
		publisher: publisher,
		subject:   subject,
		at:        at,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the job and starts the scheduler in the background
func (s *Scheduler) Start() error {
	job, err := s.scheduler.Every(1).Day().At(s.at).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), utils.PublishTimeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("Daily report job failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule daily report at %s: %w", s.at, err)
	}
	s.job = job

	s.scheduler.StartAsync()
	s.logger.Info("Daily report scheduled",
		"at", s.at,
		"timezone", s.builder.Location().String(),
		"subject", s.subject,
		"next_run", job.NextRun())
	return nil
}

// RunOnce builds today's report and publishes it as JSON
func (s *Scheduler) RunOnce(ctx context.Context) (*report.Daily, error) {
	rep := s.builder.Today()

	data, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	if err := s.publisher.Publish(ctx, s.subject, data); err != nil {
		return rep, fmt.Errorf("failed to publish report %s: %w", rep.ID, err)
	}

	s.logger.Info("Daily report published",
		"report_id", rep.ID,
		"date", rep.Date,
		"room", rep.Room,
		"no_data", rep.NoData)
	return rep, nil
}

// NextRun returns when the job runs next; zero before Start
func (s *Scheduler) NextRun() time.Time {
	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

// Stop stops the scheduler. A running job is allowed to finish.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
