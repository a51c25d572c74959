// Package scheduler runs the periodic calendar registry refresh.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/teemow/multical/internal/logging"
)

// DefaultJobTimeout bounds a single refresh run.
const DefaultJobTimeout = 2 * time.Minute

// Job is the work performed on every tick.
type Job func(ctx context.Context) error

// Refresher runs a Job on a cron schedule. Overlapping runs are skipped and
// panics are recovered.
type Refresher struct {
	cron    *cron.Cron
	job     Job
	logger  *slog.Logger
	timeout time.Duration
	runs    atomic.Int64
}

// New creates a Refresher for a standard five-field cron spec or a
// descriptor such as "@every 15m".
func New(spec string, job Job, logger *slog.Logger) (*Refresher, error) {
	if job == nil {
		return nil, fmt.Errorf("refresh job cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")

	cronLogger := logging.NewCronLogger(logger)
	r := &Refresher{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		job:     job,
		logger:  logger,
		timeout: DefaultJobTimeout,
	}

	if _, err := r.cron.AddFunc(spec, func() { r.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return r, nil
}

// Start starts the schedule in the background.
func (r *Refresher) Start() {
	r.cron.Start()
	r.logger.Info("registry refresher started")
}

// Stop stops the schedule and waits for a running job to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

// RunOnce runs the job immediately with the job timeout.
func (r *Refresher) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := r.job(ctx)
	r.runs.Add(1)
	if err != nil {
		r.logger.Warn("registry refresh failed", logging.Err(err))
		return
	}
	r.logger.Debug("registry refreshed", "duration", time.Since(start))
}

// Runs returns how many times the job has run.
func (r *Refresher) Runs() int64 {
	return r.runs.Load()
}
