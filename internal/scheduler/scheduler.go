// Package scheduler runs the periodic maintenance jobs of the booking core.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/labstack/gommon/log"
)

// Maintainer is the set of maintenance passes the jobs call.
type Maintainer interface {
	CompleteElapsed(ctx context.Context) (int, error)
	ResolveDuplicates(ctx context.Context) (int, error)
}

// Config controls which jobs run and when.
type Config struct {
	Location *time.Location
	// CompleteHour and CompleteMinute give the daily time at which elapsed
	// bookings are marked completed.  A negative hour disables the job.
	CompleteHour   int
	CompleteMinute int
	// ReconcileEvery is the interval of the duplicate-booking pass.  Zero
	// disables it.
	ReconcileEvery time.Duration
	JobTimeout     time.Duration
}

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	s      gocron.Scheduler
	logger *log.Logger
}

// New registers the enabled jobs.  Call Start to begin running them.
func New(cfg Config, m Maintainer, logger *log.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = log.New("scheduler")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	timeout := cfg.JobTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}
	sch := &Scheduler{s: s, logger: logger}

	if cfg.CompleteHour >= 0 {
		_, err = s.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(
				gocron.NewAtTime(uint(cfg.CompleteHour), uint(cfg.CompleteMinute), 0),
			)),
			gocron.NewTask(sch.run, "complete-elapsed", timeout, m.CompleteElapsed),
			gocron.WithName("complete-elapsed"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, fmt.Errorf("register complete-elapsed job: %w", err)
		}
	}
	if cfg.ReconcileEvery > 0 {
		_, err = s.NewJob(
			gocron.DurationJob(cfg.ReconcileEvery),
			gocron.NewTask(sch.run, "resolve-duplicates", timeout, m.ResolveDuplicates),
			gocron.WithName("resolve-duplicates"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, fmt.Errorf("register resolve-duplicates job: %w", err)
		}
	}
	return sch, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.s.Start()
	s.logger.Infof("scheduler: started %d job(s)", len(s.s.Jobs()))
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	return s.s.Shutdown()
}

func (s *Scheduler) run(name string, timeout time.Duration, pass func(context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	n, err := pass(ctx)
	if err != nil {
		s.logger.Errorj(log.JSON{"msg": "scheduler: job failed", "job": name, "changed": n, "error": err.Error()})
		return
	}
	s.logger.Infoj(log.JSON{"msg": "scheduler: job finished", "job": name, "changed": n})
}
