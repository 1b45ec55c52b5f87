package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of periodic work, typically one rate syncer.
type Job interface {
	Name() string
	Run(ctx context.Context)
}

// Scheduler runs every job once at start and then on a fixed schedule. A tick does not
// wait for the previous run of the same job to finish.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	timeout time.Duration
	jobs    []Job
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewScheduler creates a new scheduler instance. spec accepts the standard cron syntax
// plus descriptors such as "@every 30s".
func NewScheduler(spec string, timeout time.Duration, logger *zap.Logger, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:    cron.New(),
		spec:    spec,
		timeout: timeout,
		jobs:    jobs,
		logger:  logger,
	}
}

// Start registers the jobs, fires one immediate run of each and starts the ticker.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("spec", s.spec), zap.Int("jobs", len(s.jobs)))

	for _, job := range s.jobs {
		job := job
		if _, err := s.cron.AddFunc(s.spec, func() { s.run(job) }); err != nil {
			return fmt.Errorf("schedule %s with %q: %w", job.Name(), s.spec, err)
		}
	}

	for _, job := range s.jobs {
		job := job
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(job)
		}()
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for in-flight runs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Debug("running job", zap.String("job", job.Name()))
	job.Run(ctx)
}
