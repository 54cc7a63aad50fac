package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"todo_alarm_notifier/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// OrphanSweeper marks notifications that never got claimed.
type OrphanSweeper interface {
	SweepOrphans(ctx context.Context, now time.Time) (int64, error)
}

// Options controls when cycles and sweeps run.
type Options struct {
	CycleInterval time.Duration
	CycleCronSpec string // Overrides CycleInterval when set
	RunOnStart    bool
	SweepInterval time.Duration // Zero disables the periodic orphan sweep
	SweepTimeout  time.Duration
	Location      *time.Location
}

// EscalationScheduler drives escalation cycles on a cron schedule. Cycles never overlap within
// one process; other processes may run their own schedulers against the same store.
type EscalationScheduler struct {
	cronEngine *cron.Cron
	cycleJob   cron.Job
	sweepJob   cron.Job
	cycles     app.CycleRunner
	sweeper    OrphanSweeper
	opts       Options
	logger     *logrus.Entry
	clock      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEscalationScheduler(cycles app.CycleRunner, sweeper OrphanSweeper, opts Options, logger *logrus.Entry) *EscalationScheduler {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	cronLogger := cron.PrintfLogger(logger)
	ctx, cancel := context.WithCancel(context.Background())

	s := &EscalationScheduler{
		cronEngine: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
		),
		cycles:  cycles,
		sweeper: sweeper,
		opts:    opts,
		logger:  logger,
		clock:   time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
	// The start-up cycle shares the skip guard with scheduled ones.
	chain := cron.NewChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))
	s.cycleJob = chain.Then(cron.FuncJob(s.runCycle))
	s.sweepJob = chain.Then(cron.FuncJob(s.runSweep))
	return s
}

// Start registers the jobs and starts the cron engine. It returns an error on an invalid
// schedule instead of exiting the process.
func (s *EscalationScheduler) Start() error {
	s.logger.Info("Starting escalation scheduler...")

	if s.opts.CycleCronSpec != "" {
		if _, err := s.cronEngine.AddJob(s.opts.CycleCronSpec, s.cycleJob); err != nil {
			return fmt.Errorf("invalid cycle cron spec %q: %w", s.opts.CycleCronSpec, err)
		}
	} else {
		if s.opts.CycleInterval <= 0 {
			return fmt.Errorf("cycle interval must be positive, got %s", s.opts.CycleInterval)
		}
		s.cronEngine.Schedule(cron.Every(s.opts.CycleInterval), s.cycleJob)
	}

	if s.sweeper != nil && s.opts.SweepInterval > 0 {
		s.cronEngine.Schedule(cron.Every(s.opts.SweepInterval), s.sweepJob)
	}

	s.cronEngine.Start()

	if s.opts.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.cycleJob.Run()
		}()
	}

	s.logger.WithFields(logrus.Fields{
		"interval":  s.opts.CycleInterval.String(),
		"cron_spec": s.opts.CycleCronSpec,
	}).Info("Escalation scheduler started")
	return nil
}

func (s *EscalationScheduler) runCycle() {
	if s.ctx.Err() != nil {
		return
	}
	report, err := s.cycles.RunCycle(s.ctx, s.clock())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.WithError(err).Error("Escalation cycle failed, retrying on the next tick")
		return
	}
	if report.Attempted > 0 || report.Failed > 0 {
		s.logger.WithFields(logrus.Fields{
			"report":   report.String(),
			"duration": report.Duration.String(),
		}).Info("Escalation cycle completed")
	}
}

func (s *EscalationScheduler) runSweep() {
	if s.ctx.Err() != nil {
		return
	}
	ctx, cancel := s.sweepContext()
	defer cancel()
	if _, err := s.sweeper.SweepOrphans(ctx, s.clock()); err != nil {
		s.logger.WithError(err).Error("Orphan sweep failed")
	}
}

func (s *EscalationScheduler) sweepContext() (context.Context, context.CancelFunc) {
	if s.opts.SweepTimeout <= 0 {
		return context.WithCancel(s.ctx)
	}
	return context.WithTimeout(s.ctx, s.opts.SweepTimeout)
}

// Stop stops scheduling, lets in-flight items finish and waits for running jobs.
func (s *EscalationScheduler) Stop() {
	s.logger.Info("Stopping escalation scheduler...")
	s.cancel()
	<-s.cronEngine.Stop().Done()
	s.wg.Wait()
	s.logger.Info("Escalation scheduler gracefully stopped")
}
