package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/forecast-sync/internal/daytime"
)

// DefaultInterval is how often the periodic sync fires when none is configured.
const DefaultInterval = 3 * time.Hour

// Scheduler triggers engine cycles periodically and on demand. Cycles always
// run off the caller's goroutine.
type Scheduler struct {
	scheduler *gocron.Scheduler
	engine    *Engine
	clock     daytime.Clock
	interval  time.Duration
	logger    *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Scheduler.
func New(engine *Engine, clock daytime.Clock, interval time.Duration, logger *logrus.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		engine:    engine,
		clock:     clock,
		interval:  interval,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first periodic run fires one interval from now; use Initialize for an
// immediate cycle.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		s.run("periodic")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.WithField("interval", s.interval.String()).Info("scheduler started")
	return nil
}

// Initialize runs once per process: it marks the engine initialized and, when
// the store has nothing from today onward, triggers an immediate sync.
func (s *Scheduler) Initialize(ctx context.Context) error {
	if !s.engine.MarkInitialized() {
		return nil
	}
	ds, err := s.engine.CurrentForecast(ctx)
	if err != nil {
		return err
	}
	if len(ds) == 0 {
		s.TriggerNow("initial")
	}
	return nil
}

// TriggerNow starts a cycle in the background. It reports false when a cycle
// is already in flight, in which case the trigger is dropped. When it reports
// true the cycle is already claimed, so Engine.Cancel can abort it at once.
func (s *Scheduler) TriggerNow(reason string) bool {
	run, ok := s.engine.StartSyncCycle(s.ctx)
	if !ok {
		s.logger.WithField("trigger", reason).Debug("sync already running; trigger coalesced")
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.WithField("trigger", reason).Debug("running sync job")
		run(s.clock.Now())
	}()
	return true
}

// RunOnce runs a cycle on the calling goroutine.
func (s *Scheduler) RunOnce(ctx context.Context) Outcome {
	return s.engine.RunSyncCycle(ctx, s.clock.Now())
}

func (s *Scheduler) run(reason string) {
	s.logger.WithField("trigger", reason).Debug("running sync job")
	s.engine.RunSyncCycle(s.ctx, s.clock.Now())
}

// Stop cancels any in-flight cycle, stops the scheduler and waits for
// on-demand cycles to return. The cancel comes first: gocron's Stop waits for
// a running job.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.wg.Wait()
}
