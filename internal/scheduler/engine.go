package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/forecast-sync/internal/daytime"
	"github.com/i474232898/forecast-sync/internal/notify"
	"github.com/i474232898/forecast-sync/internal/weather"
)

// ErrNoPendingNotification is returned when acknowledging with nothing pending.
var ErrNoPendingNotification = errors.New("no pending notification")

// Status is the engine's view of the last cycles, consumed by rendering layers.
type Status struct {
	State         State         `json:"state"`
	Initialized   bool          `json:"initialized"`
	LastOutcome   *Outcome      `json:"lastOutcome,omitempty"`
	LastAttemptAt time.Time     `json:"lastAttemptAt"`
	LastSuccessAt time.Time     `json:"lastSuccessAt"`
	City          *weather.City `json:"city,omitempty"`
	// Stale is set when the most recent cycle did not install fresh data.
	Stale bool `json:"stale"`
}

// EngineConfig holds the engine collaborators. Sink may be nil, in which case
// notifications stay pending until acknowledged.
type EngineConfig struct {
	Fetcher     weather.Fetcher
	Store       weather.Store
	Gate        *notify.Gate
	Sink        notify.Sink
	Preferences weather.Preferences
	Normalizer  *daytime.Normalizer
	Logger      *logrus.Logger
	// FetchTimeout bounds a cycle whose context carries no deadline.
	FetchTimeout time.Duration
}

// Engine runs sync cycles: fetch, parse, store, maybe notify. At most one
// cycle is in flight; concurrent triggers are coalesced.
type Engine struct {
	fetcher weather.Fetcher
	store   weather.Store
	gate    *notify.Gate
	sink    notify.Sink
	prefs   weather.Preferences
	norm    *daytime.Normalizer
	logger  *logrus.Logger
	timeout time.Duration

	running     atomic.Bool
	state       atomic.Int32
	initialized atomic.Bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	status  Status
	pending *notify.Notification
}

func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Engine{
		fetcher: cfg.Fetcher,
		store:   cfg.Store,
		gate:    cfg.Gate,
		sink:    cfg.Sink,
		prefs:   cfg.Preferences,
		norm:    cfg.Normalizer,
		logger:  logger,
		timeout: cfg.FetchTimeout,
	}
}

// RunSyncCycle executes one cycle and reports its outcome. It returns
// OutcomeSkipped without side effects when another cycle is running.
func (e *Engine) RunSyncCycle(ctx context.Context, now time.Time) Outcome {
	run, ok := e.StartSyncCycle(ctx)
	if !ok {
		return Outcome{Kind: OutcomeSkipped, StartedAt: now, FinishedAt: now}
	}
	return run(now)
}

// StartSyncCycle claims the single-flight slot and returns the function that
// runs the claimed cycle. From the moment it returns true the cycle is
// visible to Running and Cancel. The returned function must be called exactly
// once; it may run on another goroutine.
func (e *Engine) StartSyncCycle(ctx context.Context) (func(now time.Time) Outcome, bool) {
	e.mu.Lock()
	if !e.running.CompareAndSwap(false, true) {
		e.mu.Unlock()
		e.logger.Debug("sync cycle already in flight; trigger ignored")
		return nil, false
	}

	var (
		cycleCtx context.Context
		cancel   context.CancelFunc
	)
	if _, ok := ctx.Deadline(); !ok && e.timeout > 0 {
		cycleCtx, cancel = context.WithTimeout(ctx, e.timeout)
	} else {
		cycleCtx, cancel = context.WithCancel(ctx)
	}
	e.cancel = cancel
	e.mu.Unlock()

	return func(now time.Time) Outcome {
		defer func() {
			cancel()
			e.mu.Lock()
			e.cancel = nil
			e.running.Store(false)
			e.mu.Unlock()
		}()
		return e.cycle(cycleCtx, now)
	}, true
}

func (e *Engine) cycle(ctx context.Context, now time.Time) Outcome {
	out := Outcome{CycleID: uuid.NewString(), StartedAt: now}
	log := e.logger.WithField("cycle_id", out.CycleID)
	log.WithField("query", e.prefs.Query().Key()).Info("sync cycle started")

	out = e.run(ctx, out, now, log)
	out.FinishedAt = e.norm.Clock().Now()

	e.record(out)
	e.setState(StateIdle)

	entry := log.WithFields(logrus.Fields{"outcome": out.Kind, "records": out.RecordCount})
	switch out.Kind {
	case OutcomeFailure:
		entry.WithField("reason", out.Reason).WithError(out.Err).Warn("sync cycle failed")
	case OutcomeCanceled:
		entry.WithError(out.Err).Info("sync cycle canceled")
	default:
		entry.Info("sync cycle finished")
	}
	return out
}

// run takes the cycle's calendar day from now: record 0 is dated the local
// day containing now, and that is also the day announced.
func (e *Engine) run(ctx context.Context, out Outcome, now time.Time, log *logrus.Entry) Outcome {
	if ctx.Err() != nil {
		return canceled(out, ctx.Err())
	}
	today := e.norm.LocalDayKey(now)

	e.setState(StateFetching)
	body, err := e.fetcher.Fetch(ctx, e.prefs.Query())
	if err != nil {
		if ctx.Err() != nil {
			return canceled(out, ctx.Err())
		}
		return e.fail(out, classify(err), err)
	}
	if ctx.Err() != nil {
		return canceled(out, ctx.Err())
	}

	e.setState(StateParsing)
	res, err := weather.ParseForecast(body, daytime.DateOf(today))
	if err != nil {
		return e.fail(out, classify(err), err)
	}
	if res.City != nil {
		e.mu.Lock()
		e.status.City = res.City
		e.mu.Unlock()
	}
	if res.Status == weather.ParseNoData {
		out.Kind = OutcomeNoData
		return out
	}
	if ctx.Err() != nil {
		return canceled(out, ctx.Err())
	}

	e.setState(StateStoring)
	if err := e.store.ReplaceAll(ctx, res.Dataset); err != nil {
		if ctx.Err() != nil {
			return canceled(out, ctx.Err())
		}
		return e.fail(out, ReasonStore, err)
	}
	out.Kind = OutcomeSuccess
	out.RecordCount = len(res.Dataset)
	log.WithField("records", out.RecordCount).Debug("forecast dataset replaced")

	e.setState(StateNotifying)
	out.Notified = e.notify(ctx, res.Dataset, today, now, log)
	return out
}

// notify evaluates the gate against today's record and hands a due
// notification to the sink. Failures here never fail the cycle.
func (e *Engine) notify(ctx context.Context, ds weather.Dataset, today daytime.DayKey, now time.Time, log *logrus.Entry) bool {
	if e.gate == nil {
		return false
	}
	upcoming := ds.From(today)
	if len(upcoming) == 0 || upcoming[0].DayKey() != today {
		log.Debug("no forecast for today; skipping notification")
		return false
	}

	n, due, err := e.gate.Decide(ctx, upcoming[0], e.prefs, now)
	if err != nil {
		log.WithError(err).Warn("notification decision failed")
		return false
	}
	if !due {
		return false
	}

	e.mu.Lock()
	e.pending = &n
	e.mu.Unlock()

	if e.sink == nil {
		log.WithField("notification_id", n.ID).Info("notification pending delivery")
		return true
	}
	if err := e.sink.Deliver(ctx, n); err != nil {
		log.WithError(err).Warn("notification delivery failed; left pending")
		return true
	}
	if err := e.AcknowledgeNotification(ctx, n.ID, now); err != nil {
		log.WithError(err).Warn("failed to record notification delivery")
	}
	return true
}

func (e *Engine) fail(out Outcome, reason Reason, err error) Outcome {
	e.setState(StateFailed)
	out.Kind = OutcomeFailure
	out.Reason = reason
	out.Err = err
	return out
}

func canceled(out Outcome, err error) Outcome {
	out.Kind = OutcomeCanceled
	out.Err = err
	return out
}

func classify(err error) Reason {
	switch {
	case errors.Is(err, weather.ErrMalformedResponse):
		return ReasonMalformed
	case errors.Is(err, weather.ErrUpstream):
		return ReasonUpstream
	case errors.Is(err, weather.ErrNetwork):
		return ReasonNetwork
	case errors.Is(err, weather.ErrInvalidQuery), errors.Is(err, weather.ErrNotConfigured):
		return ReasonConfig
	default:
		return ReasonInternal
	}
}

func (e *Engine) record(out Outcome) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.status.LastOutcome = &out
	e.status.LastAttemptAt = out.StartedAt
	if out.Kind == OutcomeSuccess {
		e.status.LastSuccessAt = out.FinishedAt
	}
	e.status.Stale = out.Kind != OutcomeSuccess
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

// State returns the stage of the in-flight cycle, or StateIdle.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Running reports whether a cycle is in flight.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Cancel abandons the in-flight cycle, if any. The store is left untouched
// unless the replace had already committed.
func (e *Engine) Cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel == nil {
		return false
	}
	e.cancel()
	return true
}

// MarkInitialized flips the one-shot initialization flag and reports whether
// this call was the first.
func (e *Engine) MarkInitialized() bool {
	return e.initialized.CompareAndSwap(false, true)
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	st := e.status
	if st.LastOutcome != nil {
		last := *st.LastOutcome
		st.LastOutcome = &last
	}
	e.mu.Unlock()

	st.State = e.State()
	st.Initialized = e.initialized.Load()
	return st
}

// CurrentForecast returns the stored records from today onward.
func (e *Engine) CurrentForecast(ctx context.Context) (weather.Dataset, error) {
	ds, err := e.store.QueryFromToday(ctx)
	if err != nil {
		return nil, fmt.Errorf("query forecast: %w", err)
	}
	return ds, nil
}

// PendingNotification returns the notification awaiting delivery, if any.
func (e *Engine) PendingNotification() (notify.Notification, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return notify.Notification{}, false
	}
	return *e.pending, true
}

// AcknowledgeNotification records delivery of the pending notification and
// clears it. An empty id acknowledges whatever is pending.
func (e *Engine) AcknowledgeNotification(ctx context.Context, id string, at time.Time) error {
	e.mu.Lock()
	pending := e.pending
	e.mu.Unlock()

	if pending == nil || (id != "" && pending.ID != id) {
		return ErrNoPendingNotification
	}
	if err := e.gate.Confirm(ctx, at); err != nil {
		return err
	}

	e.mu.Lock()
	if e.pending != nil && e.pending.ID == pending.ID {
		e.pending = nil
	}
	e.mu.Unlock()
	return nil
}
