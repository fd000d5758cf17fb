package scheduler

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/forecast-sync/internal/daytime"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestInitializeSyncsWhenStoreEmpty(t *testing.T) {
	h := newHarness(t, &fakeFetcher{body: payload(t, "200", 800, 801)}, nil, false)
	s := New(h.engine, h.norm.Clock(), time.Hour, quietLogger())
	defer s.Stop()

	require.NoError(t, s.Initialize(context.Background()))
	assert.True(t, h.engine.Status().Initialized)

	require.Eventually(t, func() bool {
		empty, err := h.store.IsEmpty(context.Background())
		return err == nil && !empty
	}, time.Second, 5*time.Millisecond)

	// A second Initialize is a no-op.
	require.NoError(t, s.Initialize(context.Background()))
}

func TestInitializeSkipsSyncWhenDataPresent(t *testing.T) {
	f := &fakeFetcher{block: true, started: make(chan struct{})}
	h := newHarness(t, f, nil, false)
	seed(t, h, 2)

	s := New(h.engine, h.norm.Clock(), time.Hour, quietLogger())
	defer s.Stop()

	require.NoError(t, s.Initialize(context.Background()))
	assert.False(t, h.engine.Running())
	assert.Nil(t, h.engine.Status().LastOutcome)
}

func TestTriggerNowCoalesces(t *testing.T) {
	f := &fakeFetcher{block: true, started: make(chan struct{})}
	h := newHarness(t, f, nil, false)
	s := New(h.engine, h.norm.Clock(), time.Hour, quietLogger())

	require.True(t, s.TriggerNow("manual"))
	<-f.started
	assert.False(t, s.TriggerNow("manual"))

	s.Stop()
	assert.False(t, h.engine.Running())
	require.NotNil(t, h.engine.Status().LastOutcome)
	assert.Equal(t, OutcomeCanceled, h.engine.Status().LastOutcome.Kind)
}

func TestRunOnce(t *testing.T) {
	h := newHarness(t, &fakeFetcher{body: payload(t, "200", 800)}, nil, false)
	s := New(h.engine, daytime.FixedClock{At: now, Location: time.UTC}, 0, nil)
	defer s.Stop()

	assert.Equal(t, DefaultInterval, s.interval)
	out := s.RunOnce(context.Background())
	assert.Equal(t, OutcomeSuccess, out.Kind)
}

func TestStartSchedulesPeriodicJob(t *testing.T) {
	h := newHarness(t, &fakeFetcher{body: payload(t, "200", 800)}, nil, false)
	s := New(h.engine, h.norm.Clock(), time.Hour, quietLogger())

	require.NoError(t, s.Start())
	assert.Len(t, s.scheduler.Jobs(), 1)
	assert.True(t, s.scheduler.IsRunning())
	s.Stop()
}

func TestTriggerNowIsImmediatelyCancelable(t *testing.T) {
	f := &fakeFetcher{block: true, started: make(chan struct{})}
	h := newHarness(t, f, nil, false)
	s := New(h.engine, h.norm.Clock(), time.Hour, quietLogger())
	defer s.Stop()

	require.True(t, s.TriggerNow("manual"))
	assert.True(t, h.engine.Cancel())

	require.Eventually(t, func() bool { return !h.engine.Running() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, OutcomeCanceled, h.engine.Status().LastOutcome.Kind)
}

func TestStopAbandonsPeriodicCycle(t *testing.T) {
	f := &fakeFetcher{block: true, started: make(chan struct{})}
	h := newHarness(t, f, nil, false)
	s := New(h.engine, h.norm.Clock(), time.Second, quietLogger())
	require.NoError(t, s.Start())

	select {
	case <-f.started:
	case <-time.After(3 * time.Second):
		s.Stop()
		t.Fatal("periodic job did not start")
	}

	began := time.Now()
	s.Stop()
	assert.Less(t, time.Since(began), time.Second)

	require.Eventually(t, func() bool { return !h.engine.Running() }, time.Second, 5*time.Millisecond)
	last := h.engine.Status().LastOutcome
	require.NotNil(t, last)
	assert.Equal(t, OutcomeCanceled, last.Kind)
	assert.ErrorIs(t, last.Err, context.Canceled)
}
