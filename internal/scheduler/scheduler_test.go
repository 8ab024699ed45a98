package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMaintainer struct {
	completed chan struct{}
	resolved  chan struct{}
}

func (f *fakeMaintainer) CompleteElapsed(context.Context) (int, error) {
	f.completed <- struct{}{}
	return 2, nil
}

func (f *fakeMaintainer) ResolveDuplicates(context.Context) (int, error) {
	f.resolved <- struct{}{}
	return 0, errors.New("store unavailable")
}

func quiet() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

func TestNew_RegistersEnabledJobs(t *testing.T) {
	m := &fakeMaintainer{completed: make(chan struct{}, 1), resolved: make(chan struct{}, 1)}

	s, err := New(Config{CompleteHour: 0, CompleteMinute: 5, ReconcileEvery: time.Hour}, m, quiet())
	require.NoError(t, err)
	assert.Len(t, s.s.Jobs(), 2)
	s.Start()
	require.NoError(t, s.Shutdown())

	s, err = New(Config{CompleteHour: -1}, m, quiet())
	require.NoError(t, err)
	assert.Empty(t, s.s.Jobs())
	s.Start()
	require.NoError(t, s.Shutdown())
}

func TestJobsRunOnDemand(t *testing.T) {
	m := &fakeMaintainer{completed: make(chan struct{}, 1), resolved: make(chan struct{}, 1)}
	s, err := New(Config{CompleteHour: 3, ReconcileEvery: time.Hour}, m, quiet())
	require.NoError(t, err)
	s.Start()
	defer func() { _ = s.Shutdown() }()

	for _, j := range s.s.Jobs() {
		require.NoError(t, j.RunNow())
	}
	for _, ch := range []chan struct{}{m.completed, m.resolved} {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatal("job did not run")
		}
	}
}
