package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testService struct {
	BaseService
	stopped chan struct{}
}

func (ts *testService) OnStart(context.Context) error { return nil }
func (ts *testService) OnStop()                       { close(ts.stopped) }

func newTestService() *testService {
	ts := &testService{stopped: make(chan struct{})}
	ts.BaseService = *NewBaseService(nil, "TestService", ts)
	return ts
}

func TestBaseServiceWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts := newTestService()
	require.NoError(t, ts.Start(ctx))

	waitFinished := make(chan struct{})
	go func() {
		ts.Wait()
		close(waitFinished)
	}()

	go ts.Stop() //nolint:errcheck // ignore for tests

	select {
	case <-waitFinished:
		// all good
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected Wait() to finish within 100 ms.")
	}
}

func TestBaseServiceStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ts := newTestService()
	require.NoError(t, ts.Start(ctx))
	require.True(t, ts.IsRunning())
	require.ErrorIs(t, ts.Start(ctx), ErrAlreadyStarted)

	cancel()

	select {
	case <-ts.stopped:
	case <-time.After(time.Second):
		t.Fatal("service was not stopped after context cancellation")
	}
	ts.Wait()
	require.False(t, ts.IsRunning())
	require.ErrorIs(t, ts.Stop(), ErrAlreadyStopped)
}

func TestBaseServiceStopBeforeStart(t *testing.T) {
	ts := newTestService()
	require.ErrorIs(t, ts.Stop(), ErrNotStarted)
}
