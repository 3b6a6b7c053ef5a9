package asynctask

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAsync_Get(t *testing.T) {
	a := Run(context.Background(), nil, func(ctx context.Context) ([]uint64, error) {
		return []uint64{42}, nil
	})
	res, err := a.Get()
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, res)
	require.True(t, a.Done())
}

func TestAsync_Get_Error(t *testing.T) {
	boom := errors.New("boom")
	a := Run(context.Background(), nil, func(ctx context.Context) ([]uint64, error) {
		return nil, boom
	})
	_, err := a.Get()
	require.ErrorIs(t, err, boom)
}

func TestAsync_Cancel(t *testing.T) {
	started := make(chan struct{})
	a := Run(context.Background(), nil, func(ctx context.Context) ([]uint64, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	<-started
	require.False(t, a.Cancelled())
	a.Cancel()
	require.True(t, a.Cancelled())

	_, err := a.Get()
	require.ErrorIs(t, err, ErrCancelled)

	// Cancel is idempotent.
	a.Cancel()
}

func TestAsync_Wait_ContextDeadline(t *testing.T) {
	a := Run(context.Background(), nil, func(ctx context.Context) ([]uint64, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	defer a.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err := a.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAsync_WaitFor_Timeout(t *testing.T) {
	a := Run(context.Background(), nil, func(ctx context.Context) ([]uint64, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	defer a.Cancel()

	_, err := a.WaitFor(time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestAsync_WaitFor_Completes(t *testing.T) {
	a := Run(context.Background(), nil, func(ctx context.Context) ([]uint64, error) {
		return []uint64{7}, nil
	})
	res, err := a.WaitFor(time.Second)
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, res)
}

func TestAsync_WaitUntil(t *testing.T) {
	a := Run(context.Background(), nil, func(ctx context.Context) ([]uint64, error) {
		return []uint64{1}, nil
	})
	res, err := a.WaitUntil(time.Now().Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, res)
}

func TestLimiter_BoundsConcurrency(t *testing.T) {
	limiter := NewLimiter(1)
	require.NotNil(t, limiter)

	first := make(chan struct{})
	release := make(chan struct{})
	a := Run(context.Background(), limiter, func(ctx context.Context) ([]uint64, error) {
		close(first)
		<-release
		return nil, nil
	})
	<-first

	// A second task should not start until the first releases its slot.
	secondStarted := make(chan struct{})
	b := Run(context.Background(), limiter, func(ctx context.Context) ([]uint64, error) {
		close(secondStarted)
		return nil, nil
	})

	select {
	case <-secondStarted:
		t.Fatal("second task started before first released its slot")
	case <-time.After(10 * time.Millisecond):
	}

	close(release)
	_, err := a.Get()
	require.NoError(t, err)
	_, err = b.Get()
	require.NoError(t, err)
}

func TestNewLimiter_Unlimited(t *testing.T) {
	require.Nil(t, NewLimiter(0))
	require.Nil(t, NewLimiter(-1))
}
