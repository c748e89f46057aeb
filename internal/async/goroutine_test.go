package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSafeGo_DoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	var done atomic.Bool

	start := time.Now()
	SafeGo(context.Background(), time.Second, "slow", func(ctx context.Context) error {
		<-release
		done.Store(true)
		return nil
	})
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.False(t, done.Load())

	close(release)
	assert.True(t, Wait(time.Second))
	assert.True(t, done.Load())
}

func TestSafeGo_SwallowsErrorsAndPanics(t *testing.T) {
	SafeGo(context.Background(), time.Second, "fails", func(ctx context.Context) error {
		return errors.New("write failed")
	})
	SafeGo(context.Background(), time.Second, "panics", func(ctx context.Context) error {
		panic("boom")
	})
	assert.True(t, Wait(time.Second))
}

func TestSafeGo_OutlivesCancelledParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	var ctxErr atomic.Value
	SafeGo(parent, time.Second, "detached", func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			ctxErr.Store(err)
		}
		return nil
	})
	assert.True(t, Wait(time.Second))
	assert.Nil(t, ctxErr.Load())
}

func TestSafeGo_Timeout(t *testing.T) {
	var timedOut atomic.Bool
	SafeGo(context.Background(), 20*time.Millisecond, "timeout", func(ctx context.Context) error {
		<-ctx.Done()
		timedOut.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	})
	assert.True(t, Wait(time.Second))
	assert.True(t, timedOut.Load())
}
