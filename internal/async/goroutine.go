// Package async runs best-effort background work that must never fail or
// delay the request that triggered it.
package async

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var inflight sync.WaitGroup

// SafeGo executes fn on its own goroutine with a timeout and panic recovery.
// Errors are logged and dropped; the caller never waits for the result.
//
// The parent context is detached from cancellation on purpose: a request
// context is cancelled as soon as the response is written, and the work must
// outlive it.
func SafeGo(parent context.Context, timeout time.Duration, taskName string, fn func(context.Context) error) {
	inflight.Add(1)
	go func() {
		defer inflight.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("task", taskName).
					Interface("panic", r).
					Str("stack", string(debug.Stack())).
					Msg("panic en tarea en segundo plano")
			}
		}()

		if err := fn(ctx); err != nil {
			log.Warn().Err(err).Str("task", taskName).Msg("tarea en segundo plano falló")
		}
	}()
}

// Wait blocks until every task started with SafeGo has finished or the
// timeout elapses. Used on shutdown and in tests; request paths never call it.
func Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
