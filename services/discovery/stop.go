package discovery

import (
	"errors"
	"sync/atomic"
)

// ErrStopRequested is returned by StopToken.Err once a stop has been
// requested. It marks a user-requested termination, not a failure: the run
// unwinds keeping every commit and cache write made so far.
var ErrStopRequested = errors.New("stop requested")

// StopToken is the run-scoped cancellation flag. It is set from any
// goroutine and polled cooperatively by the pipeline between candidates and
// between pages and years. It never clears itself mid-run.
type StopToken struct {
	stopped atomic.Bool
}

// NewStopToken returns a cleared token.
func NewStopToken() *StopToken {
	return &StopToken{}
}

// RequestStop asks the current run to unwind at its next checkpoint.
func (t *StopToken) RequestStop() {
	t.stopped.Store(true)
}

// Reset clears the flag. Called exactly once at the start of every run,
// before any candidate is processed.
func (t *StopToken) Reset() {
	t.stopped.Store(false)
}

// Stopped reports whether a stop has been requested.
func (t *StopToken) Stopped() bool {
	return t.stopped.Load()
}

// Err is the checkpoint: it returns ErrStopRequested when a stop is pending
// and nil otherwise.
func (t *StopToken) Err() error {
	if t.stopped.Load() {
		return ErrStopRequested
	}
	return nil
}
