package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/aescanero/lazymint/pkg/domain"
)

// Outcome is the terminal result of one attempt.
type Outcome struct {
	Status domain.SubmissionStatus
	Result *domain.SubmissionResult
	Err    error

	// Superseded is set when a newer attempt took over the session; such an
	// outcome was never written to the status store.
	Superseded bool

	ImageAddress    domain.ContentAddress
	MetadataAddress domain.ContentAddress
	Metadata        domain.NFTMetadata
	MintRequest     domain.MintRequest
}

// Attempt is a handle on one submission attempt.
type Attempt struct {
	ID          string
	SessionID   string
	SubmittedAt time.Time

	input     domain.SubmissionInput
	requester string

	ctx    context.Context
	cancel context.CancelCauseFunc
	stop   context.CancelFunc

	mu      sync.Mutex
	status  domain.SubmissionStatus
	outcome *Outcome
	done    chan struct{}
	once    sync.Once
}

func newAttempt(id, sessionID string, input domain.SubmissionInput, requester string, timeout time.Duration) *Attempt {
	base, cancel := context.WithCancelCause(context.Background())

	ctx, stop := base, context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, stop = context.WithTimeoutCause(base, timeout, errTimedOut)
	}

	return &Attempt{
		ID:          id,
		SessionID:   sessionID,
		SubmittedAt: time.Now(),
		input:       input,
		requester:   requester,
		ctx:         ctx,
		cancel:      cancel,
		stop:        stop,
		status:      domain.SubmissionStatusIdle,
		done:        make(chan struct{}),
	}
}

// Done is closed once the attempt has finished.
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// Outcome returns the terminal outcome, or nil while the attempt is running.
func (a *Attempt) Outcome() *Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.outcome
}

// Wait blocks until the attempt finishes or ctx is done.
func (a *Attempt) Wait(ctx context.Context) (*Outcome, error) {
	select {
	case <-a.done:
		return a.Outcome(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Status returns the attempt's own view of its status.
func (a *Attempt) Status() domain.SubmissionStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// transition moves the attempt to next, reporting whether that is allowed.
func (a *Attempt) transition(next domain.SubmissionStatus) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.status.CanTransition(next) {
		return false
	}
	a.status = next
	return true
}

// release frees the attempt's context for an attempt that never started
func (a *Attempt) release() {
	a.stop()
	a.cancel(nil)
}

// complete records the outcome and releases waiters. Only the first call wins.
func (a *Attempt) complete(outcome *Outcome) bool {
	won := false
	a.once.Do(func() {
		a.mu.Lock()
		a.outcome = outcome
		a.mu.Unlock()

		a.stop()
		a.cancel(nil)
		close(a.done)
		won = true
	})
	return won
}
