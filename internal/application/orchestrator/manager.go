package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/lazymint/internal/application/workers"
	"github.com/aescanero/lazymint/pkg/domain"
	"github.com/aescanero/lazymint/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResubmitPolicy decides what a submit does while the session has an attempt in flight
type ResubmitPolicy string

const (
	// ResubmitReplace cancels the in-flight attempt and starts a new one
	ResubmitReplace ResubmitPolicy = "replace"
	// ResubmitReject refuses the new submission
	ResubmitReject ResubmitPolicy = "reject"
)

// ErrNoActiveAttempt is returned by Cancel when the session has nothing in flight
var ErrNoActiveAttempt = errors.New("no submission in progress")

var (
	errCancelRequested = errors.New("submission cancelled")
	errSuperseded      = errors.New("submission superseded by a newer attempt")
	errTimedOut        = errors.New("submission timed out")
	errShuttingDown    = errors.New("service shutting down")
)

// Dispatcher runs jobs asynchronously
type Dispatcher interface {
	Dispatch(job workers.Job) error
}

// Config holds the manager's collaborators and settings
type Config struct {
	ContentStore ports.ContentStore
	Marketplace  ports.Marketplace
	Authorizer   ports.Authorizer
	StatusStore  ports.StatusStore
	EventBus     ports.EventBus
	Metrics      ports.MetricsCollector
	Dispatcher   Dispatcher
	Validator    *Validator
	Logger       *zap.Logger

	Chain           string
	MarketplaceHost string
	ResubmitPolicy  ResubmitPolicy
	AttemptTimeout  time.Duration
}

// Manager coordinates submission attempts
type Manager struct {
	contentStore ports.ContentStore
	marketplace  ports.Marketplace
	authorizer   ports.Authorizer
	store        ports.StatusStore
	eventBus     ports.EventBus
	metrics      ports.MetricsCollector
	dispatcher   Dispatcher
	validator    *Validator
	logger       *zap.Logger

	chain           string
	marketplaceHost string
	policy          ResubmitPolicy
	attemptTimeout  time.Duration

	// mu serializes status writes so a superseded attempt can never overwrite
	// the cell of the attempt that replaced it.
	mu     sync.Mutex
	active map[string]*Attempt // session id -> in-flight attempt
}

// NewManager creates a new orchestrator manager
func NewManager(cfg *Config) *Manager {
	chain := cfg.Chain
	if chain == "" {
		chain = domain.DefaultChain
	}

	policy := cfg.ResubmitPolicy
	if policy == "" {
		policy = ResubmitReplace
	}

	validator := cfg.Validator
	if validator == nil {
		validator = NewValidator(0)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		contentStore:    cfg.ContentStore,
		marketplace:     cfg.Marketplace,
		authorizer:      cfg.Authorizer,
		store:           cfg.StatusStore,
		eventBus:        cfg.EventBus,
		metrics:         cfg.Metrics,
		dispatcher:      cfg.Dispatcher,
		validator:       validator,
		logger:          logger,
		chain:           chain,
		marketplaceHost: cfg.MarketplaceHost,
		policy:          policy,
		attemptTimeout:  cfg.AttemptTimeout,
		active:          make(map[string]*Attempt),
	}
}

// Submit validates input, marks the session pending and starts the attempt.
// The pending status is stored before Submit returns.
func (m *Manager) Submit(ctx context.Context, sessionID string, input domain.SubmissionInput, requesterAddress string) (*Attempt, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}

	if err := m.validator.Validate(input); err != nil {
		m.logger.Warn("submission rejected",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	attempt := newAttempt(uuid.New().String(), sessionID, input.Clone(), requesterAddress, m.attemptTimeout)

	m.mu.Lock()
	prev, inFlight := m.active[sessionID]
	if inFlight && m.policy == ResubmitReject {
		m.mu.Unlock()
		attempt.release()
		return nil, domain.ErrSubmissionInProgress
	}

	attempt.transition(domain.SubmissionStatusPending)
	pending := &domain.Status{
		SessionID:   sessionID,
		AttemptID:   attempt.ID,
		Status:      domain.SubmissionStatusPending,
		SubmittedAt: &attempt.SubmittedAt,
		UpdatedAt:   attempt.SubmittedAt,
	}

	if err := m.store.Save(ctx, pending); err != nil {
		m.mu.Unlock()
		attempt.release()
		m.logger.Error("failed to save pending status",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to save status: %w", err)
	}

	if inFlight {
		prev.cancel(errSuperseded)
		m.logger.Info("superseding submission",
			zap.String("session_id", sessionID),
			zap.String("attempt_id", prev.ID),
			zap.String("new_attempt_id", attempt.ID))
	}

	m.active[sessionID] = attempt
	m.publish(ctx, domain.EventTypeSubmissionPending, pending, nil)
	m.metrics.RecordSubmissionStarted(string(domain.SubmissionStatusPending))
	m.metrics.SetActiveAttempts(len(m.active))
	m.mu.Unlock()

	m.logger.Info("submission started",
		zap.String("session_id", sessionID),
		zap.String("attempt_id", attempt.ID),
		zap.String("filename", input.Filename),
		zap.Int("image_bytes", len(input.Image)))

	if err := m.dispatcher.Dispatch(func(ctx context.Context) { m.run(ctx, attempt) }); err != nil {
		m.logger.Error("failed to dispatch submission",
			zap.String("session_id", sessionID),
			zap.String("attempt_id", attempt.ID),
			zap.Error(err))
		m.finish(attempt, &Outcome{
			Status: domain.SubmissionStatusError,
			Result: domain.FailureResult(err),
			Err:    err,
		})
		return attempt, fmt.Errorf("failed to dispatch submission: %w", err)
	}

	return attempt, nil
}

// run executes the attempt's steps in order
func (m *Manager) run(workerCtx context.Context, attempt *Attempt) {
	ctx := attempt.ctx

	// Pool shutdown aborts the attempt at its next step boundary.
	stop := context.AfterFunc(workerCtx, func() { attempt.cancel(errShuttingDown) })
	defer stop()

	st := &attemptState{
		input:     attempt.input,
		requester: attempt.requester,
		chain:     m.chain,
	}

	for _, s := range m.steps() {
		if ctx.Err() != nil {
			m.finishCancelled(attempt, s.name, st)
			return
		}

		start := time.Now()
		err := s.run(ctx, st)
		duration := time.Since(start)

		if err != nil {
			if ctx.Err() != nil {
				m.metrics.RecordStep(s.name, "cancelled", duration)
				m.finishCancelled(attempt, s.name, st)
				return
			}

			m.metrics.RecordStep(s.name, "error", duration)
			subErr := domain.NewSubmissionError(s.kind, s.name, err)
			m.logger.Warn("submission step failed",
				zap.String("session_id", attempt.SessionID),
				zap.String("attempt_id", attempt.ID),
				zap.String("step", s.name),
				zap.String("kind", string(s.kind)),
				zap.Error(err))

			m.finish(attempt, st.outcome(domain.SubmissionStatusError, domain.FailureResult(subErr), subErr))
			return
		}

		m.metrics.RecordStep(s.name, "ok", duration)
		m.logger.Debug("submission step completed",
			zap.String("session_id", attempt.SessionID),
			zap.String("attempt_id", attempt.ID),
			zap.String("step", s.name),
			zap.Duration("duration", duration))
		m.publishStep(ctx, attempt, s.name)
	}

	m.finish(attempt, st.outcome(domain.SubmissionStatusSuccess, &domain.SubmissionResult{Payload: st.result}, nil))
}

// finishCancelled ends an attempt whose context was cancelled before or during stepName
func (m *Manager) finishCancelled(attempt *Attempt, stepName string, st *attemptState) {
	cause := context.Cause(attempt.ctx)
	if cause == nil {
		cause = errCancelRequested
	}
	subErr := domain.NewSubmissionError(domain.ErrorKindCancelled, stepName, cause)
	m.finish(attempt, st.outcome(domain.SubmissionStatusError, domain.FailureResult(subErr), subErr))
}

// finish records the attempt's terminal outcome. Superseded attempts write nothing.
func (m *Manager) finish(attempt *Attempt, outcome *Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active[attempt.SessionID] != attempt {
		outcome.Superseded = true
		if attempt.complete(outcome) {
			m.logger.Info("superseded submission stopped",
				zap.String("session_id", attempt.SessionID),
				zap.String("attempt_id", attempt.ID))
		}
		return
	}

	if !attempt.transition(outcome.Status) {
		m.logger.Error("invalid status transition",
			zap.String("session_id", attempt.SessionID),
			zap.String("attempt_id", attempt.ID),
			zap.String("from", string(attempt.Status())),
			zap.String("to", string(outcome.Status)))
		attempt.complete(outcome)
		return
	}

	delete(m.active, attempt.SessionID)
	m.metrics.SetActiveAttempts(len(m.active))

	now := time.Now()
	status := &domain.Status{
		SessionID:   attempt.SessionID,
		AttemptID:   attempt.ID,
		Status:      outcome.Status,
		Result:      outcome.Result,
		SubmittedAt: &attempt.SubmittedAt,
		UpdatedAt:   now,
		CompletedAt: &now,
	}
	if outcome.Result != nil {
		status.DisplayLink = domain.DisplayLink(m.marketplaceHost, outcome.Result.Payload)
	}

	// The attempt context may already be cancelled; the terminal write must
	// still happen.
	ctx := context.Background()
	if err := m.store.Save(ctx, status); err != nil {
		m.logger.Error("failed to save terminal status",
			zap.String("session_id", attempt.SessionID),
			zap.String("attempt_id", attempt.ID),
			zap.Error(err))
	}

	eventType := domain.EventTypeSubmissionSucceeded
	if outcome.Status == domain.SubmissionStatusError {
		eventType = domain.EventTypeSubmissionFailed
	}
	m.publish(ctx, eventType, status, nil)

	duration := now.Sub(attempt.SubmittedAt)
	m.metrics.RecordSubmissionCompleted(string(outcome.Status), duration)

	fields := []zap.Field{
		zap.String("session_id", attempt.SessionID),
		zap.String("attempt_id", attempt.ID),
		zap.String("status", string(outcome.Status)),
		zap.Duration("duration", duration),
	}
	if outcome.Err != nil {
		fields = append(fields, zap.Error(outcome.Err))
	}
	if status.DisplayLink != "" {
		fields = append(fields, zap.String("link", status.DisplayLink))
	}
	m.logger.Info("submission finished", fields...)

	attempt.complete(outcome)
}

// GetStatus returns the session's status cell
func (m *Manager) GetStatus(ctx context.Context, sessionID string) (*domain.Status, error) {
	status, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	if status.DisplayLink == "" && status.Result != nil {
		status.DisplayLink = domain.DisplayLink(m.marketplaceHost, status.Result.Payload)
	}

	return status, nil
}

// ListSessions returns the sessions with a stored status
func (m *Manager) ListSessions(ctx context.Context) ([]string, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// ActiveAttempt returns the session's in-flight attempt, if any
func (m *Manager) ActiveAttempt(sessionID string) (*Attempt, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	attempt, ok := m.active[sessionID]
	return attempt, ok
}

// Cancel aborts the session's in-flight attempt. The attempt stops at its
// next step boundary and ends in error.
func (m *Manager) Cancel(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	attempt, ok := m.active[sessionID]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: session %s", ErrNoActiveAttempt, sessionID)
	}

	attempt.cancel(errCancelRequested)

	m.logger.Info("submission cancellation requested",
		zap.String("session_id", sessionID),
		zap.String("attempt_id", attempt.ID))

	return nil
}

// Shutdown cancels every in-flight attempt and records it as failed
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down orchestrator manager")

	m.mu.Lock()
	attempts := make([]*Attempt, 0, len(m.active))
	for _, attempt := range m.active {
		attempts = append(attempts, attempt)
	}
	m.mu.Unlock()

	for _, attempt := range attempts {
		attempt.cancel(errShuttingDown)
		subErr := domain.NewSubmissionError(domain.ErrorKindCancelled, "shutdown", errShuttingDown)
		m.finish(attempt, &Outcome{
			Status: domain.SubmissionStatusError,
			Result: domain.FailureResult(subErr),
			Err:    subErr,
		})
	}

	m.logger.Info("orchestrator manager shut down complete",
		zap.Int("cancelled_attempts", len(attempts)))
	return nil
}

// publish emits a status change event
func (m *Manager) publish(ctx context.Context, eventType domain.EventType, status *domain.Status, data map[string]interface{}) {
	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		SessionID: status.SessionID,
		AttemptID: status.AttemptID,
		Timestamp: time.Now(),
		Status:    status.Copy(),
		Data:      data,
	}

	if err := m.eventBus.Publish(ctx, domain.StatusEventsTopic, event); err != nil {
		m.logger.Error("failed to publish status event",
			zap.String("session_id", status.SessionID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}

// publishStep emits progress for a completed step; the status cell stays pending
func (m *Manager) publishStep(ctx context.Context, attempt *Attempt, stepName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active[attempt.SessionID] != attempt {
		return
	}

	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      domain.EventTypeStepCompleted,
		SessionID: attempt.SessionID,
		AttemptID: attempt.ID,
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"step": stepName},
	}

	if err := m.eventBus.Publish(ctx, domain.StatusEventsTopic, event); err != nil {
		m.logger.Error("failed to publish step event",
			zap.String("session_id", attempt.SessionID),
			zap.String("step", stepName),
			zap.Error(err))
	}
}

// outcome snapshots the state into an Outcome
func (st *attemptState) outcome(status domain.SubmissionStatus, result *domain.SubmissionResult, err error) *Outcome {
	return &Outcome{
		Status:          status,
		Result:          result,
		Err:             err,
		ImageAddress:    st.imageAddr,
		MetadataAddress: st.metadataAddr,
		Metadata:        st.metadata,
		MintRequest:     st.mintRequest,
	}
}
