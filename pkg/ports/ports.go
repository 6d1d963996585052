// Package ports declares the collaborators the submission orchestrator drives.
//
// Adapters under pkg/adapters implement these interfaces; in-memory variants
// exist for every port so the orchestrator can be exercised without network
// services.
package ports

import (
	"context"
	"time"

	"github.com/aescanero/lazymint/pkg/domain"
)

// ContentStore stores blobs in a content-addressed store.
type ContentStore interface {
	// Put stores data under the logical filename and returns its address.
	Put(ctx context.Context, data []byte, filename string) (domain.ContentAddress, error)
}

// Marketplace registers lazy-mint requests.
type Marketplace interface {
	RegisterLazyMint(ctx context.Context, req domain.MintRequest) (*domain.MintResult, error)
}

// Authorizer checks that a requester may act on a network.
type Authorizer interface {
	Authorize(ctx context.Context, requesterAddress, chain string) error
}

// StatusStore holds one status cell per session.
type StatusStore interface {
	Save(ctx context.Context, status *domain.Status) error
	// Get returns the session's cell, or an idle cell if none was saved.
	Get(ctx context.Context, sessionID string) (*domain.Status, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// EventHandler handles a published event.
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus fans status events out to subscribers.
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	// Subscribe registers handler until ctx is cancelled; cancelling ctx is
	// the only way to end a subscription.
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}

// MetricsCollector records submission metrics.
type MetricsCollector interface {
	RecordSubmissionStarted(status string)
	RecordSubmissionCompleted(status string, duration time.Duration)
	RecordStep(step, outcome string, duration time.Duration)
	SetActiveAttempts(count int)
	RecordWorkerPoolStatus(idle, busy, stopped int)
}
