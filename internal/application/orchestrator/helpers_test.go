package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aescanero/lazymint/internal/application/workers"
	eventsmemory "github.com/aescanero/lazymint/pkg/adapters/events/memory"
	marketmemory "github.com/aescanero/lazymint/pkg/adapters/marketplace/memory"
	storagememory "github.com/aescanero/lazymint/pkg/adapters/storage/memory"
	"github.com/aescanero/lazymint/pkg/domain"
	"github.com/aescanero/lazymint/pkg/ports"
)

const testRequester = "0x52908400098527886E0F7030069857D2E4169EE7"

type putCall struct {
	data     []byte
	filename string
}

// scriptedStore returns addrs[i] for the i-th Put, or errs[i] when set.
// When gate is non-nil every Put waits on it (or on ctx).
type scriptedStore struct {
	mu      sync.Mutex
	addrs   []domain.ContentAddress
	errs    map[int]error
	calls   []putCall
	gate    chan struct{}
	entered chan struct{}
}

func newScriptedStore(addrs ...domain.ContentAddress) *scriptedStore {
	return &scriptedStore{addrs: addrs, errs: map[int]error{}, entered: make(chan struct{}, 16)}
}

func (s *scriptedStore) Put(ctx context.Context, data []byte, filename string) (domain.ContentAddress, error) {
	s.mu.Lock()
	i := len(s.calls)
	s.calls = append(s.calls, putCall{data: append([]byte(nil), data...), filename: filename})
	gate := s.gate
	s.mu.Unlock()

	s.entered <- struct{}{}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if err, ok := s.errs[i]; ok {
		return "", err
	}
	if i < len(s.addrs) {
		return s.addrs[i], nil
	}
	return domain.ContentAddress(fmt.Sprintf("addr%d", i+1)), nil
}

func (s *scriptedStore) Calls() []putCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]putCall(nil), s.calls...)
}

type authorizerFunc func(ctx context.Context, requester, chain string) error

func (f authorizerFunc) Authorize(ctx context.Context, requester, chain string) error {
	return f(ctx, requester, chain)
}

func allowAll() ports.Authorizer {
	return authorizerFunc(func(context.Context, string, string) error { return nil })
}

type nopMetrics struct{}

func (nopMetrics) RecordSubmissionStarted(string)                  {}
func (nopMetrics) RecordSubmissionCompleted(string, time.Duration) {}
func (nopMetrics) RecordStep(string, string, time.Duration)        {}
func (nopMetrics) SetActiveAttempts(int)                           {}
func (nopMetrics) RecordWorkerPoolStatus(int, int, int)            {}

// goDispatcher runs every job on its own goroutine
type goDispatcher struct{}

func (goDispatcher) Dispatch(job workers.Job) error {
	go job(context.Background())
	return nil
}

type failingDispatcher struct{ err error }

func (d failingDispatcher) Dispatch(workers.Job) error { return d.err }

type fixture struct {
	manager     *Manager
	content     *scriptedStore
	marketplace *marketmemory.Marketplace
	statuses    *storagememory.StatusStore
	events      *eventsmemory.InMemoryEventBus
}

type fixtureOption func(cfg *Config)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	f := &fixture{
		content:     newScriptedStore("addr1", "addr2"),
		marketplace: marketmemory.NewMarketplace("0xABC"),
		statuses:    storagememory.NewStatusStore(),
		events:      eventsmemory.NewInMemoryEventBus(nil),
	}

	cfg := &Config{
		ContentStore:    f.content,
		Marketplace:     f.marketplace,
		Authorizer:      allowAll(),
		StatusStore:     f.statuses,
		EventBus:        f.events,
		Metrics:         nopMetrics{},
		Dispatcher:      goDispatcher{},
		Validator:       NewValidator(1 << 20),
		Logger:          zaptest.NewLogger(t),
		MarketplaceHost: "rinkeby.rarible.com",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	f.manager = NewManager(cfg)
	return f
}

func validInput() domain.SubmissionInput {
	return domain.SubmissionInput{
		Image:       []byte("B"),
		Filename:    "cat.png",
		Name:        "X",
		Description: "Y",
	}
}

func waitOutcome(t *testing.T, attempt *Attempt) *Outcome {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	outcome, err := attempt.Wait(ctx)
	require.NoError(t, err, "attempt did not finish")
	return outcome
}

func waitEntered(t *testing.T, s *scriptedStore) {
	t.Helper()

	select {
	case <-s.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("content store was not called")
	}
}
