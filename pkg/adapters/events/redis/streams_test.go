package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/lazymint/pkg/domain"
)

func newTestBus(t *testing.T) (*StreamsEventBus, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bus := NewStreamsEventBus(client, 1000, zap.NewNop())
	bus.block = 50 * time.Millisecond
	return bus, client
}

func TestPublishAppendsToStream(t *testing.T) {
	bus, client := newTestBus(t)
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, domain.StatusEventsTopic, domain.Event{ID: "e1", SessionID: "s1"}))

	n, err := client.XLen(ctx, getStreamKey(domain.StatusEventsTopic)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSubscriberReceivesOnlyNewEvents(t *testing.T) {
	bus, _ := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Publish(ctx, "topic", domain.Event{ID: "old"}))

	var mu sync.Mutex
	var got []string
	require.NoError(t, bus.Subscribe(ctx, "topic", func(ctx context.Context, event domain.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, event.ID)
		return nil
	}))

	require.NoError(t, bus.Publish(ctx, "topic", domain.Event{ID: "new1"}))
	require.NoError(t, bus.Publish(ctx, "topic", domain.Event{ID: "new2"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"new1", "new2"}, got)
}
