package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/lazymint/pkg/adapters/cidutil"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := NewContentStore()
	want := []byte("hello, lazymint")

	addr, err := store.Put(context.Background(), want, "hello.txt")
	require.NoError(t, err)

	id, err := cidutil.CIDv1RawSHA256(want)
	require.NoError(t, err)
	assert.Equal(t, id.String(), addr.String())

	got, err := store.Get(addr)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "hello.txt", store.Filename(addr))
}

func TestPutIdempotent(t *testing.T) {
	store := NewContentStore()

	a1, err := store.Put(context.Background(), []byte("same"), "a")
	require.NoError(t, err)
	a2, err := store.Put(context.Background(), []byte("same"), "b")
	require.NoError(t, err)

	assert.Equal(t, a1, a2)
	assert.Equal(t, 1, store.Len())
}

func TestGetMissing(t *testing.T) {
	_, err := NewContentStore().Get("bafkmissing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewContentStore().Put(ctx, []byte("x"), "x")
	assert.ErrorIs(t, err, context.Canceled)
}
