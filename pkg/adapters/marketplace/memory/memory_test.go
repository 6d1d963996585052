package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/lazymint/pkg/domain"
)

func TestRegisterLazyMintSequentialIDs(t *testing.T) {
	m := NewMarketplace("0xABC")
	ctx := context.Background()

	first, err := m.RegisterLazyMint(ctx, domain.NewMintRequest(domain.DefaultChain, "0x1", "meta1"))
	require.NoError(t, err)
	second, err := m.RegisterLazyMint(ctx, domain.NewMintRequest(domain.DefaultChain, "0x1", "meta2"))
	require.NoError(t, err)

	assert.Equal(t, "0xABC", first.TokenAddress)
	assert.Equal(t, "1", first.TokenID)
	assert.Equal(t, "2", second.TokenID)
	assert.JSONEq(t, `{"tokenAddress":"0xABC","tokenId":"2"}`, string(second.Raw))
	assert.Equal(t, "https://rinkeby.rarible.com/token/flow/0xABC:1?tab=details",
		domain.DisplayLink("rinkeby.rarible.com", first))

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "ipfs/meta1", reqs[0].TokenURI)
	assert.Equal(t, "ipfs/meta2", reqs[1].TokenURI)
}

func TestFailWith(t *testing.T) {
	m := NewMarketplace("0xABC")
	ctx := context.Background()
	boom := errors.New("rate limited")

	m.FailWith(boom)
	_, err := m.RegisterLazyMint(ctx, domain.MintRequest{})
	assert.ErrorIs(t, err, boom)

	m.FailWith(nil)
	res, err := m.RegisterLazyMint(ctx, domain.MintRequest{})
	require.NoError(t, err)
	assert.Equal(t, "1", res.TokenID)

	// Failed registrations are still recorded.
	assert.Len(t, m.Requests(), 2)
}

func TestRegisterLazyMintHonoursCancelledContext(t *testing.T) {
	m := NewMarketplace("0xABC")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.RegisterLazyMint(ctx, domain.MintRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, m.Requests())
}

func TestRequestsReturnsCopy(t *testing.T) {
	m := NewMarketplace("0xABC")
	_, err := m.RegisterLazyMint(context.Background(), domain.MintRequest{TokenURI: "ipfs/a"})
	require.NoError(t, err)

	reqs := m.Requests()
	reqs[0].TokenURI = "changed"
	assert.Equal(t, "ipfs/a", m.Requests()[0].TokenURI)
}
