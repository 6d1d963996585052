package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aescanero/lazymint/pkg/domain"
)

// Marketplace implements ports.Marketplace in memory. Each registration
// returns a sequential token id under a fixed token address unless Err is set.
type Marketplace struct {
	TokenAddress string

	mu       sync.Mutex
	err      error
	requests []domain.MintRequest
	nextID   int
}

// NewMarketplace creates a new in-memory marketplace
func NewMarketplace(tokenAddress string) *Marketplace {
	return &Marketplace{TokenAddress: tokenAddress, nextID: 1}
}

// FailWith makes subsequent registrations fail with err (nil to clear)
func (m *Marketplace) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// RegisterLazyMint records req and returns the next token
func (m *Marketplace) RegisterLazyMint(ctx context.Context, req domain.MintRequest) (*domain.MintResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}

	id := fmt.Sprintf("%d", m.nextID)
	m.nextID++

	return &domain.MintResult{
		TokenAddress: m.TokenAddress,
		TokenID:      id,
		Raw:          []byte(fmt.Sprintf(`{"tokenAddress":%q,"tokenId":%q}`, m.TokenAddress, id)),
	}, nil
}

// Requests returns the registrations received so far
func (m *Marketplace) Requests() []domain.MintRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.MintRequest(nil), m.requests...)
}
