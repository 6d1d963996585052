package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aescanero/lazymint/pkg/adapters/cidutil"
	"github.com/aescanero/lazymint/pkg/domain"
)

// ErrNotFound is returned by Get for an unknown address
var ErrNotFound = errors.New("content not found")

// ContentStore implements ports.ContentStore in memory.
// Writes are idempotent: the same bytes always map to the same address.
type ContentStore struct {
	mu        sync.RWMutex
	blobs     map[domain.ContentAddress][]byte
	filenames map[domain.ContentAddress]string
}

// NewContentStore creates an empty in-memory content store
func NewContentStore() *ContentStore {
	return &ContentStore{
		blobs:     make(map[domain.ContentAddress][]byte),
		filenames: make(map[domain.ContentAddress]string),
	}
}

// Put stores data and returns its CID
func (s *ContentStore) Put(ctx context.Context, data []byte, filename string) (domain.ContentAddress, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id, err := cidutil.CIDv1RawSHA256(data)
	if err != nil {
		return "", fmt.Errorf("failed to compute cid: %w", err)
	}
	addr := domain.ContentAddress(id.String())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[addr]; !ok {
		s.blobs[addr] = append([]byte(nil), data...)
	}
	s.filenames[addr] = filename

	return addr, nil
}

// Get returns the bytes stored at addr
func (s *ContentStore) Get(addr domain.ContentAddress) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[addr]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Filename returns the logical filename addr was last stored under
func (s *ContentStore) Filename(addr domain.ContentAddress) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filenames[addr]
}

// Len returns the number of distinct blobs stored
func (s *ContentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
