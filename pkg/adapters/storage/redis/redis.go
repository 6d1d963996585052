package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aescanero/lazymint/pkg/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "lazymint:status:"

// StatusStore implements ports.StatusStore using Redis
type StatusStore struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewStatusStore creates a new Redis status store
func NewStatusStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *StatusStore {
	return &StatusStore{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Save persists the session's status cell
func (s *StatusStore) Save(ctx context.Context, status *domain.Status) error {
	if status == nil || status.SessionID == "" {
		return fmt.Errorf("status must carry a session id")
	}

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	if err := s.client.Set(ctx, getStatusKey(status.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}

	s.logger.Debug("status saved",
		zap.String("session_id", status.SessionID),
		zap.String("attempt_id", status.AttemptID),
		zap.String("status", string(status.Status)))

	return nil
}

// Get retrieves the session's status cell, idle if none is stored
func (s *StatusStore) Get(ctx context.Context, sessionID string) (*domain.Status, error) {
	data, err := s.client.Get(ctx, getStatusKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NewIdleStatus(sessionID), nil
		}
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	var status domain.Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}

	return &status, nil
}

// Delete removes the session's status cell
func (s *StatusStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, getStatusKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete status: %w", err)
	}

	s.logger.Debug("status deleted", zap.String("session_id", sessionID))
	return nil
}

// List returns all session IDs with a stored status, sorted
func (s *StatusStore) List(ctx context.Context) ([]string, error) {
	var cursor uint64
	var keys []string

	for {
		var batch []string
		var err error

		batch, cursor, err = s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		keys = append(keys, batch...)

		if cursor == 0 {
			break
		}
	}

	sessionIDs := make([]string, 0, len(keys))
	for _, key := range keys {
		if len(key) > len(keyPrefix) {
			sessionIDs = append(sessionIDs, key[len(keyPrefix):])
		}
	}
	sort.Strings(sessionIDs)

	return sessionIDs, nil
}

// getStatusKey returns the Redis key for a session's status
func getStatusKey(sessionID string) string {
	return keyPrefix + sessionID
}
