// Package storage provides status store implementations.
//
// Implementations:
//   - redis: Redis with JSON serialization and TTL
//   - mongodb: one document per session with a TTL index on updated_at
//   - memory: In-memory for testing and single-process deployments
package storage
