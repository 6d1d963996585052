// Package contentstore provides content-addressed store implementations.
//
// Implementations:
//   - ipfs: IPFS (Kubo) HTTP RPC API
//   - memory: In-memory, CIDv1 raw sha2-256, for testing and offline runs
package contentstore
