// Package marketplace provides lazy-mint marketplace clients.
//
// Implementations:
//   - rarible: HTTP lazy-mint API
//   - memory: Scripted responses for testing
package marketplace
