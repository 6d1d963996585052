// Package orchestrator implements the lazy-mint submission orchestration.
//
// The manager drives one attempt per session through a fixed sequence of steps:
//   - authorize the requester's wallet for the network
//   - store the image in the content store
//   - build and store the NFT metadata document
//   - build and register the lazy-mint request with the marketplace
//
// The session's status cell is set to pending before Submit returns and to
// success or error exactly once when the attempt finishes. Cancellation is
// checked between steps; a newer submission for the same session supersedes
// the running one under the replace policy.
//
// The validator rejects malformed input before any status change.
package orchestrator
