// Package workers implements the worker pool that runs submission attempts.
//
// The worker pool manages a fixed number of goroutines that:
//   - Take queued jobs from a bounded queue
//   - Run each job to completion with the pool's context
//   - Report idle/busy/stopped counts
//
// The health monitor periodically logs pool status and records it as metrics.
package workers
