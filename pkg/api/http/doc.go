// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Image + metadata submission per session (multipart)
//   - Status queries and cancellation
//   - Health checks
//   - Prometheus metrics
package http
