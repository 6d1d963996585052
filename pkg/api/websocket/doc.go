// Package websocket provides real-time status streaming via WebSocket.
//
// Clients connect to /api/v1/sessions/:id/ws. The first message is a
// submission.snapshot event holding the current status cell; every later
// status change for the session follows as a JSON-encoded domain.Event.
package websocket
