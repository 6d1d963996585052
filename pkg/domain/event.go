package domain

import "time"

// EventType identifies a status change notification
type EventType string

const (
	EventTypeSubmissionPending   EventType = "submission.pending"
	EventTypeSubmissionSucceeded EventType = "submission.succeeded"
	EventTypeSubmissionFailed    EventType = "submission.failed"
	EventTypeStepCompleted       EventType = "submission.step_completed"

	// EventTypeStatusSnapshot carries the cell as it was when a stream opened.
	EventTypeStatusSnapshot EventType = "submission.snapshot"
)

// StatusEventsTopic is the event bus topic status changes are published on.
const StatusEventsTopic = "submission.events"

// Event is published whenever a session's status cell changes.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	SessionID string                 `json:"session_id"`
	AttemptID string                 `json:"attempt_id"`
	Timestamp time.Time              `json:"timestamp"`
	Status    *Status                `json:"status,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
