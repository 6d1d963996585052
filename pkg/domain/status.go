package domain

import (
	"fmt"
	"time"
)

// SubmissionStatus is the progress of the latest attempt in a session
type SubmissionStatus string

const (
	SubmissionStatusIdle    SubmissionStatus = "idle"
	SubmissionStatusPending SubmissionStatus = "pending"
	SubmissionStatusSuccess SubmissionStatus = "success"
	SubmissionStatusError   SubmissionStatus = "error"
)

// IsTerminal reports whether no further transitions happen for the attempt.
func (s SubmissionStatus) IsTerminal() bool {
	return s == SubmissionStatusSuccess || s == SubmissionStatusError
}

// CanTransition reports whether moving from s to next is allowed. A fresh
// attempt may always restart at pending.
func (s SubmissionStatus) CanTransition(next SubmissionStatus) bool {
	switch next {
	case SubmissionStatusPending:
		return true
	case SubmissionStatusSuccess, SubmissionStatusError:
		return s == SubmissionStatusPending
	default:
		return false
	}
}

// SubmissionResult pairs with a terminal status: Payload on success, Message
// and ErrorKind on failure.
type SubmissionResult struct {
	Payload   *MintResult `json:"payload,omitempty"`
	Message   string      `json:"message,omitempty"`
	ErrorKind ErrorKind   `json:"error_kind,omitempty"`
}

// Status is the per-session status cell.
type Status struct {
	SessionID   string            `json:"session_id"`
	AttemptID   string            `json:"attempt_id,omitempty"`
	Status      SubmissionStatus  `json:"status"`
	Result      *SubmissionResult `json:"result"`
	DisplayLink string            `json:"display_link,omitempty"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// NewIdleStatus returns the initial cell for a session.
func NewIdleStatus(sessionID string) *Status {
	return &Status{
		SessionID: sessionID,
		Status:    SubmissionStatusIdle,
	}
}

// Copy returns a deep copy of the cell.
func (s *Status) Copy() *Status {
	if s == nil {
		return nil
	}
	out := *s
	if s.Result != nil {
		r := *s.Result
		if r.Payload != nil {
			p := *r.Payload
			p.Raw = append([]byte(nil), r.Payload.Raw...)
			r.Payload = &p
		}
		out.Result = &r
	}
	if s.SubmittedAt != nil {
		t := *s.SubmittedAt
		out.SubmittedAt = &t
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}

// DisplayLink builds the marketplace page for a minted token, or "" when the
// result does not carry both a token address and a token id.
func DisplayLink(host string, res *MintResult) string {
	if res == nil || res.TokenAddress == "" || res.TokenID == "" {
		return ""
	}
	return fmt.Sprintf("https://%s/token/flow/%s:%s?tab=details", host, res.TokenAddress, res.TokenID)
}
