package calls

import "strings"

// CallStatus is the normalized lifecycle status of a call leg.
//
// Provider callbacks use hyphenated values ("no-answer", "in-progress");
// internally everything is snake_case.

type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no_answer"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCanceled   CallStatus = "canceled"
)

// StatusFromProvider normalizes a provider status string.
func StatusFromProvider(s string) CallStatus {
	s = strings.ToLower(strings.TrimSpace(s))
	return CallStatus(strings.ReplaceAll(s, "-", "_"))
}

// IsTerminal reports whether the call leg is finished and its resources
// (e.g. a concurrency slot) can be reclaimed.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled:
		return true
	default:
		return false
	}
}
