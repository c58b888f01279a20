package registrar

import (
	"context"
	"errors"
)

// ErrRegistration indicates the voice-agent platform refused or failed to
// allocate a session.
var ErrRegistration = errors.New("registrar: session registration failed")

// Registrar allocates a real-time voice-agent session for a live call.
//
// Implementations must be safe for concurrent use; one instance is
// constructed at process start and shared by all requests.
type Registrar interface {
	Register(ctx context.Context, req RegisterRequest) (Session, error)
}

// RegisterRequest carries the call metadata the voice-agent platform needs to
// open an audio session.
type RegisterRequest struct {
	AgentID    string
	FromNumber string
	ToNumber   string

	// CustomVariables are forwarded verbatim as the agent's dynamic variables.
	CustomVariables map[string]string

	// CallSID is carried as opaque metadata so downstream events can be
	// correlated back to the telephony vendor's call leg.
	CallSID string
}

// Session identifies an allocated voice-agent session. The call audio is
// bridged to wss://<host>/audio-websocket/<id>.
type Session struct {
	ID string
}
