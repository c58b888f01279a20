package telephony

import "context"

// Gateway is the provider-agnostic call-control interface used by the webhook
// orchestrator and the operator routes.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - Keep request/response types provider-agnostic.
// - Implementations must be safe for concurrent use; one instance is
//   constructed at process start and shared by all requests.
type Gateway interface {
	// EndCall terminates an in-progress call leg.
	EndCall(ctx context.Context, callSID string) error

	// FetchStatus returns a point-in-time snapshot of a call.
	FetchStatus(ctx context.Context, callSID string) (CallSnapshot, error)

	// PlaceCall starts an outbound call and returns the provider call SID.
	PlaceCall(ctx context.Context, req PlaceCallRequest) (string, error)

	// RegisterInboundAgent points an owned inbound number at voiceURL.
	RegisterInboundAgent(ctx context.Context, phoneNumber, voiceURL string) error
}

// CallSnapshot is a provider-agnostic view of a single call leg.
// String fields mirror the provider's representation; empty means unknown.
type CallSnapshot struct {
	SID       string `json:"sid"`
	Duration  string `json:"duration"`
	Status    string `json:"status"`
	Direction string `json:"direction"`
	From      string `json:"from"`
	To        string `json:"to"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// PlaceCallRequest describes an outbound call with answering machine
// detection enabled.
type PlaceCallRequest struct {
	From string
	To   string

	// VoiceURL is the webhook Twilio requests when the call is answered.
	// Custom variables travel in its query string.
	VoiceURL string

	// AMDCallbackURL receives the async machine-detection result.
	AMDCallbackURL string

	// StatusCallbackURL, when set, receives terminal call status events.
	StatusCallbackURL string
}
