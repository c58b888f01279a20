package telephony

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrMalformedEvent indicates a webhook delivery missing required call fields.
var ErrMalformedEvent = errors.New("telephony: malformed call event")

// CallEvent is one inbound voice webhook delivery, parsed.
// Twilio sends the call fields as application/x-www-form-urlencoded;
// anything in the query string is treated as an opaque custom variable.
//
// Immutable after parsing; scoped to a single request.
type CallEvent struct {
	// CallSID is the vendor-assigned identifier of this call leg.
	CallSID string
	From    string
	To      string

	// AnsweredBy is the answering machine detection result. It is only
	// delivered on AMD callbacks, so presence carries meaning: an absent
	// field means a human picked up.
	AnsweredBy    string
	AnsweredBySet bool

	// CustomVariables are the query parameters, copied verbatim.
	// Last value wins on duplicate keys; order is not significant.
	CustomVariables map[string]string
}

// ParseCallEvent parses a voice webhook request into a CallEvent.
// CallSid, From and To are required; everything else is optional.
func ParseCallEvent(r *http.Request) (CallEvent, error) {
	if err := r.ParseForm(); err != nil {
		return CallEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	ev := CallEvent{
		CallSID: strings.TrimSpace(r.PostFormValue("CallSid")),
		From:    strings.TrimSpace(r.PostFormValue("From")),
		To:      strings.TrimSpace(r.PostFormValue("To")),
	}
	if ev.CallSID == "" || ev.From == "" || ev.To == "" {
		return CallEvent{}, fmt.Errorf("%w: CallSid, From and To are required", ErrMalformedEvent)
	}

	if _, ok := r.PostForm["AnsweredBy"]; ok {
		ev.AnsweredBy = r.PostFormValue("AnsweredBy")
		ev.AnsweredBySet = true
	}

	query := r.URL.Query()
	ev.CustomVariables = make(map[string]string, len(query))
	for key, values := range query {
		if len(values) > 0 {
			ev.CustomVariables[key] = values[len(values)-1]
		}
	}
	return ev, nil
}
