package telephony

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newWebhookRequest(t *testing.T, rawQuery string, form url.Values) *http.Request {
	t.Helper()
	target := "/twilio-voice-webhook/agent-1"
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestParseCallEvent(t *testing.T) {
	form := url.Values{}
	form.Set("CallSid", "CA123")
	form.Set("From", "+15551234567")
	form.Set("To", "+15557654321")

	ev, err := ParseCallEvent(newWebhookRequest(t, "promo=XYZ", form))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ev.CallSID != "CA123" || ev.From != "+15551234567" || ev.To != "+15557654321" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.AnsweredBySet {
		t.Fatalf("expected AnsweredBy to be absent")
	}
	if len(ev.CustomVariables) != 1 || ev.CustomVariables["promo"] != "XYZ" {
		t.Fatalf("unexpected custom variables: %v", ev.CustomVariables)
	}
}

func TestParseCallEvent_AnsweredByPresence(t *testing.T) {
	tests := []struct {
		name       string
		answeredBy *string
		wantSet    bool
	}{
		{name: "absent", answeredBy: nil, wantSet: false},
		{name: "machine_start", answeredBy: ptr("machine_start"), wantSet: true},
		{name: "empty string still counts as present", answeredBy: ptr(""), wantSet: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			form := url.Values{}
			form.Set("CallSid", "CA1")
			form.Set("From", "+15550000001")
			form.Set("To", "+15550000002")
			if tc.answeredBy != nil {
				form.Set("AnsweredBy", *tc.answeredBy)
			}
			ev, err := ParseCallEvent(newWebhookRequest(t, "", form))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if ev.AnsweredBySet != tc.wantSet {
				t.Fatalf("AnsweredBySet = %v, want %v", ev.AnsweredBySet, tc.wantSet)
			}
			if tc.answeredBy != nil && ev.AnsweredBy != *tc.answeredBy {
				t.Fatalf("AnsweredBy = %q, want %q", ev.AnsweredBy, *tc.answeredBy)
			}
		})
	}
}

func TestParseCallEvent_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{name: "empty body", form: url.Values{}},
		{name: "missing CallSid", form: url.Values{"From": {"+1"}, "To": {"+2"}}},
		{name: "missing From", form: url.Values{"CallSid": {"CA1"}, "To": {"+2"}}},
		{name: "missing To", form: url.Values{"CallSid": {"CA1"}, "From": {"+1"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCallEvent(newWebhookRequest(t, "", tc.form))
			if !errors.Is(err, ErrMalformedEvent) {
				t.Fatalf("expected ErrMalformedEvent, got %v", err)
			}
		})
	}
}

func TestParseCallEvent_QueryParamsLastValueWins(t *testing.T) {
	form := url.Values{}
	form.Set("CallSid", "CA1")
	form.Set("From", "+15550000001")
	form.Set("To", "+15550000002")

	ev, err := ParseCallEvent(newWebhookRequest(t, "a=1&b=x&b=y", form))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ev.CustomVariables["a"] != "1" || ev.CustomVariables["b"] != "y" {
		t.Fatalf("unexpected custom variables: %v", ev.CustomVariables)
	}
}

func TestParseCallEvent_FormFieldsStayOutOfCustomVariables(t *testing.T) {
	form := url.Values{}
	form.Set("CallSid", "CA1")
	form.Set("From", "+15550000001")
	form.Set("To", "+15550000002")

	ev, err := ParseCallEvent(newWebhookRequest(t, "", form))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(ev.CustomVariables) != 0 {
		t.Fatalf("expected empty custom variables, got %v", ev.CustomVariables)
	}
}

func ptr(s string) *string { return &s }
