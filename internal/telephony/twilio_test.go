package telephony

import (
	"context"
	"errors"
	"strings"
	"testing"

	twilioopenapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeTwilioAPI struct {
	createParams *twilioopenapi.CreateCallParams
	createResult *twilioopenapi.ApiV2010Call
	createErr    error

	updateSID    string
	updateParams *twilioopenapi.UpdateCallParams
	updateErr    error

	fetchSID    string
	fetchResult *twilioopenapi.ApiV2010Call
	fetchErr    error

	listResult []twilioopenapi.ApiV2010IncomingPhoneNumber
	listErr    error

	updatedNumberSID    string
	updatedNumberParams *twilioopenapi.UpdateIncomingPhoneNumberParams
}

func (f *fakeTwilioAPI) CreateCall(params *twilioopenapi.CreateCallParams) (*twilioopenapi.ApiV2010Call, error) {
	f.createParams = params
	return f.createResult, f.createErr
}

func (f *fakeTwilioAPI) UpdateCall(sid string, params *twilioopenapi.UpdateCallParams) (*twilioopenapi.ApiV2010Call, error) {
	f.updateSID = sid
	f.updateParams = params
	return &twilioopenapi.ApiV2010Call{Sid: &sid}, f.updateErr
}

func (f *fakeTwilioAPI) FetchCall(sid string, _ *twilioopenapi.FetchCallParams) (*twilioopenapi.ApiV2010Call, error) {
	f.fetchSID = sid
	return f.fetchResult, f.fetchErr
}

func (f *fakeTwilioAPI) ListIncomingPhoneNumber(_ *twilioopenapi.ListIncomingPhoneNumberParams) ([]twilioopenapi.ApiV2010IncomingPhoneNumber, error) {
	return f.listResult, f.listErr
}

func (f *fakeTwilioAPI) UpdateIncomingPhoneNumber(sid string, params *twilioopenapi.UpdateIncomingPhoneNumberParams) (*twilioopenapi.ApiV2010IncomingPhoneNumber, error) {
	f.updatedNumberSID = sid
	f.updatedNumberParams = params
	return &twilioopenapi.ApiV2010IncomingPhoneNumber{Sid: &sid}, nil
}

func TestEndCallSendsHangupTwiML(t *testing.T) {
	api := &fakeTwilioAPI{}
	g := &TwilioGateway{api: api}

	if err := g.EndCall(context.Background(), "CA42"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if api.updateSID != "CA42" {
		t.Fatalf("expected update on CA42, got %q", api.updateSID)
	}
	if api.updateParams == nil || api.updateParams.Twiml == nil {
		t.Fatalf("expected twiml on update params")
	}
	if !strings.Contains(*api.updateParams.Twiml, "<Hangup>") {
		t.Fatalf("expected hangup twiml, got %q", *api.updateParams.Twiml)
	}
}

func TestFetchStatusMapsSnapshot(t *testing.T) {
	api := &fakeTwilioAPI{fetchResult: &twilioopenapi.ApiV2010Call{
		Sid:       ptr("CA42"),
		Duration:  ptr("37"),
		Status:    ptr("in-progress"),
		Direction: ptr("outbound-api"),
		From:      ptr("+15551234567"),
		To:        ptr("+15557654321"),
		StartTime: ptr("Mon, 02 Sep 2024 10:00:00 +0000"),
	}}
	g := &TwilioGateway{api: api}

	snap, err := g.FetchStatus(context.Background(), "CA42")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if snap.SID != "CA42" || snap.To != "+15557654321" || snap.Status != "in-progress" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.EndTime != "" {
		t.Fatalf("expected empty end time for live call, got %q", snap.EndTime)
	}
}

func TestFetchStatusWrapsProviderError(t *testing.T) {
	api := &fakeTwilioAPI{fetchErr: errors.New("boom")}
	g := &TwilioGateway{api: api}
	if _, err := g.FetchStatus(context.Background(), "CA42"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPlaceCallEnablesMachineDetection(t *testing.T) {
	api := &fakeTwilioAPI{createResult: &twilioopenapi.ApiV2010Call{Sid: ptr("CA99")}}
	g := &TwilioGateway{api: api}

	sid, err := g.PlaceCall(context.Background(), PlaceCallRequest{
		From:              "+15550001111",
		To:                "+15557654321",
		VoiceURL:          "https://example.ngrok.io/twilio-voice-webhook/agent-1?promo=XYZ",
		AMDCallbackURL:    "https://example.ngrok.io/twilio-voice-webhook/agent-1",
		StatusCallbackURL: "https://example.ngrok.io/call-events",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sid != "CA99" {
		t.Fatalf("expected CA99, got %q", sid)
	}

	p := api.createParams
	if p == nil {
		t.Fatalf("expected create params")
	}
	if p.MachineDetection == nil || *p.MachineDetection != "Enable" {
		t.Fatalf("expected machine detection enabled")
	}
	if p.MachineDetectionTimeout == nil || *p.MachineDetectionTimeout != 8 {
		t.Fatalf("expected machine detection timeout of 8s")
	}
	if p.AsyncAmd == nil || *p.AsyncAmd != "true" {
		t.Fatalf("expected async amd")
	}
	if p.AsyncAmdStatusCallback == nil || *p.AsyncAmdStatusCallback == "" {
		t.Fatalf("expected async amd callback")
	}
	if p.StatusCallbackEvent == nil || len(*p.StatusCallbackEvent) != 1 || (*p.StatusCallbackEvent)[0] != "completed" {
		t.Fatalf("expected completed status callback event")
	}
	if p.Url == nil || !strings.Contains(*p.Url, "promo=XYZ") {
		t.Fatalf("expected custom variables in voice url")
	}
}

func TestRegisterInboundAgent(t *testing.T) {
	api := &fakeTwilioAPI{listResult: []twilioopenapi.ApiV2010IncomingPhoneNumber{
		{Sid: ptr("PN1"), PhoneNumber: ptr("+15550009999")},
		{Sid: ptr("PN2"), PhoneNumber: ptr("+15550001111")},
	}}
	g := &TwilioGateway{api: api}

	err := g.RegisterInboundAgent(context.Background(), "+15550001111", "https://example.ngrok.io/twilio-voice-webhook/agent-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if api.updatedNumberSID != "PN2" {
		t.Fatalf("expected PN2 updated, got %q", api.updatedNumberSID)
	}
	if api.updatedNumberParams == nil || api.updatedNumberParams.VoiceUrl == nil {
		t.Fatalf("expected voice url on update params")
	}
}

func TestRegisterInboundAgentUnknownNumber(t *testing.T) {
	api := &fakeTwilioAPI{listResult: []twilioopenapi.ApiV2010IncomingPhoneNumber{
		{Sid: ptr("PN1"), PhoneNumber: ptr("+15550009999")},
	}}
	g := &TwilioGateway{api: api}

	err := g.RegisterInboundAgent(context.Background(), "+15550001111", "https://example.ngrok.io/hook")
	if !errors.Is(err, ErrNumberNotFound) {
		t.Fatalf("expected ErrNumberNotFound, got %v", err)
	}
	if api.updatedNumberSID != "" {
		t.Fatalf("expected no number update on miss")
	}
}
