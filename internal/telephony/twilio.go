package telephony

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioopenapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrNumberNotFound indicates the configured inbound number does not exist in
// the provider account.
var ErrNumberNotFound = errors.New("telephony: phone number not found in account")

// twilioAPI is the subset of the Twilio v2010 API the gateway needs.
// Kept as an interface so tests can substitute a fake.
type twilioAPI interface {
	CreateCall(params *twilioopenapi.CreateCallParams) (*twilioopenapi.ApiV2010Call, error)
	UpdateCall(sid string, params *twilioopenapi.UpdateCallParams) (*twilioopenapi.ApiV2010Call, error)
	FetchCall(sid string, params *twilioopenapi.FetchCallParams) (*twilioopenapi.ApiV2010Call, error)
	ListIncomingPhoneNumber(params *twilioopenapi.ListIncomingPhoneNumberParams) ([]twilioopenapi.ApiV2010IncomingPhoneNumber, error)
	UpdateIncomingPhoneNumber(sid string, params *twilioopenapi.UpdateIncomingPhoneNumberParams) (*twilioopenapi.ApiV2010IncomingPhoneNumber, error)
}

// TwilioGateway implements Gateway on the Twilio REST API.
type TwilioGateway struct {
	api twilioAPI
}

// Answering machine detection settings for outbound calls. The async result
// arrives on the voice webhook as an AnsweredBy field.
const (
	machineDetectionMode       = "Enable"
	machineDetectionTimeoutSec = 8
)

func NewTwilioGateway(accountSID, authToken string) *TwilioGateway {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioGateway{api: client.Api}
}

func (g *TwilioGateway) EndCall(_ context.Context, callSID string) error {
	if callSID == "" {
		return errors.New("telephony: call sid required")
	}
	params := &twilioopenapi.UpdateCallParams{}
	params.SetTwiml(RenderHangupTwiML())
	if _, err := g.api.UpdateCall(callSID, params); err != nil {
		return fmt.Errorf("telephony: end call %s: %w", callSID, err)
	}
	return nil
}

func (g *TwilioGateway) FetchStatus(_ context.Context, callSID string) (CallSnapshot, error) {
	if callSID == "" {
		return CallSnapshot{}, errors.New("telephony: call sid required")
	}
	call, err := g.api.FetchCall(callSID, &twilioopenapi.FetchCallParams{})
	if err != nil {
		return CallSnapshot{}, fmt.Errorf("telephony: fetch call %s: %w", callSID, err)
	}
	return CallSnapshot{
		SID:       strVal(call.Sid),
		Duration:  strVal(call.Duration),
		Status:    strVal(call.Status),
		Direction: strVal(call.Direction),
		From:      strVal(call.From),
		To:        strVal(call.To),
		StartTime: strVal(call.StartTime),
		EndTime:   strVal(call.EndTime),
	}, nil
}

func (g *TwilioGateway) PlaceCall(_ context.Context, req PlaceCallRequest) (string, error) {
	if req.From == "" || req.To == "" || req.VoiceURL == "" {
		return "", errors.New("telephony: from, to and voice url required")
	}

	params := &twilioopenapi.CreateCallParams{}
	params.SetFrom(req.From)
	params.SetTo(req.To)
	params.SetUrl(req.VoiceURL)
	params.SetMachineDetection(machineDetectionMode)
	params.SetMachineDetectionTimeout(machineDetectionTimeoutSec)
	params.SetAsyncAmd("true")
	if req.AMDCallbackURL != "" {
		params.SetAsyncAmdStatusCallback(req.AMDCallbackURL)
	}
	if req.StatusCallbackURL != "" {
		params.SetStatusCallback(req.StatusCallbackURL)
		params.SetStatusCallbackEvent([]string{"completed"})
	}

	call, err := g.api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("telephony: place call to %s: %w", req.To, err)
	}
	sid := strVal(call.Sid)
	if sid == "" {
		return "", errors.New("telephony: provider returned call without sid")
	}
	return sid, nil
}

func (g *TwilioGateway) RegisterInboundAgent(_ context.Context, phoneNumber, voiceURL string) error {
	if phoneNumber == "" || voiceURL == "" {
		return errors.New("telephony: phone number and voice url required")
	}

	listParams := &twilioopenapi.ListIncomingPhoneNumberParams{}
	listParams.SetLimit(200)
	numbers, err := g.api.ListIncomingPhoneNumber(listParams)
	if err != nil {
		return fmt.Errorf("telephony: list incoming numbers: %w", err)
	}

	numberSID := ""
	for _, n := range numbers {
		if strVal(n.PhoneNumber) == phoneNumber {
			numberSID = strVal(n.Sid)
		}
	}
	if numberSID == "" {
		return fmt.Errorf("%w: %s", ErrNumberNotFound, phoneNumber)
	}

	updateParams := &twilioopenapi.UpdateIncomingPhoneNumberParams{}
	updateParams.SetVoiceUrl(voiceURL)
	if _, err := g.api.UpdateIncomingPhoneNumber(numberSID, updateParams); err != nil {
		return fmt.Errorf("telephony: update incoming number %s: %w", numberSID, err)
	}
	return nil
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
