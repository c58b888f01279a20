package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Twilio media streams are 8 kHz mulaw; the registrar must be told to expect
// exactly that framing.
const (
	audioWebsocketProtocol = "twilio"
	audioEncoding          = "mulaw"
	audioSampleRate        = 8000
)

const metadataCallSIDKey = "twilio_call_sid"

// Client registers calls against the Retell REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			// The registrar call sits on the webhook's critical path; Twilio
			// gives webhooks ~15s, so fail well before that.
			Timeout: 10 * time.Second,
		},
	}
}

type registerCallRequest struct {
	AgentID                   string            `json:"agent_id"`
	AudioWebsocketProtocol    string            `json:"audio_websocket_protocol"`
	AudioEncoding             string            `json:"audio_encoding"`
	SampleRate                int               `json:"sample_rate"`
	FromNumber                string            `json:"from_number,omitempty"`
	ToNumber                  string            `json:"to_number,omitempty"`
	RetellLLMDynamicVariables map[string]string `json:"retell_llm_dynamic_variables,omitempty"`
	Metadata                  map[string]string `json:"metadata,omitempty"`
}

type registerCallResponse struct {
	CallID string `json:"call_id"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	if req.AgentID == "" {
		return Session{}, fmt.Errorf("%w: agent id required", ErrRegistration)
	}

	payload := registerCallRequest{
		AgentID:                   req.AgentID,
		AudioWebsocketProtocol:    audioWebsocketProtocol,
		AudioEncoding:             audioEncoding,
		SampleRate:                audioSampleRate,
		FromNumber:                req.FromNumber,
		ToNumber:                  req.ToNumber,
		RetellLLMDynamicVariables: req.CustomVariables,
	}
	if req.CallSID != "" {
		payload.Metadata = map[string]string{metadataCallSIDKey: req.CallSID}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrRegistration, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/register-call", bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrRegistration, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrRegistration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Session{}, fmt.Errorf("%w: unexpected status %d", ErrRegistration, resp.StatusCode)
	}

	var out registerCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Session{}, fmt.Errorf("%w: decode response: %v", ErrRegistration, err)
	}
	if out.CallID == "" {
		return Session{}, fmt.Errorf("%w: response missing call_id", ErrRegistration)
	}
	return Session{ID: out.CallID}, nil
}
