package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voicebridge/internal/auth"
	"voicebridge/internal/calls"
	"voicebridge/internal/telephony"
	"voicebridge/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups the thin HTTP handlers around the telephony gateway.
// Keep these thin: parse/validate input, call the gateway, return JSON.
// The voice webhook itself lives in internal/voice.

// CallLimiter caps concurrent outbound calls per agent. *calls.Limiter is
// the production implementation.
type CallLimiter interface {
	Acquire(ctx context.Context, agentID string) (bool, error)
	Bind(ctx context.Context, agentID, callSID string) error
	ReleaseCall(ctx context.Context, callSID string) (bool, error)
	Forfeit(ctx context.Context, agentID string) error
}

type Handlers struct {
	Gateway telephony.Gateway
	Auth    *auth.Manager

	// Limiter is optional; nil disables the outbound concurrency cap.
	Limiter CallLimiter

	FromNumber        string
	AgentID           string
	WebhookBaseURL    string
	StatusCallbackURL string
}

// --- Outbound calls ---

type outboundCallRequest struct {
	ToNumber        string            `json:"to_number"`
	CustomVariables map[string]string `json:"custom_variables,omitempty"`
}

// OutboundCall places an AMD-enabled outbound call. Custom variables are
// encoded into the voice webhook's query string so they come back with the
// answer event.
func (h Handlers) OutboundCall(c *gin.Context) {
	log := logger.FromGin(c)

	var req outboundCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.ToNumber == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to_number required"})
		return
	}

	ctx := c.Request.Context()
	acquired := false
	if h.Limiter != nil {
		ok, err := h.Limiter.Acquire(ctx, h.AgentID)
		switch {
		case err != nil:
			// The cap is best-effort; a broken Redis must not block calling.
			log.Error("call slot acquire failed", "err", err)
		case !ok:
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "concurrent call limit reached"})
			return
		default:
			acquired = true
		}
	}

	webhookURL := h.voiceWebhookURL()
	sid, err := h.Gateway.PlaceCall(ctx, telephony.PlaceCallRequest{
		From:              h.FromNumber,
		To:                req.ToNumber,
		VoiceURL:          withQuery(webhookURL, req.CustomVariables),
		AMDCallbackURL:    webhookURL,
		StatusCallbackURL: h.StatusCallbackURL,
	})
	if err != nil {
		if acquired {
			if ferr := h.Limiter.Forfeit(ctx, h.AgentID); ferr != nil {
				log.Error("call slot forfeit failed", "err", ferr)
			}
		}
		log.Error("outbound call failed", "to", req.ToNumber, "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "outbound call failed"})
		return
	}

	if acquired {
		// An unbound slot is only reclaimed by the TTL, so a bind failure
		// temporarily overcounts but never undercounts.
		if berr := h.Limiter.Bind(ctx, h.AgentID, sid); berr != nil {
			log.Error("call slot bind failed", "call_sid", sid, "err", berr)
		}
	}

	log.Info("outbound call placed", "call_sid", sid, "to", req.ToNumber)
	c.JSON(http.StatusOK, gin.H{"call_sid": sid, "msg": "done"})
}

// --- Call status ---

type callStatusRequest struct {
	CallSID string `json:"call_sid"`
}

// CallStatus returns a point-in-time snapshot of a call.
func (h Handlers) CallStatus(c *gin.Context) {
	var req callStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.CallSID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_sid required"})
		return
	}

	snap, err := h.Gateway.FetchStatus(c.Request.Context(), req.CallSID)
	if err != nil {
		logger.FromGin(c).Error("call status fetch failed", "call_sid", req.CallSID, "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "call status lookup failed"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// --- Status callbacks ---

// CallEvents receives Twilio status callbacks. Terminal events release the
// concurrency slot bound to the call; everything else is just logged.
// Callbacks can be redelivered, so the release must be idempotent per call.
func (h Handlers) CallEvents(c *gin.Context) {
	log := logger.FromGin(c)

	callSID := c.PostForm("CallSid")
	status := calls.StatusFromProvider(c.PostForm("CallStatus"))
	log.Info("call event", "call_sid", callSID, "status", string(status))

	if status.IsTerminal() && h.Limiter != nil && callSID != "" {
		released, err := h.Limiter.ReleaseCall(c.Request.Context(), callSID)
		if err != nil {
			log.Error("call slot release failed", "call_sid", callSID, "err", err)
		} else if !released {
			log.Debug("no call slot bound", "call_sid", callSID)
		}
	}
	c.String(http.StatusOK, "")
}

// --- Auth ---

type tokenRequest struct {
	OperatorID string `json:"operator_id"`
}

// IssueToken issues a JWT token pair for the operator routes.
//
// NOTE: This is a skeleton-only endpoint. Real deployments must validate
// operator credentials before issuing.
func (h Handlers) IssueToken(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.OperatorID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "operator_id required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.OperatorID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

func (h Handlers) voiceWebhookURL() string {
	return strings.TrimRight(h.WebhookBaseURL, "/") + "/twilio-voice-webhook/" + h.AgentID
}

func withQuery(rawURL string, vars map[string]string) string {
	if len(vars) == 0 {
		return rawURL
	}
	q := url.Values{}
	for k, v := range vars {
		q.Set(k, v)
	}
	return rawURL + "?" + q.Encode()
}
