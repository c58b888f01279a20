package main

import (
	"voicebridge/internal/auth"
	"voicebridge/internal/calls"
	"voicebridge/internal/config"
	"voicebridge/internal/httpapi"
	"voicebridge/internal/notify"
	"voicebridge/internal/registrar"
	"voicebridge/internal/telephony"
	"voicebridge/internal/voice"

	"github.com/gin-gonic/gin"
)

type dependencies struct {
	cfg        config.Config
	gateway    telephony.Gateway
	registrar  registrar.Registrar
	dispatcher *notify.Dispatcher
	limiter    *calls.Limiter
	auth       *auth.Manager
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, d dependencies) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public).
	// NOTE: These endpoints should be protected by Twilio signature
	// validation in production.
	vh := voice.Handler{
		Gateway:             d.gateway,
		Registrar:           d.registrar,
		Dispatcher:          d.dispatcher,
		VoicemailURL:        d.cfg.CRM.VoicemailURL,
		VoicemailClearedURL: d.cfg.CRM.VoicemailClearedURL,
		StreamHost:          d.cfg.Retell.WSHost,
	}
	r.POST("/twilio-voice-webhook/:agent_id", vh.HandleVoiceWebhook)

	h := httpapi.Handlers{
		Gateway:           d.gateway,
		Auth:              d.auth,
		FromNumber:        d.cfg.Twilio.FromNumber,
		AgentID:           d.cfg.Retell.AgentID,
		WebhookBaseURL:    d.cfg.Webhook.BaseURL,
		StatusCallbackURL: d.cfg.Webhook.StatusCallbackURL,
	}
	if d.limiter != nil {
		// Assign only when configured so the interface field stays nil and
		// the handlers skip the cap entirely.
		h.Limiter = d.limiter
	}
	r.POST("/call-events", h.CallEvents)

	// Operator routes. Token auth is opt-in: without JWT_SECRET these stay
	// open, matching single-tenant deployments behind a private network.
	ops := r.Group("/")
	if d.auth != nil {
		r.POST("/auth/token", h.IssueToken)
		ops.Use(auth.RequireAccessToken(d.auth))
	}
	ops.POST("/outbound-call", h.OutboundCall)
	ops.POST("/call-status", h.CallStatus)
}
