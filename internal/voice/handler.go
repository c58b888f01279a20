package voice

import (
	"fmt"
	"log/slog"
	"net/http"

	"voicebridge/internal/notify"
	"voicebridge/internal/registrar"
	"voicebridge/internal/telephony"
	"voicebridge/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler orchestrates the inbound voice webhook: parse, decide, branch.
//
// Error boundary: every failure that prevents a response from being produced
// is translated to a generic 500 body. Internal detail goes to logs only.
// Failures in detached side-effect work never reach the response at all.
type Handler struct {
	Gateway    telephony.Gateway
	Registrar  registrar.Registrar
	Dispatcher *notify.Dispatcher

	// CRM side-channel endpoints; empty disables the notification.
	VoicemailURL        string
	VoicemailClearedURL string

	// StreamHost is the voice-agent websocket host the call audio is
	// bridged to.
	StreamHost string
}

// HandleVoiceWebhook handles POST /twilio-voice-webhook/:agent_id.
func (h Handler) HandleVoiceWebhook(c *gin.Context) {
	log := logger.FromGin(c)
	agentID := c.Param("agent_id")

	ev, err := telephony.ParseCallEvent(c.Request)
	if err != nil {
		log.Warn("voice webhook parse failed", "err", err)
		internalError(c)
		return
	}
	log = log.With("call_sid", ev.CallSID)

	switch Decide(ev) {
	case DispositionVoicemail:
		h.handleVoicemail(c, ev, log)
	case DispositionIgnore:
		// Some other AMD outcome; acknowledge and do nothing.
		c.String(http.StatusOK, "")
	default:
		h.handleHuman(c, agentID, ev, log)
	}
}

// handleVoicemail tears the call down and tells the CRM, then acknowledges.
// Gateway failures here are logged only: the vendor already gets its empty
// acknowledgement either way.
func (h Handler) handleVoicemail(c *gin.Context, ev telephony.CallEvent, log *slog.Logger) {
	ctx := c.Request.Context()

	// The status fetch supplies the dialed number for the CRM payload, so it
	// is awaited; the notification itself is detached.
	snap, err := h.Gateway.FetchStatus(ctx, ev.CallSID)
	if err != nil {
		log.Error("call status fetch failed", "err", err)
	} else {
		h.Dispatcher.Dispatch(h.VoicemailURL, snap.To)
	}

	if err := h.Gateway.EndCall(ctx, ev.CallSID); err != nil {
		log.Error("call termination failed", "err", err)
	}

	c.String(http.StatusOK, "")
}

// handleHuman clears any CRM voicemail flag and bridges the call audio to a
// freshly registered voice-agent session.
func (h Handler) handleHuman(c *gin.Context, agentID string, ev telephony.CallEvent, log *slog.Logger) {
	// Started before registration so CRM latency cannot delay bridge setup.
	h.Dispatcher.Dispatch(h.VoicemailClearedURL, ev.To)

	sess, err := h.Registrar.Register(c.Request.Context(), registrar.RegisterRequest{
		AgentID:         agentID,
		FromNumber:      ev.From,
		ToNumber:        ev.To,
		CustomVariables: ev.CustomVariables,
		CallSID:         ev.CallSID,
	})
	if err != nil {
		log.Error("voice agent registration failed", "agent_id", agentID, "err", err)
		internalError(c)
		return
	}

	streamURL := fmt.Sprintf("wss://%s/audio-websocket/%s", h.StreamHost, sess.ID)
	twiml, err := telephony.RenderStreamTwiML(streamURL)
	if err != nil {
		log.Error("twiml render failed", "err", err)
		internalError(c)
		return
	}

	log.Info("call bridged to voice agent", "agent_id", agentID, "session_id", sess.ID)
	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, twiml)
}

func internalError(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
}
