package telephony

import (
	"context"
	"io"
	"net/http"

	"voice-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// EventConsumer receives normalized events extracted from vendor callbacks.
// Implementations must tolerate events for calls they no longer track.
type EventConsumer interface {
	HandleEvent(ctx context.Context, ev Event) error
}

// EventConsumerFunc adapts a function to EventConsumer.
type EventConsumerFunc func(ctx context.Context, ev Event) error

func (f EventConsumerFunc) HandleEvent(ctx context.Context, ev Event) error { return f(ctx, ev) }

// WebhookHandler is the HTTP edge for vendor callbacks: verify, normalize,
// forward events, write the vendor-prescribed acknowledgment.
//
// No business logic here. Event semantics belong to the consumer.
type WebhookHandler struct {
	Provider VoiceProvider
	Events   EventConsumer

	// OnRejected is optional and called for audit when verification fails.
	OnRejected func(c *gin.Context, reason string)
}

// maxCallbackBody bounds one callback read; vendor callbacks are small.
const maxCallbackBody = 1 << 20

func (h WebhookHandler) HandleCallback(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Provider == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "telephony provider not configured"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		log.Warn("callback body read failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	req := WebhookRequest{
		Method:  c.Request.Method,
		Path:    c.Request.URL.Path,
		Headers: c.Request.Header,
		Body:    body,
	}

	if v := h.Provider.VerifyWebhook(req); !v.OK {
		log.Warn("callback rejected", "reason", v.Reason)
		if h.OnRejected != nil {
			h.OnRejected(c, v.Reason)
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": v.Reason})
		return
	}

	resp, err := h.Provider.ParseWebhookEvent(req)
	if err != nil {
		log.Warn("callback parse failed", "err", err)
	}

	// Forward events before acknowledging; the consumer is expected to be
	// fast (state updates, not I/O fan-out).
	if h.Events != nil {
		for _, ev := range resp.Events {
			if err := h.Events.HandleEvent(c.Request.Context(), ev); err != nil {
				log.Error("event consumer failed", "event_id", ev.ID, "type", string(ev.Type), "err", err)
			}
		}
	}

	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	c.Data(resp.StatusCode, resp.Headers["Content-Type"], resp.Body)
}
