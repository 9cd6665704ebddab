// Package httpapi wires the webhook HTTP transport (Gin) to the relay core.
// This file assembles the router and the webhook handler itself.
package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mkoval/go-anon-relay/internal/relay"
	"github.com/mkoval/go-anon-relay/internal/telegram"
)

// secretTokenHeader carries the webhook secret registered with setWebhook;
// the platform echoes it on every delivery.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Options configures the webhook router.
type Options struct {
	// Secret is the shared webhook secret; deliveries without it are
	// rejected with 401.
	Secret string

	// Dispatcher handles decoded events.
	Dispatcher *relay.Dispatcher

	// ServiceName enables OpenTelemetry middleware when non-empty.
	ServiceName string
}

// NewRouter builds the Gin engine: middleware chain, health and metrics
// endpoints, and the webhook route.
func NewRouter(opts Options) *gin.Engine {
	r := gin.New()

	if opts.ServiceName != "" {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(RequestID())
	r.Use(Logger())
	r.Use(Recovery())
	r.Use(Metrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/webhook", webhookHandler(opts.Secret, opts.Dispatcher))

	return r
}

// webhookHandler authenticates a delivery, decodes it, acknowledges
// immediately, and hands the event to the dispatcher in a fresh goroutine.
// The platform only needs the 200; relay failures are logged, never
// surfaced upstream (at-most-once, no redelivery).
func webhookHandler(secret string, d *relay.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "bad_secret"})
			return
		}

		var u telegram.Update
		if err := c.ShouldBindJSON(&u); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": "bad_update"})
			return
		}

		c.Status(http.StatusOK)

		ev, ok := telegram.EventFromUpdate(u)
		if !ok {
			return
		}
		// Detach from the request context: handling outlives the response,
		// and an event's handling is never cancelled once started. Trace
		// and deadline-free values survive the detach.
		ctx := context.WithoutCancel(c.Request.Context())
		go func() {
			if err := d.Dispatch(ctx, ev); err != nil {
				log.Error().Err(err).Int64("update_id", u.UpdateID).Msg("dispatch failed")
			}
		}()
	}
}
