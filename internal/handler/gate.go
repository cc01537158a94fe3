package handler

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flatblog/internal/metrics"
)

const (
	clientAddressKey   = "clientAddress"
	requestIDHeader    = "X-Request-ID"
	forwardedForHeader = "X-Forwarded-For"
)

// RequestGate must be the first middleware on the engine. It re-evaluates the
// blocklist for every request and answers blocked callers with 403 before any
// route handler or audit write runs.
func (a *API) RequestGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header(requestIDHeader, requestID)

		blocked := a.blocks.Current()
		address := resolveClientAddress(c.Request, a.trustFwd)

		if event := a.logger.Debug(); event.Enabled() {
			event.
				Str("request_id", requestID).
				Str("address", address).
				Strs("blocklist", blocked.Sorted()).
				Msg("gate check")
		}

		if blocked.Contains(address) {
			metrics.GateDecisions.WithLabelValues("denied").Inc()
			a.logger.Info().
				Str("request_id", requestID).
				Str("address", address).
				Str("path", c.Request.URL.Path).
				Msg("request denied")
			a.renderHTML(c, http.StatusForbidden, "blocked.html", gin.H{"title": "Access denied"})
			c.Abort()
			return
		}

		metrics.GateDecisions.WithLabelValues("allowed").Inc()
		c.Set(clientAddressKey, address)
		c.Next()
	}
}

// resolveClientAddress returns the first X-Forwarded-For entry when trusted
// and non-empty, otherwise the transport peer host.
func resolveClientAddress(r *http.Request, trustForwardedFor bool) string {
	if trustForwardedFor {
		if values := r.Header.Values(forwardedForHeader); len(values) > 0 {
			first, _, _ := strings.Cut(values[0], ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// clientAddress returns the address resolved by the gate, resolving it
// again when the handler runs without the gate (unit tests).
func (a *API) clientAddress(c *gin.Context) string {
	if value, ok := c.Get(clientAddressKey); ok {
		if address, ok := value.(string); ok {
			return address
		}
	}
	return resolveClientAddress(c.Request, a.trustFwd)
}
