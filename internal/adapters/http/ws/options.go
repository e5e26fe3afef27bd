package ws

import (
	"time"

	"github.com/okian/sparkapply/pkg/logger"
)

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub logger.
func WithHubLogger(l logger.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithBroadcastBuffer sets how many frames may wait for fan-out.
func WithBroadcastBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.broadcast = make(chan []byte, n)
		}
	}
}

// GestureOption configures a GestureHandler.
type GestureOption func(*GestureHandler)

// WithGestureLogger sets the gesture handler logger.
func WithGestureLogger(l logger.Logger) GestureOption {
	return func(g *GestureHandler) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithPingInterval sets the keepalive ping period. Peers that stay silent
// for longer than twice the interval are dropped.
func WithPingInterval(d time.Duration) GestureOption {
	return func(g *GestureHandler) {
		if d > 0 {
			g.pingInterval = d
		}
	}
}
