// Package metrics declares the Prometheus collectors shared across the
// application. Collectors are registered on the default registry via
// promauto so cmd/server only needs to mount promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthDenials counts requests rejected by the bearer-token gate.
	AuthDenials = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spotify_insights",
		Name:      "auth_denied_total",
		Help:      "Number of tool invocation requests denied by the authorization gate.",
	})

	// TokenRefreshes counts upstream token issuance attempts by result
	// ("success" or "error"). Cache hits are not counted.
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotify_insights",
		Name:      "token_refresh_total",
		Help:      "Number of Spotify access token refresh attempts.",
	}, []string{"result"})

	// ToolInvocations counts MCP tool calls by tool name and result.
	ToolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotify_insights",
		Name:      "tool_invocations_total",
		Help:      "Number of MCP tool invocations.",
	}, []string{"tool", "result"})

	// ToolDuration observes wall-clock time spent in each tool handler.
	ToolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "spotify_insights",
		Name:      "tool_duration_seconds",
		Help:      "Duration of MCP tool invocations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tool"})
)
