// Package tools exposes the catalog and insight operations as MCP tools
// over a streamable HTTP transport. Every tool invocation is instrumented:
// counters and latency go to Prometheus, outcomes to the invocation history
// store, and request lifecycle events to the structured log via hooks.
package tools

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	mcp "github.com/mark3labs/mcp-go/mcp"
	srv "github.com/mark3labs/mcp-go/server"

	"spotify-insights-mcp/pkg/insights"
	"spotify-insights-mcp/pkg/metrics"
	"spotify-insights-mcp/pkg/spotify"
)

// Name and Version identify the server in the MCP handshake and the
// discovery document.
const (
	Name    = "spotify-insights-mcp"
	Version = "1.0.0"
)

const instructions = "Tools for exploring the Spotify catalog: search artists, " +
	"list top tracks and discographies, and compute audio-feature profiles. " +
	"Start with search_artist_by_name to resolve an artist id."

var log = logrus.WithField("component", "tools")

// Catalog is everything the tool handlers need from the catalog client.
// *spotify.Client satisfies it; tests substitute fakes.
type Catalog interface {
	SearchArtists(ctx context.Context, name string, limit int) ([]spotify.Artist, error)
	ArtistTopTracks(ctx context.Context, artistID, market string) ([]spotify.TopTrack, error)
	insights.Catalog
}

// Recorder persists tool invocation outcomes. *db.DB satisfies it.
type Recorder interface {
	RecordInvocation(ctx context.Context, tool string, success bool, duration time.Duration) error
}

// Server wires the tool handlers into an MCP server behind one HTTP handler.
type Server struct {
	handler  http.Handler
	catalog  Catalog
	recorder Recorder
}

// NewServer registers all tools on a fresh MCP server. The recorder may be
// nil, in which case invocation history is not kept.
func NewServer(catalog Catalog, recorder Recorder) *Server {
	mcpServer := srv.NewMCPServer(
		Name,
		Version,
		srv.WithToolCapabilities(true),
		srv.WithInstructions(instructions),
		srv.WithRecovery(),
		srv.WithHooks(newHooks()),
	)

	s := &Server{
		handler:  srv.NewStreamableHTTPServer(mcpServer),
		catalog:  catalog,
		recorder: recorder,
	}

	for _, t := range []struct {
		def    mcp.Tool
		handle srv.ToolHandlerFunc
	}{
		{searchArtistTool(), s.handleSearchArtist},
		{topTracksTool(), s.handleTopTracks},
		{artistAlbumsTool(), s.handleArtistAlbums},
		{audioFeaturesTool(), s.handleAudioFeatures},
		{audioProfileTool(), s.handleAudioProfile},
		{ownTracksTool(), s.handleOwnTracks},
	} {
		mcpServer.AddTool(t.def, s.instrument(t.def.Name, t.handle))
	}

	return s
}

// Handler returns the HTTP handler that serves MCP traffic.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ToolNames lists the registered tool names for the discovery document.
func ToolNames() []string {
	return []string{
		"search_artist_by_name",
		"get_artist_top_tracks",
		"get_artist_albums",
		"get_audio_features",
		"get_artist_audio_profile",
		"get_artist_own_tracks",
	}
}

// instrument wraps a tool handler with metrics and history recording. A
// handler error and an error-flagged result both count as failures.
func (s *Server) instrument(name string, next srv.ToolHandlerFunc) srv.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := next(ctx, req)
		elapsed := time.Since(start)

		success := err == nil && (result == nil || !result.IsError)
		outcome := "success"
		if !success {
			outcome = "error"
		}
		metrics.ToolInvocations.WithLabelValues(name, outcome).Inc()
		metrics.ToolDuration.WithLabelValues(name).Observe(elapsed.Seconds())

		if s.recorder != nil {
			if rerr := s.recorder.RecordInvocation(ctx, name, success, elapsed); rerr != nil {
				log.WithError(rerr).WithField("tool", name).Warn("failed to record invocation")
			}
		}
		return result, err
	}
}

func newHooks() *srv.Hooks {
	hooks := &srv.Hooks{}

	hooks.AddBeforeAny(func(ctx context.Context, id any, method mcp.MCPMethod, message any) {
		log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     string(method),
		}).Debug("mcp request received")
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     string(method),
		}).WithError(err).Error("mcp request failed")
	})

	hooks.AddOnRegisterSession(func(ctx context.Context, session srv.ClientSession) {
		log.WithField("session_id", session.SessionID()).Info("mcp session registered")
	})

	hooks.AddOnUnregisterSession(func(ctx context.Context, session srv.ClientSession) {
		log.WithField("session_id", session.SessionID()).Info("mcp session unregistered")
	})

	return hooks
}
