// Package handlers contains the plain HTTP endpoints that surround the MCP
// transport: service info, health, discovery, and the invocation history
// listing. Tool traffic itself is served by the tools package handler.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"spotify-insights-mcp/pkg/db"
	"spotify-insights-mcp/pkg/tools"
)

var log = logrus.WithField("component", "handlers")

// TokenSource reports whether upstream credentials currently work. The
// health endpoint exercises it with a short deadline.
type TokenSource interface {
	GetToken(ctx context.Context) (string, error)
}

// Application holds the dependencies shared by the HTTP endpoints.
type Application struct {
	DB     *db.DB
	Tokens TokenSource
}

// Root describes the service and its endpoints.
func (app *Application) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"name":    tools.Name,
		"version": tools.Version,
		"tools":   tools.ToolNames(),
		"endpoints": map[string]string{
			"mcp":       "/mcp",
			"health":    "/health",
			"discovery": "/.well-known/mcp.json",
			"history":   "/api/history",
			"metrics":   "/metrics",
		},
	})
}

// Health reports liveness and whether a Spotify access token can be
// obtained. A token failure still returns 200 so orchestrators do not
// restart the process for an upstream outage; the status field carries the
// detail.
func (app *Application) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tokenStatus := "OK"
	if app.Tokens != nil {
		if _, err := app.Tokens.GetToken(ctx); err != nil {
			log.WithError(err).Warn("health token check failed")
			tokenStatus = err.Error()
		}
	} else {
		tokenStatus = "not configured"
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":               "healthy",
		"spotify_token_status": tokenStatus,
	})
}

// WellKnown serves the MCP discovery document. The advertised URL is derived
// from the incoming request so the service works behind proxies without
// extra configuration.
func (app *Application) WellKnown(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"name":        tools.Name,
		"version":     tools.Version,
		"description": "MCP server exposing Spotify catalog search and audio-feature insights.",
		"endpoint":    scheme + "://" + r.Host + "/mcp",
		"transport":   "streamable-http",
		"tools":       tools.ToolNames(),
	})
}

// HistoryJSON lists recent tool invocations together with per-tool counts
// for the last week. The 'limit' query parameter caps the listing; invalid
// values fall back to the store default.
func (app *Application) HistoryJSON(w http.ResponseWriter, r *http.Request) {
	if app.DB == nil {
		respondJSONError(w, http.StatusInternalServerError, "history not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	invocations, err := app.DB.RecentInvocations(r.Context(), limit)
	if err != nil {
		log.WithError(err).Error("load invocation history")
		respondJSONError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if invocations == nil {
		invocations = []db.Invocation{}
	}
	since := time.Now().UTC().AddDate(0, 0, -7)
	counts, err := app.DB.ToolCountsSince(r.Context(), since)
	if err != nil {
		log.WithError(err).Error("load tool counts")
		respondJSONError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if counts == nil {
		counts = []db.ToolCount{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"invocations": invocations,
		"tool_counts": counts,
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("encode response")
	}
}

func respondJSONError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
