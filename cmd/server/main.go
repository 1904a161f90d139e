// Command server initializes the spotify-insights-mcp application and starts
// the HTTP server. Configuration is provided via environment variables for
// Spotify API credentials, the shared tool secret and the database location.
// The server exposes MCP tool traffic on /mcp alongside health, discovery,
// history and metrics endpoints.
package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"spotify-insights-mcp/pkg/auth"
	"spotify-insights-mcp/pkg/config"
	"spotify-insights-mcp/pkg/db"
	"spotify-insights-mcp/pkg/handlers"
	"spotify-insights-mcp/pkg/spotify"
	"spotify-insights-mcp/pkg/token"
	"spotify-insights-mcp/pkg/tools"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.FromEnv()
	if err != nil {
		logrus.WithError(err).Fatal("configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
	}

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		logrus.WithError(err).Fatal("db init")
	}
	defer database.Close()

	cache := token.New(&token.HTTPIssuer{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
	})
	catalog := spotify.NewClient(cache)
	guard := auth.New(cfg.SharedSecret)
	toolServer := tools.NewServer(catalog, database)
	app := &handlers.Application{DB: database, Tokens: cache}

	handler := newRouter(app, guard, toolServer.Handler())

	logrus.WithField("addr", cfg.Addr).Info("starting server")
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

// newRouter assembles the route table and wraps it with the shared
// middleware. Tool traffic and the invocation history require the shared
// secret; info, health, discovery and metrics stay open.
func newRouter(app *handlers.Application, guard *auth.Authorizer, mcpHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", app.Root)
	mux.HandleFunc("/health", app.Health)
	mux.HandleFunc("/.well-known/mcp.json", app.WellKnown)
	mux.Handle("/api/history", guard.Middleware(http.HandlerFunc(app.HistoryJSON)))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/mcp", guard.Middleware(mcpHandler))
	return handlers.SecurityHeaders(handlers.CORS(mux))
}
