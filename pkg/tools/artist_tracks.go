package tools

import (
	"context"
	"strings"

	mcp "github.com/mark3labs/mcp-go/mcp"

	"spotify-insights-mcp/pkg/insights"
)

func topTracksTool() mcp.Tool {
	return mcp.NewTool(
		"get_artist_top_tracks",
		mcp.WithDescription("Return an artist's most popular tracks for a market, including album and release date."),
		mcp.WithString(
			"artist_id",
			mcp.Required(),
			mcp.Description("Spotify artist id, as returned by search_artist_by_name."),
		),
		mcp.WithString(
			"market",
			mcp.Description("ISO 3166-1 alpha-2 market code. Defaults to US."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func (s *Server) handleTopTracks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	artistID, err := req.RequireString("artist_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	artistID = strings.TrimSpace(artistID)
	if artistID == "" {
		return mcp.NewToolResultError("artist_id cannot be empty"), nil
	}
	market := strings.TrimSpace(readStringArg(req, "market"))

	tracks, err := s.catalog.ArtistTopTracks(ctx, artistID, market)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"tracks": tracks}), nil
}

func ownTracksTool() mcp.Tool {
	return mcp.NewTool(
		"get_artist_own_tracks",
		mcp.WithDescription("List songs across an artist's albums and singles where the artist is the primary performer, excluding features. Capped at 25 songs."),
		mcp.WithString(
			"artist_id",
			mcp.Required(),
			mcp.Description("Spotify artist id, as returned by search_artist_by_name."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func (s *Server) handleOwnTracks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	artistID, err := req.RequireString("artist_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	artistID = strings.TrimSpace(artistID)
	if artistID == "" {
		return mcp.NewToolResultError("artist_id cannot be empty"), nil
	}

	tracks, total, err := insights.OwnTracks(ctx, s.catalog, artistID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"songs": tracks, "total_songs": total}), nil
}
