package tools

import (
	"context"
	"strings"

	mcp "github.com/mark3labs/mcp-go/mcp"
)

func artistAlbumsTool() mcp.Tool {
	return mcp.NewTool(
		"get_artist_albums",
		mcp.WithDescription("List an artist's albums and singles (first 50). Optionally include each album's track listing."),
		mcp.WithString(
			"artist_id",
			mcp.Required(),
			mcp.Description("Spotify artist id, as returned by search_artist_by_name."),
		),
		mcp.WithBoolean(
			"include_tracks",
			mcp.Description("Also fetch each album's tracks. On by default; pass false to skip the per-album requests."),
			mcp.DefaultBool(true),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func (s *Server) handleArtistAlbums(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	artistID, err := req.RequireString("artist_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	artistID = strings.TrimSpace(artistID)
	if artistID == "" {
		return mcp.NewToolResultError("artist_id cannot be empty"), nil
	}
	includeTracks := readBoolArgWithDefault(req, "include_tracks", true)

	albums, err := s.catalog.ArtistAlbums(ctx, artistID, includeTracks)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"albums": albums, "total": len(albums)}), nil
}
