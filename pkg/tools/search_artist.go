package tools

import (
	"context"
	"strings"

	mcp "github.com/mark3labs/mcp-go/mcp"
)

func searchArtistTool() mcp.Tool {
	return mcp.NewTool(
		"search_artist_by_name",
		mcp.WithDescription("Search Spotify for artists matching a name and return id, followers, genres and popularity for each match."),
		mcp.WithString(
			"artist_name",
			mcp.Required(),
			mcp.Description("Artist name to search for."),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximum number of matches to return, 1-50. Defaults to 5."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func (s *Server) handleSearchArtist(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("artist_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return mcp.NewToolResultError("artist_name cannot be empty"), nil
	}
	limit := readIntArg(req, "limit")

	artists, err := s.catalog.SearchArtists(ctx, name, limit)
	if err != nil {
		return toolError(err), nil
	}
	if len(artists) == 0 {
		return mcp.NewToolResultError("no artists found matching " + name), nil
	}
	return jsonResult(map[string]any{"artists": artists}), nil
}
