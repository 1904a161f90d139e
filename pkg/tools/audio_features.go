package tools

import (
	"context"
	"strings"

	mcp "github.com/mark3labs/mcp-go/mcp"

	"spotify-insights-mcp/pkg/insights"
)

func audioFeaturesTool() mcp.Tool {
	return mcp.NewTool(
		"get_audio_features",
		mcp.WithDescription("Return audio features (danceability, energy, valence, tempo and more) for up to 100 tracks."),
		mcp.WithArray(
			"track_ids",
			mcp.Required(),
			mcp.Description("Spotify track ids. At most 100 are processed."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func (s *Server) handleAudioFeatures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := readStringSliceArg(req, "track_ids")
	if len(ids) == 0 {
		return mcp.NewToolResultError("track_ids must be a non-empty array of track ids"), nil
	}

	features, err := s.catalog.AudioFeatures(ctx, ids)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"features": features}), nil
}

func audioProfileTool() mcp.Tool {
	return mcp.NewTool(
		"get_artist_audio_profile",
		mcp.WithDescription("Compute averaged audio features across an artist's full discography of albums and singles."),
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

func (s *Server) handleAudioProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	artistID, err := req.RequireString("artist_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	artistID = strings.TrimSpace(artistID)
	if artistID == "" {
		return mcp.NewToolResultError("artist_id cannot be empty"), nil
	}

	profile, err := insights.ArtistProfile(ctx, s.catalog, artistID)
	if err != nil {
		return toolError(err), nil
	}
	if profile.TotalTracks == 0 {
		return mcp.NewToolResultError("no audio analysis available for artist " + artistID), nil
	}
	return jsonResult(profile), nil
}
