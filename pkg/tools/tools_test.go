package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	mcp "github.com/mark3labs/mcp-go/mcp"

	"spotify-insights-mcp/pkg/spotify"
	"spotify-insights-mcp/pkg/token"
)

// fakeCatalog returns scripted catalog data for tool handler tests.
type fakeCatalog struct {
	artists   []spotify.Artist
	artist    spotify.Artist
	topTracks []spotify.TopTrack
	albums    []spotify.Album
	tracks    map[string][]spotify.AlbumTrack
	features  []spotify.FeatureSet
	err       error

	lastLimit   int
	lastMarket  string
	lastIDs     []string
	lastInclude bool
}

func (f *fakeCatalog) SearchArtists(ctx context.Context, name string, limit int) ([]spotify.Artist, error) {
	f.lastLimit = limit
	return f.artists, f.err
}

func (f *fakeCatalog) Artist(ctx context.Context, id string) (spotify.Artist, error) {
	return f.artist, f.err
}

func (f *fakeCatalog) ArtistTopTracks(ctx context.Context, artistID, market string) ([]spotify.TopTrack, error) {
	f.lastMarket = market
	return f.topTracks, f.err
}

func (f *fakeCatalog) ArtistAlbums(ctx context.Context, artistID string, includeTracks bool) ([]spotify.Album, error) {
	f.lastInclude = includeTracks
	return f.albums, f.err
}

func (f *fakeCatalog) AlbumTracks(ctx context.Context, albumID string) ([]spotify.AlbumTrack, error) {
	return f.tracks[albumID], f.err
}

func (f *fakeCatalog) AudioFeatures(ctx context.Context, ids []string) ([]spotify.FeatureSet, error) {
	f.lastIDs = ids
	return f.features, f.err
}

type fakeRecorder struct {
	mu      sync.Mutex
	tools   []string
	success []bool
}

func (f *fakeRecorder) RecordInvocation(ctx context.Context, tool string, success bool, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tools = append(f.tools, tool)
	f.success = append(f.success, success)
	return nil
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// resultJSON decodes the text payload of a successful tool result into v.
func resultJSON(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	if res == nil {
		t.Fatal("nil result")
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res.Content)
	}
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("content is not text: %T", res.Content[0])
	}
	if err := json.Unmarshal([]byte(text.Text), v); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

func TestHandleSearchArtist(t *testing.T) {
	fc := &fakeCatalog{artists: []spotify.Artist{{ID: "a1", Name: "Artist One"}}}
	s := &Server{catalog: fc}

	res, err := s.handleSearchArtist(context.Background(),
		callRequest("search_artist_by_name", map[string]any{"artist_name": "artist", "limit": float64(3)}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.lastLimit != 3 {
		t.Errorf("limit = %d, want 3", fc.lastLimit)
	}
	var body struct {
		Artists []spotify.Artist `json:"artists"`
	}
	resultJSON(t, res, &body)
	if len(body.Artists) != 1 || body.Artists[0].ID != "a1" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestHandleSearchArtistValidation(t *testing.T) {
	s := &Server{catalog: &fakeCatalog{}}
	cases := []map[string]any{
		nil,
		{"artist_name": "   "},
		{"artist_name": 42},
	}
	for _, args := range cases {
		res, err := s.handleSearchArtist(context.Background(), callRequest("search_artist_by_name", args))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res == nil || !res.IsError {
			t.Errorf("args %v: expected error result", args)
		}
	}
}

func TestHandleSearchArtistNoMatches(t *testing.T) {
	s := &Server{catalog: &fakeCatalog{}}
	res, err := s.handleSearchArtist(context.Background(),
		callRequest("search_artist_by_name", map[string]any{"artist_name": "nobody"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil || !res.IsError {
		t.Error("expected error result for empty match set")
	}
}

func TestHandleTopTracksForwardsMarket(t *testing.T) {
	fc := &fakeCatalog{topTracks: []spotify.TopTrack{{ID: "t1", Name: "Song"}}}
	s := &Server{catalog: fc}

	res, err := s.handleTopTracks(context.Background(),
		callRequest("get_artist_top_tracks", map[string]any{"artist_id": "a1", "market": "SE"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.lastMarket != "SE" {
		t.Errorf("market = %q, want SE", fc.lastMarket)
	}
	var body struct {
		Tracks []spotify.TopTrack `json:"tracks"`
	}
	resultJSON(t, res, &body)
	if len(body.Tracks) != 1 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestHandleArtistAlbums(t *testing.T) {
	fc := &fakeCatalog{albums: []spotify.Album{{ID: "al1", Name: "Record"}}}
	s := &Server{catalog: fc}

	res, err := s.handleArtistAlbums(context.Background(),
		callRequest("get_artist_albums", map[string]any{"artist_id": "a1", "include_tracks": true}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Albums []spotify.Album `json:"albums"`
		Total  int             `json:"total"`
	}
	resultJSON(t, res, &body)
	if body.Total != 1 || len(body.Albums) != 1 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestHandleArtistAlbumsTracksDefaultOn(t *testing.T) {
	fc := &fakeCatalog{albums: []spotify.Album{{ID: "al1"}}}
	s := &Server{catalog: fc}

	// Omitting include_tracks fetches track listings.
	if _, err := s.handleArtistAlbums(context.Background(),
		callRequest("get_artist_albums", map[string]any{"artist_id": "a1"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fc.lastInclude {
		t.Error("include_tracks should default to true when absent")
	}

	if _, err := s.handleArtistAlbums(context.Background(),
		callRequest("get_artist_albums", map[string]any{"artist_id": "a1", "include_tracks": false})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.lastInclude {
		t.Error("explicit include_tracks=false should be honored")
	}
}

func TestHandleAudioFeatures(t *testing.T) {
	fc := &fakeCatalog{features: []spotify.FeatureSet{{ID: "t1", Tempo: 120}}}
	s := &Server{catalog: fc}

	res, err := s.handleAudioFeatures(context.Background(),
		callRequest("get_audio_features", map[string]any{"track_ids": []any{"t1", "t2"}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fc.lastIDs) != 2 {
		t.Errorf("ids = %v", fc.lastIDs)
	}
	var body struct {
		Features []spotify.FeatureSet `json:"features"`
	}
	resultJSON(t, res, &body)
	if len(body.Features) != 1 || body.Features[0].Tempo != 120 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestHandleAudioFeaturesRejectsEmpty(t *testing.T) {
	s := &Server{catalog: &fakeCatalog{}}
	for _, args := range []map[string]any{
		nil,
		{"track_ids": []any{}},
		{"track_ids": "t1"},
	} {
		res, err := s.handleAudioFeatures(context.Background(), callRequest("get_audio_features", args))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res == nil || !res.IsError {
			t.Errorf("args %v: expected error result", args)
		}
	}
}

func TestHandleAudioProfile(t *testing.T) {
	fc := &fakeCatalog{
		artist:   spotify.Artist{ID: "a1", Name: "Artist One"},
		albums:   []spotify.Album{{ID: "al1", Name: "Record"}},
		tracks:   map[string][]spotify.AlbumTrack{"al1": {{ID: "t1", Name: "Song"}}},
		features: []spotify.FeatureSet{{ID: "t1", Danceability: 0.5, Tempo: 120}},
	}
	s := &Server{catalog: fc}

	res, err := s.handleAudioProfile(context.Background(),
		callRequest("get_artist_audio_profile", map[string]any{"artist_id": "a1"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		ArtistName string  `json:"artist_name"`
		Total      int     `json:"total_tracks"`
		Tempo      float64 `json:"avg_tempo"`
	}
	resultJSON(t, res, &body)
	if body.ArtistName != "Artist One" || body.Total != 1 || body.Tempo != 120 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestHandleOwnTracks(t *testing.T) {
	fc := &fakeCatalog{
		artist: spotify.Artist{ID: "a1", Name: "Artist One"},
		albums: []spotify.Album{{ID: "al1", Name: "Record"}},
		tracks: map[string][]spotify.AlbumTrack{"al1": {
			{ID: "t1", Name: "Mine", Artists: []string{"Artist One"}},
			{ID: "t2", Name: "Guest", Artists: []string{"Someone Else"}},
		}},
	}
	s := &Server{catalog: fc}

	res, err := s.handleOwnTracks(context.Background(),
		callRequest("get_artist_own_tracks", map[string]any{"artist_id": "a1"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Songs []struct {
			Name string `json:"name"`
		} `json:"songs"`
		Total int `json:"total_songs"`
	}
	resultJSON(t, res, &body)
	if body.Total != 1 || len(body.Songs) != 1 || body.Songs[0].Name != "Mine" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestToolErrorDistinguishesUpstreamAuth(t *testing.T) {
	fc := &fakeCatalog{err: &token.UpstreamAuthError{Reason: "unexpected status 401 Unauthorized"}}
	s := &Server{catalog: fc}

	res, err := s.handleTopTracks(context.Background(),
		callRequest("get_artist_top_tracks", map[string]any{"artist_id": "a1"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil || !res.IsError {
		t.Fatal("expected error result")
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("content is not text: %T", res.Content[0])
	}
	if want := "spotify authentication failed"; !strings.Contains(text.Text, want) {
		t.Errorf("message %q does not mention %q", text.Text, want)
	}
}

func TestInstrumentRecordsOutcome(t *testing.T) {
	rec := &fakeRecorder{}
	s := &Server{recorder: rec}

	okHandler := s.instrument("search_artist_by_name",
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return jsonResult(map[string]any{"ok": true}), nil
		})
	failHandler := s.instrument("get_artist_albums",
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, errors.New("boom")
		})

	if _, err := okHandler(context.Background(), callRequest("search_artist_by_name", nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := failHandler(context.Background(), callRequest("get_artist_albums", nil)); err == nil {
		t.Fatal("expected handler error to propagate")
	}

	if len(rec.tools) != 2 {
		t.Fatalf("recorded %d invocations, want 2", len(rec.tools))
	}
	if rec.tools[0] != "search_artist_by_name" || !rec.success[0] {
		t.Errorf("first record = %s/%v", rec.tools[0], rec.success[0])
	}
	if rec.tools[1] != "get_artist_albums" || rec.success[1] {
		t.Errorf("second record = %s/%v", rec.tools[1], rec.success[1])
	}
}

func TestNewServerRegistersAllTools(t *testing.T) {
	s := NewServer(&fakeCatalog{}, nil)
	if s.Handler() == nil {
		t.Fatal("expected non-nil handler")
	}
	if got := len(ToolNames()); got != 6 {
		t.Errorf("tool count = %d, want 6", got)
	}
}
