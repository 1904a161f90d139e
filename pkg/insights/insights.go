// Package insights aggregates catalog data into artist-level summaries.
// It walks an artist's discography, pulls audio features in batches and
// reduces them to averages, keeping the fan-out to the catalog bounded.
package insights

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"spotify-insights-mcp/pkg/spotify"
)

const (
	// albumWorkers bounds concurrent per-album track lookups.
	albumWorkers = 4
	// featureBatch is the upstream cap on ids per audio-features call.
	featureBatch = 100
	// ownTracksCap limits the own-tracks listing, matching the tool contract.
	ownTracksCap = 25
)

var log = logrus.WithField("component", "insights")

// Catalog is the slice of the catalog client this package consumes.
type Catalog interface {
	Artist(ctx context.Context, id string) (spotify.Artist, error)
	ArtistAlbums(ctx context.Context, artistID string, includeTracks bool) ([]spotify.Album, error)
	AlbumTracks(ctx context.Context, albumID string) ([]spotify.AlbumTrack, error)
	AudioFeatures(ctx context.Context, ids []string) ([]spotify.FeatureSet, error)
}

// Summary holds averaged audio features over a set of tracks. Averages are
// rounded to three decimals.
type Summary struct {
	TotalTracks         int     `json:"total_tracks"`
	AvgDanceability     float64 `json:"avg_danceability"`
	AvgEnergy           float64 `json:"avg_energy"`
	AvgValence          float64 `json:"avg_valence"`
	AvgInstrumentalness float64 `json:"avg_instrumentalness"`
	AvgSpeechiness      float64 `json:"avg_speechiness"`
	AvgTempo            float64 `json:"avg_tempo"`
}

// ArtistSummary is a Summary attributed to a single artist.
type ArtistSummary struct {
	ArtistID   string `json:"artist_id"`
	ArtistName string `json:"artist_name"`
	Summary
}

// OwnTrack is a track on which the artist is the primary performer.
type OwnTrack struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Album       string `json:"album"`
	ReleaseDate string `json:"release_date"`
	URL         string `json:"url,omitempty"`
}

// Profile reduces a feature set to its averages. An empty input yields a
// zero summary rather than an error so callers can report "no analysis
// available" uniformly.
func Profile(features []spotify.FeatureSet) Summary {
	s := Summary{TotalTracks: len(features)}
	if len(features) == 0 {
		return s
	}
	var dance, energy, valence, instr, speech, tempo float64
	for _, f := range features {
		dance += f.Danceability
		energy += f.Energy
		valence += f.Valence
		instr += f.Instrumentalness
		speech += f.Speechiness
		tempo += f.Tempo
	}
	n := float64(len(features))
	s.AvgDanceability = round3(dance / n)
	s.AvgEnergy = round3(energy / n)
	s.AvgValence = round3(valence / n)
	s.AvgInstrumentalness = round3(instr / n)
	s.AvgSpeechiness = round3(speech / n)
	s.AvgTempo = round3(tempo / n)
	return s
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// ArtistProfile computes the averaged audio profile across every track of
// the artist's albums and singles.
func ArtistProfile(ctx context.Context, c Catalog, artistID string) (ArtistSummary, error) {
	artist, err := c.Artist(ctx, artistID)
	if err != nil {
		return ArtistSummary{}, err
	}
	albums, err := c.ArtistAlbums(ctx, artistID, false)
	if err != nil {
		return ArtistSummary{}, err
	}
	byAlbum, err := fetchAlbumTracks(ctx, c, albums)
	if err != nil {
		return ArtistSummary{}, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, a := range albums {
		for _, t := range byAlbum[a.ID] {
			if t.ID == "" || seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			ids = append(ids, t.ID)
		}
	}
	log.WithFields(logrus.Fields{
		"artist_id": artistID,
		"albums":    len(albums),
		"tracks":    len(ids),
	}).Debug("collected discography")

	var features []spotify.FeatureSet
	for start := 0; start < len(ids); start += featureBatch {
		end := start + featureBatch
		if end > len(ids) {
			end = len(ids)
		}
		batch, err := c.AudioFeatures(ctx, ids[start:end])
		if err != nil {
			return ArtistSummary{}, err
		}
		features = append(features, batch...)
	}

	return ArtistSummary{
		ArtistID:   artist.ID,
		ArtistName: artist.Name,
		Summary:    Profile(features),
	}, nil
}

// OwnTracks lists tracks across the artist's discography where the artist is
// the primary performer, filtering out features and compilation appearances.
// The listing is capped; the returned count is the number of matches before
// the cap so callers can tell when the listing is truncated.
func OwnTracks(ctx context.Context, c Catalog, artistID string) ([]OwnTrack, int, error) {
	artist, err := c.Artist(ctx, artistID)
	if err != nil {
		return nil, 0, err
	}
	albums, err := c.ArtistAlbums(ctx, artistID, false)
	if err != nil {
		return nil, 0, err
	}
	byAlbum, err := fetchAlbumTracks(ctx, c, albums)
	if err != nil {
		return nil, 0, err
	}

	var own []OwnTrack
	total := 0
	for _, a := range albums {
		for _, t := range byAlbum[a.ID] {
			if len(t.Artists) == 0 || !strings.EqualFold(t.Artists[0], artist.Name) {
				continue
			}
			total++
			if len(own) < ownTracksCap {
				own = append(own, OwnTrack{
					ID:          t.ID,
					Name:        t.Name,
					Album:       a.Name,
					ReleaseDate: a.ReleaseDate,
					URL:         t.URL,
				})
			}
		}
	}
	return own, total, nil
}

// fetchAlbumTracks pulls track listings for every album through a bounded
// worker pool. The first error wins; remaining results are drained so the
// workers always exit.
func fetchAlbumTracks(ctx context.Context, c Catalog, albums []spotify.Album) (map[string][]spotify.AlbumTrack, error) {
	type result struct {
		albumID string
		tracks  []spotify.AlbumTrack
		err     error
	}

	jobs := make(chan spotify.Album)
	results := make(chan result)
	workers := albumWorkers
	if len(albums) < workers {
		workers = len(albums)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range jobs {
				tracks, err := c.AlbumTracks(ctx, a.ID)
				results <- result{albumID: a.ID, tracks: tracks, err: err}
			}
		}()
	}
	go func() {
		for _, a := range albums {
			jobs <- a
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	out := make(map[string][]spotify.AlbumTrack, len(albums))
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		out[r.albumID] = r.tracks
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
