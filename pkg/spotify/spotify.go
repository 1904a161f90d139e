// Package spotify wraps the official Spotify client library behind the
// small catalog surface the MCP tools need. Authentication uses the client
// credentials flow through the token cache, wired in as an oauth2 token
// source so every API request carries a valid access token.
//
// The wrapped library does not accept a context, so cancellation is checked
// explicitly before each call. Responses are reshaped into compact domain
// structs; the library's page and track types never leak to callers.
package spotify

import (
	"context"
	"fmt"

	libspotify "github.com/zmb3/spotify"
	"golang.org/x/oauth2"

	"spotify-insights-mcp/pkg/token"
)

// maxFeatureBatch is the Spotify API cap on ids per audio-features call.
const maxFeatureBatch = 100

// catalog is the subset of the spotify.Client used by this package. It
// allows the concrete client to be replaced in tests.
type catalog interface {
	SearchOpt(query string, t libspotify.SearchType, opt *libspotify.Options) (*libspotify.SearchResult, error)
	GetArtist(id libspotify.ID) (*libspotify.FullArtist, error)
	GetArtistsTopTracks(artistID libspotify.ID, country string) ([]libspotify.FullTrack, error)
	GetArtistAlbumsOpt(artistID libspotify.ID, options *libspotify.Options, ts ...libspotify.AlbumType) (*libspotify.SimpleAlbumPage, error)
	GetAlbumTracks(id libspotify.ID) (*libspotify.SimpleTrackPage, error)
	GetAudioFeatures(ids ...libspotify.ID) ([]*libspotify.AudioFeatures, error)
}

// Artist is the reshaped artist record returned to tool callers.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Followers  uint     `json:"followers"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	URL        string   `json:"url"`
}

// TopTrack is one entry of an artist's top-tracks listing.
type TopTrack struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Album       string `json:"album"`
	ReleaseDate string `json:"release_date"`
	Popularity  int    `json:"popularity"`
	URL         string `json:"url"`
}

// AlbumTrack is a track within an album listing. Artists and URL are
// populated by AlbumTracks for primary-artist filtering; the album tool's
// nested listings omit them.
type AlbumTrack struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	TrackNumber int      `json:"track_number"`
	Artists     []string `json:"artists,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// Album is one album or single of an artist's discography. TotalTracks and
// Tracks are populated only when track listings were requested.
type Album struct {
	ID          string       `json:"album_id"`
	Name        string       `json:"album_name"`
	ReleaseDate string       `json:"release_date"`
	TotalTracks int          `json:"total_tracks,omitempty"`
	URL         string       `json:"url"`
	Tracks      []AlbumTrack `json:"tracks,omitempty"`
}

// FeatureSet is the reshaped audio-feature vector for a single track.
type FeatureSet struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Instrumentalness float64 `json:"instrumentalness"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
}

// Client provides catalog lookups against the Spotify Web API.
type Client struct {
	api    catalog
	tokens *token.Cache
}

// NewClient builds a Client whose outbound requests authenticate with
// tokens from the supplied cache. The token is fetched lazily on first use,
// so construction never performs network I/O.
func NewClient(cache *token.Cache) *Client {
	httpClient := oauth2.NewClient(context.Background(), cache)
	api := libspotify.NewClient(httpClient)
	return &Client{api: &api, tokens: cache}
}

// Tokens exposes the underlying token cache, used by the health endpoint to
// report upstream credential status.
func (c *Client) Tokens() *token.Cache {
	return c.tokens
}

// SearchArtists returns up to limit artists matching name. A non-positive
// limit defaults to 5. An empty result is not an error; callers decide how
// to present it.
func (c *Client) SearchArtists(ctx context.Context, name string, limit int) ([]Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	if limit > 50 {
		limit = 50
	}
	results, err := c.api.SearchOpt(name, libspotify.SearchTypeArtist, &libspotify.Options{Limit: &limit})
	if err != nil {
		return nil, err
	}
	if results.Artists == nil {
		return nil, nil
	}
	artists := make([]Artist, 0, len(results.Artists.Artists))
	for i := range results.Artists.Artists {
		artists = append(artists, reshapeArtist(&results.Artists.Artists[i]))
	}
	return artists, nil
}

// Artist fetches a single artist by ID.
func (c *Client) Artist(ctx context.Context, id string) (Artist, error) {
	if err := ctx.Err(); err != nil {
		return Artist{}, err
	}
	a, err := c.api.GetArtist(libspotify.ID(id))
	if err != nil {
		return Artist{}, err
	}
	return reshapeArtist(a), nil
}

// ArtistTopTracks returns the artist's most popular tracks for the given
// market. An empty market defaults to "US".
func (c *Client) ArtistTopTracks(ctx context.Context, artistID, market string) ([]TopTrack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if market == "" {
		market = "US"
	}
	tracks, err := c.api.GetArtistsTopTracks(libspotify.ID(artistID), market)
	if err != nil {
		return nil, err
	}
	top := make([]TopTrack, 0, len(tracks))
	for _, t := range tracks {
		top = append(top, TopTrack{
			ID:          string(t.ID),
			Name:        t.Name,
			Album:       t.Album.Name,
			ReleaseDate: t.Album.ReleaseDate,
			Popularity:  t.Popularity,
			URL:         t.ExternalURLs["spotify"],
		})
	}
	return top, nil
}

// ArtistAlbums lists the artist's albums and singles (first 50, US market).
// When includeTracks is set each album also carries its first page of
// tracks and the album's total track count.
func (c *Client) ArtistAlbums(ctx context.Context, artistID string, includeTracks bool) ([]Album, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := 50
	country := "US"
	page, err := c.api.GetArtistAlbumsOpt(
		libspotify.ID(artistID),
		&libspotify.Options{Limit: &limit, Country: &country},
		libspotify.AlbumTypeAlbum, libspotify.AlbumTypeSingle,
	)
	if err != nil {
		return nil, err
	}
	albums := make([]Album, 0, len(page.Albums))
	for _, a := range page.Albums {
		album := Album{
			ID:          string(a.ID),
			Name:        a.Name,
			ReleaseDate: a.ReleaseDate,
			URL:         a.ExternalURLs["spotify"],
		}
		if includeTracks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			tracks, err := c.api.GetAlbumTracks(a.ID)
			if err != nil {
				return nil, fmt.Errorf("album %s tracks: %w", a.ID, err)
			}
			album.TotalTracks = tracks.Total
			for _, t := range tracks.Tracks {
				album.Tracks = append(album.Tracks, AlbumTrack{
					ID:          string(t.ID),
					Name:        t.Name,
					TrackNumber: t.TrackNumber,
				})
			}
		}
		albums = append(albums, album)
	}
	return albums, nil
}

// AlbumTracks returns the first page of tracks on an album, including the
// performing artists and track URL.
func (c *Client) AlbumTracks(ctx context.Context, albumID string) ([]AlbumTrack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := c.api.GetAlbumTracks(libspotify.ID(albumID))
	if err != nil {
		return nil, err
	}
	tracks := make([]AlbumTrack, 0, len(page.Tracks))
	for _, t := range page.Tracks {
		names := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			names = append(names, a.Name)
		}
		tracks = append(tracks, AlbumTrack{
			ID:          string(t.ID),
			Name:        t.Name,
			TrackNumber: t.TrackNumber,
			Artists:     names,
			URL:         t.ExternalURLs["spotify"],
		})
	}
	return tracks, nil
}

// AudioFeatures fetches audio features for the given track IDs. At most 100
// ids are sent; excess ids are dropped to match the API cap. Tracks without
// analysis data are omitted from the result.
func (c *Client) AudioFeatures(ctx context.Context, ids []string) ([]FeatureSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no track ids provided")
	}
	if len(ids) > maxFeatureBatch {
		ids = ids[:maxFeatureBatch]
	}
	spotifyIDs := make([]libspotify.ID, len(ids))
	for i, id := range ids {
		spotifyIDs[i] = libspotify.ID(id)
	}
	feats, err := c.api.GetAudioFeatures(spotifyIDs...)
	if err != nil {
		return nil, err
	}
	sets := make([]FeatureSet, 0, len(feats))
	for _, f := range feats {
		if f == nil {
			continue
		}
		sets = append(sets, FeatureSet{
			ID:               string(f.ID),
			Danceability:     float64(f.Danceability),
			Energy:           float64(f.Energy),
			Valence:          float64(f.Valence),
			Instrumentalness: float64(f.Instrumentalness),
			Speechiness:      float64(f.Speechiness),
			Tempo:            float64(f.Tempo),
		})
	}
	return sets, nil
}

func reshapeArtist(a *libspotify.FullArtist) Artist {
	return Artist{
		ID:         string(a.ID),
		Name:       a.Name,
		Followers:  a.Followers.Count,
		Genres:     a.Genres,
		Popularity: a.Popularity,
		URL:        a.ExternalURLs["spotify"],
	}
}
