// Package musicbrainz looks up album metadata for an identified disc. The
// lookup is deliberately conservative: only an exact disc ID query is tried,
// because a fuzzy title match that picks the wrong pressing poisons both the
// tags and the library layout. Callers fall back to placeholder metadata when
// no release matches.
package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrReleaseNotFound reports that no release matched the disc ID query.
var ErrReleaseNotFound = errors.New("musicbrainz: no release matched disc id")

// ReleaseTrack is one track from a matched release.
type ReleaseTrack struct {
	Position int
	Title    string
	Artist   string
}

// Release is the album-level metadata applied to tags and library paths.
type Release struct {
	MBID   string
	Title  string
	Artist string
	Date   string // release year, empty when the service omits it
	Genre  string
	Tracks []ReleaseTrack
}

// Searcher defines the lookup operation used by identification.
type Searcher interface {
	LookupDiscID(ctx context.Context, discID string, trackCount int) (*Release, error)
}

// Client queries a MusicBrainz-compatible web service.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a metadata client. The service rejects requests without a
// descriptive User-Agent, so one is required.
func New(baseURL, userAgent string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("musicbrainz base url required")
	}
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return nil, errors.New("musicbrainz user agent required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type searchResponse struct {
	Releases []releasePayload `json:"releases"`
	Count    int              `json:"count"`
}

type releasePayload struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Date         string         `json:"date"`
	ArtistCredit []artistCredit `json:"artist-credit"`
	Media        []medium       `json:"media"`
	Genres       []genrePayload `json:"genres"`
}

type genrePayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type artistCredit struct {
	Name   string `json:"name"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
}

type medium struct {
	Tracks []trackPayload `json:"tracks"`
}

type trackPayload struct {
	Position     int            `json:"position"`
	Title        string         `json:"title"`
	ArtistCredit []artistCredit `json:"artist-credit"`
	Recording    struct {
		Title        string         `json:"title"`
		ArtistCredit []artistCredit `json:"artist-credit"`
	} `json:"recording"`
}

// LookupDiscID searches for a release by disc identifier and, when one
// matches, fetches its full track listing. Listings shorter than trackCount
// are padded with placeholder titles so every extracted track has a tag.
func (c *Client) LookupDiscID(ctx context.Context, discID string, trackCount int) (*Release, error) {
	discID = strings.TrimSpace(discID)
	if discID == "" {
		return nil, errors.New("disc id must not be empty")
	}

	match, err := c.searchRelease(ctx, discID)
	if err != nil {
		return nil, err
	}

	release, err := c.releaseByID(ctx, match.ID)
	if err != nil {
		return nil, err
	}

	result := parseRelease(release)
	padTracks(result, trackCount)
	return result, nil
}

func (c *Client) searchRelease(ctx context.Context, discID string) (*releasePayload, error) {
	endpoint, err := url.Parse(c.baseURL + "/release")
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	params := url.Values{}
	params.Set("query", "discid:"+discID)
	params.Set("limit", "5")
	params.Set("fmt", "json")
	endpoint.RawQuery = params.Encode()

	var payload searchResponse
	if err := c.getJSON(ctx, endpoint.String(), &payload); err != nil {
		return nil, err
	}
	if len(payload.Releases) == 0 {
		return nil, ErrReleaseNotFound
	}
	return &payload.Releases[0], nil
}

func (c *Client) releaseByID(ctx context.Context, mbid string) (*releasePayload, error) {
	mbid = strings.TrimSpace(mbid)
	if mbid == "" {
		return nil, errors.New("release id must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/release/" + url.PathEscape(mbid))
	if err != nil {
		return nil, fmt.Errorf("parse release url: %w", err)
	}
	params := url.Values{}
	params.Set("inc", "recordings+artist-credits+genres")
	params.Set("fmt", "json")
	endpoint.RawQuery = params.Encode()

	var payload releasePayload
	if err := c.getJSON(ctx, endpoint.String(), &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		payload.ID = mbid
	}
	return &payload, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrReleaseNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metadata service returned %d (latency=%v)", resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode metadata response: %w", err)
	}
	return nil
}

func parseRelease(payload *releasePayload) *Release {
	release := &Release{
		MBID:   payload.ID,
		Title:  strings.TrimSpace(payload.Title),
		Artist: creditName(payload.ArtistCredit),
		Date:   releaseYear(payload.Date),
		Genre:  topGenre(payload.Genres),
	}
	if release.Title == "" {
		release.Title = "Unknown Album"
	}

	for _, m := range payload.Media {
		for _, track := range m.Tracks {
			title := strings.TrimSpace(track.Title)
			if title == "" {
				title = strings.TrimSpace(track.Recording.Title)
			}
			credit := track.ArtistCredit
			if len(credit) == 0 {
				credit = track.Recording.ArtistCredit
			}
			position := track.Position
			if position <= 0 {
				position = len(release.Tracks) + 1
			}
			release.Tracks = append(release.Tracks, ReleaseTrack{
				Position: position,
				Title:    title,
				Artist:   creditName(credit),
			})
		}
	}
	return release
}

// padTracks fills in placeholder entries when a release listing is shorter
// than the disc's TOC, which happens with multi-disc releases and sparse
// submissions.
func padTracks(release *Release, trackCount int) {
	for len(release.Tracks) < trackCount {
		number := len(release.Tracks) + 1
		release.Tracks = append(release.Tracks, ReleaseTrack{
			Position: number,
			Title:    fmt.Sprintf("Track %02d", number),
			Artist:   release.Artist,
		})
	}
}

func creditName(credits []artistCredit) string {
	if len(credits) == 0 {
		return "Unknown Artist"
	}
	first := credits[0]
	if name := strings.TrimSpace(first.Artist.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(first.Name); name != "" {
		return name
	}
	return "Unknown Artist"
}

// topGenre picks the genre with the most votes; ties keep service order.
func topGenre(genres []genrePayload) string {
	best := ""
	bestCount := -1
	for _, g := range genres {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			continue
		}
		if g.Count > bestCount {
			best = name
			bestCount = g.Count
		}
	}
	return best
}

func releaseYear(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return ""
	}
	if idx := strings.IndexByte(date, '-'); idx > 0 {
		return date[:idx]
	}
	return date
}
