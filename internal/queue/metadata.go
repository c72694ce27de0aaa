package queue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Metadata provenance values recorded in AlbumMetadata.Source.
const (
	MetadataSourceMusicBrainz = "musicbrainz"
	MetadataSourceFallback    = "fallback"
)

// AlbumMetadata carries the release-level tags applied during encoding and
// used to lay out the library directory.
type AlbumMetadata struct {
	Artist string          `json:"artist"`
	Album  string          `json:"album"`
	Year   string          `json:"year,omitempty"`
	Genre  string          `json:"genre,omitempty"`
	Source string          `json:"source,omitempty"`
	Tracks []TrackMetadata `json:"tracks,omitempty"`
}

// TrackMetadata carries per-track tags. Artist is only set when it differs
// from the album artist.
type TrackMetadata struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
}

// MetadataFromJSON builds metadata from stored JSON, falling back to
// placeholder tags derived from the disc title.
func MetadataFromJSON(data, fallbackTitle string) AlbumMetadata {
	meta := NewFallbackMetadata(fallbackTitle, 0)
	_ = json.Unmarshal([]byte(data), &meta)
	return meta
}

// NewFallbackMetadata constructs placeholder metadata for a disc the
// metadata service could not identify. Track titles become "Track NN".
func NewFallbackMetadata(title string, trackCount int) AlbumMetadata {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Unknown Album"
	}
	meta := AlbumMetadata{
		Artist: "Unknown Artist",
		Album:  title,
		Source: MetadataSourceFallback,
	}
	for number := 1; number <= trackCount; number++ {
		meta.Tracks = append(meta.Tracks, TrackMetadata{
			Number: number,
			Title:  fallbackTrackTitle(number),
		})
	}
	return meta
}

// Encode serializes the metadata for storage on a queue item.
func (m AlbumMetadata) Encode() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(data), nil
}

// TrackTitle returns the title for a track number, falling back to a
// placeholder when the release listing is missing or short.
func (m AlbumMetadata) TrackTitle(number int) string {
	for _, track := range m.Tracks {
		if track.Number == number && strings.TrimSpace(track.Title) != "" {
			return track.Title
		}
	}
	return fallbackTrackTitle(number)
}

// TrackArtist returns the performing artist for a track number, falling
// back to the album artist.
func (m AlbumMetadata) TrackArtist(number int) string {
	for _, track := range m.Tracks {
		if track.Number == number && strings.TrimSpace(track.Artist) != "" {
			return track.Artist
		}
	}
	return m.Artist
}

// IsFallback reports whether the metadata came from placeholder inference
// rather than a metadata service match.
func (m AlbumMetadata) IsFallback() bool {
	return m.Source == MetadataSourceFallback
}

// DisplayTitle renders "Artist - Album" for logs and notifications.
func (m AlbumMetadata) DisplayTitle() string {
	artist := strings.TrimSpace(m.Artist)
	album := strings.TrimSpace(m.Album)
	switch {
	case artist == "" && album == "":
		return "Unknown Album"
	case artist == "":
		return album
	case album == "":
		return artist
	default:
		return artist + " - " + album
	}
}

func fallbackTrackTitle(number int) string {
	return fmt.Sprintf("Track %02d", number)
}
