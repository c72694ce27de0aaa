package api

import "encoding/json"

// AlbumView holds the album metadata fields CLI renderers display.
type AlbumView struct {
	Artist string
	Album  string
	Year   string
	Genre  string
	Source string
}

// ParseAlbumView extracts display fields from album metadata JSON with a
// single parse. Missing artist and album fall back to placeholders.
func ParseAlbumView(metadataJSON string) AlbumView {
	view := AlbumView{Artist: "Unknown Artist", Album: "Unknown Album"}
	if metadataJSON == "" {
		return view
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(metadataJSON), &raw); err != nil {
		return view
	}

	str := func(key, fallback string) string {
		if v, ok := raw[key].(string); ok && v != "" {
			return v
		}
		return fallback
	}

	return AlbumView{
		Artist: str("artist", "Unknown Artist"),
		Album:  str("album", "Unknown Album"),
		Year:   str("year", ""),
		Genre:  str("genre", ""),
		Source: str("source", ""),
	}
}

// MetadataField extracts a string field from album metadata JSON.
func MetadataField(metadataJSON, field, fallback string) string {
	if metadataJSON == "" {
		return fallback
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
		return fallback
	}
	value, ok := metadata[field].(string)
	if !ok || value == "" {
		return fallback
	}
	return value
}

// MetadataArtist extracts the album artist from metadata JSON.
func MetadataArtist(metadataJSON string) string {
	return MetadataField(metadataJSON, "artist", "Unknown Artist")
}

// MetadataAlbum extracts the album title from metadata JSON.
func MetadataAlbum(metadataJSON string) string {
	return MetadataField(metadataJSON, "album", "Unknown Album")
}

// MetadataYear extracts the release year from metadata JSON.
func MetadataYear(metadataJSON string) string {
	return MetadataField(metadataJSON, "year", "")
}
