package queue

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"riptide/internal/accuraterip"
	"riptide/internal/toc"
)

// DiscInfo captures the table of contents and derived identifiers recorded
// by identification and replayed by the ripping and finalizing stages.
type DiscInfo struct {
	Device        string      `json:"device,omitempty"`
	Tracks        []DiscTrack `json:"tracks"`
	LeadOutSector int         `json:"lead_out_sector"`
	TotalSectors  int         `json:"total_sectors,omitempty"`
	DiscID1       uint32      `json:"disc_id1"`
	DiscID2       uint32      `json:"disc_id2"`
	DiscID3       uint32      `json:"disc_id3"`

	// RegistryData caches the raw registry record set fetched during
	// identification, base64 encoded. Empty when the prefetch missed or
	// failed; the ripping stage fetches on demand in that case.
	RegistryData string `json:"registry_data,omitempty"`
}

// DiscTrack is the stored form of one TOC entry.
type DiscTrack struct {
	Number              int `json:"number"`
	StartSector         int `json:"start_sector"`
	LengthSectors       int `json:"length_sectors"`
	HiddenLeadInSectors int `json:"hidden_lead_in_sectors,omitempty"`
}

// NewDiscInfo builds the stored descriptor from a validated TOC and the
// identifier triple derived from it.
func NewDiscInfo(device string, disc toc.Disc, id accuraterip.DiscID) DiscInfo {
	tracks := make([]DiscTrack, 0, len(disc.Tracks))
	for _, track := range disc.Tracks {
		stored := DiscTrack{
			Number:        track.Number,
			StartSector:   track.StartSector,
			LengthSectors: track.LengthSectors,
		}
		if track.HasHiddenLeadIn {
			stored.HiddenLeadInSectors = track.HiddenLeadInSectors
		}
		tracks = append(tracks, stored)
	}
	return DiscInfo{
		Device:        device,
		Tracks:        tracks,
		LeadOutSector: disc.LeadOutSector,
		TotalSectors:  disc.TotalSectors,
		DiscID1:       id.ID1,
		DiscID2:       id.ID2,
		DiscID3:       id.ID3,
	}
}

// DiscInfoFromJSON decodes a stored descriptor.
func DiscInfoFromJSON(data string) (DiscInfo, error) {
	var info DiscInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return DiscInfo{}, fmt.Errorf("decode disc info: %w", err)
	}
	if len(info.Tracks) == 0 {
		return DiscInfo{}, fmt.Errorf("decode disc info: no tracks")
	}
	return info, nil
}

// Encode serializes the descriptor for storage on a queue item.
func (d DiscInfo) Encode() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode disc info: %w", err)
	}
	return string(data), nil
}

// Disc reconstructs the TOC descriptor.
func (d DiscInfo) Disc() toc.Disc {
	tracks := make([]toc.Track, 0, len(d.Tracks))
	for _, stored := range d.Tracks {
		tracks = append(tracks, toc.Track{
			Number:              stored.Number,
			StartSector:         stored.StartSector,
			LengthSectors:       stored.LengthSectors,
			HasHiddenLeadIn:     stored.HiddenLeadInSectors > 0,
			HiddenLeadInSectors: stored.HiddenLeadInSectors,
		})
	}
	return toc.Disc{
		Tracks:        tracks,
		LeadOutSector: d.LeadOutSector,
		TotalSectors:  d.TotalSectors,
	}
}

// DiscID reconstructs the registry identifier triple.
func (d DiscInfo) DiscID() accuraterip.DiscID {
	return accuraterip.DiscID{
		ID1:        d.DiscID1,
		ID2:        d.DiscID2,
		ID3:        d.DiscID3,
		TrackCount: len(d.Tracks),
	}
}

// Fingerprint renders the stable identifier stored on the queue item and
// used for duplicate detection and staging directory names.
func (d DiscInfo) Fingerprint() string {
	return fmt.Sprintf("%03d-%s", len(d.Tracks), d.DiscID().String())
}

// SetRegistryRecords caches a raw registry response on the descriptor.
func (d *DiscInfo) SetRegistryRecords(raw []byte) {
	if len(raw) == 0 {
		d.RegistryData = ""
		return
	}
	d.RegistryData = base64.StdEncoding.EncodeToString(raw)
}

// RegistryRecords decodes the cached registry record set. The second return
// is false when nothing usable is cached.
func (d DiscInfo) RegistryRecords() ([]accuraterip.Record, bool) {
	if d.RegistryData == "" {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(d.RegistryData)
	if err != nil {
		return nil, false
	}
	records, err := accuraterip.ParseRecords(raw)
	if err != nil || len(records) == 0 {
		return nil, false
	}
	return records, true
}

// TrackCount returns the number of stored tracks.
func (d DiscInfo) TrackCount() int {
	return len(d.Tracks)
}
