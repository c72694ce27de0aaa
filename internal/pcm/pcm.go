// Package pcm decodes extracted WAV audio into the combined stereo words the
// checksum engine consumes.
package pcm

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// CD audio parameters. Extraction always produces this format; anything else
// means the extractor misbehaved.
const (
	CDSampleRate = 44100
	CDChannels   = 2
	CDBitDepth   = 16
)

// readChunk is sized in channel values, a multiple of one sector's 1176 so
// reads stay frame-aligned.
const readChunk = 1176 * 512

// ReadSamples decodes a CD-quality WAV file into combined stereo words: the
// left channel in the low 16 bits, the right channel in the high 16 bits,
// sign ignored.
func ReadSamples(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("pcm: %s is not a valid WAV file", path)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("pcm: seek to PCM data in %s: %w", path, err)
	}
	if int(dec.NumChans) != CDChannels || int(dec.BitDepth) != CDBitDepth || int(dec.SampleRate) != CDSampleRate {
		return nil, fmt.Errorf("pcm: %s is %d Hz %d-bit %d-channel, want CD audio (%d Hz %d-bit stereo)",
			path, dec.SampleRate, dec.BitDepth, dec.NumChans, CDSampleRate, CDBitDepth)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	samples := make([]uint32, 0, info.Size()/4)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: CDChannels, SampleRate: CDSampleRate},
		Data:           make([]int, readChunk),
		SourceBitDepth: CDBitDepth,
	}
	var left int
	haveLeft := false
	for !dec.EOF() {
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("pcm: read PCM data from %s: %w", path, err)
		}
		if n == 0 {
			break
		}
		for _, value := range buf.Data[:n] {
			if !haveLeft {
				left = value
				haveLeft = true
				continue
			}
			samples = append(samples, combine(left, value))
			haveLeft = false
		}
	}
	if haveLeft {
		return nil, errors.New("pcm: stream ends mid-frame")
	}
	return samples, nil
}

func combine(left, right int) uint32 {
	return uint32(uint16(left)) | uint32(uint16(right))<<16
}
