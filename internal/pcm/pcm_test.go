package pcm_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"riptide/internal/pcm"
)

func writeWAV(t *testing.T, path string, channels int, frames [][2]int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, pcm.CDSampleRate, pcm.CDBitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: pcm.CDSampleRate},
		SourceBitDepth: pcm.CDBitDepth,
	}
	for _, frame := range frames {
		buf.Data = append(buf.Data, frame[:channels]...)
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write WAV data: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func TestReadSamplesCombinesChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.wav")
	writeWAV(t, path, 2, [][2]int{
		{0, 0},
		{1, -1},
		{-32768, 32767},
	})

	samples, err := pcm.ReadSamples(path)
	if err != nil {
		t.Fatalf("ReadSamples returned error: %v", err)
	}
	want := []uint32{0x00000000, 0xFFFF0001, 0x7FFF8000}
	if len(samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(samples))
	}
	for i, sample := range samples {
		if sample != want[i] {
			t.Fatalf("sample %d: expected %08X, got %08X", i, want[i], sample)
		}
	}
}

func TestReadSamplesSilentSector(t *testing.T) {
	frames := make([][2]int, 588)
	path := filepath.Join(t.TempDir(), "silent.wav")
	writeWAV(t, path, 2, frames)

	samples, err := pcm.ReadSamples(path)
	if err != nil {
		t.Fatalf("ReadSamples returned error: %v", err)
	}
	if len(samples) != 588 {
		t.Fatalf("expected 588 samples for one sector, got %d", len(samples))
	}
	for i, sample := range samples {
		if sample != 0 {
			t.Fatalf("sample %d: expected silence, got %08X", i, sample)
		}
	}
}

func TestReadSamplesRejectsMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	writeWAV(t, path, 1, [][2]int{{5, 0}, {6, 0}})

	if _, err := pcm.ReadSamples(path); err == nil {
		t.Fatal("expected error for mono input")
	}
}

func TestReadSamplesRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.wav")
	if err := os.WriteFile(path, []byte("not a wav file"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := pcm.ReadSamples(path); err == nil {
		t.Fatal("expected error for non-WAV input")
	}
}

func TestReadSamplesMissingFile(t *testing.T) {
	if _, err := pcm.ReadSamples(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
