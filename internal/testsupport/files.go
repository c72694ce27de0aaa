package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteFLACHeader writes a file that header-level FLAC readers accept: the
// 4-byte signature, one final metadata block header, and a 34-byte STREAMINFO
// body carrying the given format fields, followed by filler bytes in place of
// audio frames. The filler is not decodable audio.
func WriteFLACHeader(t testing.TB, path string, sampleRate, channels, bitsPerSample int, samples uint64, filler int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	var body [34]byte
	binary.BigEndian.PutUint16(body[0:2], 4096)
	binary.BigEndian.PutUint16(body[2:4], 4096)
	// Frame size bounds stay zero (unknown). Bytes 10-17 pack the sample
	// rate (20 bits), channel count minus one (3), bits per sample minus
	// one (5), and total inter-channel samples (36).
	packed := uint64(sampleRate)<<44 |
		uint64(channels-1)<<41 |
		uint64(bitsPerSample-1)<<36 |
		(samples & 0xFFFFFFFFF)
	binary.BigEndian.PutUint64(body[10:18], packed)

	buf := make([]byte, 0, 42+filler)
	buf = append(buf, 'f', 'L', 'a', 'C')
	buf = append(buf, 0x80, 0x00, 0x00, 0x22)
	buf = append(buf, body[:]...)
	buf = append(buf, make([]byte, filler)...)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write flac header %s: %v", path, err)
	}
}

// WriteWAV writes a 44.1kHz 16-bit stereo WAV with the given number of
// frames. The sample function supplies left/right values per frame; nil
// produces silence.
func WriteWAV(t testing.TB, path string, frames int, sample func(frame int) (left, right int)) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, 44100, 16, 2, 1)
	data := make([]int, 0, frames*2)
	for i := 0; i < frames; i++ {
		left, right := 0, 0
		if sample != nil {
			left, right = sample(i)
		}
		data = append(data, left, right)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 44100},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav %s: %v", path, err)
	}
}
