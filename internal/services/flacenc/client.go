package flacenc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mewkiz/flac"

	"riptide/internal/pcm"
)

// flacHeaderBytes is the size of the FLAC signature plus one STREAMINFO
// block, the minimum any encoder output carries.
const flacHeaderBytes = 42

// Tag is one Vorbis comment attached to the encoded stream.
type Tag struct {
	Name  string
	Value string
}

// Request describes one WAV to FLAC encode.
type Request struct {
	InputPath  string
	OutputPath string
	Tags       []Tag

	// ExpectedSamples is the stereo frame count the output must declare.
	// Zero skips the sample-count check.
	ExpectedSamples uint64

	// LengthSeconds scales the invocation budget. Zero falls back to a
	// fixed budget.
	LengthSeconds int
}

// Encoder defines the behaviour required by the ripping handler.
type Encoder interface {
	Encode(ctx context.Context, req Request) error
}

// Executor abstracts command execution for testability. Encoder output is
// small and only interesting on failure, so it is returned whole.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps flac CLI interactions.
type Client struct {
	binary           string
	compressionLevel int
	validateOutput   bool
	exec             Executor
}

var _ Encoder = (*Client)(nil)

// New constructs a flac client. Compression levels follow the flac CLI's
// 0 through 8 range.
func New(binary string, compressionLevel int, validateOutput bool, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("flac binary required")
	}
	if compressionLevel < 0 || compressionLevel > 8 {
		return nil, fmt.Errorf("compression level %d out of range 0-8", compressionLevel)
	}
	client := &Client{
		binary:           binary,
		compressionLevel: compressionLevel,
		validateOutput:   validateOutput,
		exec:             commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Encode converts one WAV file to tagged FLAC and validates the result.
func (c *Client) Encode(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.InputPath) == "" {
		return errors.New("input path required")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return errors.New("output path required")
	}
	if err := checkWAVHeader(req.InputPath); err != nil {
		return err
	}

	encCtx := ctx
	if timeout := encodeBudget(req.LengthSeconds); timeout > 0 {
		var cancel context.CancelFunc
		encCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	output, err := c.exec.Run(encCtx, c.binary, c.buildArgs(req))
	if err != nil {
		if line := lastLine(output); line != "" {
			return fmt.Errorf("flac encode %s: %w (%s)", filepath.Base(req.InputPath), err, line)
		}
		return fmt.Errorf("flac encode %s: %w", filepath.Base(req.InputPath), err)
	}

	if !c.validateOutput {
		return nil
	}
	return ValidateOutput(req.OutputPath, req.ExpectedSamples)
}

func (c *Client) buildArgs(req Request) []string {
	args := []string{"--force", "--silent", "-" + strconv.Itoa(c.compressionLevel), "-o", req.OutputPath}
	for _, tag := range req.Tags {
		name := strings.ToUpper(strings.TrimSpace(tag.Name))
		value := strings.TrimSpace(tag.Value)
		if name == "" || value == "" {
			continue
		}
		args = append(args, "--tag="+name+"="+value)
	}
	return append(args, req.InputPath)
}

// encodeBudget scales the invocation timeout with track length: three seconds
// of budget per minute of audio plus a one-minute base, never below two
// minutes. Unknown lengths get five minutes.
func encodeBudget(lengthSeconds int) time.Duration {
	if lengthSeconds <= 0 {
		return 5 * time.Minute
	}
	budget := time.Duration(lengthSeconds/20+60) * time.Second
	if budget < 2*time.Minute {
		budget = 2 * time.Minute
	}
	return budget
}

// checkWAVHeader rejects inputs the extractor truncated or never wrote. The
// flac CLI would otherwise fall back to treating them as raw audio.
func checkWAVHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open wav input: %w", err)
	}
	defer f.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("wav input %s: header truncated: %w", filepath.Base(path), err)
	}
	if !bytes.Equal(header[:4], []byte("RIFF")) || !bytes.Equal(header[8:12], []byte("WAVE")) {
		return fmt.Errorf("wav input %s is not a RIFF/WAVE file", filepath.Base(path))
	}
	return nil
}

// ValidateOutput confirms an encoded file decodes as CD-format FLAC and, when
// expectedSamples is non-zero, that its STREAMINFO declares exactly that many
// stereo frames.
func ValidateOutput(path string, expectedSamples uint64) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("flac produced no output file %s", filepath.Base(path))
	}
	if err != nil {
		return fmt.Errorf("inspect encode output: %w", err)
	}
	if info.Size() <= flacHeaderBytes {
		return fmt.Errorf("flac output %s carries no audio", filepath.Base(path))
	}

	stream, err := flac.Open(path)
	if err != nil {
		return fmt.Errorf("decode flac header %s: %w", filepath.Base(path), err)
	}
	defer stream.Close()

	si := stream.Info
	if si == nil {
		return fmt.Errorf("flac output %s carries no STREAMINFO", filepath.Base(path))
	}
	if int(si.SampleRate) != pcm.CDSampleRate || int(si.NChannels) != pcm.CDChannels || int(si.BitsPerSample) != pcm.CDBitDepth {
		return fmt.Errorf("flac output %s is %d Hz %d-bit %d-channel, want CD audio",
			filepath.Base(path), si.SampleRate, si.BitsPerSample, si.NChannels)
	}
	if expectedSamples > 0 && si.NSamples != expectedSamples {
		return fmt.Errorf("flac output %s declares %d samples, want %d", filepath.Base(path), si.NSamples, expectedSamples)
	}
	return nil
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	return string(output), err
}
