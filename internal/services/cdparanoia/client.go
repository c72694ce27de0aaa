package cdparanoia

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"riptide/internal/toc"
)

// wavHeaderBytes is the size of a canonical RIFF/WAVE header. An output file
// at or below this size carries no audio.
const wavHeaderBytes = 44

// Mode selects the extraction strategy for one cd-paranoia invocation.
type Mode int

const (
	// ModeBurst disables paranoia verification for speed.
	ModeBurst Mode = iota
	// ModeLenient keeps minimal verification while tolerating read jitter.
	ModeLenient
	// ModeParanoia enables full verification and repair.
	ModeParanoia
	// ModeEmergency reads one sector at a time with every tolerance enabled.
	ModeEmergency
)

func (m Mode) String() string {
	switch m {
	case ModeBurst:
		return "burst"
	case ModeLenient:
		return "lenient"
	case ModeParanoia:
		return "paranoia"
	case ModeEmergency:
		return "emergency"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// TrackRequest describes one track extraction.
type TrackRequest struct {
	Track      int  // 1-based track number on the disc
	LastTrack  bool // final audio track; enables lead-out overread handling
	Mode       Mode
	OutputPath string
}

// TOCReader defines the behaviour required by the identification handler.
type TOCReader interface {
	ReadTOC(ctx context.Context) (toc.Disc, error)
}

// Extractor defines the behaviour required by the ripping handler.
type Extractor interface {
	RipTrack(ctx context.Context, req TrackRequest, progress func(ProgressUpdate)) error
	RipHiddenLeadIn(ctx context.Context, sectors int, outputPath string, progress func(ProgressUpdate)) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// Timeouts bounds cd-paranoia invocations, in seconds. Zero disables the
// bound for that invocation kind. KillGrace is the window between SIGTERM
// and SIGKILL when an invocation is cancelled or times out.
type Timeouts struct {
	TOC       int
	Burst     int
	Paranoia  int
	KillGrace int
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

// Client wraps cd-paranoia CLI interactions for a single drive.
type Client struct {
	binary          string
	device          string
	sampleOffset    int
	tocTimeout      time.Duration
	burstTimeout    time.Duration
	paranoiaTimeout time.Duration
	exec            Executor
}

var (
	_ TOCReader = (*Client)(nil)
	_ Extractor = (*Client)(nil)
)

// New constructs a cd-paranoia client bound to one device.
func New(binary, device string, sampleOffset int, timeouts Timeouts, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("cd-paranoia binary required")
	}
	device = strings.TrimSpace(device)
	if device == "" {
		return nil, errors.New("optical device required")
	}
	client := &Client{
		binary:          binary,
		device:          device,
		sampleOffset:    sampleOffset,
		tocTimeout:      time.Duration(timeouts.TOC) * time.Second,
		burstTimeout:    time.Duration(timeouts.Burst) * time.Second,
		paranoiaTimeout: time.Duration(timeouts.Paranoia) * time.Second,
		exec:            commandExecutor{killGrace: time.Duration(timeouts.KillGrace) * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ReadTOC queries the drive's table of contents. The track table arrives on
// stderr, so all output is collected before parsing.
func (c *Client) ReadTOC(ctx context.Context) (toc.Disc, error) {
	queryCtx := ctx
	if c.tocTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, c.tocTimeout)
		defer cancel()
	}

	var output strings.Builder
	err := c.exec.Run(queryCtx, c.binary, []string{"-Q", "-d", c.device}, func(line string) {
		output.WriteString(line)
		output.WriteByte('\n')
	})
	if err != nil {
		return toc.Disc{}, fmt.Errorf("cd-paranoia toc query: %w", err)
	}

	disc, err := toc.ParseQueryOutput(output.String())
	if err != nil {
		return toc.Disc{}, err
	}
	return toc.Validate(disc)
}

// RipTrack extracts one track to a WAV file using the requested mode.
func (c *Client) RipTrack(ctx context.Context, req TrackRequest, progress func(ProgressUpdate)) error {
	if req.Track < 1 {
		return fmt.Errorf("track number %d out of range", req.Track)
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return errors.New("output path required")
	}

	args := c.buildArgs(req, progress != nil)
	args = append(args, strconv.Itoa(req.Track), req.OutputPath)

	if err := c.run(ctx, c.timeoutFor(req.Mode), args, progress); err != nil {
		return fmt.Errorf("cd-paranoia track %d (%s): %w", req.Track, req.Mode, err)
	}
	return verifyOutput(req.OutputPath)
}

// RipHiddenLeadIn extracts the audio preceding track 1 into a WAV file. The
// span addresses absolute disc offsets so only the pre-track-1 sectors are
// read.
func (c *Client) RipHiddenLeadIn(ctx context.Context, sectors int, outputPath string, progress func(ProgressUpdate)) error {
	if sectors < 1 {
		return fmt.Errorf("hidden lead-in length %d out of range", sectors)
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("output path required")
	}

	span := fmt.Sprintf("[00:00.00]-%s", formatSpanOffset(sectors-1))
	args := c.buildArgs(TrackRequest{Mode: ModeBurst}, progress != nil)
	args = append(args, span, outputPath)

	if err := c.run(ctx, c.timeoutFor(ModeBurst), args, progress); err != nil {
		return fmt.Errorf("cd-paranoia hidden lead-in: %w", err)
	}
	return verifyOutput(outputPath)
}

// buildArgs assembles the flag set for one invocation. The positional span
// and output path are appended by the caller.
func (c *Client) buildArgs(req TrackRequest, withProgress bool) []string {
	args := []string{"-d", c.device, "-z"}
	if withProgress {
		args = append(args, "-e")
	}
	switch req.Mode {
	case ModeBurst:
		args = append(args, "-Z")
	case ModeLenient:
		args = append(args, "-Y")
	case ModeParanoia:
		if req.LastTrack {
			args = append(args, "-Y")
		}
	case ModeEmergency:
		args = append(args, "-Y", "--force-overread", "-n", "1")
	}
	if req.LastTrack && req.Mode != ModeEmergency {
		args = append(args, "--force-overread")
	}
	if c.sampleOffset != 0 {
		args = append(args, "-O", strconv.Itoa(c.sampleOffset))
	}
	return args
}

// timeoutFor returns the invocation budget for a mode. Recovery passes scale
// from the configured budgets: a lenient retry runs at one and a half times
// the burst budget, an emergency single-sector pass at two thirds of the
// paranoia budget.
func (c *Client) timeoutFor(mode Mode) time.Duration {
	switch mode {
	case ModeBurst:
		return c.burstTimeout
	case ModeLenient:
		return c.burstTimeout + c.burstTimeout/2
	case ModeEmergency:
		return c.paranoiaTimeout - c.paranoiaTimeout/3
	default:
		return c.paranoiaTimeout
	}
}

func (c *Client) run(ctx context.Context, timeout time.Duration, args []string, progress func(ProgressUpdate)) error {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var onOutput func(string)
	if progress != nil {
		tracker := newProgressTracker()
		onOutput = func(line string) {
			if update, ok := tracker.Consume(line); ok {
				progress(update)
			}
		}
	}
	return c.exec.Run(runCtx, c.binary, args, onOutput)
}

func verifyOutput(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cd-paranoia produced no output file; check disc for read errors")
	}
	if err != nil {
		return fmt.Errorf("inspect extraction output: %w", err)
	}
	if info.Size() <= wavHeaderBytes {
		return fmt.Errorf("cd-paranoia produced no audio in %s; check disc for read errors", path)
	}
	return nil
}

// formatSpanOffset renders an absolute disc position in the bracketed
// minute:second.sector form cd-paranoia accepts for span endpoints.
func formatSpanOffset(sector int) string {
	minutes := sector / (sectorsPerSecond * 60)
	seconds := (sector / sectorsPerSecond) % 60
	frames := sector % sectorsPerSecond
	return fmt.Sprintf("[%02d:%02d.%02d]", minutes, seconds, frames)
}

type commandExecutor struct {
	killGrace time.Duration
}

func (e commandExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if e.killGrace > 0 {
		cmd.Cancel = func() error {
			return cmd.Process.Signal(syscall.SIGTERM)
		}
		cmd.WaitDelay = e.killGrace
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		scanner.Split(scanTerminated)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	// Both pipes forward into the same consumer; serialize so progress
	// trackers and TOC collectors need no locking of their own.
	var forwardMu sync.Mutex
	forward := func(line string) {
		forwardMu.Lock()
		defer forwardMu.Unlock()
		if onOutput != nil {
			onOutput(line)
			return
		}
		fmt.Fprintln(os.Stderr, line)
	}

	wg.Add(2)
	go scan(stdout, forward)
	go scan(stderr, forward)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}

// scanTerminated splits on newline or carriage return. cd-paranoia redraws
// its status row with bare carriage returns, so splitting on both keeps
// scanner tokens bounded over long extractions.
func scanTerminated(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
