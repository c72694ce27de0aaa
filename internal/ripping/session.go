package ripping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"riptide/internal/accuraterip"
	"riptide/internal/logging"
	"riptide/internal/pcm"
	"riptide/internal/queue"
	"riptide/internal/services"
	"riptide/internal/services/cdparanoia"
	"riptide/internal/services/flacenc"
	"riptide/internal/textutil"
	"riptide/internal/toc"
)

const sectorsPerSecond = 75

// Progress weighting across the stage. Extraction dominates wall time;
// verification and selective re-rips share the remainder.
const (
	extractionWeight = 85.0
	verifyPercent    = 88.0
	reripWeight      = 10.0
)

// session owns all mutable state for one rip. It lives for a single Execute
// call and only the stage goroutine touches it; readers see state through
// persisted queue progress instead.
type session struct {
	ripper *Ripper
	item   *queue.Item
	disc   toc.Disc
	meta   queue.AlbumMetadata
	discID accuraterip.DiscID

	records  []accuraterip.Record
	registry string

	wavDir  string
	flacDir string

	logger  *slog.Logger
	sampler *logging.ProgressSampler

	totalSectors     int
	completedSectors int
	fullIntegrity    bool
	tracks           []*trackState
	hidden           *trackState
}

// trackState carries one track through extraction, encoding, and
// verification. A re-rip replaces the checksums and output in place.
type trackState struct {
	track      toc.Track
	title      string
	path       string
	mode       cdparanoia.Mode
	samples    uint64
	pair       accuraterip.ChecksumPair
	outcome    Outcome
	confidence int
	match      string
	reRipped   bool
}

func newSession(
	r *Ripper,
	item *queue.Item,
	disc toc.Disc,
	meta queue.AlbumMetadata,
	discID accuraterip.DiscID,
	records []accuraterip.Record,
	registryState string,
	wavDir, flacDir string,
	logger *slog.Logger,
) *session {
	total := 0
	for _, track := range disc.Tracks {
		total += track.LengthSectors
	}
	if total < 1 {
		total = 1
	}
	return &session{
		ripper:       r,
		item:         item,
		disc:         disc,
		meta:         meta,
		discID:       discID,
		records:      records,
		registry:     registryState,
		wavDir:       wavDir,
		flacDir:      flacDir,
		logger:       logger,
		sampler:      logging.NewProgressSampler(5),
		totalSectors: total,
	}
}

// run drives one complete rip: hidden lead-in, burst pass, registry
// verification, and selective remediation. A burst extraction failure on a
// non-final track restarts the whole disc in paranoia mode; no partial burst
// output survives the restart.
func (s *session) run(ctx context.Context) (*Result, error) {
	if err := s.ripHiddenLeadIn(ctx); err != nil {
		return nil, err
	}

	if err := s.extractAll(ctx, cdparanoia.ModeBurst); err != nil {
		if !errors.Is(err, services.ErrExtraction) {
			return nil, err
		}
		s.logger.Warn(
			"burst extraction failed; restarting disc in paranoia mode",
			logging.Error(err),
			logging.String(logging.FieldImpact, "rip continues at reduced speed"),
		)
		s.discardTracks()
		s.fullIntegrity = true
		s.completedSectors = 0
		s.sampler.Reset()
		if err := s.extractAll(ctx, cdparanoia.ModeParanoia); err != nil {
			return nil, err
		}
	}

	s.verifyAll(ctx)
	if err := s.reripMismatches(ctx); err != nil {
		return nil, err
	}

	return s.result(), nil
}

// extractAll rips every track in ascending order using mode. Cancellation is
// observed at each loop boundary and inside each blocking call.
func (s *session) extractAll(ctx context.Context, mode cdparanoia.Mode) error {
	s.tracks = s.tracks[:0]
	for _, track := range s.disc.Tracks {
		if err := ctx.Err(); err != nil {
			return err
		}
		state, err := s.ripTrack(ctx, track, mode)
		if err != nil {
			return err
		}
		s.tracks = append(s.tracks, state)
		s.completedSectors += track.LengthSectors
		s.reportTrackDone(ctx, state)
	}
	return nil
}

// ripTrack extracts one track to WAV, computes its checksums, encodes FLAC,
// and removes the intermediate audio.
func (s *session) ripTrack(ctx context.Context, track toc.Track, mode cdparanoia.Mode) (*trackState, error) {
	last, _ := s.disc.LastTrack()
	isLast := track.Number == last.Number
	wavPath := s.wavPath(track.Number)
	operation := fmt.Sprintf("extract track %d", track.Number)

	usedMode := mode
	var err error
	if mode == cdparanoia.ModeBurst && isLast {
		usedMode, err = s.extractLastTrack(ctx, track, wavPath)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, services.Wrap(
				services.ErrLastTrack, "ripping", operation,
				"Last track could not be extracted; the drive may be misreporting the disc lead-out", err)
		}
	} else if err = s.extract(ctx, track, mode, isLast, wavPath); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Wrap(
			services.ErrExtraction, "ripping", operation,
			fmt.Sprintf("Track %d extraction failed in %s mode", track.Number, mode), err)
	}

	samples, err := pcm.ReadSamples(wavPath)
	if err != nil {
		_ = os.Remove(wavPath)
		return nil, services.Wrap(
			services.ErrExtraction, "ripping", operation,
			"Extracted audio could not be decoded", err)
	}
	pair := accuraterip.Checksums(samples, track.Number, s.disc.TrackCount())
	if pair.Zero() {
		s.logger.Warn(
			"track produced a zero checksum; registry comparison skipped",
			logging.Int(logging.FieldTrack, track.Number),
			logging.Int("sectors", track.LengthSectors),
		)
	}

	state := &trackState{
		track:   track,
		title:   s.meta.TrackTitle(track.Number),
		mode:    usedMode,
		samples: uint64(len(samples)),
		pair:    pair,
	}
	state.path = filepath.Join(s.flacDir, trackFileName(track.Number, state.title))
	if err := s.encodeTrack(ctx, wavPath, state); err != nil {
		return nil, err
	}
	s.removeIntermediate(wavPath)
	return state, nil
}

// extract runs one cd-paranoia invocation. Partial WAV output never
// survives a failed or cancelled call.
func (s *session) extract(ctx context.Context, track toc.Track, mode cdparanoia.Mode, lastTrack bool, wavPath string) error {
	req := cdparanoia.TrackRequest{
		Track:      track.Number,
		LastTrack:  lastTrack,
		Mode:       mode,
		OutputPath: wavPath,
	}
	err := s.ripper.extractor.RipTrack(ctx, req, s.trackProgress(ctx, track))
	if ctxErr := ctx.Err(); ctxErr != nil {
		_ = os.Remove(wavPath)
		return ctxErr
	}
	if err != nil {
		_ = os.Remove(wavPath)
		return err
	}
	return nil
}

// extractLastTrack works around drives that misreport the lead-out position
// and stall on the final track. Burst attempts are bounded, then a single
// lenient retry, then the paranoia and emergency modes take over for this
// track only; the rest of the disc keeps its burst results.
func (s *session) extractLastTrack(ctx context.Context, track toc.Track, wavPath string) (cdparanoia.Mode, error) {
	attempts := 1
	if s.ripper.cfg != nil && s.ripper.cfg.Ripping.LastTrackBurstAttempts > attempts {
		attempts = s.ripper.cfg.Ripping.LastTrackBurstAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return cdparanoia.ModeBurst, err
		}
		lastErr = s.extract(ctx, track, cdparanoia.ModeBurst, true, wavPath)
		if lastErr == nil {
			return cdparanoia.ModeBurst, nil
		}
		if ctx.Err() != nil {
			return cdparanoia.ModeBurst, ctx.Err()
		}
		s.logger.Warn(
			"last track burst attempt failed",
			logging.Int(logging.FieldTrack, track.Number),
			logging.Int("attempt", attempt),
			logging.Error(lastErr),
		)
	}

	for _, mode := range []cdparanoia.Mode{cdparanoia.ModeLenient, cdparanoia.ModeParanoia, cdparanoia.ModeEmergency} {
		if err := ctx.Err(); err != nil {
			return mode, err
		}
		s.logger.Info(
			"retrying last track",
			logging.Int(logging.FieldTrack, track.Number),
			logging.String("mode", mode.String()),
		)
		lastErr = s.extract(ctx, track, mode, true, wavPath)
		if lastErr == nil {
			return mode, nil
		}
		if ctx.Err() != nil {
			return mode, ctx.Err()
		}
		s.logger.Warn(
			"last track retry failed",
			logging.Int(logging.FieldTrack, track.Number),
			logging.String("mode", mode.String()),
			logging.Error(lastErr),
		)
	}
	return cdparanoia.ModeEmergency, lastErr
}

// encodeTrack converts the intermediate WAV into the track's tagged FLAC.
// Encoding failures abort the session; partial output is removed so a
// retried or cancelled item never leaves a truncated file behind.
func (s *session) encodeTrack(ctx context.Context, wavPath string, state *trackState) error {
	req := flacenc.Request{
		InputPath:       wavPath,
		OutputPath:      state.path,
		Tags:            s.trackTags(state),
		ExpectedSamples: state.samples,
		LengthSeconds:   state.track.LengthSectors / sectorsPerSecond,
	}
	if err := s.ripper.encoder.Encode(ctx, req); err != nil {
		_ = os.Remove(state.path)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(
			services.ErrEncoding, "ripping", fmt.Sprintf("encode track %d", state.track.Number),
			"Lossless encoding failed; aborting rip to avoid silent data loss", err)
	}
	return nil
}

// trackTags assembles the vorbis comments for one track. Empty values are
// dropped by the encoder client.
func (s *session) trackTags(state *trackState) []flacenc.Tag {
	artist := s.meta.TrackArtist(state.track.Number)
	if artist == "" {
		artist = s.meta.Artist
	}
	return []flacenc.Tag{
		{Name: "TITLE", Value: state.title},
		{Name: "ARTIST", Value: artist},
		{Name: "ALBUM", Value: s.meta.Album},
		{Name: "ALBUMARTIST", Value: s.meta.Artist},
		{Name: "DATE", Value: s.meta.Year},
		{Name: "GENRE", Value: s.meta.Genre},
		{Name: "TRACKNUMBER", Value: strconv.Itoa(state.track.Number)},
		{Name: "TRACKTOTAL", Value: strconv.Itoa(s.disc.TrackCount())},
		{Name: "DISCID", Value: s.discID.String()},
	}
}

// ripHiddenLeadIn extracts audio hiding before track 1, when present. The
// registry carries no entries for hidden audio, so the result is never
// verified, and any failure here degrades to a rip without the hidden track.
func (s *session) ripHiddenLeadIn(ctx context.Context) error {
	if len(s.disc.Tracks) == 0 {
		return nil
	}
	first := s.disc.Tracks[0]
	if !first.HasHiddenLeadIn || first.HiddenLeadInSectors <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Info("extracting hidden lead-in audio", logging.Int("sectors", first.HiddenLeadInSectors))
	wavPath := s.wavPath(0)
	err := s.ripper.extractor.RipHiddenLeadIn(ctx, first.HiddenLeadInSectors, wavPath, nil)
	if ctxErr := ctx.Err(); ctxErr != nil {
		_ = os.Remove(wavPath)
		return ctxErr
	}
	if err != nil {
		_ = os.Remove(wavPath)
		s.logger.Warn("hidden lead-in extraction failed; continuing without it", logging.Error(err))
		return nil
	}

	samples, err := pcm.ReadSamples(wavPath)
	if err != nil {
		_ = os.Remove(wavPath)
		s.logger.Warn("hidden lead-in audio could not be decoded; continuing without it", logging.Error(err))
		return nil
	}
	state := &trackState{
		track:   toc.Track{LengthSectors: first.HiddenLeadInSectors},
		title:   "Hidden Track",
		mode:    cdparanoia.ModeBurst,
		samples: uint64(len(samples)),
		outcome: OutcomeUnverified,
	}
	state.path = filepath.Join(s.flacDir, trackFileName(0, state.title))
	if err := s.encodeTrack(ctx, wavPath, state); err != nil {
		if ctx.Err() != nil {
			return err
		}
		s.logger.Warn("hidden lead-in encode failed; continuing without it", logging.Error(err))
		return nil
	}
	s.removeIntermediate(wavPath)
	s.hidden = state
	return nil
}

// verifyAll matches every track checksum against the registry record set and
// records an outcome. Remediation happens separately so a full-integrity
// restart never re-verifies stale state.
func (s *session) verifyAll(ctx context.Context) {
	s.ripper.applyProgress(ctx, s.item, "Ripping", "Verifying against registry", verifyPercent)
	for index, state := range s.tracks {
		s.resolveOutcome(index, state)
		s.logOutcome(state)
	}
}

func (s *session) resolveOutcome(index int, state *trackState) {
	switch {
	case s.registry == RegistryDisabled || s.registry == RegistryUnreachable:
		state.outcome = OutcomeUnverified
	case s.registry == RegistryMissing:
		state.outcome = OutcomeNoEntry
	case state.pair.Zero():
		state.outcome = OutcomeUnverified
	default:
		match := accuraterip.MatchTrack(s.records, index, state.pair)
		if match.Accepted(s.requireBoth()) {
			state.outcome = OutcomeMatched
			state.confidence = match.Confidence()
			state.match = match.Label()
		} else {
			state.outcome = OutcomeMismatch
			state.confidence = 0
			state.match = ""
		}
	}
}

func (s *session) requireBoth() bool {
	return s.ripper.cfg != nil && s.ripper.cfg.Verification.RequireBoth
}

// reripMismatches re-extracts mismatched tracks once in paranoia mode. A
// track that still mismatches keeps the paranoia read as the best achievable
// result; the session completes at reduced confidence instead of failing.
func (s *session) reripMismatches(ctx context.Context) error {
	var pending []int
	for index, state := range s.tracks {
		if state.outcome == OutcomeMismatch {
			pending = append(pending, index)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	s.logger.Info(
		"re-ripping mismatched tracks in paranoia mode",
		logging.Int("count", len(pending)),
	)
	for done, index := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		state := s.tracks[index]
		percent := verifyPercent + reripWeight*float64(done)/float64(len(pending))
		s.ripper.applyProgress(ctx, s.item, "Ripping", fmt.Sprintf("Re-ripping track %d", state.track.Number), percent)
		if err := s.reripTrack(ctx, index, state); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) reripTrack(ctx context.Context, index int, state *trackState) error {
	last, _ := s.disc.LastTrack()
	wavPath := s.wavPath(state.track.Number)

	err := s.extract(ctx, state.track, cdparanoia.ModeParanoia, state.track.Number == last.Number, wavPath)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.logger.Warn(
			"re-rip extraction failed; keeping first read",
			logging.Int(logging.FieldTrack, state.track.Number),
			logging.Error(err),
		)
		return nil
	}

	samples, err := pcm.ReadSamples(wavPath)
	if err != nil {
		_ = os.Remove(wavPath)
		s.logger.Warn(
			"re-ripped audio could not be decoded; keeping first read",
			logging.Int(logging.FieldTrack, state.track.Number),
			logging.Error(err),
		)
		return nil
	}

	state.pair = accuraterip.Checksums(samples, state.track.Number, s.disc.TrackCount())
	state.samples = uint64(len(samples))
	state.mode = cdparanoia.ModeParanoia
	state.reRipped = true
	if err := s.encodeTrack(ctx, wavPath, state); err != nil {
		return err
	}
	s.removeIntermediate(wavPath)

	s.resolveOutcome(index, state)
	if state.outcome == OutcomeMatched {
		s.logger.Info(
			"re-ripped track verified",
			logging.Int(logging.FieldTrack, state.track.Number),
			logging.Int("confidence", state.confidence),
		)
	} else {
		s.logger.Warn(
			"track still mismatched after re-rip; accepting reduced confidence",
			logging.Int(logging.FieldTrack, state.track.Number),
			logging.String("checksum_v2", fmt.Sprintf("%08X", state.pair.V2)),
		)
	}
	return nil
}

// discardTracks removes all staged output from an abandoned pass. The hidden
// lead-in result is independent of the pass mode and survives.
func (s *session) discardTracks() {
	for _, state := range s.tracks {
		if state.path == "" {
			continue
		}
		if err := os.Remove(state.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove abandoned output", logging.String("path", state.path), logging.Error(err))
		}
	}
	s.tracks = s.tracks[:0]
}

func (s *session) result() *Result {
	result := &Result{
		DiscID:        s.discID.String(),
		TrackCount:    len(s.tracks),
		Registry:      s.registry,
		FullIntegrity: s.fullIntegrity,
		RippedAt:      time.Now().UTC(),
	}
	for _, state := range s.tracks {
		result.Tracks = append(result.Tracks, state.result())
	}
	if s.hidden != nil {
		hidden := s.hidden.result()
		result.HiddenTrack = &hidden
	}
	return result
}

func (t *trackState) result() TrackResult {
	return TrackResult{
		Number:     t.track.Number,
		Title:      t.title,
		Path:       t.path,
		Mode:       t.mode.String(),
		Samples:    t.samples,
		ChecksumV1: fmt.Sprintf("%08X", t.pair.V1),
		ChecksumV2: fmt.Sprintf("%08X", t.pair.V2),
		Outcome:    t.outcome,
		Confidence: t.confidence,
		Match:      t.match,
		ReRipped:   t.reRipped,
	}
}

// trackProgress maps extractor progress for one track onto the whole-disc
// percentage. Updates are sampled so the store sees a bounded write rate.
func (s *session) trackProgress(ctx context.Context, track toc.Track) func(cdparanoia.ProgressUpdate) {
	base := s.completedSectors
	scope := fmt.Sprintf("track-%02d", track.Number)
	return func(update cdparanoia.ProgressUpdate) {
		done := float64(base) + float64(track.LengthSectors)*update.Percent/100
		percent := done / float64(s.totalSectors) * extractionWeight
		if !s.sampler.ShouldLog(percent, scope) {
			return
		}
		message := fmt.Sprintf("Ripping track %d of %d", track.Number, s.disc.TrackCount())
		s.ripper.applyProgress(ctx, s.item, "Ripping", message, percent)
	}
}

func (s *session) reportTrackDone(ctx context.Context, state *trackState) {
	percent := float64(s.completedSectors) / float64(s.totalSectors) * extractionWeight
	message := fmt.Sprintf("Ripped track %d of %d", state.track.Number, s.disc.TrackCount())
	s.ripper.applyProgress(ctx, s.item, "Ripping", message, percent)
	s.logger.Info(
		"track extracted",
		logging.Int(logging.FieldTrack, state.track.Number),
		logging.String("mode", state.mode.String()),
		logging.Uint64("samples", state.samples),
	)
}

func (s *session) logOutcome(state *trackState) {
	switch state.outcome {
	case OutcomeMatched:
		s.logger.Info(
			"track verified against registry",
			logging.Int(logging.FieldTrack, state.track.Number),
			logging.Int("confidence", state.confidence),
			logging.String("match", state.match),
		)
	case OutcomeMismatch:
		s.logger.Warn(
			"track checksum not found in registry records",
			logging.Int(logging.FieldTrack, state.track.Number),
			logging.String("checksum_v1", fmt.Sprintf("%08X", state.pair.V1)),
			logging.String("checksum_v2", fmt.Sprintf("%08X", state.pair.V2)),
		)
	case OutcomeNoEntry:
		s.logger.Debug("no registry entry for disc", logging.Int(logging.FieldTrack, state.track.Number))
	default:
		s.logger.Debug("track not verified", logging.Int(logging.FieldTrack, state.track.Number))
	}
}

func (s *session) removeIntermediate(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("intermediate audio cleanup failed", logging.String("path", path), logging.Error(err))
	}
}

func (s *session) wavPath(trackNumber int) string {
	return filepath.Join(s.wavDir, fmt.Sprintf("track%02d.wav", trackNumber))
}

// trackFileName builds "NN - Title.flac". Track zero is the hidden lead-in.
func trackFileName(number int, title string) string {
	cleaned := textutil.SanitizeFileName(title)
	if cleaned == "" {
		cleaned = fmt.Sprintf("Track %02d", number)
	}
	return fmt.Sprintf("%02d - %s.flac", number, cleaned)
}
