package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"shuffletrace/internal/adapters"
	"shuffletrace/internal/config"
	"shuffletrace/internal/playlist"
	"shuffletrace/internal/utils"
)

// ErrTrackNotInPlaylist means the provider reported a now-playing track whose
// name does not occur in the playlist snapshot.
var ErrTrackNotInPlaylist = fmt.Errorf("track not in playlist: %w", adapters.ErrMalformed)

// Provider is the part of the music service a playthrough drives.
type Provider interface {
	FindPlaylistID(ctx context.Context, name string) (string, bool, error)
	TrackNames(ctx context.Context, playlistID string) (playlist.Snapshot, error)
	SetShuffle(ctx context.Context, on bool) error
	StartPlaylist(ctx context.Context, playlistID string) error
	CurrentTrackName(ctx context.Context) (string, error)
	SkipToNext(ctx context.Context) error
}

// Recorder stores a finished playthrough somewhere besides its CSV file.
type Recorder interface {
	Record(ctx context.Context, playlistName, output string, startedAt time.Time, rows []playlist.Sample) error
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// State is a step of a single playthrough.
type State int

const (
	Idle State = iota
	Shuffling
	Playing
	Sampling
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Shuffling:
		return "shuffling"
	case Playing:
		return "playing"
	case Sampling:
		return "sampling"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result describes one playthrough.
type Result struct {
	Found      bool
	PlaylistID string
	TrackCount int
	Steps      int
	Rows       []playlist.Sample
	Output     string
}

type Sampler struct {
	provider Provider
	log      *zap.Logger
	sleep    Sleeper
	stdout   io.Writer
	recorder Recorder
	onState  func(State)
	now      func() time.Time
}

type Option func(*Sampler)

func WithSleeper(s Sleeper) Option { return func(sm *Sampler) { sm.sleep = s } }

// WithStdout sets where user-facing messages (such as a missing playlist) go.
func WithStdout(w io.Writer) Option { return func(sm *Sampler) { sm.stdout = w } }

func WithRecorder(r Recorder) Option { return func(sm *Sampler) { sm.recorder = r } }

// WithStateHook registers fn to be called on every state transition.
func WithStateHook(fn func(State)) Option { return func(sm *Sampler) { sm.onState = fn } }

func New(provider Provider, log *zap.Logger, opts ...Option) *Sampler {
	s := &Sampler{
		provider: provider,
		log:      log,
		sleep:    ContextSleep,
		stdout:   os.Stdout,
		onState:  func(State) {},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Playthrough shuffles and plays run.PlaylistName, samples the now-playing
// track floor(PercentageToPlay * tracks) times, and writes the rows to output
// once sampling is complete. A missing playlist is reported on stdout and
// yields a Result with Found false and no file.
func (s *Sampler) Playthrough(ctx context.Context, run config.Run, output string) (Result, error) {
	log := s.log.With(zap.String("playlist", run.PlaylistName), zap.String("output", output))
	res := Result{Output: output}
	startedAt := s.now()
	s.onState(Idle)

	playlistID, found, err := s.provider.FindPlaylistID(ctx, run.PlaylistName)
	if err != nil {
		return res, fmt.Errorf("resolve playlist %q: %w", run.PlaylistName, err)
	}
	if !found {
		fmt.Fprintf(s.stdout, "Playlist '%s' not found.\n", run.PlaylistName)
		log.Warn("playlist not found")
		return res, nil
	}
	res.Found = true
	res.PlaylistID = playlistID

	snapshot, err := s.provider.TrackNames(ctx, playlistID)
	if err != nil {
		return res, fmt.Errorf("list tracks: %w", err)
	}
	res.TrackCount = len(snapshot)
	steps := snapshot.TracksToPlay(run.PercentageToPlay)

	s.onState(Shuffling)
	if err := s.provider.SetShuffle(ctx, true); err != nil {
		return res, err
	}

	s.onState(Playing)
	if err := s.provider.StartPlaylist(ctx, playlistID); err != nil {
		return res, err
	}
	if err := s.sleep(ctx, run.SettleDelay); err != nil {
		return res, err
	}

	log.Info("sampling playthrough", zap.Int("tracks", len(snapshot)), zap.Int("steps", steps))
	s.onState(Sampling)
	rows := make([]playlist.Sample, 0, steps)
	for i := 0; i < steps; i++ {
		name, err := s.provider.CurrentTrackName(ctx)
		if err != nil {
			return res, fmt.Errorf("step %d: %w", i+1, err)
		}
		pos := snapshot.Position(name)
		if pos == 0 {
			return res, fmt.Errorf("step %d: %q: %w", i+1, name, ErrTrackNotInPlaylist)
		}
		rows = append(rows, playlist.Sample{TrackName: name, PlaylistPos: pos})
		res.Steps++
		log.Info("sampled", zap.Int("step", i+1), zap.String("track", name), zap.Int("pos", pos))

		if err := s.provider.SkipToNext(ctx); err != nil {
			return res, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := s.sleep(ctx, run.Delay); err != nil {
			return res, err
		}
	}

	if run.Dedupe {
		rows = playlist.Dedupe(rows)
	}
	res.Rows = rows

	if err := writeRows(output, rows); err != nil {
		return res, err
	}
	if s.recorder != nil {
		if err := s.recorder.Record(ctx, run.PlaylistName, output, startedAt, rows); err != nil {
			return res, fmt.Errorf("archive playthrough: %w", err)
		}
	}

	s.onState(Done)
	log.Info("playthrough written", zap.Int("rows", len(rows)))
	return res, nil
}

// RunMany performs run.Runs independent playthroughs, writing the i-th to
// run.RunOutput(i). Rows are not deduplicated. The first failing run stops
// the series; results of the completed runs are returned with the error.
func (s *Sampler) RunMany(ctx context.Context, run config.Run) ([]Result, error) {
	run.Dedupe = false
	results := make([]Result, 0, run.Runs)
	for i := 1; i <= run.Runs; i++ {
		s.log.Info("starting playthrough", zap.Int("run", i), zap.Int("of", run.Runs))
		res, err := s.Playthrough(ctx, run, run.RunOutput(i))
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func writeRows(output string, rows []playlist.Sample) error {
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := utils.WriteStructsToCsvFile(output, rows); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	return nil
}

// IsRetryable reports whether err came from a failure that might succeed if
// the playthrough were started again.
func IsRetryable(err error) bool {
	return errors.Is(err, adapters.ErrTransient)
}
