package actions

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v2"

	"shuffletrace/internal/archive"
	"shuffletrace/internal/config"
	"shuffletrace/internal/playlist"
	"shuffletrace/internal/sampler"
)

func runFromFlags(c *cli.Context) config.Run {
	run := config.DefaultRun()
	run.PlaylistName = c.String("playlist")
	run.PercentageToPlay = c.Float64("percentage")
	run.Delay = c.Duration("delay")
	run.SettleDelay = c.Duration("settle")
	if c.IsSet("out") {
		run.Output = c.String("out")
	}
	if c.IsSet("runs") {
		run.Runs = c.Int("runs")
	}
	if c.IsSet("base") {
		run.OutputBase = c.String("base")
	}
	run.Dedupe = !c.Bool("no-dedupe")
	return run
}

// Sample performs a single playthrough. Rows are deduplicated unless --no-dedupe is given.
func Sample(c *cli.Context) error {
	return withSampler(c, func(s *sampler.Sampler, run config.Run) error {
		res, err := s.Playthrough(c.Context, run, run.Output)
		if err != nil {
			return explain(err)
		}
		if res.Found {
			fmt.Printf("Sampled %d of %d tracks from '%s' into %s\n", res.Steps, res.TrackCount, run.PlaylistName, res.Output)
		}
		return nil
	})
}

// Multi performs --runs independent playthroughs into <base>_<i>.csv. Rows are kept as observed.
func Multi(c *cli.Context) error {
	return withSampler(c, func(s *sampler.Sampler, run config.Run) error {
		results, err := s.RunMany(c.Context, run)
		for _, res := range results {
			if res.Found {
				fmt.Printf("Wrote %d rows to %s\n", len(res.Rows), res.Output)
			}
		}
		if err != nil {
			return explain(err)
		}
		return nil
	})
}

func withSampler(c *cli.Context, fn func(*sampler.Sampler, config.Run) error) error {
	run := runFromFlags(c)

	sess, err := openSession(c)
	if err != nil {
		return err
	}
	defer sess.close()

	if c.Bool("pick") {
		name, err := pickPlaylist(c, sess)
		if err != nil {
			return err
		}
		run.PlaylistName = name
	}
	if err := run.Validate(); err != nil {
		return err
	}

	opts := []sampler.Option{}
	if path := c.String("archive"); path != "" {
		arch, err := archive.Open(path)
		if err != nil {
			return err
		}
		defer arch.Close()
		opts = append(opts, sampler.WithRecorder(arch))
	}

	return fn(sampler.New(sess.adapter, sess.log, opts...), run)
}

func pickPlaylist(c *cli.Context, sess *session) (string, error) {
	playlists, err := sess.adapter.ListPlaylists(c.Context)
	if err != nil {
		return "", err
	}
	if len(playlists) == 0 {
		return "", errors.New("no playlists found in your account")
	}

	var name string
	err = huh.NewSelect[string]().
		Height(10).
		Title("Choose a playlist to sample").
		Options(getPlaylistOptions(playlists)...).
		Value(&name).
		Run()
	return name, err
}

func getPlaylistOptions(p []playlist.Playlist) []huh.Option[string] {
	options := make([]huh.Option[string], len(p))
	for i, pl := range p {
		options[i] = huh.NewOption(fmt.Sprintf("%s (%d tracks)", pl.Name, pl.TrackCount), pl.Name)
	}
	return options
}

// explain adds a hint for failures that are worth simply running again.
func explain(err error) error {
	if sampler.IsRetryable(err) {
		return fmt.Errorf("%w (the provider may recover; try again)", err)
	}
	return err
}
