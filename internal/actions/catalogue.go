package actions

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/charmbracelet/huh/spinner"
	"github.com/urfave/cli/v2"

	"shuffletrace/internal/archive"
	"shuffletrace/internal/backfill"
	"shuffletrace/internal/playlist"
)

// Backfill fills the playlist_pos column of an existing CSV.
func Backfill(c *cli.Context) error {
	file := c.String("file")
	name := c.String("playlist")

	sess, err := openSession(c)
	if err != nil {
		return err
	}
	defer sess.close()

	var rows int
	fill := func(ctx context.Context) error {
		rows, err = backfill.Positions(ctx, sess.adapter, sess.log, file, name)
		return err
	}
	if err := spinner.New().Title("Filling playlist positions...").Context(c.Context).ActionWithErr(fill).Run(); err != nil {
		return err
	}
	fmt.Printf("Filled %d positions in %s\n", rows, file)
	return nil
}

// Playlists prints the user's playlists.
func Playlists(c *cli.Context) error {
	sess, err := openSession(c)
	if err != nil {
		return err
	}
	defer sess.close()

	var playlists []playlist.Playlist
	list := func(ctx context.Context) error {
		playlists, err = sess.adapter.ListPlaylists(ctx)
		return err
	}
	if err := spinner.New().Title("Fetching playlists...").Context(c.Context).ActionWithErr(list).Run(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tTRACKS\tID")
	for i, p := range playlists {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", i+1, p.Name, p.TrackCount, p.ID)
	}
	return w.Flush()
}

// Summary prints, per step, how often each playlist position was observed
// across the archived runs of a playlist.
func Summary(c *cli.Context) error {
	arch, err := archive.Open(c.String("archive"))
	if err != nil {
		return err
	}
	defer arch.Close()

	name := c.String("playlist")
	runs, err := arch.Runs(c.Context, name)
	if err != nil {
		return err
	}
	counts, err := arch.PositionCounts(c.Context, name)
	if err != nil {
		return err
	}

	fmt.Printf("%d archived runs of '%s'\n", len(runs), name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tPOSITION\tCOUNT")
	for _, step := range sortedKeys(counts) {
		for _, pos := range sortedKeys(counts[step]) {
			fmt.Fprintf(w, "%d\t%d\t%d\n", step, pos, counts[step][pos])
		}
	}
	return w.Flush()
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
