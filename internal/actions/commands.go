package actions

import (
	"github.com/urfave/cli/v2"

	"shuffletrace/internal/config"
)

// GlobalFlags apply to every command.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "env", Usage: "dotenv file with CLIENT_ID, CLIENT_SECRET and SPOTIFY_USER_ID", Value: ".env"},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides LOG_LEVEL)"},
	}
}

func playthroughFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "playlist", Aliases: []string{"p"}, Usage: "exact playlist name", Value: config.DefaultPlaylistName},
		&cli.BoolFlag{Name: "pick", Usage: "choose the playlist interactively"},
		&cli.Float64Flag{Name: "percentage", Usage: "fraction of the playlist to sample", Value: config.DefaultPercentageToPlay},
		&cli.DurationFlag{Name: "delay", Usage: "wait after each skip", Value: config.DefaultDelay},
		&cli.DurationFlag{Name: "settle", Usage: "wait after starting playback", Value: config.DefaultSettleDelay},
		&cli.StringFlag{Name: "archive", Usage: "also record runs in this SQLite database"},
	}
}

func Commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "sample",
			Usage: "Sample one shuffled playthrough of a playlist into a CSV file",
			Flags: append(playthroughFlags(),
				&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output CSV", Value: config.DefaultOutput},
				&cli.BoolFlag{Name: "no-dedupe", Usage: "keep duplicate rows"},
			),
			Action: Sample,
		},
		{
			Name:  "multi",
			Usage: "Sample several independent playthroughs into <base>_<i>.csv",
			Flags: append(playthroughFlags(),
				&cli.IntFlag{Name: "runs", Aliases: []string{"n"}, Usage: "number of playthroughs", Value: 1},
				&cli.StringFlag{Name: "base", Usage: "output path prefix", Value: config.DefaultOutputBase},
			),
			Action: Multi,
		},
		{
			Name:  "backfill",
			Usage: "Add playlist positions to a CSV of track names",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "CSV with a track_name column", Required: true},
				&cli.StringFlag{Name: "playlist", Aliases: []string{"p"}, Usage: "exact playlist name", Required: true},
			},
			Action: Backfill,
		},
		{
			Name:   "playlists",
			Usage:  "List your playlists",
			Action: Playlists,
		},
		{
			Name:  "summary",
			Usage: "Summarise archived playthroughs of a playlist",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "archive", Usage: "SQLite database written by --archive", Required: true},
				&cli.StringFlag{Name: "playlist", Aliases: []string{"p"}, Usage: "exact playlist name", Value: config.DefaultPlaylistName},
			},
			Action: Summary,
		},
		{
			Name:   "login",
			Usage:  "Authorize with Spotify and cache the token",
			Action: Login,
		},
	}
}
