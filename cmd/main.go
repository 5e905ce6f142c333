package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"shuffletrace/internal/actions"
)

func main() {
	app := &cli.App{
		Name:     "shuffletrace",
		Usage:    "Record the order in which Spotify shuffles a playlist.",
		Flags:    actions.GlobalFlags(),
		Commands: actions.Commands(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
