package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "go-automaton"
	app.Usage = "run a life-like cellular automaton in the terminal"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Value: "config.json", Usage: "JSON configuration `FILE`; missing file means defaults"},
		cli.IntFlag{Name: "width", Usage: "board width for random boards"},
		cli.IntFlag{Name: "height", Usage: "board height for random boards"},
		cli.StringFlag{Name: "rule, r", Usage: "rule in B/S notation, e.g. B3/S23"},
		cli.DurationFlag{Name: "interval, i", Usage: "time between generations"},
		cli.IntFlag{Name: "max-generations, n", Usage: "stop after this many generations (0 = unlimited)"},
		cli.Float64Flag{Name: "density", Usage: "live cell density for random boards"},
		cli.Int64Flag{Name: "seed", Usage: "random seed"},
		cli.StringFlag{Name: "board, b", Usage: "initial board `FILE` (.json array of booleans, or +/- glyphs)"},
		cli.BoolFlag{Name: "reseed", Usage: "reseed a random board on extinction, stagnation or cycle"},
		cli.IntFlag{Name: "cycle-window", Usage: "generations of history used to detect cycles (0 = off)"},
		cli.BoolFlag{Name: "headless", Usage: "do not render; show a progress bar instead"},
		cli.StringFlag{Name: "log-format", Usage: "logfmt or json"},
	}
	app.Action = runGame

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
