package main

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/sheikhrachel/go-automaton/driver"
	"github.com/sheikhrachel/go-automaton/model"
	"github.com/sheikhrachel/go-automaton/utils"
)

// runGame is the CLI action: load config, build the engine and drive it
// until an outcome or a signal.
func runGame(c *cli.Context) error {
	config, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := utils.NewLogger(os.Stderr, config.LogFormat)
	if err != nil {
		return err
	}

	engine, rng, err := initializeGame(config, logger)
	if err != nil {
		return err
	}
	displayGameInfo(config, engine)

	stats := utils.NewStats()
	runner, bar, err := newRunner(config, engine, rng, stats, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// Handle Ctrl+C gracefully
	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			level.Info(logger).Log("msg", "shutting down", "signal", sig)
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	var outcome driver.Outcome
	g.Go(func() error {
		defer cancel()
		var runErr error
		outcome, runErr = runner.Run(gctx)
		if errors.Is(runErr, context.Canceled) {
			return nil
		}
		return runErr
	})

	err = g.Wait()
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	stats.Reseeds = runner.Reseeds()
	displaySummary(outcome, stats)
	return nil
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist, then applies command line overrides.
func loadConfig(c *cli.Context) (utils.Config, error) {
	config, err := utils.LoadConfig(c.String("config"))
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return config, err
		}
		config = utils.DefaultConfig()
	}

	if c.IsSet("width") {
		config.Width = c.Int("width")
	}
	if c.IsSet("height") {
		config.Height = c.Int("height")
	}
	if c.IsSet("rule") {
		config.Rule = c.String("rule")
		config.Rules = nil
	}
	if c.IsSet("interval") {
		config.TickInterval = utils.Duration(c.Duration("interval"))
	}
	if c.IsSet("max-generations") {
		config.MaxGenerations = c.Int("max-generations")
	}
	if c.IsSet("density") {
		config.RandomDensity = c.Float64("density")
	}
	if c.IsSet("seed") {
		config.Seed = c.Int64("seed")
	}
	if c.IsSet("board") {
		config.BoardFile = c.String("board")
	}
	if c.IsSet("reseed") {
		config.Reseed = c.Bool("reseed")
	}
	if c.IsSet("cycle-window") {
		config.CycleWindow = c.Int("cycle-window")
	}
	if c.IsSet("headless") {
		config.Headless = c.Bool("headless")
	}
	if c.IsSet("log-format") {
		config.LogFormat = c.String("log-format")
	}
	return config, nil
}

// initializeGame sets up the engine with the configured rules and initial board
func initializeGame(config utils.Config, logger log.Logger) (*model.Engine, *rand.Rand, error) {
	warn := utils.RuleWarningLogger(logger)
	ruleSet, err := config.RuleSet(warn)
	if err != nil {
		return nil, nil, err
	}

	rng := rand.New(rand.NewSource(config.Seed))
	board, err := initialBoard(config, rng)
	if err != nil {
		return nil, nil, err
	}

	engine, err := model.NewEngine(board, model.WithRules(ruleSet), model.WithWarningFunc(warn))
	if err != nil {
		return nil, nil, err
	}
	level.Info(logger).Log("msg", "engine ready", "rules", engine.Rules(), "rows", board.Rows(),
		"population", engine.Population(), "seed", config.Seed)
	return engine, rng, nil
}

func initialBoard(config utils.Config, rng *rand.Rand) (model.Board, error) {
	if config.BoardFile == "" {
		return model.RandomBoard(config.Height, config.Width, config.RandomDensity, rng), nil
	}

	data, err := os.ReadFile(config.BoardFile)
	if err != nil {
		return nil, errors.Wrapf(err, "[initialBoard] failed to read board file: %+v", config.BoardFile)
	}
	if filepath.Ext(config.BoardFile) == ".json" {
		return model.DecodeBoard(bytes.NewReader(data))
	}
	return model.ParseBoard(string(data))
}

// newRunner wires the renderer or progress bar, stats and reseed policy into
// a driver.Runner.
func newRunner(
	config utils.Config,
	engine *model.Engine,
	rng *rand.Rand,
	stats *utils.Stats,
	logger log.Logger,
) (*driver.Runner, *pb.ProgressBar, error) {
	opts := []driver.Option{
		driver.WithLogger(logger),
		driver.WithMaxGenerations(config.MaxGenerations),
		driver.WithCycleWindow(config.CycleWindow),
	}

	if config.Reseed {
		opts = append(opts, driver.WithReseed(func() model.Board {
			return model.RandomBoard(config.Height, config.Width, config.RandomDensity, rng)
		}))
	}

	var bar *pb.ProgressBar
	if config.Headless {
		if config.MaxGenerations > 0 {
			bar = pb.StartNew(config.MaxGenerations)
		}
		opts = append(opts, driver.WithObserver(func(s driver.Snapshot) {
			stats.Update(s.Generation, s.Population, s.Elapsed)
			if bar != nil {
				bar.Increment()
			}
		}))
	} else {
		opts = append(opts,
			driver.WithRenderer(model.NewTerminalRenderer()),
			driver.WithObserver(func(s driver.Snapshot) {
				stats.Update(s.Generation, s.Population, s.Elapsed)
				displayGameStatus(s, engine, stats)
			}),
		)
	}

	runner, err := driver.NewRunner(engine, time.Duration(config.TickInterval), opts...)
	if err != nil {
		return nil, nil, err
	}
	return runner, bar, nil
}

// displayGameInfo shows the initial game information
func displayGameInfo(config utils.Config, engine *model.Engine) {
	fmt.Printf("Rules: %s | Initial living cells: %d | Interval: %v\n",
		engine.Rules(), engine.Population(), time.Duration(config.TickInterval))
	fmt.Println("Press Ctrl+C to exit gracefully")
	fmt.Println()
}

// displayGameStatus shows the current game status under the rendered board
func displayGameStatus(s driver.Snapshot, engine *model.Engine, stats *utils.Stats) {
	status := "Active"
	if !s.Changed {
		status = "Stagnant"
	}
	if s.Population == 0 {
		status = "Extinct"
	}

	fmt.Printf("Gen: %d | Living: %d | Status: %s | Rules: %s\n",
		s.Generation, s.Population, status, engine.Rules())
	fmt.Printf("Performance: %.1f gen/sec | Avg Pop: %.1f | Runtime: %.1fs\n",
		stats.GenerationsPerSecond, stats.AveragePopulation, stats.Runtime().Seconds())
}

// displaySummary prints the final stats once the run has stopped
func displaySummary(outcome driver.Outcome, stats *utils.Stats) {
	fmt.Printf("\nStopped on %s after %d generations in %.1f seconds\n",
		outcome, stats.TotalGenerations, stats.Runtime().Seconds())
	fmt.Printf("Average population: %.1f | Reseeds: %d\n", stats.AveragePopulation, stats.Reseeds)
}
