package driver

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-automaton/model"
)

// ErrInvalidTickInterval is returned when asked to advance at a non-positive interval.
var ErrInvalidTickInterval = errors.New("tick interval must be positive")

// Outcome says why a run stopped.
type Outcome int

const (
	OutcomeCancelled Outcome = iota
	OutcomeExtinct
	OutcomeStagnant
	OutcomeCycle
	OutcomeLimit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeExtinct:
		return "extinction"
	case OutcomeStagnant:
		return "stagnation"
	case OutcomeCycle:
		return "cycle"
	case OutcomeLimit:
		return "generation limit"
	}
	return "unknown"
}

// Renderer draws the board whenever it changes.
type Renderer interface {
	Clear()
	Display(model.Board) error
}

// Snapshot is passed to the observer after every generation.
type Snapshot struct {
	Generation int // generations across all reseeds
	Population int
	Changed    bool
	Elapsed    time.Duration // since the previous generation
}

// Runner advances an engine on a fixed interval until the population dies
// out, stops changing, falls into a short cycle or hits the generation limit.
type Runner struct {
	engine   *model.Engine
	interval time.Duration

	renderer       Renderer
	logger         log.Logger
	maxGenerations int
	cycleWindow    int
	reseed         func() model.Board
	observer       func(Snapshot)

	history    []string
	generation int
	reseeds    int
}

// Option configures a Runner.
type Option func(*Runner)

// WithRenderer draws the initial board and every changed generation.
func WithRenderer(r Renderer) Option {
	return func(rn *Runner) { rn.renderer = r }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(rn *Runner) { rn.logger = logger }
}

// WithMaxGenerations stops the run after n generations; 0 means no limit.
func WithMaxGenerations(n int) Option {
	return func(rn *Runner) { rn.maxGenerations = n }
}

// WithCycleWindow treats a board seen within the last n generations as a
// cycle; 0 disables cycle detection.
func WithCycleWindow(n int) Option {
	return func(rn *Runner) { rn.cycleWindow = n }
}

// WithReseed assigns fn's board instead of stopping on extinction,
// stagnation or a cycle.
func WithReseed(fn func() model.Board) Option {
	return func(rn *Runner) { rn.reseed = fn }
}

// WithObserver registers fn to be called after every generation.
func WithObserver(fn func(Snapshot)) Option {
	return func(rn *Runner) { rn.observer = fn }
}

// NewRunner creates a runner ticking engine every interval.
func NewRunner(engine *model.Engine, interval time.Duration, opts ...Option) (*Runner, error) {
	if interval <= 0 {
		return nil, errors.Wrapf(ErrInvalidTickInterval, "got %v", interval)
	}
	rn := &Runner{
		engine:   engine,
		interval: interval,
		logger:   log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(rn)
	}
	return rn, nil
}

// Generation returns the number of generations run so far, across reseeds.
func (rn *Runner) Generation() int { return rn.generation }

// Reseeds returns how many times the board was reseeded.
func (rn *Runner) Reseeds() int { return rn.reseeds }

// Run drives the engine until an outcome is reached. A cancelled context
// returns OutcomeCancelled with the context's error.
func (rn *Runner) Run(ctx context.Context) (Outcome, error) {
	if err := rn.render(); err != nil {
		return OutcomeCancelled, err
	}
	rn.history = rn.history[:0]
	rn.remember(rn.engine.Board().Hash())

	ticker := time.NewTicker(rn.interval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			level.Info(rn.logger).Log("msg", "run cancelled", "generation", rn.generation)
			return OutcomeCancelled, ctx.Err()
		case <-ticker.C:
		}

		now := time.Now()
		elapsed := now.Sub(last)
		last = now

		rn.engine.Advance()
		rn.generation++

		if rn.engine.HasChanged() {
			if err := rn.render(); err != nil {
				return OutcomeCancelled, err
			}
		}
		if rn.observer != nil {
			rn.observer(Snapshot{
				Generation: rn.generation,
				Population: rn.engine.Population(),
				Changed:    rn.engine.HasChanged(),
				Elapsed:    elapsed,
			})
		}

		if outcome, done := rn.settled(); done {
			if rn.reseed == nil {
				level.Info(rn.logger).Log("msg", "run finished", "outcome", outcome, "generation", rn.generation)
				return outcome, nil
			}
			if err := rn.reseedBoard(outcome); err != nil {
				return outcome, err
			}
		}

		if rn.maxGenerations > 0 && rn.generation >= rn.maxGenerations {
			level.Info(rn.logger).Log("msg", "run finished", "outcome", OutcomeLimit, "generation", rn.generation)
			return OutcomeLimit, nil
		}
	}
}

// settled reports whether the board has reached a terminal state.
func (rn *Runner) settled() (Outcome, bool) {
	if rn.engine.IsExtinct() {
		return OutcomeExtinct, true
	}
	if !rn.engine.HasChanged() {
		return OutcomeStagnant, true
	}
	if rn.cycleWindow > 0 && rn.remember(rn.engine.Board().Hash()) {
		return OutcomeCycle, true
	}
	return 0, false
}

// remember adds hash to the recent history and reports whether it was
// already there.
func (rn *Runner) remember(hash string) bool {
	seen := false
	for _, h := range rn.history {
		if h == hash {
			seen = true
			break
		}
	}
	rn.history = append(rn.history, hash)

	// Keep only the last cycleWindow states
	if len(rn.history) > rn.cycleWindow {
		rn.history = rn.history[len(rn.history)-rn.cycleWindow:]
	}
	return seen
}

func (rn *Runner) reseedBoard(reason Outcome) error {
	if err := rn.engine.AssignBoard(rn.reseed()); err != nil {
		return errors.Wrap(err, "[Runner] failed to reseed board")
	}
	rn.reseeds++
	rn.history = rn.history[:0]
	rn.remember(rn.engine.Board().Hash())

	level.Info(rn.logger).Log("msg", "reseeded board", "reason", reason, "generation", rn.generation,
		"population", rn.engine.Population())
	return rn.render()
}

func (rn *Runner) render() error {
	if rn.renderer == nil {
		return nil
	}
	rn.renderer.Clear()
	return errors.Wrap(rn.renderer.Display(rn.engine.Board()), "[Runner] failed to render board")
}
