// internal/session/controller.go
//
// Game session controller.
// Responsibilities:
//   - Run the startup sequence: pick category ids, fetch details concurrently,
//     build a fresh board, install it.
//   - Track the session state: idle → loading → ready | failed, and back to
//     loading on restart.
//   - Route cell activations to the clue state machine.
//
// Notes:
//   - Only one startup runs at a time. A restart while loading is refused
//     with ErrAlreadyLoading and may be reissued once the load settles.
//   - Every startup gets a generation number. A result whose generation is no
//     longer current is discarded, and cell activations can carry the
//     generation of the board they were made on.
//   - A failed startup never installs a partial board; the previous board
//     (if any) is kept but not shown.

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/jeopardy/internal/game"
	"github.com/robalobadob/jeopardy/internal/trivia"
)

// State is the coarse lifecycle of a session.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

var (
	// ErrSessionStartFailed matches every *StartError.
	ErrSessionStartFailed = errors.New("session start failed")
	// ErrAlreadyLoading is returned by StartOrRestart while a start is in flight.
	ErrAlreadyLoading = errors.New("session already loading")
	// ErrNotReady is returned for cell activations outside the ready state.
	ErrNotReady = errors.New("session not ready")
	// ErrStaleBoard is returned when an activation or load targets an old generation.
	ErrStaleBoard = errors.New("stale board generation")
)

// StartError reports why a startup attempt failed.
type StartError struct {
	Generation uint64
	Err        error
}

func (e *StartError) Error() string { return fmt.Sprintf("%s: %v", ErrSessionStartFailed, e.Err) }
func (e *StartError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSessionStartFailed) hold for any *StartError.
func (e *StartError) Is(target error) bool { return target == ErrSessionStartFailed }

// Config fixes the board shape and fetch behaviour of a session.
type Config struct {
	NumCategories    int           // board width
	CluesPerCategory int           // board height
	PoolSize         int           // category ids requested before sampling
	FetchTimeout     time.Duration // per remote call; 0 means no timeout
}

// Validate reports configuration that could never produce a board.
func (c Config) Validate() error {
	switch {
	case c.NumCategories <= 0:
		return fmt.Errorf("session: NumCategories must be positive, got %d", c.NumCategories)
	case c.CluesPerCategory <= 0:
		return fmt.Errorf("session: CluesPerCategory must be positive, got %d", c.CluesPerCategory)
	case c.PoolSize < c.NumCategories:
		return fmt.Errorf("session: PoolSize %d smaller than NumCategories %d", c.PoolSize, c.NumCategories)
	case c.FetchTimeout < 0:
		return fmt.Errorf("session: negative FetchTimeout %s", c.FetchTimeout)
	}
	return nil
}

// Snapshot is a consistent copy of the session for presentation.
// Board is only set while the session is ready.
type Snapshot struct {
	State      State           `json:"state"`
	Generation uint64          `json:"generation"`
	Error      string          `json:"error,omitempty"`
	Board      *game.BoardView `json:"board,omitempty"`
}

// CellResult is the outcome of one cell activation.
type CellResult struct {
	Generation    uint64           `json:"generation"`
	CategoryIndex int              `json:"categoryIndex"`
	ClueIndex     int              `json:"clueIndex"`
	Text          string           `json:"text"`
	State         game.RevealState `json:"state"`
}

// Option customizes a Controller.
type Option func(*Controller)

// WithPresenter sets where state changes are reported.
func WithPresenter(p Presenter) Option { return func(c *Controller) { c.pres = p } }

// WithSampler sets the random source (deterministic tests).
func WithSampler(s *game.Sampler) Option { return func(c *Controller) { c.sampler = s } }

// WithLogger sets the controller's logger.
func WithLogger(l zerolog.Logger) Option { return func(c *Controller) { c.log = l } }

// Controller owns one running game and its board.
type Controller struct {
	cfg     Config
	src     trivia.Source
	pres    Presenter
	sampler *game.Sampler
	log     zerolog.Logger

	mu      sync.Mutex
	state   State
	gen     uint64
	board   *game.CategorySet
	err     error
	touched time.Time
}

// New returns an idle Controller.
func New(cfg Config, src trivia.Source, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.New("session: nil trivia source")
	}
	c := &Controller{
		cfg:     cfg,
		src:     src,
		pres:    NopPresenter{},
		log:     zerolog.Nop(),
		state:   StateIdle,
		touched: time.Now(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.sampler == nil {
		c.sampler = game.NewRandomSampler()
	}
	return c, nil
}

// StartOrRestart runs a full startup sequence and blocks until it settles.
//
// Returns ErrAlreadyLoading without side effects if a start is in flight,
// a *StartError if the startup failed (session is then failed), or
// ErrStaleBoard if a newer startup superseded this one.
func (c *Controller) StartOrRestart(ctx context.Context) error {
	gen, err := c.begin()
	if err != nil {
		return err
	}
	return c.finish(ctx, gen)
}

// Launch claims the loading gate before returning and runs the rest of the
// startup in the background. It returns ErrAlreadyLoading without side
// effects if a start is in flight; otherwise done, if non-nil, receives the
// outcome StartOrRestart would have returned.
func (c *Controller) Launch(ctx context.Context, done func(error)) error {
	gen, err := c.begin()
	if err != nil {
		return err
	}
	go func() {
		err := c.finish(ctx, gen)
		if done != nil {
			done(err)
		}
	}()
	return nil
}

// begin enters Loading under a new generation.
func (c *Controller) begin() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateLoading {
		return 0, ErrAlreadyLoading
	}
	c.gen++
	c.state = StateLoading
	c.err = nil
	c.touched = time.Now()
	c.pres.SessionStateChanged(c.snapshotLocked())
	return c.gen, nil
}

// finish loads a board for gen and installs it if gen is still current.
func (c *Controller) finish(ctx context.Context, gen uint64) error {
	c.log.Info().Uint64("generation", gen).Msg("session loading")
	start := time.Now()
	board, loadErr := c.load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.log.Warn().Uint64("generation", gen).Uint64("current", c.gen).Msg("discarding stale load")
		return ErrStaleBoard
	}
	c.touched = time.Now()
	if loadErr != nil {
		err := &StartError{Generation: gen, Err: loadErr}
		c.state = StateFailed
		c.err = err
		c.log.Error().Err(loadErr).Uint64("generation", gen).Dur("took", time.Since(start)).Msg("session start failed")
		c.pres.SessionStateChanged(c.snapshotLocked())
		return err
	}

	c.board = board.WithGeneration(gen)
	c.state = StateReady
	c.log.Info().Uint64("generation", gen).Int("categories", board.Len()).
		Dur("took", time.Since(start)).Msg("session ready")
	c.pres.Render(c.board.View())
	c.pres.SessionStateChanged(c.snapshotLocked())
	return nil
}

// OnRestartRequested is the presentation layer's restart entry point.
func (c *Controller) OnRestartRequested(ctx context.Context) error {
	return c.StartOrRestart(ctx)
}

// load picks categories, fetches them concurrently and builds a board.
// Nothing is installed here; any error fails the whole batch.
func (c *Controller) load(ctx context.Context) (*game.CategorySet, error) {
	idCtx, cancel := c.withTimeout(ctx)
	pool, err := c.src.CategoryIDs(idCtx, c.cfg.PoolSize)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch category ids: %w", err)
	}

	chosen, err := game.SampleWith(c.sampler, dedupe(pool), c.cfg.NumCategories)
	if err != nil {
		return nil, fmt.Errorf("choose categories: %w", err)
	}

	details := make([]game.CategoryDetail, len(chosen))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range chosen {
		i, id := i, id
		g.Go(func() error {
			fctx, cancel := c.withTimeout(gctx)
			defer cancel()
			d, err := c.src.Category(fctx, id)
			if err != nil {
				return fmt.Errorf("fetch category %d: %w", id, err)
			}
			details[i] = d.Board()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	board, err := game.Build(details, c.cfg.CluesPerCategory, c.sampler)
	if err != nil {
		return nil, fmt.Errorf("build board: %w", err)
	}
	return board, nil
}

func (c *Controller) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.FetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.FetchTimeout)
}

// dedupe drops repeated ids, keeping first occurrences in order.
func dedupe(ids []trivia.CategoryID) []trivia.CategoryID {
	seen := make(map[trivia.CategoryID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// OnCellActivated advances the clue at (categoryIndex, clueIndex) and returns
// the text the cell should now show.
//
// generation, when non-zero, must match the current board. Out-of-range
// coordinates are logged and returned as game.ErrIndexOutOfRange; they never
// change the session.
func (c *Controller) OnCellActivated(generation uint64, categoryIndex, clueIndex int) (CellResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady {
		return CellResult{}, fmt.Errorf("%w: state %s", ErrNotReady, c.state)
	}
	if generation != 0 && generation != c.gen {
		return CellResult{}, fmt.Errorf("%w: got %d, current %d", ErrStaleBoard, generation, c.gen)
	}
	clue, err := c.board.ClueAt(categoryIndex, clueIndex)
	if err != nil {
		c.log.Warn().Err(err).Int("category", categoryIndex).Int("clue", clueIndex).Msg("ignoring cell activation")
		return CellResult{}, err
	}

	text := game.Advance(clue)
	c.touched = time.Now()
	res := CellResult{
		Generation:    c.gen,
		CategoryIndex: categoryIndex,
		ClueIndex:     clueIndex,
		Text:          text,
		State:         clue.State,
	}
	c.pres.CellChanged(res)
	return res, nil
}

// ------------------------------ accessors ----------------------------------

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the last startup error, nil unless the session failed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Generation returns the number of the latest startup attempt.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Board returns the last successfully built board, or nil.
// It is kept across a failed restart but only shown while ready.
func (c *Controller) Board() *game.CategorySet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board
}

// LastActive returns when the session last changed.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched
}

// Snapshot returns a consistent copy for presentation.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{State: c.state, Generation: c.gen}
	if c.err != nil {
		s.Error = c.err.Error()
	}
	if c.state == StateReady && c.board != nil {
		v := c.board.View()
		s.Board = &v
	}
	return s
}
