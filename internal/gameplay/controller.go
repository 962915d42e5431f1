package gameplay

import (
	"errors"
	"fmt"

	"ctchen222/solo-tictactoe/internal/bot"
	"ctchen222/solo-tictactoe/internal/game"
)

const (
	// StartingPlayer moves first in every game.
	StartingPlayer = game.PlayerA
	// ComputerPlayer is the mark the computer plays in PvC.
	ComputerPlayer = game.PlayerB
)

var (
	ErrNotYourTurn     = errors.New("it is the computer's turn")
	ErrNotComputerTurn = errors.New("it is not the computer's turn")
)

// MoveCalculator defines an interface for an agent that can calculate a game move.
type MoveCalculator interface {
	CalculateNextMove(board game.Board, mark game.Cell, difficulty bot.Difficulty) (game.Coord, error)
}

// State is everything needed to resume a game.
type State struct {
	Board      game.Board     `json:"board"`
	Active     game.Cell      `json:"active"`
	Mode       Mode           `json:"mode"`
	Difficulty bot.Difficulty `json:"difficulty"`
	Outcome    game.Outcome   `json:"outcome"`
	LastMove   *Move          `json:"last_move,omitempty"`
	Skipped    bool           `json:"skipped,omitempty"`
}

// Move records one applied placement.
type Move struct {
	Coord  game.Coord `json:"coord"`
	Player game.Cell  `json:"player"`
	ByBot  bool       `json:"by_bot,omitempty"`
}

// NewState returns the state of a fresh game.
func NewState(mode Mode, difficulty bot.Difficulty) State {
	return State{
		Active:     StartingPlayer,
		Mode:       mode,
		Difficulty: difficulty,
		Outcome:    game.Ongoing(),
	}
}

// ComputerToMove reports whether the next placement belongs to the computer.
func (s State) ComputerToMove() bool {
	return s.Mode == PvC && s.Active == ComputerPlayer && !s.Outcome.IsTerminal()
}

// Option configures a Controller.
type Option func(*Controller)

// WithHardFallback sets the policy for a hard turn without a winning cell.
func WithHardFallback(f HardFallback) Option {
	return func(c *Controller) {
		c.fallback = f
	}
}

// WithFallbackObserver registers fn to be told whenever a hard turn finds no
// winning cell and the fallback policy is applied.
func WithFallbackObserver(fn func(HardFallback)) Option {
	return func(c *Controller) {
		c.onFallback = fn
	}
}

// Controller sequences turns over one game. It is not safe for concurrent
// use; callers serialise access to a given game.
type Controller struct {
	state      State
	calculator MoveCalculator
	fallback   HardFallback
	onFallback func(HardFallback)
}

// New starts a game with an empty board and StartingPlayer to move.
func New(mode Mode, difficulty bot.Difficulty, calculator MoveCalculator, opts ...Option) *Controller {
	return Restore(NewState(mode, difficulty), calculator, opts...)
}

// Restore resumes a game from a previously captured state.
func Restore(state State, calculator MoveCalculator, opts ...Option) *Controller {
	c := &Controller{
		state:      state,
		calculator: calculator,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current game state.
func (c *Controller) State() State {
	return c.state
}

// Snapshot returns what the UI needs to render the game.
func (c *Controller) Snapshot() Snapshot {
	return newSnapshot(c.state)
}

// SubmitMove places the active player's mark at (row, col).
func (c *Controller) SubmitMove(row, col int) (Snapshot, error) {
	if c.state.Outcome.IsTerminal() {
		return c.Snapshot(), game.ErrNoMovesAvailable
	}
	if c.state.ComputerToMove() {
		return c.Snapshot(), ErrNotYourTurn
	}

	if err := c.place(game.Coord{Row: row, Col: col}, false); err != nil {
		return c.Snapshot(), err
	}
	return c.Snapshot(), nil
}

// ComputerMove asks the calculator for the computer's move and applies it.
// The UI decides when to call it; the engine does not wait.
func (c *Controller) ComputerMove() (Snapshot, error) {
	if c.state.Outcome.IsTerminal() {
		return c.Snapshot(), game.ErrNoMovesAvailable
	}
	if !c.state.ComputerToMove() {
		return c.Snapshot(), ErrNotComputerTurn
	}

	move, err := c.calculator.CalculateNextMove(c.state.Board, ComputerPlayer, c.state.Difficulty)
	if errors.Is(err, bot.ErrNoWinningMove) {
		if c.onFallback != nil {
			c.onFallback(c.fallback)
		}
		if c.fallback == FallbackStall {
			c.state.Active = ComputerPlayer.Opponent()
			c.state.LastMove = nil
			c.state.Skipped = true
			return c.Snapshot(), nil
		}
		move, err = c.calculator.CalculateNextMove(c.state.Board, ComputerPlayer, bot.Easy)
	}
	if err != nil {
		return c.Snapshot(), fmt.Errorf("computer move: %w", err)
	}

	if err := c.place(move, true); err != nil {
		return c.Snapshot(), fmt.Errorf("computer move %v: %w", move, err)
	}
	return c.Snapshot(), nil
}

// Reset discards the game and starts over with the same mode and difficulty.
func (c *Controller) Reset() Snapshot {
	c.state = NewState(c.state.Mode, c.state.Difficulty)
	return c.Snapshot()
}

// SetMode switches between PvP and PvC, also mid-game.
func (c *Controller) SetMode(mode Mode) Snapshot {
	c.state.Mode = mode
	return c.Snapshot()
}

// SetDifficulty changes the computer's strategy, also mid-game.
func (c *Controller) SetDifficulty(difficulty bot.Difficulty) Snapshot {
	c.state.Difficulty = difficulty
	return c.Snapshot()
}

func (c *Controller) place(at game.Coord, byBot bool) error {
	player := c.state.Active
	if err := c.state.Board.Place(at.Row, at.Col, player); err != nil {
		return err
	}

	c.state.LastMove = &Move{Coord: at, Player: player, ByBot: byBot}
	c.state.Skipped = false
	c.state.Outcome = c.state.Board.Evaluate()
	if !c.state.Outcome.IsTerminal() {
		c.state.Active = player.Opponent()
	}
	return nil
}
