package gameplay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctchen222/solo-tictactoe/internal/bot"
	"ctchen222/solo-tictactoe/internal/game"
)

const (
	A = game.PlayerA
	B = game.PlayerB
	E = game.Empty
)

// scriptedCalculator replays fixed answers and records what it was asked.
type scriptedCalculator struct {
	answers []answer
	asked   []bot.Difficulty
}

type answer struct {
	move game.Coord
	err  error
}

func (s *scriptedCalculator) CalculateNextMove(_ game.Board, _ game.Cell, d bot.Difficulty) (game.Coord, error) {
	s.asked = append(s.asked, d)
	next := s.answers[0]
	s.answers = s.answers[1:]
	return next.move, next.err
}

func TestNew(t *testing.T) {
	c := New(PvC, bot.Hard, bot.NewSeededSelector(1))

	snap := c.Snapshot()
	assert.Equal(t, [9]game.Cell{}, snap.Cells)
	assert.Equal(t, game.Ongoing(), snap.Outcome)
	assert.Equal(t, StartingPlayer, snap.Active)
	assert.Equal(t, PvC, snap.Mode)
	assert.Equal(t, bot.Hard, snap.Difficulty)
	assert.False(t, snap.ComputerToMove)
	assert.Nil(t, snap.LastMove)
}

func TestSubmitMove(t *testing.T) {
	t.Run("Alternates players in PvP", func(t *testing.T) {
		// Given: a hot-seat game
		c := New(PvP, bot.Easy, bot.NewSeededSelector(1))

		// When: both players move
		_, err := c.SubmitMove(0, 0)
		require.NoError(t, err)
		snap, err := c.SubmitMove(1, 1)
		require.NoError(t, err)

		// Then: marks alternate and A is to move again
		assert.Equal(t, A, snap.Cells[0])
		assert.Equal(t, B, snap.Cells[4])
		assert.Equal(t, A, snap.Active)
		assert.Equal(t, &Move{Coord: game.Coord{Row: 1, Col: 1}, Player: B}, snap.LastMove)
	})

	t.Run("Occupied cell leaves state unchanged", func(t *testing.T) {
		c := New(PvP, bot.Easy, bot.NewSeededSelector(1))
		_, err := c.SubmitMove(0, 0)
		require.NoError(t, err)
		before := c.State()

		_, err = c.SubmitMove(0, 0)

		require.ErrorIs(t, err, game.ErrCellOccupied)
		assert.Equal(t, before, c.State())
	})

	t.Run("Out of range is rejected", func(t *testing.T) {
		c := New(PvP, bot.Easy, bot.NewSeededSelector(1))

		_, err := c.SubmitMove(3, 0)

		require.ErrorIs(t, err, game.ErrOutOfRange)
		assert.Equal(t, NewState(PvP, bot.Easy), c.State())
	})

	t.Run("Hands the turn to the computer in PvC", func(t *testing.T) {
		c := New(PvC, bot.Easy, bot.NewSeededSelector(1))

		snap, err := c.SubmitMove(2, 2)
		require.NoError(t, err)
		assert.True(t, snap.ComputerToMove)

		// Then: the human cannot move for the computer
		_, err = c.SubmitMove(0, 0)
		require.ErrorIs(t, err, ErrNotYourTurn)
	})

	t.Run("No moves accepted after a win", func(t *testing.T) {
		c := New(PvP, bot.Easy, bot.NewSeededSelector(1))
		for _, m := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}} {
			_, err := c.SubmitMove(m[0], m[1])
			require.NoError(t, err)
		}
		require.Equal(t, game.Won(A), c.State().Outcome)

		_, err := c.SubmitMove(2, 2)

		require.ErrorIs(t, err, game.ErrNoMovesAvailable)
		assert.Equal(t, E, c.State().Board[2][2])
	})
}

func TestScenarioPlayerAWinsTopRow(t *testing.T) {
	c := New(PvP, bot.Easy, bot.NewSeededSelector(1))

	moves := [][2]int{{0, 0}, {1, 0}, {0, 1}, {2, 2}, {0, 2}}
	var snap Snapshot
	var err error
	for _, m := range moves {
		snap, err = c.SubmitMove(m[0], m[1])
		require.NoError(t, err)
	}

	assert.Equal(t, game.Won(A), snap.Outcome)
	// The winner stays the active player once the game is over.
	assert.Equal(t, A, snap.Active)
	assert.False(t, snap.ComputerToMove)
}

func TestScenarioDraw(t *testing.T) {
	c := New(PvP, bot.Easy, bot.NewSeededSelector(1))

	// A B A / A B B / B A A
	moves := [][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 1}, {1, 0}, {1, 2}, {2, 1}, {2, 0}, {2, 2}}
	var snap Snapshot
	var err error
	for _, m := range moves {
		snap, err = c.SubmitMove(m[0], m[1])
		require.NoError(t, err)
	}

	assert.Equal(t, game.Drawn(), snap.Outcome)
	_, err = c.ComputerMove()
	require.ErrorIs(t, err, game.ErrNoMovesAvailable)
}

func TestScenarioComputerTakesLastCell(t *testing.T) {
	// Given: PvC on easy with one free cell and the computer to move
	state := NewState(PvC, bot.Easy)
	state.Board = game.Board{
		{A, B, A},
		{A, B, B},
		{B, A, E},
	}
	state.Active = ComputerPlayer
	c := Restore(state, bot.NewSeededSelector(5))

	// When: the computer moves
	snap, err := c.ComputerMove()

	// Then: it fills (2,2) and the board is drawn
	require.NoError(t, err)
	assert.Equal(t, B, snap.Cells[8])
	assert.Equal(t, &Move{Coord: game.Coord{Row: 2, Col: 2}, Player: B, ByBot: true}, snap.LastMove)
	assert.Equal(t, game.Drawn(), snap.Outcome)
}

func TestComputerMove(t *testing.T) {
	t.Run("Hard takes the winning cell", func(t *testing.T) {
		state := NewState(PvC, bot.Hard)
		state.Board = game.Board{
			{A, A, E},
			{B, B, E},
			{A, E, E},
		}
		state.Active = ComputerPlayer
		c := Restore(state, bot.NewSeededSelector(1))

		snap, err := c.ComputerMove()

		require.NoError(t, err)
		assert.Equal(t, game.Won(B), snap.Outcome)
		assert.Equal(t, B, snap.Cells[5])
	})

	t.Run("Hard without a win falls back to a random move", func(t *testing.T) {
		calc := &scriptedCalculator{answers: []answer{
			{err: bot.ErrNoWinningMove},
			{move: game.Coord{Row: 2, Col: 0}},
		}}
		c := New(PvC, bot.Hard, calc)
		_, err := c.SubmitMove(1, 1)
		require.NoError(t, err)

		snap, err := c.ComputerMove()

		require.NoError(t, err)
		assert.Equal(t, []bot.Difficulty{bot.Hard, bot.Easy}, calc.asked)
		assert.Equal(t, B, snap.Cells[6])
		assert.Equal(t, A, snap.Active)
		assert.False(t, snap.Skipped)
	})

	t.Run("Hard without a win stalls when configured", func(t *testing.T) {
		calc := &scriptedCalculator{answers: []answer{{err: bot.ErrNoWinningMove}}}
		var observed []HardFallback
		c := New(PvC, bot.Hard, calc,
			WithHardFallback(FallbackStall),
			WithFallbackObserver(func(f HardFallback) { observed = append(observed, f) }))
		_, err := c.SubmitMove(1, 1)
		require.NoError(t, err)
		boardBefore := c.State().Board

		snap, err := c.ComputerMove()

		require.NoError(t, err)
		assert.True(t, snap.Skipped)
		assert.Nil(t, snap.LastMove)
		assert.Equal(t, A, snap.Active)
		assert.Equal(t, boardBefore, c.State().Board)
		assert.Equal(t, []bot.Difficulty{bot.Hard}, calc.asked)
		assert.Equal(t, []HardFallback{FallbackStall}, observed)

		// The human moves again after the skipped turn.
		snap, err = c.SubmitMove(0, 0)
		require.NoError(t, err)
		assert.False(t, snap.Skipped)
		assert.True(t, snap.ComputerToMove)
	})

	t.Run("Rejected when it is the human's turn", func(t *testing.T) {
		c := New(PvC, bot.Easy, bot.NewSeededSelector(1))

		_, err := c.ComputerMove()

		require.ErrorIs(t, err, ErrNotComputerTurn)
	})

	t.Run("Rejected in PvP", func(t *testing.T) {
		c := New(PvP, bot.Easy, bot.NewSeededSelector(1))
		_, err := c.SubmitMove(0, 0)
		require.NoError(t, err)

		_, err = c.ComputerMove()

		require.ErrorIs(t, err, ErrNotComputerTurn)
	})

	t.Run("Easy always lands on an empty cell", func(t *testing.T) {
		sel := bot.NewSeededSelector(11)
		for i := range 50 {
			c := New(PvC, bot.Easy, sel)
			for !c.State().Outcome.IsTerminal() {
				empties := c.State().Board.EmptyCells()
				if c.State().ComputerToMove() {
					before := c.State().Board
					snap, err := c.ComputerMove()
					require.NoError(t, err, "game %d", i)
					require.NotNil(t, snap.LastMove)
					at := snap.LastMove.Coord
					require.Equal(t, E, before[at.Row][at.Col], "game %d", i)
					continue
				}
				_, err := c.SubmitMove(empties[0].Row, empties[0].Col)
				require.NoError(t, err, "game %d", i)
			}
		}
	})
}

func TestReset(t *testing.T) {
	c := New(PvC, bot.Hard, bot.NewSeededSelector(1))
	_, err := c.SubmitMove(0, 0)
	require.NoError(t, err)

	snap := c.Reset()

	assert.Equal(t, [9]game.Cell{}, snap.Cells)
	assert.Equal(t, StartingPlayer, snap.Active)
	assert.Equal(t, PvC, snap.Mode)
	assert.Equal(t, bot.Hard, snap.Difficulty)
	assert.Nil(t, snap.LastMove)
}

func TestSettingsChangeMidGame(t *testing.T) {
	// Given: a PvP game where B is to move
	c := New(PvP, bot.Easy, bot.NewSeededSelector(1))
	_, err := c.SubmitMove(0, 0)
	require.NoError(t, err)

	// When: the player switches to PvC on hard
	c.SetDifficulty(bot.Hard)
	snap := c.SetMode(PvC)

	// Then: the computer takes over B's pending turn
	assert.True(t, snap.ComputerToMove)
	assert.Equal(t, bot.Hard, snap.Difficulty)
	_, err = c.ComputerMove()
	require.NoError(t, err)

	// And switching back hands B to a human again
	snap = c.SetMode(PvP)
	assert.False(t, snap.ComputerToMove)
}

func TestStateJSON(t *testing.T) {
	c := New(PvC, bot.Hard, bot.NewSeededSelector(1))
	_, err := c.SubmitMove(1, 1)
	require.NoError(t, err)

	data, err := json.Marshal(c.State())
	require.NoError(t, err)

	var back State
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c.State(), back)
	assert.Contains(t, string(data), `"mode":"pvc"`)
	assert.Contains(t, string(data), `"difficulty":"hard"`)
}

func TestSessionView(t *testing.T) {
	s := &Session{ID: "g1", OwnerName: "madara", State: NewState(PvC, bot.Easy)}
	s.State.LastMove = &Move{Coord: game.Coord{Row: 0, Col: 0}, Player: A}

	v := s.View()
	assert.Equal(t, Names{X: "madara", O: "computer"}, v.Players)
	assert.Equal(t, "g1", v.ID)

	s.State.Mode = PvP
	assert.Equal(t, "player 2", s.View().Players.O)

	clone := s.Clone()
	clone.State.LastMove.Coord.Row = 2
	assert.Equal(t, 0, s.State.LastMove.Coord.Row)
}
