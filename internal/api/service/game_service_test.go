package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/mock/gomock"

	"ctchen222/solo-tictactoe/internal/api/models"
	apimocks "ctchen222/solo-tictactoe/internal/api/repository/mocks"
	"ctchen222/solo-tictactoe/internal/bot"
	"ctchen222/solo-tictactoe/internal/events"
	eventmocks "ctchen222/solo-tictactoe/internal/events/mocks"
	"ctchen222/solo-tictactoe/internal/game"
	"ctchen222/solo-tictactoe/internal/gameplay"
	"ctchen222/solo-tictactoe/internal/repository"
	repomocks "ctchen222/solo-tictactoe/internal/repository/mocks"
	"ctchen222/solo-tictactoe/internal/telemetry"
)

type calculatorFunc func(game.Board, game.Cell, bot.Difficulty) (game.Coord, error)

func (f calculatorFunc) CalculateNextMove(b game.Board, mark game.Cell, d bot.Difficulty) (game.Coord, error) {
	return f(b, mark, d)
}

// firstEmpty plays the first free cell in row-major order.
var firstEmpty = calculatorFunc(func(b game.Board, _ game.Cell, _ bot.Difficulty) (game.Coord, error) {
	cells := b.EmptyCells()
	if len(cells) == 0 {
		return game.Coord{}, game.ErrNoMovesAvailable
	}
	return cells[0], nil
})

type gameFixture struct {
	svc       GameService
	players   *apimocks.MockPlayerRepository
	published *[]string
}

func newGameFixture(t *testing.T, sessions repository.SessionRepository, calc gameplay.MoveCalculator, defaults GameDefaults) gameFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	players := apimocks.NewMockPlayerRepository(ctrl)
	pub := eventmocks.NewMockPublisher(ctrl)

	published := &[]string{}
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e events.Event) error {
		*published = append(*published, e.Type)
		return nil
	}).AnyTimes()

	metrics, err := telemetry.NewMetrics(noop.NewMeterProvider())
	require.NoError(t, err)

	svc := NewGameService(sessions, players, pub, calc, metrics, defaults)
	svc.(*gameService).newID = func() string { return "g1" }
	return gameFixture{svc: svc, players: players, published: published}
}

func (f gameFixture) expectPlayer(p *models.Player) {
	f.players.EXPECT().GetPlayerByID(gomock.Any(), p.ID).Return(p, nil).AnyTimes()
}

func TestGameServiceCreate(t *testing.T) {
	ctx := context.Background()
	defaults := GameDefaults{Mode: gameplay.PvC, Difficulty: bot.Easy}

	t.Run("Uses stored preferences", func(t *testing.T) {
		f := newGameFixture(t, repository.NewMemorySessionRepository(), firstEmpty, defaults)
		f.expectPlayer(&models.Player{ID: "p1", Username: "madara", DisplayName: "Madara", PreferredMode: "pvp", PreferredDifficulty: "hard"})

		view, err := f.svc.Create(ctx, "p1", &models.CreateGameRequest{})
		require.NoError(t, err)
		assert.Equal(t, "g1", view.ID)
		assert.Equal(t, gameplay.PvP, view.State.Mode)
		assert.Equal(t, bot.Hard, view.State.Difficulty)
		assert.Equal(t, gameplay.Names{X: "Madara", O: "player 2"}, view.Players)
		assert.Equal(t, game.PlayerA, view.State.Active)
		assert.Equal(t, []string{events.TypeGameCreated}, *f.published)
	})

	t.Run("Request overrides preferences", func(t *testing.T) {
		f := newGameFixture(t, repository.NewMemorySessionRepository(), firstEmpty, defaults)
		f.expectPlayer(&models.Player{ID: "p1", Username: "madara", PreferredMode: "pvp"})

		view, err := f.svc.Create(ctx, "p1", &models.CreateGameRequest{Mode: "pvc", Difficulty: "hard"})
		require.NoError(t, err)
		assert.Equal(t, gameplay.PvC, view.State.Mode)
		assert.Equal(t, bot.Hard, view.State.Difficulty)
		assert.Equal(t, gameplay.Names{X: "madara", O: "computer"}, view.Players)
	})

	t.Run("Falls back to defaults", func(t *testing.T) {
		f := newGameFixture(t, repository.NewMemorySessionRepository(), firstEmpty, defaults)
		f.expectPlayer(&models.Player{ID: "p1", Username: "madara"})

		view, err := f.svc.Create(ctx, "p1", &models.CreateGameRequest{})
		require.NoError(t, err)
		assert.Equal(t, gameplay.PvC, view.State.Mode)
		assert.Equal(t, bot.Easy, view.State.Difficulty)
	})

	t.Run("Invalid settings", func(t *testing.T) {
		f := newGameFixture(t, repository.NewMemorySessionRepository(), firstEmpty, defaults)
		f.expectPlayer(&models.Player{ID: "p1", Username: "madara"})

		_, err := f.svc.Create(ctx, "p1", &models.CreateGameRequest{Mode: "online"})
		require.ErrorIs(t, err, ErrInvalidSettings)
		assert.Empty(t, *f.published)
	})
}

func TestGameServicePlay(t *testing.T) {
	ctx := context.Background()

	t.Run("Human and computer alternate in PvC", func(t *testing.T) {
		f := newGameFixture(t, repository.NewMemorySessionRepository(), firstEmpty, GameDefaults{Mode: gameplay.PvC})
		f.expectPlayer(&models.Player{ID: "p1", Username: "madara"})
		_, err := f.svc.Create(ctx, "p1", &models.CreateGameRequest{})
		require.NoError(t, err)

		view, err := f.svc.SubmitMove(ctx, "p1", "g1", 1, 1)
		require.NoError(t, err)
		assert.True(t, view.State.ComputerToMove)
		assert.Equal(t, game.PlayerA, view.State.Cells[4])

		_, err = f.svc.SubmitMove(ctx, "p1", "g1", 2, 2)
		require.ErrorIs(t, err, gameplay.ErrNotYourTurn)

		view, err = f.svc.ComputerMove(ctx, "p1", "g1")
		require.NoError(t, err)
		assert.Equal(t, game.PlayerB, view.State.Cells[0])
		require.NotNil(t, view.State.LastMove)
		assert.True(t, view.State.LastMove.ByBot)
		assert.Equal(t, game.PlayerA, view.State.Active)

		_, err = f.svc.ComputerMove(ctx, "p1", "g1")
		require.ErrorIs(t, err, gameplay.ErrNotComputerTurn)

		assert.Equal(t, []string{events.TypeGameCreated, events.TypeMoveApplied, events.TypeMoveApplied}, *f.published)
	})

	t.Run("Engine errors pass through", func(t *testing.T) {
		f := newGameFixture(t, repository.NewMemorySessionRepository(), firstEmpty, GameDefaults{Mode: gameplay.PvP})
		f.expectPlayer(&models.Player{ID: "p1", Username: "madara"})
		_, err := f.svc.Create(ctx, "p1", &models.CreateGameRequest{})
		require.NoError(t, err)

		_, err = f.svc.SubmitMove(ctx, "p1", "g1", 3, 0)
		require.ErrorIs(t, err, game.ErrOutOfRange)

		_, err = f.svc.SubmitMove(ctx, "p1", "g1", 0, 0)
		require.NoError(t, err)
		_, err = f.svc.SubmitMove(ctx, "p1", "g1", 0, 0)
		require.ErrorIs(t, err, game.ErrCellOccupied)

		view, err := f.svc.Get(ctx, "p1", "g1")
		require.NoError(t, err)
		assert.Equal(t, game.PlayerB, view.State.Active)
	})

	t.Run("Finished game", func(t *testing.T) {
		f := newGameFixture(t, repository.NewMemorySessionRepository(), firstEmpty, GameDefaults{Mode: gameplay.PvP})
		f.expectPlayer(&models.Player{ID: "p1", Username: "madara"})
		_, err := f.svc.Create(ctx, "p1", &models.CreateGameRequest{})
		require.NoError(t, err)

		var view *gameplay.View
		for _, m := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}} {
			view, err = f.svc.SubmitMove(ctx, "p1", "g1", m[0], m[1])
			require.NoError(t, err)
		}
		assert.Equal(t, game.Won(game.PlayerA), view.State.Outcome)

		_, err = f.svc.SubmitMove(ctx, "p1", "g1", 2, 2)
		require.ErrorIs(t, err, game.ErrNoMovesAvailable)

		published := *f.published
		require.Len(t, published, 7)
		assert.Equal(t, events.TypeGameFinished, published[6])

		view, err = f.svc.Reset(ctx, "p1", "g1")
		require.NoError(t, err)
		assert.Equal(t, game.Ongoing(), view.State.Outcome)
		assert.Nil(t, view.State.LastMove)
		assert.Len(t, *f.published, 7)
	})

	t.Run("Hard stall passes the turn", func(t *testing.T) {
		noWin := calculatorFunc(func(game.Board, game.Cell, bot.Difficulty) (game.Coord, error) {
			return game.Coord{}, bot.ErrNoWinningMove
		})
		f := newGameFixture(t, repository.NewMemorySessionRepository(), noWin,
			GameDefaults{Mode: gameplay.PvC, Difficulty: bot.Hard, HardFallback: gameplay.FallbackStall})
		f.expectPlayer(&models.Player{ID: "p1", Username: "madara"})
		_, err := f.svc.Create(ctx, "p1", &models.CreateGameRequest{})
		require.NoError(t, err)
		_, err = f.svc.SubmitMove(ctx, "p1", "g1", 0, 0)
		require.NoError(t, err)

		view, err := f.svc.ComputerMove(ctx, "p1", "g1")
		require.NoError(t, err)
		assert.True(t, view.State.Skipped)
		assert.Equal(t, game.PlayerA, view.State.Active)
		assert.Nil(t, view.State.LastMove)
		assert.Equal(t, []string{events.TypeGameCreated, events.TypeMoveApplied}, *f.published)
	})

	t.Run("Settings change mid-game", func(t *testing.T) {
		f := newGameFixture(t, repository.NewMemorySessionRepository(), firstEmpty, GameDefaults{Mode: gameplay.PvP})
		f.expectPlayer(&models.Player{ID: "p1", Username: "madara"})
		_, err := f.svc.Create(ctx, "p1", &models.CreateGameRequest{})
		require.NoError(t, err)
		_, err = f.svc.SubmitMove(ctx, "p1", "g1", 0, 0)
		require.NoError(t, err)

		view, err := f.svc.UpdateSettings(ctx, "p1", "g1", &models.SettingsRequest{Mode: "pvc"})
		require.NoError(t, err)
		assert.Equal(t, gameplay.PvC, view.State.Mode)
		assert.Equal(t, bot.Easy, view.State.Difficulty)
		assert.True(t, view.State.ComputerToMove)
		assert.Equal(t, "computer", view.Players.O)

		_, err = f.svc.UpdateSettings(ctx, "p1", "g1", &models.SettingsRequest{Difficulty: "expert"})
		require.ErrorIs(t, err, ErrInvalidSettings)
	})
}

func TestGameServiceOwnership(t *testing.T) {
	ctx := context.Background()
	f := newGameFixture(t, repository.NewMemorySessionRepository(), firstEmpty, GameDefaults{Mode: gameplay.PvP})
	f.expectPlayer(&models.Player{ID: "p1", Username: "madara"})
	_, err := f.svc.Create(ctx, "p1", &models.CreateGameRequest{})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, "p2", "g1")
	require.ErrorIs(t, err, ErrGameNotFound)
	_, err = f.svc.SubmitMove(ctx, "p2", "g1", 0, 0)
	require.ErrorIs(t, err, ErrGameNotFound)
	_, err = f.svc.Get(ctx, "p1", "missing")
	require.ErrorIs(t, err, ErrGameNotFound)
	_, err = f.svc.Reset(ctx, "p1", "missing")
	require.ErrorIs(t, err, ErrGameNotFound)

	view, err := f.svc.Get(ctx, "p1", "g1")
	require.NoError(t, err)
	assert.Equal(t, [9]game.Cell{}, view.State.Cells)
}

func TestGameServiceRepositoryFailure(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	sessions := repomocks.NewMockSessionRepository(ctrl)
	f := newGameFixture(t, sessions, firstEmpty, GameDefaults{})

	boom := errors.New("connection refused")
	sessions.EXPECT().Update(gomock.Any(), "g1", gomock.Any()).Return(nil, boom)
	sessions.EXPECT().FindByID(gomock.Any(), "g1").Return(nil, boom)

	_, err := f.svc.SubmitMove(ctx, "p1", "g1", 0, 0)
	require.ErrorIs(t, err, boom)
	_, err = f.svc.Get(ctx, "p1", "g1")
	require.ErrorIs(t, err, boom)
	assert.Empty(t, *f.published)
}

func TestGameServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Owner removes the game", func(t *testing.T) {
		sessions := repository.NewMemorySessionRepository()
		f := newGameFixture(t, sessions, firstEmpty, GameDefaults{Mode: gameplay.PvP})
		f.expectPlayer(&models.Player{ID: "p1", Username: "madara"})
		_, err := f.svc.Create(ctx, "p1", &models.CreateGameRequest{})
		require.NoError(t, err)

		require.ErrorIs(t, f.svc.Delete(ctx, "p2", "g1"), ErrGameNotFound)
		_, err = sessions.FindByID(ctx, "g1")
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, "p1", "g1"))
		_, err = f.svc.Get(ctx, "p1", "g1")
		require.ErrorIs(t, err, ErrGameNotFound)
		require.ErrorIs(t, f.svc.Delete(ctx, "p1", "g1"), ErrGameNotFound)
	})

	t.Run("Game vanishes before delete", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessions := repomocks.NewMockSessionRepository(ctrl)
		f := newGameFixture(t, sessions, firstEmpty, GameDefaults{})

		sessions.EXPECT().FindByID(gomock.Any(), "g1").Return(&gameplay.Session{ID: "g1", OwnerID: "p1"}, nil)
		sessions.EXPECT().Delete(gomock.Any(), "g1").Return(repository.ErrSessionNotFound)

		require.ErrorIs(t, f.svc.Delete(ctx, "p1", "g1"), ErrGameNotFound)
	})

	t.Run("Storage failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessions := repomocks.NewMockSessionRepository(ctrl)
		f := newGameFixture(t, sessions, firstEmpty, GameDefaults{})

		boom := errors.New("connection refused")
		sessions.EXPECT().FindByID(gomock.Any(), "g1").Return(&gameplay.Session{ID: "g1", OwnerID: "p1"}, nil)
		sessions.EXPECT().Delete(gomock.Any(), "g1").Return(boom)

		require.ErrorIs(t, f.svc.Delete(ctx, "p1", "g1"), boom)
	})
}
