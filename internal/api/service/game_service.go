package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ctchen222/solo-tictactoe/internal/api/models"
	apirepository "ctchen222/solo-tictactoe/internal/api/repository"
	"ctchen222/solo-tictactoe/internal/bot"
	"ctchen222/solo-tictactoe/internal/events"
	"ctchen222/solo-tictactoe/internal/gameplay"
	"ctchen222/solo-tictactoe/internal/repository"
	"ctchen222/solo-tictactoe/internal/telemetry"
)

var tracer = otel.Tracer("service")

var (
	// ErrGameNotFound is returned for unknown games and for games owned by
	// someone else.
	ErrGameNotFound    = errors.New("game not found")
	ErrInvalidSettings = errors.New("invalid game settings")
)

// GameDefaults apply when neither the request nor the player's preferences
// choose a mode or difficulty.
type GameDefaults struct {
	Mode         gameplay.Mode
	Difficulty   bot.Difficulty
	HardFallback gameplay.HardFallback
}

// GameService runs the games of authenticated players.
type GameService interface {
	Create(ctx context.Context, playerID string, req *models.CreateGameRequest) (*gameplay.View, error)
	Get(ctx context.Context, playerID, gameID string) (*gameplay.View, error)
	SubmitMove(ctx context.Context, playerID, gameID string, row, col int) (*gameplay.View, error)
	ComputerMove(ctx context.Context, playerID, gameID string) (*gameplay.View, error)
	Reset(ctx context.Context, playerID, gameID string) (*gameplay.View, error)
	UpdateSettings(ctx context.Context, playerID, gameID string, req *models.SettingsRequest) (*gameplay.View, error)
	Delete(ctx context.Context, playerID, gameID string) error
}

type gameService struct {
	sessions   repository.SessionRepository
	players    apirepository.PlayerRepository
	publisher  events.Publisher
	calculator gameplay.MoveCalculator
	metrics    *telemetry.Metrics
	defaults   GameDefaults
	newID      func() string
}

// NewGameService creates a new GameService.
func NewGameService(
	sessions repository.SessionRepository,
	players apirepository.PlayerRepository,
	publisher events.Publisher,
	calculator gameplay.MoveCalculator,
	metrics *telemetry.Metrics,
	defaults GameDefaults,
) GameService {
	return &gameService{
		sessions:   sessions,
		players:    players,
		publisher:  publisher,
		calculator: calculator,
		metrics:    metrics,
		defaults:   defaults,
		newID:      uuid.NewString,
	}
}

// Create starts a new game owned by playerID.
func (s *gameService) Create(ctx context.Context, playerID string, req *models.CreateGameRequest) (*gameplay.View, error) {
	ctx, span := tracer.Start(ctx, "GameService.Create", trace.WithAttributes(
		attribute.String("player.id", playerID),
	))
	defer span.End()

	p, err := s.players.GetPlayerByID(ctx, playerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load player")
		return nil, err
	}

	mode := s.defaults.Mode
	if name := firstNonEmpty(req.Mode, p.PreferredMode); name != "" {
		if mode, err = gameplay.ParseMode(name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
	}
	difficulty := s.defaults.Difficulty
	if name := firstNonEmpty(req.Difficulty, p.PreferredDifficulty); name != "" {
		if difficulty, err = bot.ParseDifficulty(name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
	}

	ownerName := p.DisplayName
	if ownerName == "" {
		ownerName = p.Username
	}
	sess := &gameplay.Session{
		ID:        s.newID(),
		OwnerID:   p.ID,
		OwnerName: ownerName,
		State:     gameplay.NewState(mode, difficulty),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create session")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("game.id", sess.ID),
		attribute.String("game.mode", mode.String()),
		attribute.String("game.difficulty", difficulty.String()),
	)
	slog.InfoContext(ctx, "Game created", "gameID", sess.ID, "playerID", playerID, "mode", mode, "difficulty", difficulty)

	s.publish(ctx, events.TypeGameCreated, events.GameCreatedPayload{
		GameID:     sess.ID,
		PlayerID:   playerID,
		Mode:       mode.String(),
		Difficulty: difficulty.String(),
	})

	view := sess.View()
	return &view, nil
}

// Get returns the current state of a game.
func (s *gameService) Get(ctx context.Context, playerID, gameID string) (*gameplay.View, error) {
	ctx, span := tracer.Start(ctx, "GameService.Get", trace.WithAttributes(
		attribute.String("player.id", playerID),
		attribute.String("game.id", gameID),
	))
	defer span.End()

	sess, err := s.sessions.FindByID(ctx, gameID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load session")
		return nil, err
	}
	if sess.OwnerID != playerID {
		return nil, ErrGameNotFound
	}
	view := sess.View()
	return &view, nil
}

func (s *gameService) SubmitMove(ctx context.Context, playerID, gameID string, row, col int) (*gameplay.View, error) {
	return s.mutate(ctx, "SubmitMove", playerID, gameID, func(c *gameplay.Controller) error {
		_, err := c.SubmitMove(row, col)
		return err
	})
}

func (s *gameService) ComputerMove(ctx context.Context, playerID, gameID string) (*gameplay.View, error) {
	return s.mutate(ctx, "ComputerMove", playerID, gameID, func(c *gameplay.Controller) error {
		_, err := c.ComputerMove()
		return err
	})
}

func (s *gameService) Reset(ctx context.Context, playerID, gameID string) (*gameplay.View, error) {
	return s.mutate(ctx, "Reset", playerID, gameID, func(c *gameplay.Controller) error {
		c.Reset()
		return nil
	})
}

// UpdateSettings changes mode and/or difficulty; empty fields are kept.
func (s *gameService) UpdateSettings(ctx context.Context, playerID, gameID string, req *models.SettingsRequest) (*gameplay.View, error) {
	var (
		mode       *gameplay.Mode
		difficulty *bot.Difficulty
	)
	if req.Mode != "" {
		m, err := gameplay.ParseMode(req.Mode)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
		mode = &m
	}
	if req.Difficulty != "" {
		d, err := bot.ParseDifficulty(req.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
		difficulty = &d
	}

	return s.mutate(ctx, "UpdateSettings", playerID, gameID, func(c *gameplay.Controller) error {
		if mode != nil {
			c.SetMode(*mode)
		}
		if difficulty != nil {
			c.SetDifficulty(*difficulty)
		}
		return nil
	})
}

// Delete discards a game owned by playerID.
func (s *gameService) Delete(ctx context.Context, playerID, gameID string) error {
	ctx, span := tracer.Start(ctx, "GameService.Delete", trace.WithAttributes(
		attribute.String("player.id", playerID),
		attribute.String("game.id", gameID),
	))
	defer span.End()

	sess, err := s.sessions.FindByID(ctx, gameID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return ErrGameNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load session")
		return err
	}
	if sess.OwnerID != playerID {
		return ErrGameNotFound
	}

	err = s.sessions.Delete(ctx, gameID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		// Expired or deleted between the two calls.
		return ErrGameNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete session")
		return err
	}
	slog.InfoContext(ctx, "Game deleted", "gameID", gameID, "playerID", playerID)
	return nil
}

// mutate applies op to the stored game inside the repository's update, so
// concurrent calls for one game never interleave.
func (s *gameService) mutate(ctx context.Context, name, playerID, gameID string, op func(*gameplay.Controller) error) (*gameplay.View, error) {
	ctx, span := tracer.Start(ctx, "GameService."+name, trace.WithAttributes(
		attribute.String("player.id", playerID),
		attribute.String("game.id", gameID),
	))
	defer span.End()

	var (
		before    gameplay.State
		fallbacks []gameplay.HardFallback
	)
	sess, err := s.sessions.Update(ctx, gameID, func(sess *gameplay.Session) error {
		if sess.OwnerID != playerID {
			return ErrGameNotFound
		}
		// Update may run this more than once.
		before = sess.State
		fallbacks = fallbacks[:0]

		c := gameplay.Restore(sess.State, s.calculator,
			gameplay.WithHardFallback(s.defaults.HardFallback),
			gameplay.WithFallbackObserver(func(f gameplay.HardFallback) {
				fallbacks = append(fallbacks, f)
			}),
		)
		if err := op(c); err != nil {
			return err
		}
		sess.State = c.State()
		return nil
	})
	if errors.Is(err, repository.ErrSessionNotFound) {
		err = ErrGameNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.DebugContext(ctx, "Game call rejected", "op", name, "gameID", gameID, "error", err)
		return nil, err
	}

	s.observe(ctx, sess, before, fallbacks)
	view := sess.View()
	return &view, nil
}

// observe records what changed between two states of one game.
func (s *gameService) observe(ctx context.Context, sess *gameplay.Session, before gameplay.State, fallbacks []gameplay.HardFallback) {
	after := sess.State
	mode, difficulty := after.Mode.String(), after.Difficulty.String()

	for _, f := range fallbacks {
		s.metrics.RecordHardFallback(ctx, f.String())
		slog.InfoContext(ctx, "Hard strategy found no winning cell", "gameID", sess.ID, "fallback", f)
	}
	if after.Skipped && !before.Skipped {
		slog.InfoContext(ctx, "Computer passed its turn", "gameID", sess.ID)
	}

	if moved(before, after) {
		m := after.LastMove
		actor := "human"
		if m.ByBot {
			actor = "computer"
		}
		s.metrics.RecordMove(ctx, actor, mode, difficulty)
		s.publish(ctx, events.TypeMoveApplied, events.MoveAppliedPayload{
			GameID: sess.ID,
			Mark:   m.Player.Mark(),
			Row:    m.Coord.Row,
			Col:    m.Coord.Col,
			ByBot:  m.ByBot,
		})
	}

	if !before.Outcome.IsTerminal() && after.Outcome.IsTerminal() {
		result := after.Outcome.Status.String()
		winner := after.Outcome.Winner.Mark()
		s.metrics.RecordFinished(ctx, result, winner, mode)
		slog.InfoContext(ctx, "Game finished", "gameID", sess.ID, "result", result, "winner", winner)
		s.publish(ctx, events.TypeGameFinished, events.GameFinishedPayload{
			GameID: sess.ID,
			Result: result,
			Winner: winner,
		})
	}
}

// moved reports whether a mark was placed between before and after.
func moved(before, after gameplay.State) bool {
	if after.LastMove == nil {
		return false
	}
	return before.LastMove == nil || before.LastMove.Coord != after.LastMove.Coord
}

// publish delivers an event; failures are logged, never returned.
func (s *gameService) publish(ctx context.Context, eventType string, payload any) {
	event, err := events.New(eventType, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to publish event", "event", eventType, "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
