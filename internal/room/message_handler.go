package room

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ctchen222/solo-tictactoe/internal/api/models"
	"ctchen222/solo-tictactoe/internal/game"
	"ctchen222/solo-tictactoe/internal/gameplay"
	"ctchen222/solo-tictactoe/internal/validator"
	"ctchen222/solo-tictactoe/pkg/proto"
)

// HandleMessage handles a message from the client. It acts as a dispatcher
// and returns the game's new view, or nil if the message was rejected.
func (r *Room) HandleMessage(ctx context.Context, rawMessage []byte) *gameplay.View {
	ctx, span := tracer.Start(ctx, "room.HandleMessage", trace.WithAttributes(
		attribute.String("player.id", r.PlayerID),
		attribute.String("room.id", r.ID),
	))
	defer span.End()

	var message proto.ClientToServerMessage
	if err := json.Unmarshal(rawMessage, &message); err != nil {
		slog.WarnContext(ctx, "error unmarshalling message", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error unmarshalling message")
		r.Send(ctx, proto.Error("malformed message"))
		return nil
	}

	if err := validator.GetValidator().Struct(message); err != nil {
		slog.WarnContext(ctx, "invalid message from player", "player.id", r.PlayerID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		r.Send(ctx, proto.Error(err.Error()))
		return nil
	}

	span.SetAttributes(attribute.String("message.type", message.Type))

	var (
		view *gameplay.View
		err  error
	)
	switch message.Type {
	case proto.TypeMove:
		view, err = r.games.SubmitMove(ctx, r.PlayerID, r.ID, message.Position[0], message.Position[1])
	case proto.TypeReset:
		view, err = r.games.Reset(ctx, r.PlayerID, r.ID)
	case proto.TypeSettings:
		view, err = r.games.UpdateSettings(ctx, r.PlayerID, r.ID, &models.SettingsRequest{
			Mode:       message.Mode,
			Difficulty: message.Difficulty,
		})
	}
	if err != nil {
		slog.InfoContext(ctx, "message rejected", "player.id", r.PlayerID, "type", message.Type, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Message rejected")
		r.Send(ctx, proto.Error(err.Error()))
		return nil
	}

	r.Send(ctx, proto.Update(*view))
	return view
}

// handleComputerMove plays the computer's turn once the delay has passed.
func (r *Room) handleComputerMove(ctx context.Context) *gameplay.View {
	ctx, span := tracer.Start(ctx, "room.handleComputerMove", trace.WithAttributes(
		attribute.String("room.id", r.ID),
	))
	defer span.End()

	view, err := r.games.ComputerMove(ctx, r.PlayerID, r.ID)
	if errors.Is(err, gameplay.ErrNotComputerTurn) || errors.Is(err, game.ErrNoMovesAvailable) {
		// Someone else moved the game on in the meantime.
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "computer move failed", "room.id", r.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Computer move failed")
		r.Send(ctx, proto.Error(err.Error()))
		return nil
	}

	r.Send(ctx, proto.Update(*view))
	return view
}
