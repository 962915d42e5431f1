package room

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ctchen222/solo-tictactoe/pkg/proto"
)

const pingMessage = websocket.PingMessage

// Send writes a message to the client.
func (r *Room) Send(ctx context.Context, message proto.ServerToClientMessage) {
	_, span := tracer.Start(ctx, "room.Send", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.String("message.type", message.Type),
	))
	defer span.End()

	data, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error marshalling message")
		return
	}

	if err := r.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.ErrorContext(ctx, "error writing message to player", "player.id", r.PlayerID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error writing message to player")
	}
}

// ReadPump pumps messages from the websocket connection to the room's
// incoming channel and closes Done when the connection goes away.
func (r *Room) ReadPump(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "room.ReadPump", trace.WithAttributes(
		attribute.String("player.id", r.PlayerID),
		attribute.String("room.id", r.ID),
	))
	defer span.End()
	defer close(r.Done)

	for {
		_, msg, err := r.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.WarnContext(ctx, "Player connection error", "player.id", r.PlayerID, "room.id", r.ID, "error", err)
				span.RecordError(err)
				span.SetStatus(codes.Error, "Player connection error")
			}
			return
		}
		select {
		case r.incoming <- msg:
		case <-ctx.Done():
			return
		}
	}
}
