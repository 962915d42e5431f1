package room

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"ctchen222/solo-tictactoe/internal/api/models"
	"ctchen222/solo-tictactoe/internal/gameplay"
	"ctchen222/solo-tictactoe/pkg/proto"
)

const (
	heartbeatInterval = 10 * time.Second
)

var tracer = otel.Tracer("room")

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// GameRunner applies the calls a live client can make on its game.
type GameRunner interface {
	SubmitMove(ctx context.Context, playerID, gameID string, row, col int) (*gameplay.View, error)
	ComputerMove(ctx context.Context, playerID, gameID string) (*gameplay.View, error)
	Reset(ctx context.Context, playerID, gameID string) (*gameplay.View, error)
	UpdateSettings(ctx context.Context, playerID, gameID string, req *models.SettingsRequest) (*gameplay.View, error)
}

// Room is one client's live channel to one of its games. It answers for
// the computer after a short delay, the way a UI would.
type Room struct {
	ID            string
	PlayerID      string
	conn          Connection
	games         GameRunner
	computerDelay time.Duration
	incoming      chan []byte
	Done          chan struct{}
}

// NewRoom attaches conn to the game id owned by playerID.
func NewRoom(id, playerID string, conn Connection, games GameRunner, computerDelay time.Duration) *Room {
	return &Room{
		ID:            id,
		PlayerID:      playerID,
		conn:          conn,
		games:         games,
		computerDelay: computerDelay,
		incoming:      make(chan []byte, 10),
		Done:          make(chan struct{}),
	}
}

// Run sends the initial view and serves the connection until it closes or
// ctx is cancelled. All writes happen on this goroutine.
func (r *Room) Run(ctx context.Context, initial gameplay.View) {
	go r.ReadPump(ctx)

	pingTicker := time.NewTicker(heartbeatInterval)
	var (
		computerTimer *time.Timer
		computerC     <-chan time.Time
	)
	disarm := func() {
		if computerTimer != nil {
			computerTimer.Stop()
		}
		computerC = nil
	}
	follow := func(view *gameplay.View) {
		if view == nil {
			return
		}
		disarm()
		if view.State.ComputerToMove {
			computerTimer = time.NewTimer(r.computerDelay)
			computerC = computerTimer.C
		}
	}

	defer func() {
		pingTicker.Stop()
		disarm()
		r.conn.Close()
	}()

	r.Send(ctx, proto.Update(initial))
	follow(&initial)

	for {
		select {
		case <-ctx.Done():
			return

		case <-r.Done:
			slog.InfoContext(ctx, "Room closing", "room.id", r.ID, "player.id", r.PlayerID)
			return

		case raw := <-r.incoming:
			follow(r.HandleMessage(ctx, raw))

		case <-computerC:
			computerC = nil
			follow(r.handleComputerMove(ctx))

		case <-pingTicker.C:
			if err := r.conn.WriteMessage(pingMessage, nil); err != nil {
				slog.WarnContext(ctx, "Heartbeat failed", "room.id", r.ID, "error", err)
				return
			}
		}
	}
}
