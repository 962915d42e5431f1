package proto

import "ctchen222/solo-tictactoe/internal/gameplay"

// Client message types.
const (
	TypeMove     = "move"
	TypeReset    = "reset"
	TypeSettings = "settings"
)

// Server message types.
const (
	TypeUpdate = "update"
	TypeError  = "error"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type       string `json:"type" validate:"required,oneof=move reset settings"`
	Position   []int  `json:"position,omitempty" validate:"required_if=Type move,omitempty,len=2"`
	Mode       string `json:"mode,omitempty" validate:"omitempty,mode"`
	Difficulty string `json:"difficulty,omitempty" validate:"omitempty,difficulty"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type   string         `json:"type" validate:"required"`
	Reason string         `json:"reason,omitempty"`
	Game   *gameplay.View `json:"game,omitempty"`
}

// Update wraps the current view of a game.
func Update(view gameplay.View) ServerToClientMessage {
	return ServerToClientMessage{Type: TypeUpdate, Game: &view}
}

// Error reports a rejected client message.
func Error(reason string) ServerToClientMessage {
	return ServerToClientMessage{Type: TypeError, Reason: reason}
}
