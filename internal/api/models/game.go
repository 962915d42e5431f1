package models

// CreateGameRequest starts a new game. Empty fields fall back to the
// player's preferences.
type CreateGameRequest struct {
	Mode       string `json:"mode" binding:"omitempty,mode"`
	Difficulty string `json:"difficulty" binding:"omitempty,difficulty"`
}

// MoveRequest places the active player's mark. Range checks are left to
// the game so that out-of-range moves report the game's own error.
type MoveRequest struct {
	Position []int `json:"position" binding:"required,len=2"`
}

// SettingsRequest changes mode and/or difficulty of a running game.
type SettingsRequest struct {
	Mode       string `json:"mode" binding:"omitempty,mode"`
	Difficulty string `json:"difficulty" binding:"omitempty,difficulty"`
}
