package models

import "time"

// Player represents an account in the database. Guests have no password.
type Player struct {
	ID                  string    `db:"id"`
	Username            string    `db:"username"`
	PasswordHash        string    `db:"password_hash"`
	DisplayName         string    `db:"display_name"`
	IsGuest             bool      `db:"is_guest"`
	PreferredMode       string    `db:"preferred_mode"`
	PreferredDifficulty string    `db:"preferred_difficulty"`
	CreatedAt           time.Time `db:"created_at"`
}

// RegisterRequest defines the structure for a player registration request.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=20,alphanum"`
	Password    string `json:"password" binding:"required,min=6,max=50"`
	DisplayName string `json:"display_name" binding:"omitempty,max=30"`
}

// LoginRequest defines the structure for a player login request.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse defines the structure for a successful login response.
type LoginResponse struct {
	Token    string `json:"token"`
	PlayerID string `json:"player_id"`
}

// PreferencesRequest updates the defaults used for new games.
type PreferencesRequest struct {
	DisplayName string `json:"display_name" binding:"omitempty,max=30"`
	Mode        string `json:"mode" binding:"omitempty,mode"`
	Difficulty  string `json:"difficulty" binding:"omitempty,difficulty"`
}

// PlayerResponse is the public view of an account.
type PlayerResponse struct {
	ID                  string `json:"id"`
	Username            string `json:"username"`
	DisplayName         string `json:"display_name"`
	IsGuest             bool   `json:"is_guest"`
	PreferredMode       string `json:"preferred_mode,omitempty"`
	PreferredDifficulty string `json:"preferred_difficulty,omitempty"`
}

// ToResponse hides credentials.
func (p *Player) ToResponse() PlayerResponse {
	return PlayerResponse{
		ID:                  p.ID,
		Username:            p.Username,
		DisplayName:         p.DisplayName,
		IsGuest:             p.IsGuest,
		PreferredMode:       p.PreferredMode,
		PreferredDifficulty: p.PreferredDifficulty,
	}
}
