package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	sqlite3 "modernc.org/sqlite/lib"

	"ctchen222/solo-tictactoe/internal/api/models"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	// ErrPlayerExists is returned when the username or id is already stored.
	ErrPlayerExists = errors.New("player already exists")
)

//go:generate mockgen -source=player_repository.go -destination=mocks/player_repository_mock.go -package=mocks

// PlayerRepository defines the interface for player data operations.
type PlayerRepository interface {
	CreatePlayer(ctx context.Context, p *models.Player) error
	GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error)
	GetPlayerByID(ctx context.Context, id string) (*models.Player, error)
	UpdatePreferences(ctx context.Context, id, displayName, mode, difficulty string) error
}

type sqlitePlayerRepository struct {
	db *sqlx.DB
}

// NewPlayerRepository creates a new SQLite-based PlayerRepository.
func NewPlayerRepository(db *sqlx.DB) PlayerRepository {
	return &sqlitePlayerRepository{db: db}
}

// CreatePlayer inserts a new player. The password must already be hashed.
func (r *sqlitePlayerRepository) CreatePlayer(ctx context.Context, p *models.Player) error {
	query := `INSERT INTO players (id, username, password_hash, display_name, is_guest, preferred_mode, preferred_difficulty)
		VALUES (:id, :username, :password_hash, :display_name, :is_guest, :preferred_mode, :preferred_difficulty)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		if isUniqueViolation(err) {
			return ErrPlayerExists
		}
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is SQLite refusing a duplicate key.
func isUniqueViolation(err error) bool {
	var coded interface{ Code() int }
	if !errors.As(err, &coded) {
		return false
	}
	switch coded.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// GetPlayerByUsername retrieves a player by username, or nil if there is none.
func (r *sqlitePlayerRepository) GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error) {
	var p models.Player
	query := `SELECT id, username, password_hash, display_name, is_guest, preferred_mode, preferred_difficulty, created_at
		FROM players WHERE username = ?`
	err := r.db.GetContext(ctx, &p, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No player found is not an application error
		}
		return nil, fmt.Errorf("failed to get player by username: %w", err)
	}
	return &p, nil
}

// GetPlayerByID retrieves a player by id.
func (r *sqlitePlayerRepository) GetPlayerByID(ctx context.Context, id string) (*models.Player, error) {
	var p models.Player
	query := `SELECT id, username, password_hash, display_name, is_guest, preferred_mode, preferred_difficulty, created_at
		FROM players WHERE id = ?`
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}
	return &p, nil
}

// UpdatePreferences stores new defaults. Empty values keep the current ones.
func (r *sqlitePlayerRepository) UpdatePreferences(ctx context.Context, id, displayName, mode, difficulty string) error {
	query := `UPDATE players SET
		display_name = COALESCE(NULLIF(?, ''), display_name),
		preferred_mode = COALESCE(NULLIF(?, ''), preferred_mode),
		preferred_difficulty = COALESCE(NULLIF(?, ''), preferred_difficulty)
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, displayName, mode, difficulty, id)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	if n == 0 {
		return ErrPlayerNotFound
	}
	return nil
}
