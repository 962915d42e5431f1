package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ctchen222/solo-tictactoe/internal/gameplay"
)

var tracer = otel.Tracer("repository.session")

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrConcurrentWrite = errors.New("session changed concurrently")
)

// Hash fields of a stored session.
const (
	FieldState     = "state"
	FieldOwner     = "owner"
	FieldOwnerName = "owner_name"
	FieldUpdatedAt = "updated_at"
)

const maxUpdateAttempts = 5

//go:generate mockgen -source=session_repository.go -destination=mocks/session_repository_mock.go -package=mocks

// SessionRepository stores the live game of each session.
type SessionRepository interface {
	Create(ctx context.Context, s *gameplay.Session) error
	FindByID(ctx context.Context, id string) (*gameplay.Session, error)
	// Update loads the session, applies fn and stores the result. Calls for
	// the same id are serialised; an error from fn aborts without writing.
	Update(ctx context.Context, id string, fn func(*gameplay.Session) error) (*gameplay.Session, error)
	Delete(ctx context.Context, id string) error
}

type redisSessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewSessionRepository creates a new Redis-based SessionRepository. Sessions
// expire ttl after their last write.
func NewSessionRepository(rdb *redis.Client, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{rdb: rdb, ttl: ttl, now: time.Now}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Create stores a new session, failing if the id is taken.
func (r *redisSessionRepository) Create(ctx context.Context, s *gameplay.Session) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Create", trace.WithAttributes(
		attribute.String("game.id", s.ID),
	))
	defer span.End()

	s.UpdatedAt = r.now().UTC()
	fields, err := encodeSession(s)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to encode session")
		return err
	}

	key := sessionKey(s.ID)
	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrSessionExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			pipe.Expire(ctx, key, r.ttl)
			return nil
		})
		return err
	}

	err = r.rdb.Watch(ctx, txf, key)
	// A failed EXEC means someone else wrote the key after our check.
	if errors.Is(err, redis.TxFailedErr) {
		err = ErrSessionExists
	}
	if errors.Is(err, ErrSessionExists) {
		return err
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create session")
		return fmt.Errorf("failed to create session in redis: %w", err)
	}
	return nil
}

// FindByID retrieves the current session from Redis.
func (r *redisSessionRepository) FindByID(ctx context.Context, id string) (*gameplay.Session, error) {
	ctx, span := tracer.Start(ctx, "SessionRepository.FindByID", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read session")
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}
	return decodeSession(id, data)
}

// Update applies fn inside a WATCH transaction, retrying when another
// writer got there first.
func (r *redisSessionRepository) Update(ctx context.Context, id string, fn func(*gameplay.Session) error) (*gameplay.Session, error) {
	ctx, span := tracer.Start(ctx, "SessionRepository.Update", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	key := sessionKey(id)
	for attempt := range maxUpdateAttempts {
		var updated *gameplay.Session
		txf := func(tx *redis.Tx) error {
			data, err := tx.HGetAll(ctx, key).Result()
			if err != nil {
				return err
			}
			s, err := decodeSession(id, data)
			if err != nil {
				return err
			}
			if err := fn(s); err != nil {
				return err
			}

			s.UpdatedAt = r.now().UTC()
			fields, err := encodeSession(s)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, fields)
				pipe.Expire(ctx, key, r.ttl)
				return nil
			})
			if err != nil {
				return err
			}
			updated = s
			return nil
		}

		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			span.AddEvent("session.update.retry", trace.WithAttributes(attribute.Int("attempt", attempt)))
			continue
		}
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		return updated, nil
	}

	span.SetStatus(codes.Error, "Too many concurrent writers")
	return nil, ErrConcurrentWrite
}

// Delete removes the session.
func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Delete", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	n, err := r.rdb.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func encodeSession(s *gameplay.Session) (map[string]interface{}, error) {
	stateJSON, err := json.Marshal(s.State)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game state: %w", err)
	}
	return map[string]interface{}{
		FieldState:     stateJSON,
		FieldOwner:     s.OwnerID,
		FieldOwnerName: s.OwnerName,
		FieldUpdatedAt: s.UpdatedAt.Format(time.RFC3339Nano),
	}, nil
}

func decodeSession(id string, data map[string]string) (*gameplay.Session, error) {
	if len(data) == 0 || data[FieldState] == "" {
		return nil, ErrSessionNotFound
	}

	var state gameplay.State
	if err := json.Unmarshal([]byte(data[FieldState]), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, data[FieldUpdatedAt])
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &gameplay.Session{
		ID:        id,
		OwnerID:   data[FieldOwner],
		OwnerName: data[FieldOwnerName],
		State:     state,
		UpdatedAt: updatedAt,
	}, nil
}
