package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Pub/Sub channel constants
const (
	EventsChannel = "channel:events"
)

// Event types
const (
	TypeGameCreated  = "game_created"
	TypeMoveApplied  = "move_applied"
	TypeGameFinished = "game_finished"
)

// Event represents a global message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// GameCreatedPayload is the payload for the "game_created" event.
type GameCreatedPayload struct {
	GameID     string `json:"game_id"`
	PlayerID   string `json:"player_id"`
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty"`
}

// MoveAppliedPayload is the payload for the "move_applied" event.
type MoveAppliedPayload struct {
	GameID string `json:"game_id"`
	Mark   string `json:"mark"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	ByBot  bool   `json:"by_bot"`
}

// GameFinishedPayload is the payload for the "game_finished" event.
type GameFinishedPayload struct {
	GameID string `json:"game_id"`
	Result string `json:"result"`
	Winner string `json:"winner,omitempty"`
}

// New wraps payload into an Event of the given type.
func New(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: raw}, nil
}

//go:generate mockgen -source=events.go -destination=mocks/publisher_mock.go -package=mocks

// Publisher delivers events to whoever listens on the events channel.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type redisPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisPublisher publishes events on EventsChannel.
func NewRedisPublisher(rdb *redis.Client) Publisher {
	return &redisPublisher{rdb: rdb, channel: EventsChannel}
}

func (p *redisPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

type nopPublisher struct{}

// NopPublisher drops every event.
func NopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, Event) error { return nil }
