package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "ctchen222/solo-tictactoe/game"

// Metrics holds the game instruments.
type Metrics struct {
	moves         metric.Int64Counter
	finished      metric.Int64Counter
	hardFallbacks metric.Int64Counter
}

// NewMetrics registers the game instruments on the provider's meter.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)

	moves, err := meter.Int64Counter("game.moves",
		metric.WithDescription("Marks placed on a board"),
		metric.WithUnit("{move}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create moves counter: %w", err)
	}

	finished, err := meter.Int64Counter("game.finished",
		metric.WithDescription("Games that reached a win or a draw"),
		metric.WithUnit("{game}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create finished counter: %w", err)
	}

	hardFallbacks, err := meter.Int64Counter("game.hard_fallbacks",
		metric.WithDescription("Hard turns without an immediate winning cell"),
		metric.WithUnit("{turn}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create hard fallback counter: %w", err)
	}

	return &Metrics{moves: moves, finished: finished, hardFallbacks: hardFallbacks}, nil
}

// RecordMove counts one placed mark. actor is "human" or "computer".
func (m *Metrics) RecordMove(ctx context.Context, actor, mode, difficulty string) {
	m.moves.Add(ctx, 1, metric.WithAttributes(
		attribute.String("actor", actor),
		attribute.String("game.mode", mode),
		attribute.String("game.difficulty", difficulty),
	))
}

// RecordFinished counts a game that ended; result is "won" or "draw".
func (m *Metrics) RecordFinished(ctx context.Context, result, winner, mode string) {
	m.finished.Add(ctx, 1, metric.WithAttributes(
		attribute.String("game.result", result),
		attribute.String("game.winner", winner),
		attribute.String("game.mode", mode),
	))
}

// RecordHardFallback counts a hard turn that found no winning cell.
func (m *Metrics) RecordHardFallback(ctx context.Context, policy string) {
	m.hardFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("policy", policy)))
}
