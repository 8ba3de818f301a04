package tracking

import (
	"context"
	"log/slog"
	"time"
)

// Event is a telemetry event on its way to the sink. Params are free-form;
// the gate stamps ID, Environment, and TrackedAt.
type Event struct {
	ID          string         `json:"id"`
	Name        string         `json:"event"`
	Environment Environment    `json:"environment"`
	Params      map[string]any `json:"params,omitempty"`
	TrackedAt   time.Time      `json:"tracked_at"`
}

// Sink is the telemetry collector behind the gate. Load is called when
// consent opens the gate and must be idempotent; Forward delivers a single
// event. A sink that fails to load or forward degrades tracking, never the
// page.
type Sink interface {
	Load(ctx context.Context) error
	Forward(ctx context.Context, event Event) error
}

// LogSink writes events to the structured log. It is the fallback when no
// Kafka brokers are configured, keeping local development observable.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Load(context.Context) error { return nil }

func (s *LogSink) Forward(_ context.Context, event Event) error {
	s.logger.Info("telemetry event",
		"event_id", event.ID,
		"event", event.Name,
		"environment", string(event.Environment),
		"params", event.Params,
	)
	return nil
}
