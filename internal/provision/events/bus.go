package events

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gookit/event"
)

// Bus wraps the gookit event manager for provisioning events.
type Bus struct {
	manager *event.Manager
	logger  *slog.Logger
}

// NewBus creates a new event bus for provisioning events.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		manager: event.NewManager("linksphere"),
		logger:  logger,
	}
}

// PublishStepStarted publishes a step started event.
func (b *Bus) PublishStepStarted(runID, host, step, message string) error {
	payload := StepStartedEvent{
		RunID:     runID,
		Host:      host,
		Step:      step,
		Message:   message,
		Timestamp: time.Now(),
	}

	b.logger.Debug("publishing step started event",
		slog.String("run_id", runID),
		slog.String("step", step))

	return b.fire(EventStepStarted, payload)
}

// PublishStepCompleted publishes a step completed event.
func (b *Bus) PublishStepCompleted(runID, host, step string, skipped bool, duration time.Duration) error {
	payload := StepCompletedEvent{
		RunID:     runID,
		Host:      host,
		Step:      step,
		Skipped:   skipped,
		Duration:  duration,
		Timestamp: time.Now(),
	}

	b.logger.Debug("publishing step completed event",
		slog.String("run_id", runID),
		slog.String("step", step),
		slog.Bool("skipped", skipped),
		slog.Duration("duration", duration))

	return b.fire(EventStepCompleted, payload)
}

// PublishRunCompleted publishes a run completed event.
func (b *Bus) PublishRunCompleted(runID, host, tunnel string, duration time.Duration) error {
	payload := RunCompletedEvent{
		RunID:     runID,
		Host:      host,
		Tunnel:    tunnel,
		Duration:  duration,
		Timestamp: time.Now(),
	}

	b.logger.Info("publishing run completed event",
		slog.String("run_id", runID),
		slog.String("host", host),
		slog.Duration("duration", duration))

	return b.fire(EventRunCompleted, payload)
}

// PublishRunFailed publishes a run failed event.
func (b *Bus) PublishRunFailed(runID, host, step, errorMsg string) error {
	payload := RunFailedEvent{
		RunID:     runID,
		Host:      host,
		Step:      step,
		Error:     errorMsg,
		Timestamp: time.Now(),
	}

	b.logger.Debug("publishing run failed event",
		slog.String("run_id", runID),
		slog.String("step", step),
		slog.String("error", errorMsg))

	return b.fire(EventRunFailed, payload)
}

func (b *Bus) fire(eventType string, payload any) error {
	err, _ := b.manager.Fire(eventType, event.M{"payload": payload})
	if err != nil {
		b.logger.Error("failed to publish event",
			slog.String("type", eventType),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// Subscribe registers a handler for events of a specific type. The handler
// receives the raw payload published with the event.
func (b *Bus) Subscribe(eventType string, handler func(payload any)) {
	b.manager.On(eventType, event.ListenerFunc(func(e event.Event) error {
		handler(e.Get("payload"))
		return nil
	}))
}

// Close shuts down the event bus and drops all listeners.
func (b *Bus) Close() error {
	b.manager.Clear()
	return nil
}
