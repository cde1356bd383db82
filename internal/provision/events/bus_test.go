package events

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBus() *Bus {
	return NewBus(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func TestBus_PublishAndSubscribe(t *testing.T) {
	bus := testBus()
	defer bus.Close()

	var received []StepStartedEvent
	bus.Subscribe(EventStepStarted, func(payload any) {
		if e, ok := payload.(StepStartedEvent); ok {
			received = append(received, e)
		}
	})

	err := bus.PublishStepStarted("run-1", "203.0.113.10", StepInstall, "installing tunnel client")
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, "run-1", received[0].RunID)
	assert.Equal(t, StepInstall, received[0].Step)
	assert.Equal(t, "203.0.113.10", received[0].Host)
	assert.False(t, received[0].Timestamp.IsZero())
}

func TestBus_MultipleEventTypes(t *testing.T) {
	bus := testBus()
	defer bus.Close()

	var completed []StepCompletedEvent
	var failed []RunFailedEvent

	bus.Subscribe(EventStepCompleted, func(payload any) {
		if e, ok := payload.(StepCompletedEvent); ok {
			completed = append(completed, e)
		}
	})
	bus.Subscribe(EventRunFailed, func(payload any) {
		if e, ok := payload.(RunFailedEvent); ok {
			failed = append(failed, e)
		}
	})

	require.NoError(t, bus.PublishStepCompleted("run-1", "h", StepCheckInstalled, true, time.Millisecond))
	require.NoError(t, bus.PublishRunFailed("run-1", "h", StepVerify, "service not running"))

	require.Len(t, completed, 1)
	assert.True(t, completed[0].Skipped)

	require.Len(t, failed, 1)
	assert.Equal(t, StepVerify, failed[0].Step)
	assert.Equal(t, "service not running", failed[0].Error)
}

func TestConsoleReporter_Output(t *testing.T) {
	bus := testBus()
	defer bus.Close()

	var out bytes.Buffer
	NewConsoleReporter(&out, bus)

	require.NoError(t, bus.PublishStepStarted("run-1", "h", StepCheckInstalled, "checking tunnel client"))
	require.NoError(t, bus.PublishStepCompleted("run-1", "h", StepCheckInstalled, false, 120*time.Millisecond))
	require.NoError(t, bus.PublishRunCompleted("run-1", "h", "wg0", 3*time.Second))

	text := out.String()
	assert.Contains(t, text, "[1/5] checking tunnel client")
	assert.Contains(t, text, "done (120ms)")
	assert.Contains(t, text, `Tunnel "wg0" is up on h`)
}

func TestConsoleReporter_Failure(t *testing.T) {
	bus := testBus()
	defer bus.Close()

	var out bytes.Buffer
	NewConsoleReporter(&out, bus)

	require.NoError(t, bus.PublishRunFailed("run-1", "h", StepStartService, "boom"))

	if !strings.Contains(out.String(), `failed at step "start_service": boom`) {
		t.Errorf("unexpected reporter output: %s", out.String())
	}
}
