package events

import (
	"fmt"
	"io"
	"time"
)

// ConsoleReporter prints provisioning progress to a writer, one line per
// step. It is subscribed by the CLI so the procedure itself stays quiet.
type ConsoleReporter struct {
	out   io.Writer
	total int
	index map[string]int
}

// NewConsoleReporter creates a reporter and subscribes it to the bus.
func NewConsoleReporter(out io.Writer, bus *Bus) *ConsoleReporter {
	index := make(map[string]int, len(Steps))
	for i, step := range Steps {
		index[step] = i + 1
	}

	r := &ConsoleReporter{
		out:   out,
		total: len(Steps),
		index: index,
	}

	bus.Subscribe(EventStepStarted, r.onStepStarted)
	bus.Subscribe(EventStepCompleted, r.onStepCompleted)
	bus.Subscribe(EventRunCompleted, r.onRunCompleted)
	bus.Subscribe(EventRunFailed, r.onRunFailed)

	return r
}

func (r *ConsoleReporter) onStepStarted(payload any) {
	e, ok := payload.(StepStartedEvent)
	if !ok {
		return
	}
	fmt.Fprintf(r.out, "[%d/%d] %s\n", r.index[e.Step], r.total, e.Message)
}

func (r *ConsoleReporter) onStepCompleted(payload any) {
	e, ok := payload.(StepCompletedEvent)
	if !ok {
		return
	}
	if e.Skipped {
		fmt.Fprintf(r.out, "      skipped\n")
		return
	}
	fmt.Fprintf(r.out, "      done (%s)\n", e.Duration.Round(roundTo(e.Duration)))
}

func (r *ConsoleReporter) onRunCompleted(payload any) {
	e, ok := payload.(RunCompletedEvent)
	if !ok {
		return
	}
	fmt.Fprintf(r.out, "\nTunnel %q is up on %s (took %s)\n", e.Tunnel, e.Host, e.Duration.Round(roundTo(e.Duration)))
}

// roundTo picks a display granularity so short steps keep precision.
func roundTo(d time.Duration) time.Duration {
	if d > time.Second {
		return 100 * time.Millisecond
	}
	return time.Millisecond
}

func (r *ConsoleReporter) onRunFailed(payload any) {
	e, ok := payload.(RunFailedEvent)
	if !ok {
		return
	}
	fmt.Fprintf(r.out, "\nProvisioning failed at step %q: %s\n", e.Step, e.Error)
}
