// Package events defines the provisioning event types and the bus they are
// published on. The CLI subscribes a console reporter to show step progress.
package events

import "time"

// Event type constants
const (
	EventStepStarted   = "provision.step.started"
	EventStepCompleted = "provision.step.completed"
	EventRunCompleted  = "provision.run.completed"
	EventRunFailed     = "provision.run.failed"
)

// Step constants match the steps of the provisioning procedure, in order.
const (
	StepCheckInstalled = "check_installed"
	StepInstall        = "install"
	StepWriteConfig    = "write_config"
	StepStartService   = "start_service"
	StepVerify         = "verify"
)

// Steps lists the procedure steps in execution order.
var Steps = []string{
	StepCheckInstalled,
	StepInstall,
	StepWriteConfig,
	StepStartService,
	StepVerify,
}

// StepStartedEvent is published when a provisioning step begins.
type StepStartedEvent struct {
	RunID     string    `json:"run_id"`
	Host      string    `json:"host"`
	Step      string    `json:"step"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// StepCompletedEvent is published when a provisioning step finishes.
type StepCompletedEvent struct {
	RunID     string        `json:"run_id"`
	Host      string        `json:"host"`
	Step      string        `json:"step"`
	Skipped   bool          `json:"skipped,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// RunCompletedEvent is published when the whole run succeeds.
type RunCompletedEvent struct {
	RunID     string        `json:"run_id"`
	Host      string        `json:"host"`
	Tunnel    string        `json:"tunnel"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// RunFailedEvent is published when a step fails and the run aborts.
type RunFailedEvent struct {
	RunID     string    `json:"run_id"`
	Host      string    `json:"host"`
	Step      string    `json:"step"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}
