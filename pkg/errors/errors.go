package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNotInstalled      = errors.New("tunnel client is not installed")
	ErrServiceNotRunning = errors.New("tunnel service is not running")
	ErrVerifyFailed      = errors.New("tunnel verification failed")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// StepError represents a failure of one provisioning step.
// The run terminates on the first StepError; nothing is retried.
type StepError struct {
	Step    string // e.g. "check_installed", "write_config", "verify"
	Host    string
	Message string
	Err     error
}

func (e *StepError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("provision failed at %s (host=%s): %s: %v", e.Step, e.Host, e.Message, e.Err)
	}
	return fmt.Sprintf("provision failed at %s: %s: %v", e.Step, e.Message, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError creates a new step error
func NewStepError(step, host, message string, err error) *StepError {
	return &StepError{
		Step:    step,
		Host:    host,
		Message: message,
		Err:     err,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Field != "" {
		return fmt.Sprintf("config error [%s]: %s", e.Field, msg)
	}
	return fmt.Sprintf("config error: %s", msg)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new config error
func NewConfigError(field, message string, err error) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// RemoteError represents a failed remote command execution
type RemoteError struct {
	Host    string
	Command string
	Output  string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("remote command failed (host=%s): %v: %s", e.Host, e.Err, e.Output)
	}
	return fmt.Sprintf("remote command failed (host=%s): %v", e.Host, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewRemoteError creates a new remote command error
func NewRemoteError(host, command, output string, err error) *RemoteError {
	return &RemoteError{
		Host:    host,
		Command: command,
		Output:  output,
		Err:     err,
	}
}
