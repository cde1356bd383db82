// Package provision implements the provisioning procedure: check the tunnel
// client on the Windows host, install it if absent, write the tunnel
// configuration, install/start the tunnel service and verify it is up.
//
// The procedure is strictly sequential. Every step is one remote command
// with a pass/fail check; the first failure aborts the run. Nothing is
// retried.
package provision

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JDW-ehb/LINKSPHERE/internal/provision/config"
	"github.com/JDW-ehb/LINKSPHERE/internal/provision/events"
	"github.com/JDW-ehb/LINKSPHERE/internal/provision/history"
	"github.com/JDW-ehb/LINKSPHERE/internal/provision/ssh"
	"github.com/JDW-ehb/LINKSPHERE/internal/provision/wireguard"
	apperrors "github.com/JDW-ehb/LINKSPHERE/pkg/errors"
	applogger "github.com/JDW-ehb/LINKSPHERE/pkg/logger"
	"github.com/JDW-ehb/LINKSPHERE/pkg/wgkey"
)

// Provisioner drives the provisioning procedure against one host.
type Provisioner struct {
	runner ssh.Runner
	cfg    *config.Config
	logger *applogger.Logger
	bus    *events.Bus
	store  history.Store // nil when history is disabled
}

// Result summarizes a completed (or aborted) run.
type Result struct {
	RunID            string
	AlreadyInstalled bool
	ClientPublicKey  string
	Duration         time.Duration
}

// New creates a Provisioner. store may be nil to disable run history.
func New(runner ssh.Runner, cfg *config.Config, logger *applogger.Logger, bus *events.Bus, store history.Store) *Provisioner {
	return &Provisioner{
		runner: runner,
		cfg:    cfg,
		logger: logger.WithComponent("provisioner"),
		bus:    bus,
		store:  store,
	}
}

// Run executes the full procedure. It returns the first error encountered;
// the partial Result is valid either way.
func (p *Provisioner) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	started := time.Now()
	res := &Result{RunID: runID}

	p.logger.InfoContext(ctx, "starting provisioning run",
		slog.String("run_id", runID),
		slog.String("host", p.cfg.SSH.Host),
		slog.String("tunnel", p.cfg.Client.Tunnel))

	err := p.runSteps(ctx, runID, res)
	res.Duration = time.Since(started)

	if err != nil {
		step := failedStep(err)
		p.bus.PublishRunFailed(runID, p.cfg.SSH.Host, step, err.Error())
		p.record(ctx, runID, history.OutcomeFailed, step, err.Error(), started, res.Duration)
		return res, err
	}

	p.bus.PublishRunCompleted(runID, p.cfg.SSH.Host, p.cfg.Client.Tunnel, res.Duration)
	p.record(ctx, runID, history.OutcomeSucceeded, "", "", started, res.Duration)
	return res, nil
}

// runSteps performs the five steps in order, publishing progress events.
func (p *Provisioner) runSteps(ctx context.Context, runID string, res *Result) error {
	// Step 1: check install state
	installed, err := p.stepCheckInstalled(ctx, runID)
	if err != nil {
		return err
	}
	res.AlreadyInstalled = installed

	// Step 2: install if needed
	if err := p.stepInstall(ctx, runID, installed); err != nil {
		return err
	}

	// Step 3: write tunnel configuration
	clientPub, err := p.stepWriteConfig(ctx, runID)
	if err != nil {
		return err
	}
	res.ClientPublicKey = clientPub

	// Step 4: install/start tunnel service
	if err := p.stepStartService(ctx, runID); err != nil {
		return err
	}

	// Step 5: verify the tunnel
	return p.stepVerify(ctx, runID)
}

func (p *Provisioner) stepCheckInstalled(ctx context.Context, runID string) (bool, error) {
	stepStart := p.startStep(ctx, runID, events.StepCheckInstalled, "checking tunnel client")

	output, err := p.runner.RunCommand(ctx, powerShell(p.checkInstalledScript()))
	if err != nil {
		return false, p.failStep(events.StepCheckInstalled, "failed to query install state", err)
	}

	installed := strings.Contains(output, "installed")
	p.completeStep(ctx, runID, events.StepCheckInstalled, false, stepStart,
		slog.Bool("installed", installed))
	return installed, nil
}

func (p *Provisioner) stepInstall(ctx context.Context, runID string, installed bool) error {
	stepStart := p.startStep(ctx, runID, events.StepInstall, "installing tunnel client")

	if installed {
		p.bus.PublishStepCompleted(runID, p.cfg.SSH.Host, events.StepInstall, true, time.Since(stepStart))
		p.logger.InfoContext(ctx, "tunnel client already installed, skipping install")
		return nil
	}

	output, err := p.runner.RunCommand(ctx, powerShell(p.installScript()))
	if err != nil {
		return p.failStep(events.StepInstall, "installer failed", err)
	}
	if !strings.Contains(output, "installed") {
		return p.failStep(events.StepInstall, "unexpected installer output",
			fmt.Errorf("%w: %s", apperrors.ErrNotInstalled, output))
	}

	p.completeStep(ctx, runID, events.StepInstall, false, stepStart)
	return nil
}

func (p *Provisioner) stepWriteConfig(ctx context.Context, runID string) (string, error) {
	stepStart := p.startStep(ctx, runID, events.StepWriteConfig, "writing tunnel configuration")

	client, clientPub, err := p.resolveClientKeys(ctx)
	if err != nil {
		return "", p.failStep(events.StepWriteConfig, "failed to resolve client keys", err)
	}

	content, err := wireguard.GenerateConfig(client, p.cfg.Server)
	if err != nil {
		return "", p.failStep(events.StepWriteConfig, "failed to render tunnel config", err)
	}
	if err := wireguard.ValidateConfig(content); err != nil {
		return "", p.failStep(events.StepWriteConfig, "rendered tunnel config is invalid", err)
	}

	contentB64 := base64.StdEncoding.EncodeToString([]byte(content))
	output, err := p.runner.RunCommand(ctx, powerShell(p.writeConfigScript(contentB64)))
	if err != nil {
		return "", p.failStep(events.StepWriteConfig, "failed to write config on host", err)
	}

	// The script echoes the remote file's SHA256; compare against ours.
	sum := sha256.Sum256([]byte(content))
	want := hex.EncodeToString(sum[:])
	if !strings.EqualFold(strings.TrimSpace(output), want) {
		return "", p.failStep(events.StepWriteConfig, "config readback mismatch",
			fmt.Errorf("remote hash %q does not match %q", strings.TrimSpace(output), want))
	}

	p.completeStep(ctx, runID, events.StepWriteConfig, false, stepStart)
	return clientPub, nil
}

func (p *Provisioner) stepStartService(ctx context.Context, runID string) error {
	stepStart := p.startStep(ctx, runID, events.StepStartService, "starting tunnel service")

	output, err := p.runner.RunCommand(ctx, powerShell(p.startServiceScript()))
	if err != nil {
		return p.failStep(events.StepStartService, "failed to install tunnel service", err)
	}
	if !strings.Contains(output, "started") {
		return p.failStep(events.StepStartService, "unexpected service output",
			fmt.Errorf("%w: %s", apperrors.ErrServiceNotRunning, output))
	}

	p.completeStep(ctx, runID, events.StepStartService, false, stepStart)
	return nil
}

func (p *Provisioner) stepVerify(ctx context.Context, runID string) error {
	stepStart := p.startStep(ctx, runID, events.StepVerify, "verifying tunnel")

	output, err := p.runner.RunCommand(ctx, powerShell(p.verifyScript()))
	if err != nil {
		return p.failStep(events.StepVerify, "tunnel service is not running", err)
	}
	if !strings.Contains(output, p.cfg.Server.PublicKey) {
		return p.failStep(events.StepVerify, "tunnel state does not show the server peer",
			fmt.Errorf("%w: server public key absent from tunnel state", apperrors.ErrVerifyFailed))
	}

	p.completeStep(ctx, runID, events.StepVerify, false, stepStart)
	return nil
}

// resolveClientKeys returns the client config with a usable private key,
// generating a fresh pair when none is configured, plus the public key the
// operator must register on the server.
func (p *Provisioner) resolveClientKeys(ctx context.Context) (config.ClientConfig, string, error) {
	client := p.cfg.Client

	if client.PrivateKey == "" {
		pair, err := wgkey.GenerateKeyPair()
		if err != nil {
			return client, "", err
		}
		client.PrivateKey = pair.PrivateKey
		p.logger.InfoContext(ctx, "generated client key pair; register the public key on the server",
			slog.String("public_key", pair.PublicKey))
		return client, pair.PublicKey, nil
	}

	pub, err := wgkey.DerivePublicKey(client.PrivateKey)
	if err != nil {
		return client, "", err
	}
	return client, pub, nil
}

func (p *Provisioner) startStep(ctx context.Context, runID, step, message string) time.Time {
	p.bus.PublishStepStarted(runID, p.cfg.SSH.Host, step, message)
	p.logger.DebugContext(ctx, "step started", slog.String("step", step))
	return time.Now()
}

func (p *Provisioner) completeStep(ctx context.Context, runID, step string, skipped bool, start time.Time, attrs ...any) {
	p.bus.PublishStepCompleted(runID, p.cfg.SSH.Host, step, skipped, time.Since(start))
	logAttrs := append([]any{slog.String("step", step), slog.Duration("duration", time.Since(start))}, attrs...)
	p.logger.InfoContext(ctx, "step completed", logAttrs...)
}

func (p *Provisioner) failStep(step, message string, err error) *apperrors.StepError {
	return apperrors.NewStepError(step, p.cfg.SSH.Host, message, err)
}

// record writes the run outcome to history when a store is configured.
func (p *Provisioner) record(ctx context.Context, runID, outcome, step, errMsg string, started time.Time, duration time.Duration) {
	if p.store == nil {
		return
	}
	err := p.store.RecordRun(ctx, history.Run{
		ID:         runID,
		Host:       p.cfg.SSH.Host,
		Tunnel:     p.cfg.Client.Tunnel,
		Outcome:    outcome,
		FailedStep: step,
		Error:      errMsg,
		StartedAt:  started,
		Duration:   duration,
	})
	if err != nil {
		p.logger.Warn("failed to record run history", slog.String("error", err.Error()))
	}
}

func failedStep(err error) string {
	var stepErr *apperrors.StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step
	}
	return ""
}
