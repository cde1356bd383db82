package provision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/JDW-ehb/LINKSPHERE/pkg/errors"
)

// Status describes the remote tunnel state without mutating anything.
type Status struct {
	ClientInstalled bool
	ServiceState    string // Running, Stopped, NotInstalled, ...
	TunnelState     string // raw `wg show` output when the service is running
}

// Status queries the host for install state, service state and, when the
// service is running, the live tunnel state.
func (p *Provisioner) Status(ctx context.Context) (*Status, error) {
	output, err := p.runner.RunCommand(ctx, powerShell(p.statusScript()))
	if err != nil {
		return nil, fmt.Errorf("failed to query host status: %w", err)
	}

	status, err := parseStatusLine(output)
	if err != nil {
		return nil, err
	}

	if status.ServiceState == "Running" {
		show, err := p.runner.RunCommand(ctx, powerShell(p.tunnelShowScript()))
		if err != nil {
			p.logger.Warn("tunnel service is running but state dump failed",
				slog.String("error", err.Error()))
		} else {
			status.TunnelState = show
		}
	}

	return status, nil
}

// Deprovision removes the tunnel service and configuration from the host.
func (p *Provisioner) Deprovision(ctx context.Context) error {
	p.logger.InfoContext(ctx, "removing tunnel from host",
		slog.String("host", p.cfg.SSH.Host),
		slog.String("tunnel", p.cfg.Client.Tunnel))

	output, err := p.runner.RunCommand(ctx, powerShell(p.deprovisionScript()))
	if err != nil {
		return apperrors.NewStepError("deprovision", p.cfg.SSH.Host, "failed to remove tunnel", err)
	}
	if !strings.Contains(output, "removed") {
		return apperrors.NewStepError("deprovision", p.cfg.SSH.Host, "unexpected output",
			fmt.Errorf("expected removal confirmation, got: %s", output))
	}

	p.logger.InfoContext(ctx, "tunnel removed")
	return nil
}

// parseStatusLine parses "installed=True;service=Running".
func parseStatusLine(line string) (*Status, error) {
	status := &Status{}
	seen := 0

	for _, field := range strings.Split(strings.TrimSpace(line), ";") {
		parts := strings.SplitN(field, "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch strings.TrimSpace(parts[0]) {
		case "installed":
			status.ClientInstalled = strings.EqualFold(strings.TrimSpace(parts[1]), "True")
			seen++
		case "service":
			status.ServiceState = strings.TrimSpace(parts[1])
			seen++
		}
	}

	if seen != 2 {
		return nil, fmt.Errorf("malformed status output: %q", line)
	}
	return status, nil
}
