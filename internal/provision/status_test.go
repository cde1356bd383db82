package provision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/JDW-ehb/LINKSPHERE/pkg/errors"
)

func TestStatus_Running(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{t: t}
	runner.respond = func(script string) (string, error) {
		if strings.Contains(script, "installed=$installed") {
			return "installed=True;service=Running", nil
		}
		return "interface: wg0\npeer: " + cfg.Server.PublicKey, nil
	}
	p, _ := testProvisioner(t, cfg, runner, nil)

	status, err := p.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.ClientInstalled)
	assert.Equal(t, "Running", status.ServiceState)
	assert.Contains(t, status.TunnelState, cfg.Server.PublicKey)
	require.Len(t, runner.scripts, 2)
}

func TestStatus_NotInstalled(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{t: t}
	runner.respond = func(script string) (string, error) {
		return "installed=False;service=NotInstalled", nil
	}
	p, _ := testProvisioner(t, cfg, runner, nil)

	status, err := p.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.ClientInstalled)
	assert.Equal(t, "NotInstalled", status.ServiceState)
	assert.Empty(t, status.TunnelState)

	// no wg show when the service is not running
	require.Len(t, runner.scripts, 1)
}

func TestParseStatusLine(t *testing.T) {
	status, err := parseStatusLine("installed=True;service=Stopped")
	require.NoError(t, err)
	assert.True(t, status.ClientInstalled)
	assert.Equal(t, "Stopped", status.ServiceState)

	_, err = parseStatusLine("garbage")
	assert.Error(t, err)
}

func TestDeprovision(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{t: t}
	runner.respond = func(script string) (string, error) {
		if !strings.Contains(script, "/uninstalltunnelservice") {
			t.Fatalf("unexpected script: %s", script)
		}
		return "removed", nil
	}
	p, _ := testProvisioner(t, cfg, runner, nil)

	require.NoError(t, p.Deprovision(context.Background()))
	require.Len(t, runner.scripts, 1)
}

func TestDeprovision_Failure(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{t: t}
	runner.respond = func(script string) (string, error) {
		return "", errors.New("access denied")
	}
	p, _ := testProvisioner(t, cfg, runner, nil)

	err := p.Deprovision(context.Background())
	require.Error(t, err)

	var stepErr *apperrors.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "deprovision", stepErr.Step)
}
