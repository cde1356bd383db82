package provision

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"
)

// Remote paths and names derived from the configuration. WireGuard for
// Windows registers one service per tunnel, named WireGuardTunnel$<name>.

func (p *Provisioner) clientExePath() string {
	return p.cfg.Remote.InstallDir + `\wireguard.exe`
}

func (p *Provisioner) wgExePath() string {
	return p.cfg.Remote.InstallDir + `\wg.exe`
}

func (p *Provisioner) tunnelConfPath() string {
	return p.cfg.Remote.ConfigDir + `\` + p.cfg.Client.Tunnel + `.conf`
}

func (p *Provisioner) serviceName() string {
	return `WireGuardTunnel$` + p.cfg.Client.Tunnel
}

// powerShell wraps a script for execution over SSH. Windows OpenSSH hands
// the command line to cmd.exe, so the script travels as -EncodedCommand to
// sidestep cmd quoting entirely.
func powerShell(script string) string {
	return "powershell.exe -NoProfile -NonInteractive -EncodedCommand " + encodePowerShell(script)
}

// encodePowerShell encodes a script as UTF-16LE base64, the -EncodedCommand
// contract.
func encodePowerShell(script string) string {
	runes := utf16.Encode([]rune(script))
	buf := make([]byte, 2*len(runes))
	for i, r := range runes {
		binary.LittleEndian.PutUint16(buf[i*2:], r)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// decodePowerShell reverses encodePowerShell. Used by tests to inspect the
// scripts a fake runner receives.
func decodePowerShell(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(raw)%2 != 0 {
		return "", fmt.Errorf("odd UTF-16 byte length: %d", len(raw))
	}
	runes := make([]uint16, len(raw)/2)
	for i := range runes {
		runes[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}
	return string(utf16.Decode(runes)), nil
}

// psQuote single-quotes a string for PowerShell. Single-quoted strings are
// literal; embedded quotes are doubled.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// checkInstalledScript reports whether the tunnel client binary exists.
// Output: "installed" or "missing".
func (p *Provisioner) checkInstalledScript() string {
	return fmt.Sprintf(
		"if (Test-Path -LiteralPath %s) { 'installed' } else { 'missing' }",
		psQuote(p.clientExePath()),
	)
}

// installScript downloads the MSI to %TEMP% and runs msiexec silently, then
// confirms the binary landed. Output: "installed" on success.
func (p *Provisioner) installScript() string {
	var b strings.Builder
	b.WriteString("$ErrorActionPreference = 'Stop'\n")
	b.WriteString("$msi = Join-Path $env:TEMP 'wireguard-installer.msi'\n")
	fmt.Fprintf(&b, "Invoke-WebRequest -UseBasicParsing -Uri %s -OutFile $msi\n", psQuote(p.cfg.Remote.InstallerURL))
	b.WriteString("$proc = Start-Process msiexec.exe -ArgumentList '/i', ('\"{0}\"' -f $msi), '/qn', 'DO_NOT_LAUNCH=1' -Wait -PassThru\n")
	b.WriteString("if ($proc.ExitCode -ne 0) { throw \"msiexec exited with $($proc.ExitCode)\" }\n")
	fmt.Fprintf(&b, "if (-not (Test-Path -LiteralPath %s)) { throw 'wireguard.exe missing after install' }\n", psQuote(p.clientExePath()))
	b.WriteString("'installed'")
	return b.String()
}

// writeConfigScript creates the config directory, writes the tunnel file
// from base64 and echoes its SHA256 so the caller can verify the transfer.
func (p *Provisioner) writeConfigScript(contentB64 string) string {
	var b strings.Builder
	b.WriteString("$ErrorActionPreference = 'Stop'\n")
	fmt.Fprintf(&b, "New-Item -ItemType Directory -Force -Path %s | Out-Null\n", psQuote(p.cfg.Remote.ConfigDir))
	fmt.Fprintf(&b, "$bytes = [System.Convert]::FromBase64String(%s)\n", psQuote(contentB64))
	fmt.Fprintf(&b, "[System.IO.File]::WriteAllBytes(%s, $bytes)\n", psQuote(p.tunnelConfPath()))
	fmt.Fprintf(&b, "(Get-FileHash -LiteralPath %s -Algorithm SHA256).Hash", psQuote(p.tunnelConfPath()))
	return b.String()
}

// startServiceScript installs the tunnel service, replacing an existing one
// so re-provisioning the same tunnel is idempotent. Output: "started".
func (p *Provisioner) startServiceScript() string {
	var b strings.Builder
	b.WriteString("$ErrorActionPreference = 'Stop'\n")
	fmt.Fprintf(&b, "$svc = Get-Service -Name %s -ErrorAction SilentlyContinue\n", psQuote(p.serviceName()))
	fmt.Fprintf(&b, "if ($svc) { & %s /uninstalltunnelservice %s | Out-Null; Start-Sleep -Seconds 2 }\n",
		psQuote(p.clientExePath()), psQuote(p.cfg.Client.Tunnel))
	fmt.Fprintf(&b, "& %s /installtunnelservice %s\n", psQuote(p.clientExePath()), psQuote(p.tunnelConfPath()))
	b.WriteString("if ($LASTEXITCODE -ne 0) { throw \"installtunnelservice exited with $LASTEXITCODE\" }\n")
	b.WriteString("'started'")
	return b.String()
}

// verifyScript checks the tunnel service is Running and dumps the live
// tunnel state; the caller asserts the server public key appears in it.
func (p *Provisioner) verifyScript() string {
	var b strings.Builder
	b.WriteString("$ErrorActionPreference = 'Stop'\n")
	fmt.Fprintf(&b, "$svc = Get-Service -Name %s\n", psQuote(p.serviceName()))
	b.WriteString("if ($svc.Status -ne 'Running') { throw \"service status is $($svc.Status)\" }\n")
	fmt.Fprintf(&b, "& %s show %s", psQuote(p.wgExePath()), psQuote(p.cfg.Client.Tunnel))
	return b.String()
}

// deprovisionScript removes the tunnel service and its config file.
// Output: "removed".
func (p *Provisioner) deprovisionScript() string {
	var b strings.Builder
	b.WriteString("$ErrorActionPreference = 'Stop'\n")
	fmt.Fprintf(&b, "$svc = Get-Service -Name %s -ErrorAction SilentlyContinue\n", psQuote(p.serviceName()))
	fmt.Fprintf(&b, "if ($svc) { & %s /uninstalltunnelservice %s | Out-Null; Start-Sleep -Seconds 2 }\n",
		psQuote(p.clientExePath()), psQuote(p.cfg.Client.Tunnel))
	fmt.Fprintf(&b, "if (Test-Path -LiteralPath %s) { Remove-Item -LiteralPath %s -Force }\n",
		psQuote(p.tunnelConfPath()), psQuote(p.tunnelConfPath()))
	b.WriteString("'removed'")
	return b.String()
}

// statusScript reports install state and service status in a single line:
// "installed=True;service=Running".
func (p *Provisioner) statusScript() string {
	var b strings.Builder
	fmt.Fprintf(&b, "$installed = Test-Path -LiteralPath %s\n", psQuote(p.clientExePath()))
	fmt.Fprintf(&b, "$svc = Get-Service -Name %s -ErrorAction SilentlyContinue\n", psQuote(p.serviceName()))
	b.WriteString("$status = if ($svc) { $svc.Status } else { 'NotInstalled' }\n")
	b.WriteString("\"installed=$installed;service=$status\"")
	return b.String()
}

// tunnelShowScript dumps the live tunnel state.
func (p *Provisioner) tunnelShowScript() string {
	return fmt.Sprintf("& %s show %s", psQuote(p.wgExePath()), psQuote(p.cfg.Client.Tunnel))
}
