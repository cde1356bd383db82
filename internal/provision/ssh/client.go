// Package ssh provides the remote command-execution channel to the Windows
// host. It is the only external boundary of the provisioner.
package ssh

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/JDW-ehb/LINKSPHERE/internal/provision/config"
	apperrors "github.com/JDW-ehb/LINKSPHERE/pkg/errors"
	applogger "github.com/JDW-ehb/LINKSPHERE/pkg/logger"
)

// Runner defines the interface for executing commands on the remote host.
type Runner interface {
	RunCommand(ctx context.Context, command string) (string, error)
	Close() error
}

// client implements Runner using golang.org/x/crypto/ssh. A single TCP
// connection is established lazily and reused; each command runs in its own
// session. Commands are executed exactly once; a failure surfaces
// immediately to the caller.
type client struct {
	config *ssh.ClientConfig
	host   string
	addr   string
	conn   *ssh.Client
	logger *applogger.Logger
}

// NewClient creates a new SSH client for the configured host.
func NewClient(cfg config.SSHConfig, logger *applogger.Logger) (Runner, error) {
	auth, err := authMethods(cfg)
	if err != nil {
		return nil, err
	}

	sshConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // TODO: verify against a known_hosts file
		Timeout:         30 * time.Second,
	}

	return &client{
		config: sshConfig,
		host:   cfg.Host,
		addr:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		logger: logger.WithComponent("ssh.client").With(slog.String("host", cfg.Host)),
	}, nil
}

// authMethods builds the SSH auth methods from the configured credentials.
func authMethods(cfg config.SSHConfig) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if cfg.KeyPath != "" {
		keyBytes, err := os.ReadFile(cfg.KeyPath)
		if err != nil {
			return nil, apperrors.NewConfigError("ssh.key_path", "failed to read private key file", err)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, apperrors.NewConfigError("ssh.key_path", "failed to parse private key", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if cfg.Password != "" {
		methods = append(methods, ssh.Password(cfg.Password))
	}

	if len(methods) == 0 {
		return nil, apperrors.NewConfigError("ssh", "no authentication method configured", nil)
	}

	return methods, nil
}

// RunCommand executes a command on the remote host and returns its combined
// output, trimmed. The context cancels an in-flight command.
func (c *client) RunCommand(ctx context.Context, command string) (string, error) {
	op := c.logger.StartOp(ctx, "run_command")

	if c.conn == nil {
		if err := c.connect(); err != nil {
			op.Fail(err, "connection failed")
			return "", err
		}
	}

	session, err := c.conn.NewSession()
	if err != nil {
		err = apperrors.NewRemoteError(c.host, command, "", fmt.Errorf("failed to create session: %w", err))
		op.Fail(err, "session creation failed")
		return "", err
	}
	defer session.Close()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			session.Signal(ssh.SIGKILL)
		case <-done:
		}
	}()

	output, err := session.CombinedOutput(command)
	close(done)

	if ctxErr := ctx.Err(); ctxErr != nil {
		op.Fail(ctxErr, "command cancelled")
		return "", ctxErr
	}

	if err != nil {
		err = apperrors.NewRemoteError(c.host, command, strings.TrimSpace(string(output)), err)
		op.Fail(err, "command execution failed")
		return strings.TrimSpace(string(output)), err
	}

	op.Complete("command executed")
	return strings.TrimSpace(string(output)), nil
}

// connect establishes the SSH connection.
func (c *client) connect() error {
	conn, err := ssh.Dial("tcp", c.addr, c.config)
	if err != nil {
		return apperrors.NewRemoteError(c.host, "", "", fmt.Errorf("failed to connect: %w", err))
	}
	c.conn = conn
	c.logger.Debug("ssh connection established", slog.String("addr", c.addr))
	return nil
}

// Close closes the SSH connection.
func (c *client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		c.logger.Warn("error closing ssh connection", slog.String("error", err.Error()))
	}
	return err
}
