package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrVMNotInstalled is returned when the VM manager binary cannot be found
var ErrVMNotInstalled = errors.New("vm manager not installed")

// VMInfo is the subset of VM manager state used by the connector
type VMInfo struct {
	State string `json:"State"`
}

// Running reports whether the VM is up
func (i VMInfo) Running() bool {
	return i.State == "running"
}

// VMManager controls a lightweight local VM hosting the container engine
type VMManager interface {
	Name() string
	Info(ctx context.Context) (VMInfo, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	// ShellInit returns the endpoint the VM exports for clients
	ShellInit(ctx context.Context) (Endpoint, error)
}

// CommandRunner runs an external command and returns its stdout
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrVMNotInstalled, name)
	}
	return exec.CommandContext(ctx, name, args...).Output()
}

// Boot2Docker drives the boot2docker CLI
type Boot2Docker struct {
	Binary string
	Run    CommandRunner
}

// NewBoot2Docker creates a VM manager for the given binary (default "boot2docker")
func NewBoot2Docker(binary string) *Boot2Docker {
	if binary == "" {
		binary = "boot2docker"
	}
	return &Boot2Docker{Binary: binary, Run: ExecRunner}
}

// Name returns the binary name
func (b *Boot2Docker) Name() string {
	return b.Binary
}

// Info runs "<binary> info" and decodes its JSON output
func (b *Boot2Docker) Info(ctx context.Context) (VMInfo, error) {
	out, err := b.Run(ctx, b.Binary, "info")
	if err != nil {
		return VMInfo{}, err
	}

	var info VMInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return VMInfo{}, fmt.Errorf("failed to parse %s info: %w", b.Binary, err)
	}
	return info, nil
}

// Start boots the VM
func (b *Boot2Docker) Start(ctx context.Context) error {
	log.Info().Str("vm", b.Binary).Msg("Starting VM")
	if _, err := b.Run(ctx, b.Binary, "start"); err != nil {
		return fmt.Errorf("failed to start %s: %w", b.Binary, err)
	}
	return nil
}

// Stop shuts the VM down
func (b *Boot2Docker) Stop(ctx context.Context) error {
	if _, err := b.Run(ctx, b.Binary, "stop"); err != nil {
		return fmt.Errorf("failed to stop %s: %w", b.Binary, err)
	}
	log.Info().Str("vm", b.Binary).Msg("VM stopped")
	return nil
}

// ShellInit parses the environment printed by "<binary> shellinit"
func (b *Boot2Docker) ShellInit(ctx context.Context) (Endpoint, error) {
	out, err := b.Run(ctx, b.Binary, "shellinit")
	if err != nil {
		return Endpoint{}, fmt.Errorf("failed to read %s environment: %w", b.Binary, err)
	}
	ep := ParseShellInit(string(out))
	if ep.Host == "" {
		log.Debug().Str("vm", b.Binary).Str("output", string(out)).Msg("No DOCKER_HOST in shellinit output")
	}
	return ep, nil
}

// ParseShellInit extracts DOCKER_HOST, DOCKER_CERT_PATH and DOCKER_TLS_VERIFY from the
// variable assignments of a shellinit script. The sh/bash (export K=v), fish
// (set -x K v), cmd (SET K=v) and PowerShell ($Env:K = "v") forms are understood, and
// quoted values may contain spaces.
func ParseShellInit(out string) Endpoint {
	var ep Endpoint
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := shellAssignment(line)
		if !ok {
			continue
		}
		switch key {
		case "DOCKER_HOST":
			ep.Host = value
		case "DOCKER_CERT_PATH":
			ep.CertPath = value
		case "DOCKER_TLS_VERIFY":
			ep.TLSVerify = value != "" && value != "0"
		}
	}
	return ep
}

// shellAssignment splits one script line into a variable name and its unquoted value
func shellAssignment(line string) (string, string, bool) {
	line = strings.TrimSuffix(strings.TrimSpace(line), ";")

	var key, value string
	switch {
	case strings.HasPrefix(line, "set -gx "), strings.HasPrefix(line, "set -x "):
		fields := strings.SplitN(line, " ", 3)
		if len(fields) < 3 {
			return "", "", false
		}
		key, value, _ = strings.Cut(strings.TrimSpace(fields[2]), " ")
	default:
		for _, prefix := range []string{"export ", "SET ", "set ", "$Env:", "$env:"} {
			if strings.HasPrefix(line, prefix) {
				line = strings.TrimPrefix(line, prefix)
				break
			}
		}
		var ok bool
		key, value, ok = strings.Cut(line, "=")
		if !ok {
			return "", "", false
		}
	}

	key = strings.TrimSpace(key)
	value = strings.Trim(strings.TrimSpace(value), `"'`)
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, value, true
}
