package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShellInit(t *testing.T) {
	out := `Writing /Users/dev/.boot2docker/certs/boot2docker-vm/ca.pem
    export DOCKER_CERT_PATH=/Users/dev/.boot2docker/certs/boot2docker-vm
    export DOCKER_TLS_VERIFY=1
    export DOCKER_HOST=tcp://192.168.59.103:2376
`
	ep := ParseShellInit(out)
	assert.Equal(t, "tcp://192.168.59.103:2376", ep.Host)
	assert.Equal(t, "/Users/dev/.boot2docker/certs/boot2docker-vm", ep.CertPath)
	assert.True(t, ep.TLSVerify)
}

func TestParseShellInitForms(t *testing.T) {
	tests := map[string]string{
		"fish": `set -x DOCKER_HOST tcp://192.168.59.103:2376;
set -x DOCKER_CERT_PATH "/Users/dev/My Certs/boot2docker-vm";
set -x DOCKER_TLS_VERIFY 1;`,
		"bash quoted": `export DOCKER_HOST="tcp://192.168.59.103:2376"
export DOCKER_CERT_PATH="/Users/dev/My Certs/boot2docker-vm"
export DOCKER_TLS_VERIFY=1`,
		"cmd": `SET DOCKER_HOST=tcp://192.168.59.103:2376
SET DOCKER_CERT_PATH=/Users/dev/My Certs/boot2docker-vm
SET DOCKER_TLS_VERIFY=1`,
		"powershell": `$Env:DOCKER_HOST = "tcp://192.168.59.103:2376"
$Env:DOCKER_CERT_PATH = "/Users/dev/My Certs/boot2docker-vm"
$Env:DOCKER_TLS_VERIFY = "1"`,
	}
	for name, out := range tests {
		ep := ParseShellInit(out)
		assert.Equal(t, "tcp://192.168.59.103:2376", ep.Host, name)
		assert.Equal(t, "/Users/dev/My Certs/boot2docker-vm", ep.CertPath, name)
		assert.True(t, ep.TLSVerify, name)
	}
}

func TestParseShellInitIgnoresOtherLines(t *testing.T) {
	ep := ParseShellInit("Writing /tmp/ca.pem\n# comment\nexport OTHER_DOCKER_HOST=nope\n")
	assert.True(t, ep.IsZero())
	assert.Empty(t, ep.CertPath)
	assert.False(t, ep.TLSVerify)
}

func TestBoot2DockerCommands(t *testing.T) {
	var calls []string
	b := NewBoot2Docker("")
	b.Run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, name+" "+strings.Join(args, " "))
		switch args[0] {
		case "info":
			return []byte(`{"Name":"boot2docker-vm","State":"saved"}`), nil
		case "shellinit":
			return []byte("export DOCKER_HOST=tcp://192.168.59.103:2375"), nil
		}
		return nil, nil
	}

	ctx := context.Background()
	info, err := b.Info(ctx)
	require.NoError(t, err)
	assert.False(t, info.Running())

	require.NoError(t, b.Start(ctx))
	ep, err := b.ShellInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tcp://192.168.59.103:2375", ep.Host)
	require.NoError(t, b.Stop(ctx))

	assert.Equal(t, []string{
		"boot2docker info",
		"boot2docker start",
		"boot2docker shellinit",
		"boot2docker stop",
	}, calls)
}

func TestBoot2DockerInfoBadJSON(t *testing.T) {
	b := NewBoot2Docker("b2d")
	b.Run = func(context.Context, string, ...string) ([]byte, error) {
		return []byte("not json"), nil
	}
	_, err := b.Info(context.Background())
	assert.Error(t, err)
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, err := ExecRunner(context.Background(), "definitely-not-a-vm-manager-binary")
	assert.True(t, errors.Is(err, ErrVMNotInstalled))
}
