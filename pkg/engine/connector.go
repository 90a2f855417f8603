package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api"
	"github.com/docker/docker/api/types/versions"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/tlsconfig"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultSocketHost is the native engine socket
	DefaultSocketHost = "unix:///var/run/docker.sock"

	// DefaultHostAddress is reported for services published by a native engine
	DefaultHostAddress = "127.0.0.1"

	// FallbackAPIVersion is assumed for engines whose ping reports no API version
	FallbackAPIVersion = "1.24"
)

// Endpoint is an explicit engine address; it replaces the DOCKER_* process environment
type Endpoint struct {
	Host      string
	CertPath  string
	TLSVerify bool
}

// IsZero reports whether no host is set
func (ep Endpoint) IsZero() bool {
	return ep.Host == ""
}

// Options returns Docker client options pinned to version. An empty version lets the
// client negotiate one with the engine.
func (ep Endpoint) Options(version string) ([]client.Opt, error) {
	var opts []client.Opt

	// The HTTP client must be set before the host so the transport is configured for it
	if ep.CertPath != "" {
		tlsc, err := tlsconfig.Client(tlsconfig.Options{
			CAFile:             filepath.Join(ep.CertPath, "ca.pem"),
			CertFile:           filepath.Join(ep.CertPath, "cert.pem"),
			KeyFile:            filepath.Join(ep.CertPath, "key.pem"),
			InsecureSkipVerify: !ep.TLSVerify,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS config from %s: %w", ep.CertPath, err)
		}
		opts = append(opts, client.WithHTTPClient(&http.Client{
			Transport:     &http.Transport{TLSClientConfig: tlsc},
			CheckRedirect: client.CheckRedirect,
		}))
	}

	opts = append(opts, client.WithHost(ep.Host))
	if version == "" {
		opts = append(opts, client.WithAPIVersionNegotiation())
	} else {
		opts = append(opts, client.WithVersion(version))
	}
	return opts, nil
}

// Connection is an engine session owned by a single command invocation
type Connection struct {
	*Client

	Endpoint    Endpoint
	APIVersion  string
	HostAddress string

	// ViaVM is set when the endpoint was obtained from the VM manager
	ViaVM bool
}

// VersionProbe returns the API version reported by the engine at ep
type VersionProbe func(ctx context.Context, ep Endpoint) (string, error)

// Connector resolves and authenticates against a local container engine
type Connector struct {
	// VM is the optional local VM manager; nil disables the VM path
	VM VMManager

	// Override is an explicitly configured endpoint tried before the environment
	Override Endpoint

	// LookupEnv reads DOCKER_HOST, DOCKER_CERT_PATH and DOCKER_TLS_VERIFY
	LookupEnv func(string) (string, bool)

	// StopTimeout is passed to container stop requests
	StopTimeout int

	Probe VersionProbe
}

// NewConnector creates a Connector reading the process environment
func NewConnector(vm VMManager) *Connector {
	return &Connector{
		VM:        vm,
		LookupEnv: os.LookupEnv,
		Probe:     ProbeServerVersion,
	}
}

type candidate struct {
	endpoint Endpoint
	viaVM    bool
}

// Connect establishes exactly one engine connection.
// Candidates are tried in order: VM bootstrap, configured override, DOCKER_HOST, native socket.
func (c *Connector) Connect(ctx context.Context) (*Connection, error) {
	probe := c.Probe
	if probe == nil {
		probe = ProbeServerVersion
	}

	candidates, errs := c.candidates(ctx)
	for _, cand := range candidates {
		serverVersion, err := probe(ctx, cand.endpoint)
		if err != nil {
			log.Debug().Err(err).Str("host", cand.endpoint.Host).Msg("Engine endpoint not reachable")
			errs = append(errs, fmt.Errorf("%s: %w", cand.endpoint.Host, err))
			continue
		}

		version := NegotiateVersion(api.DefaultVersion, serverVersion)
		opts, err := cand.endpoint.Options(version)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cli, err := client.NewClientWithOpts(opts...)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to create Docker client: %w", err))
			continue
		}

		conn := &Connection{
			Client:      NewClient(cli, c.StopTimeout),
			Endpoint:    cand.endpoint,
			APIVersion:  version,
			HostAddress: ParseHostAddress(cand.endpoint.Host),
			ViaVM:       cand.viaVM,
		}

		log.Debug().
			Str("host", conn.Endpoint.Host).
			Str("api_version", conn.APIVersion).
			Str("server_api_version", serverVersion).
			Bool("vm", conn.ViaVM).
			Msg("Connected to container engine")

		return conn, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, errors.Join(errs...))
}

// StopVM shuts down the VM manager if one is installed
func (c *Connector) StopVM(ctx context.Context) error {
	if c.VM == nil {
		return nil
	}
	if _, err := c.VM.Info(ctx); err != nil {
		if errors.Is(err, ErrVMNotInstalled) {
			return nil
		}
		return fmt.Errorf("failed to query %s: %w", c.VM.Name(), err)
	}
	return c.VM.Stop(ctx)
}

func (c *Connector) candidates(ctx context.Context) ([]candidate, []error) {
	var (
		out  []candidate
		errs []error
		seen = map[string]bool{}
	)
	add := func(ep Endpoint, viaVM bool) {
		if ep.IsZero() || seen[ep.Host] {
			return
		}
		seen[ep.Host] = true
		out = append(out, candidate{endpoint: ep, viaVM: viaVM})
	}

	if c.VM != nil {
		ep, err := c.bootstrapVM(ctx)
		switch {
		case errors.Is(err, ErrVMNotInstalled):
			log.Debug().Str("vm", c.VM.Name()).Msg("No VM manager found, using native engine")
		case err != nil:
			errs = append(errs, err)
		default:
			add(ep, true)
		}
	}

	add(c.Override, false)
	add(c.envEndpoint(), false)
	add(Endpoint{Host: DefaultSocketHost}, false)

	return out, errs
}

// bootstrapVM starts the VM if needed and returns the endpoint it exports
func (c *Connector) bootstrapVM(ctx context.Context) (Endpoint, error) {
	info, err := c.VM.Info(ctx)
	if err != nil {
		return Endpoint{}, err
	}

	if !info.Running() {
		if err := c.VM.Start(ctx); err != nil {
			return Endpoint{}, err
		}
	}

	if ep, ok := c.completeEnv(); ok {
		return ep, nil
	}
	return c.VM.ShellInit(ctx)
}

// completeEnv returns the environment endpoint only when all three variables are present
func (c *Connector) completeEnv() (Endpoint, bool) {
	lookup := c.lookup()
	host, okHost := lookup("DOCKER_HOST")
	cert, okCert := lookup("DOCKER_CERT_PATH")
	verify, okVerify := lookup("DOCKER_TLS_VERIFY")
	if !okHost || !okCert || !okVerify {
		return Endpoint{}, false
	}
	return Endpoint{Host: host, CertPath: cert, TLSVerify: verify != "" && verify != "0"}, true
}

func (c *Connector) envEndpoint() Endpoint {
	lookup := c.lookup()
	host, _ := lookup("DOCKER_HOST")
	cert, _ := lookup("DOCKER_CERT_PATH")
	verify, _ := lookup("DOCKER_TLS_VERIFY")
	return Endpoint{Host: host, CertPath: cert, TLSVerify: verify != "" && verify != "0"}
}

func (c *Connector) lookup() func(string) (string, bool) {
	if c.LookupEnv != nil {
		return c.LookupEnv
	}
	return os.LookupEnv
}

// ProbeServerVersion pings the engine on the unversioned /_ping endpoint and returns
// the API version it reports. Engines reject requests below their minimum version, so
// no versioned request is made before the version is known.
func ProbeServerVersion(ctx context.Context, ep Endpoint) (string, error) {
	opts, err := ep.Options("")
	if err != nil {
		return "", err
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create Docker client: %w", err)
	}
	defer cli.Close()

	ping, err := cli.Ping(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to ping engine: %w", err)
	}
	if ping.APIVersion == "" {
		return FallbackAPIVersion, nil
	}
	return ping.APIVersion, nil
}

// NegotiateVersion returns the lower of the client's maximum and the server's version
func NegotiateVersion(clientMax, server string) string {
	if server == "" {
		return clientMax
	}
	if versions.LessThan(server, clientMax) {
		return server
	}
	return clientMax
}

// ParseHostAddress derives the address published ports are reachable on from a
// scheme://host:port engine address
func ParseHostAddress(host string) string {
	if host == "" || strings.HasPrefix(host, "unix://") || strings.HasPrefix(host, "npipe://") {
		return DefaultHostAddress
	}

	rest := host
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	addr := strings.Trim(strings.Split(rest, ":")[0], "/")
	if addr == "" {
		return DefaultHostAddress
	}
	return addr
}
