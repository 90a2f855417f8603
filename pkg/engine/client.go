package engine

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

// Client wraps the Docker API client and implements Engine
type Client struct {
	cli *client.Client

	// stopTimeout is the grace period in seconds passed to stop; 0 uses the engine default
	stopTimeout int
}

// NewClient wraps an already configured Docker API client
func NewClient(cli *client.Client, stopTimeout int) *Client {
	return &Client{cli: cli, stopTimeout: stopTimeout}
}

// Close closes the Docker client connection
func (c *Client) Close() error {
	if c.cli != nil {
		return c.cli.Close()
	}
	return nil
}

// ImageTags returns the repo tags of every local image
func (c *Client) ImageTags(ctx context.Context) ([]string, error) {
	images, err := c.cli.ImageList(ctx, types.ImageListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", translate(err))
	}

	tags := make([]string, 0, len(images))
	for _, img := range images {
		tags = append(tags, img.RepoTags...)
	}
	return tags, nil
}

// Containers lists containers, including stopped ones when all is set
func (c *Client) Containers(ctx context.Context, all bool) ([]Container, error) {
	list, err := c.cli.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", translate(err))
	}

	out := make([]Container, 0, len(list))
	for _, ctr := range list {
		ports := make([]Port, 0, len(ctr.Ports))
		for _, p := range ctr.Ports {
			ports = append(ports, Port{
				IP:          p.IP,
				PrivatePort: p.PrivatePort,
				PublicPort:  p.PublicPort,
				Type:        p.Type,
			})
		}
		out = append(out, Container{
			ID:     ctr.ID,
			Names:  ctr.Names,
			Image:  ctr.Image,
			State:  ctr.State,
			Status: ctr.Status,
			Ports:  ports,
		})
	}
	return out, nil
}

// PullImage pulls ref and returns the progress stream; the caller must close it
func (c *Client) PullImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	rc, err := c.cli.ImagePull(ctx, ref, types.ImagePullOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to pull image %s: %w", ref, translate(err))
	}
	return rc, nil
}

// CreateContainer creates a container publishing ContainerPort on HostPort with an
// always-restart policy
func (c *Client) CreateContainer(ctx context.Context, req CreateRequest) (string, error) {
	port, err := nat.NewPort("tcp", strconv.Itoa(req.ContainerPort))
	if err != nil {
		return "", fmt.Errorf("invalid container port %d: %w", req.ContainerPort, err)
	}

	config := &container.Config{
		Image:        req.Image,
		Env:          req.Env,
		ExposedPorts: nat.PortSet{port: struct{}{}},
	}
	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{{HostPort: strconv.Itoa(req.HostPort)}},
		},
		RestartPolicy: container.RestartPolicy{Name: "always"},
	}

	var platform *specs.Platform
	if req.Platform != "" {
		p, err := ParsePlatform(req.Platform)
		if err != nil {
			return "", err
		}
		platform = &p
	}

	resp, err := c.cli.ContainerCreate(ctx, config, hostConfig, nil, platform, req.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create container %s: %w", req.Name, translate(err))
	}
	return resp.ID, nil
}

// StartContainer starts a container by name
func (c *Client) StartContainer(ctx context.Context, name string) error {
	if err := c.cli.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %s: %w", name, translate(err))
	}
	return nil
}

// StopContainer stops a container by name
func (c *Client) StopContainer(ctx context.Context, name string) error {
	var options container.StopOptions
	if c.stopTimeout > 0 {
		t := c.stopTimeout
		options.Timeout = &t
	}
	if err := c.cli.ContainerStop(ctx, name, options); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", name, translate(err))
	}
	return nil
}

// RemoveContainer removes a container by name
func (c *Client) RemoveContainer(ctx context.Context, name string) error {
	if err := c.cli.ContainerRemove(ctx, name, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove container %s: %w", name, translate(err))
	}
	return nil
}

// ParsePlatform parses an os/arch[/variant] string
func ParsePlatform(s string) (specs.Platform, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return specs.Platform{}, fmt.Errorf("invalid platform %q: expected os/arch[/variant]", s)
	}

	p := specs.Platform{OS: parts[0], Architecture: parts[1]}
	if len(parts) == 3 {
		p.Variant = parts[2]
	}
	return p, nil
}

// translate maps engine not-found errors onto ErrNotFound
func translate(err error) error {
	if errdefs.IsNotFound(err) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

var _ Engine = (*Client)(nil)
