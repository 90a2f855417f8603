package engine

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	// ErrEngineUnavailable is returned when no container engine endpoint answers
	ErrEngineUnavailable = errors.New("container engine unavailable")

	// ErrNotFound is returned when the engine reports a missing container or image
	ErrNotFound = errors.New("not found")
)

// Engine is the subset of the container engine API the lifecycle code needs
type Engine interface {
	// ImageTags returns every repo tag known to the engine's local image store
	ImageTags(ctx context.Context) ([]string, error)

	// Containers lists containers; all includes stopped ones
	Containers(ctx context.Context, all bool) ([]Container, error)

	// PullImage starts a pull and returns the JSON progress stream
	PullImage(ctx context.Context, ref string) (io.ReadCloser, error)

	// CreateContainer creates a container and returns its ID
	CreateContainer(ctx context.Context, req CreateRequest) (string, error)

	StartContainer(ctx context.Context, name string) error
	StopContainer(ctx context.Context, name string) error
	RemoveContainer(ctx context.Context, name string) error
}

// Container is the engine's list view of a container
type Container struct {
	ID     string
	Names  []string
	Image  string
	State  string
	Status string
	Ports  []Port
}

// Port is a published or exposed container port
type Port struct {
	IP          string
	PrivatePort uint16
	PublicPort  uint16
	Type        string
}

// HasName reports whether the container carries name.
// Docker adds a '/' prefix to container names.
func (c Container) HasName(name string) bool {
	for _, n := range c.Names {
		if n == "/"+name || n == name {
			return true
		}
	}
	return false
}

// PublicPort returns the host port bound to containerPort, or 0 if none is published
func (c Container) PublicPort(containerPort int) uint16 {
	for _, p := range c.Ports {
		if int(p.PrivatePort) == containerPort && p.PublicPort != 0 {
			return p.PublicPort
		}
	}
	return 0
}

// Running reports whether the engine considers the container running
func (c Container) Running() bool {
	return strings.EqualFold(c.State, "running")
}

// CreateRequest describes a container to create
type CreateRequest struct {
	Name  string
	Image string
	Env   []string

	// ContainerPort is published on HostPort (tcp)
	ContainerPort int
	HostPort      int

	// Platform is an optional os/arch[/variant] selector
	Platform string
}
