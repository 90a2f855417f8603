// Package enginetest provides an in-memory engine.Engine for tests.
package enginetest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/rileyhales/tethys/pkg/engine"
)

// Record is the fake's view of one container
type Record struct {
	ID            string
	Name          string
	Image         string
	Env           []string
	ContainerPort int
	HostPort      int
	Platform      string
	Running       bool
}

// Fake is an in-memory container engine
type Fake struct {
	mu     sync.Mutex
	images map[string]bool
	order  []string
	byName map[string]*Record
	nextID int

	// Calls logs every mutating call as "verb:target"
	Calls []string

	// Errors injects a failure for a "verb:target" key, e.g. "start:tethys_wps"
	Errors map[string]error
}

// New creates an empty engine
func New() *Fake {
	return &Fake{
		images: make(map[string]bool),
		byName: make(map[string]*Record),
		Errors: make(map[string]error),
	}
}

// AddImage marks tag as present locally
func (f *Fake) AddImage(tag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[tag] = true
}

// AddContainer installs a container directly, bypassing create
func (f *Fake) AddContainer(name, image string, containerPort, hostPort int, running bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insert(&Record{
		Name:          name,
		Image:         image,
		ContainerPort: containerPort,
		HostPort:      hostPort,
		Running:       running,
	})
}

// Container returns a copy of the named record
func (f *Fake) Container(name string) (Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byName[name]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// HasImage reports whether tag is present
func (f *Fake) HasImage(tag string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.images[tag]
}

// ResetCalls clears the call log
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}

func (f *Fake) ImageTags(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("images", ""); err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(f.images))
	for tag := range f.images {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

func (f *Fake) Containers(ctx context.Context, all bool) ([]engine.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("list", ""); err != nil {
		return nil, err
	}

	var out []engine.Container
	for _, name := range f.order {
		r := f.byName[name]
		if !all && !r.Running {
			continue
		}

		state := "created"
		port := engine.Port{PrivatePort: uint16(r.ContainerPort), Type: "tcp"}
		if r.Running {
			state = "running"
			port.IP = "0.0.0.0"
			port.PublicPort = uint16(r.HostPort)
		}
		out = append(out, engine.Container{
			ID:     r.ID,
			Names:  []string{"/" + r.Name},
			Image:  r.Image,
			State:  state,
			Status: state,
			Ports:  []engine.Port{port},
		})
	}
	return out, nil
}

func (f *Fake) PullImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "pull:"+ref)
	if err := f.fail("pull", ref); err != nil {
		return nil, err
	}

	f.images[ref] = true
	tag := ref[strings.LastIndex(ref, ":")+1:]
	stream := fmt.Sprintf(`{"status":"Pulling from %s","id":"%s"}
{"status":"Downloading","progressDetail":{"current":1,"total":2},"progress":"[=>  ]","id":"a1b2c3"}
{"status":"Pull complete","progressDetail":{},"id":"a1b2c3"}
{"status":"Status: Downloaded newer image for %s"}
`, strings.TrimSuffix(ref, ":"+tag), tag, ref)
	return io.NopCloser(strings.NewReader(stream)), nil
}

func (f *Fake) CreateContainer(ctx context.Context, req engine.CreateRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "create:"+req.Name)
	if err := f.fail("create", req.Name); err != nil {
		return "", err
	}
	if _, exists := f.byName[req.Name]; exists {
		return "", fmt.Errorf("conflict: container name %q is already in use", "/"+req.Name)
	}
	if !f.images[req.Image] {
		return "", fmt.Errorf("%w: no such image: %s", engine.ErrNotFound, req.Image)
	}

	r := &Record{
		Name:          req.Name,
		Image:         req.Image,
		Env:           append([]string(nil), req.Env...),
		ContainerPort: req.ContainerPort,
		HostPort:      req.HostPort,
		Platform:      req.Platform,
	}
	f.insert(r)
	return r.ID, nil
}

func (f *Fake) StartContainer(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "start:"+name)
	r, err := f.get("start", name)
	if err != nil {
		return err
	}
	r.Running = true
	return nil
}

func (f *Fake) StopContainer(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "stop:"+name)
	r, err := f.get("stop", name)
	if err != nil {
		return err
	}
	r.Running = false
	return nil
}

func (f *Fake) RemoveContainer(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "remove:"+name)
	r, err := f.get("remove", name)
	if err != nil {
		return err
	}
	if r.Running {
		return fmt.Errorf("conflict: cannot remove running container %s", name)
	}

	delete(f.byName, name)
	for i, n := range f.order {
		if n == name {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *Fake) insert(r *Record) {
	f.nextID++
	r.ID = fmt.Sprintf("%012x", f.nextID)
	f.byName[r.Name] = r
	f.order = append(f.order, r.Name)
}

func (f *Fake) get(verb, name string) (*Record, error) {
	if err := f.fail(verb, name); err != nil {
		return nil, err
	}
	r, ok := f.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: no such container: %s", engine.ErrNotFound, name)
	}
	return r, nil
}

func (f *Fake) fail(verb, target string) error {
	key := verb
	if target != "" {
		key += ":" + target
	}
	return f.Errors[key]
}

var _ engine.Engine = (*Fake)(nil)
