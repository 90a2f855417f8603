package inventory

import (
	"context"
	"fmt"

	"github.com/rileyhales/tethys/pkg/catalog"
	"github.com/rileyhales/tethys/pkg/engine"
)

// Reconciler diffs the requested services against the engine's current inventory.
// Every call reads the engine afresh.
type Reconciler struct {
	engine engine.Engine
}

// New creates a Reconciler over e
func New(e engine.Engine) *Reconciler {
	return &Reconciler{engine: e}
}

// ImagesToInstall returns the catalog images of ids that have no exact tag match
// among the engine's local images, in catalog order
func (r *Reconciler) ImagesToInstall(ctx context.Context, ids []catalog.ServiceID) ([]string, error) {
	tags, err := r.engine.ImageTags(ctx)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(tags))
	for _, tag := range tags {
		present[tag] = true
	}

	var missing []string
	seen := make(map[string]bool)
	for _, id := range catalog.Normalize(ids) {
		image := catalog.MustLookup(id).Image
		if present[image] || seen[image] {
			continue
		}
		seen[image] = true
		missing = append(missing, image)
	}
	return missing, nil
}

// ContainersToCreate returns the services among ids whose container does not exist at all.
// Stopped containers count as existing.
func (r *Reconciler) ContainersToCreate(ctx context.Context, ids []catalog.ServiceID) ([]catalog.ServiceID, error) {
	all, err := r.engine.Containers(ctx, true)
	if err != nil {
		return nil, err
	}

	var missing []catalog.ServiceID
	for _, id := range catalog.Normalize(ids) {
		if !anyNamed(all, catalog.MustLookup(id).ContainerName) {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Status computes a Snapshot in two passes: every service found in the full listing is
// Stopped, then those also found in the running listing are upgraded to Running
func (r *Reconciler) Status(ctx context.Context) (Snapshot, error) {
	all, err := r.engine.Containers(ctx, true)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read container inventory: %w", err)
	}
	running, err := r.engine.Containers(ctx, false)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read running containers: %w", err)
	}

	snap := Snapshot{
		states:     make(map[catalog.ServiceID]State),
		containers: make(map[catalog.ServiceID]engine.Container),
	}

	for _, spec := range catalog.Specs() {
		if c, ok := named(all, spec.ContainerName); ok {
			snap.states[spec.ID] = Stopped
			snap.containers[spec.ID] = c
		}
	}

	for _, spec := range catalog.Specs() {
		if _, installed := snap.states[spec.ID]; !installed {
			// the two listings are separate requests; ignore a container created in between
			continue
		}
		if c, ok := named(running, spec.ContainerName); ok {
			snap.states[spec.ID] = Running
			snap.containers[spec.ID] = c
		}
	}

	return snap, nil
}

// Containers returns raw engine metadata for every installed service
func (r *Reconciler) Containers(ctx context.Context) (map[catalog.ServiceID]engine.Container, error) {
	all, err := r.engine.Containers(ctx, true)
	if err != nil {
		return nil, err
	}

	out := make(map[catalog.ServiceID]engine.Container)
	for _, spec := range catalog.Specs() {
		if c, ok := named(all, spec.ContainerName); ok {
			out[spec.ID] = c
		}
	}
	return out, nil
}

func named(list []engine.Container, name string) (engine.Container, bool) {
	for _, c := range list {
		if c.HasName(name) {
			return c, true
		}
	}
	return engine.Container{}, false
}

func anyNamed(list []engine.Container, name string) bool {
	_, ok := named(list, name)
	return ok
}
