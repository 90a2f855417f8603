// Package commands composes lifecycle operations into the user-facing verbs.
package commands

import (
	"context"
	"fmt"

	"github.com/rileyhales/tethys/pkg/catalog"
	"github.com/rileyhales/tethys/pkg/inventory"
	"github.com/rileyhales/tethys/pkg/lifecycle"
	"github.com/rs/zerolog/log"
)

// VMStopper shuts down the local VM that hosts the engine
type VMStopper interface {
	StopVM(ctx context.Context) error
}

// ServiceStatus is one line of the status verb
type ServiceStatus struct {
	Service     catalog.ServiceID
	DisplayName string
	State       inventory.State
}

// Endpoint is one entry of the ip verb. Host, Port and URL are set only for running services.
type Endpoint struct {
	Service     catalog.ServiceID
	DisplayName string
	State       inventory.State
	Host        string
	Port        uint16
	URL         string
}

// Runner executes the verbs against one engine connection.
// A nil or empty selection means every service.
type Runner struct {
	manager *lifecycle.Manager
	host    string
	vm      VMStopper
}

// NewRunner creates a Runner. host is the address clients reach published ports on.
func NewRunner(manager *lifecycle.Manager, host string, vm VMStopper) *Runner {
	return &Runner{manager: manager, host: host, vm: vm}
}

// Pending returns the requested services whose container still has to be created
func (r *Runner) Pending(ctx context.Context, ids []catalog.ServiceID) ([]catalog.ServiceID, error) {
	if len(ids) == 0 {
		ids = catalog.All()
	}
	return r.manager.Reconciler().ContainersToCreate(ctx, ids)
}

// Init pulls missing images then creates missing containers
func (r *Runner) Init(ctx context.Context, ids []catalog.ServiceID) lifecycle.Report {
	report := r.manager.Pull(ctx, ids, false)
	if report.Failed() {
		return report
	}
	report.Merge(r.manager.Create(ctx, ids, false))
	return report
}

// Start starts the services
func (r *Runner) Start(ctx context.Context, ids []catalog.ServiceID) lifecycle.Report {
	return r.manager.Start(ctx, ids)
}

// Stop stops the services. With stopVM the local VM is shut down as well, but only
// when every service was targeted and every stop succeeded.
func (r *Runner) Stop(ctx context.Context, ids []catalog.ServiceID, stopVM bool) (lifecycle.Report, error) {
	report := r.manager.Stop(ctx, ids, false)
	if !stopVM || !targetsAll(ids) || report.Failed() || r.vm == nil {
		return report, nil
	}

	log.Info().Msg("Stopping local VM")
	if err := r.vm.StopVM(ctx); err != nil {
		return report, fmt.Errorf("failed to stop VM: %w", err)
	}
	return report, nil
}

// Restart stops then starts the services
func (r *Runner) Restart(ctx context.Context, ids []catalog.ServiceID) lifecycle.Report {
	return r.manager.Restart(ctx, ids)
}

// Update rebuilds the services from freshly pulled images
func (r *Runner) Update(ctx context.Context, ids []catalog.ServiceID) lifecycle.Report {
	return r.manager.Update(ctx, ids)
}

// Remove stops then removes the services
func (r *Runner) Remove(ctx context.Context, ids []catalog.ServiceID) lifecycle.Report {
	report := r.manager.Stop(ctx, ids, true)
	if report.Failed() {
		return report
	}
	report.Merge(r.manager.Remove(ctx, ids))
	return report
}

// Status reports the state of every service in catalog order
func (r *Runner) Status(ctx context.Context, ids []catalog.ServiceID) ([]ServiceStatus, error) {
	snap, err := r.manager.Reconciler().Status(ctx)
	if err != nil {
		return nil, err
	}

	selected := selection(ids)
	out := make([]ServiceStatus, 0, len(selected))
	for _, id := range selected {
		spec := catalog.MustLookup(id)
		out = append(out, ServiceStatus{
			Service:     spec.ID,
			DisplayName: spec.DisplayName,
			State:       snap.State(spec.ID),
		})
	}
	return out, nil
}

// IP reports where each running service can be reached
func (r *Runner) IP(ctx context.Context, ids []catalog.ServiceID) ([]Endpoint, error) {
	snap, err := r.manager.Reconciler().Status(ctx)
	if err != nil {
		return nil, err
	}

	selected := selection(ids)
	out := make([]Endpoint, 0, len(selected))
	for _, id := range selected {
		spec := catalog.MustLookup(id)
		ep := Endpoint{
			Service:     spec.ID,
			DisplayName: spec.DisplayName,
			State:       snap.State(spec.ID),
		}
		if ep.State == inventory.Running {
			c, _ := snap.Container(spec.ID)
			ep.Host = r.host
			ep.Port = c.PublicPort(spec.ContainerPort)
			if spec.EndpointPath != "" {
				ep.URL = fmt.Sprintf("http://%s:%d%s", ep.Host, ep.Port, spec.EndpointPath)
			}
		}
		out = append(out, ep)
	}
	return out, nil
}

// selection resolves ids in catalog order; an empty selection means every service
func selection(ids []catalog.ServiceID) []catalog.ServiceID {
	if len(ids) == 0 {
		return catalog.All()
	}
	return catalog.Normalize(ids)
}

// targetsAll reports whether ids selects every service; an empty selection does
func targetsAll(ids []catalog.ServiceID) bool {
	return len(ids) == 0 || len(catalog.Normalize(ids)) == len(catalog.All())
}
