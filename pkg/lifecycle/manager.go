package lifecycle

import (
	"context"

	"github.com/rileyhales/tethys/pkg/catalog"
	"github.com/rileyhales/tethys/pkg/engine"
	"github.com/rileyhales/tethys/pkg/inventory"
	"github.com/rs/zerolog/log"
)

// Manager drives the managed services through their container lifecycle.
// Services are processed one at a time in catalog order.
type Manager struct {
	engine     engine.Engine
	reconciler *inventory.Reconciler
	settings   Settings
	platform   string
	progress   ProgressSink
	observers  []Observer
}

// Option configures a Manager
type Option func(*Manager)

// WithPlatform pins created containers to an os/arch[/variant] platform
func WithPlatform(platform string) Option {
	return func(m *Manager) { m.platform = platform }
}

// WithProgress renders image pull streams through sink
func WithProgress(sink ProgressSink) Option {
	return func(m *Manager) { m.progress = sink }
}

// WithObserver registers o to receive every outcome
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observers = append(m.observers, o) }
}

// NewManager creates a new lifecycle Manager
func NewManager(e engine.Engine, settings Settings, opts ...Option) *Manager {
	m := &Manager{
		engine:     e,
		reconciler: inventory.New(e),
		settings:   settings,
		progress:   discard{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reconciler returns the reconciler bound to the manager's engine
func (m *Manager) Reconciler() *inventory.Reconciler {
	return m.reconciler
}

// Restart stops then starts the services. Start is skipped when a stop failed.
func (m *Manager) Restart(ctx context.Context, ids []catalog.ServiceID) Report {
	report := m.Stop(ctx, ids, false)
	if report.Failed() {
		log.Warn().Msg("Stop failed, not starting services")
		return report
	}
	report.Merge(m.Start(ctx, ids))
	return report
}

// Update rebuilds the services from freshly pulled images: stop, remove, force pull,
// then force create. The services are left Stopped. Each phase runs only when the
// previous one reported no failure.
func (m *Manager) Update(ctx context.Context, ids []catalog.ServiceID) Report {
	phases := []func() Report{
		func() Report { return m.Stop(ctx, ids, true) },
		func() Report { return m.Remove(ctx, ids) },
		func() Report { return m.Pull(ctx, ids, true) },
		func() Report { return m.Create(ctx, ids, true) },
	}

	report := Report{Silent: true}
	for _, phase := range phases {
		r := phase()
		report.Merge(r)
		if r.Failed() {
			log.Warn().Msg("Update aborted after failed phase")
			break
		}
	}
	return report
}

func (m *Manager) record(report *Report, o Outcome) {
	report.Outcomes = append(report.Outcomes, o)
	for _, obs := range m.observers {
		obs.Observe(o)
	}

	event := log.Debug()
	if o.Result == Failed {
		event = log.Error().Err(o.Err)
	}
	event.
		Str("service", string(o.Service)).
		Str("action", string(o.Action)).
		Str("result", o.Result.String()).
		Msg("Lifecycle outcome")
}

// targets resolves a selection; an empty selection means every service
func targets(ids []catalog.ServiceID) []catalog.ServiceID {
	if len(ids) == 0 {
		return catalog.All()
	}
	return catalog.Normalize(ids)
}
