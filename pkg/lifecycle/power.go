package lifecycle

import (
	"context"

	"github.com/rileyhales/tethys/pkg/catalog"
	"github.com/rileyhales/tethys/pkg/inventory"
	"github.com/rs/zerolog/log"
)

// Start starts every requested service that is installed and not running.
// Status is re-read before each service so a stale listing never drives an action.
func (m *Manager) Start(ctx context.Context, ids []catalog.ServiceID) Report {
	var report Report
	for _, id := range targets(ids) {
		m.record(&report, m.transition(ctx, id, ActionStart, inventory.Running))
	}
	return report
}

// Stop stops every requested service that is running. Silent marks the report so
// informational outcomes are not shown.
func (m *Manager) Stop(ctx context.Context, ids []catalog.ServiceID, silent bool) Report {
	report := Report{Silent: silent}
	for _, id := range targets(ids) {
		m.record(&report, m.transition(ctx, id, ActionStop, inventory.Stopped))
	}
	return report
}

func (m *Manager) transition(ctx context.Context, id catalog.ServiceID, action Action, want inventory.State) Outcome {
	spec := catalog.MustLookup(id)
	o := Outcome{Service: id, Action: action}

	snap, err := m.reconciler.Status(ctx)
	if err != nil {
		o.Result = Failed
		o.Err = err
		return o
	}

	state, installed := snap.Lookup(id)
	if !installed {
		log.Info().Str("service", spec.DisplayName).Msg("Container not installed")
		o.Result = NotInstalled
		return o
	}
	if state == want {
		log.Info().Str("service", spec.DisplayName).Str("state", state.String()).Msg("Container already in state")
		o.Result = AlreadyInState
		return o
	}

	if action == ActionStart {
		log.Info().Str("service", spec.DisplayName).Msg("Starting container")
		err = m.engine.StartContainer(ctx, spec.ContainerName)
	} else {
		log.Info().Str("service", spec.DisplayName).Msg("Stopping container")
		err = m.engine.StopContainer(ctx, spec.ContainerName)
	}
	if err != nil {
		o.Result = Failed
		o.Err = err
	}
	return o
}
