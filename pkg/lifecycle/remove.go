package lifecycle

import (
	"context"
	"errors"

	"github.com/rileyhales/tethys/pkg/catalog"
	"github.com/rileyhales/tethys/pkg/engine"
	"github.com/rs/zerolog/log"
)

// Remove issues a remove for every requested container without checking status first.
// A container the engine does not know reports NotInstalled.
func (m *Manager) Remove(ctx context.Context, ids []catalog.ServiceID) Report {
	var report Report
	for _, id := range targets(ids) {
		spec := catalog.MustLookup(id)
		o := Outcome{Service: id, Action: ActionRemove}

		log.Info().Str("service", spec.DisplayName).Msg("Removing container")
		err := m.engine.RemoveContainer(ctx, spec.ContainerName)
		switch {
		case errors.Is(err, engine.ErrNotFound):
			o.Result = NotInstalled
		case err != nil:
			o.Result = Failed
			o.Err = err
		}
		m.record(&report, o)
	}
	return report
}
