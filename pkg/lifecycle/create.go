package lifecycle

import (
	"context"

	"github.com/rileyhales/tethys/pkg/catalog"
	"github.com/rileyhales/tethys/pkg/engine"
	"github.com/rs/zerolog/log"
)

// Create creates the containers of the services that have none. With force every
// requested container is created, which fails for names that are still taken.
// A failure for one service does not prevent attempts on the others.
func (m *Manager) Create(ctx context.Context, ids []catalog.ServiceID, force bool) Report {
	var report Report
	ids = targets(ids)

	create := make(map[catalog.ServiceID]bool)
	if force {
		for _, id := range ids {
			create[id] = true
		}
	} else {
		missing, err := m.reconciler.ContainersToCreate(ctx, ids)
		if err != nil {
			for _, id := range ids {
				m.record(&report, Outcome{Service: id, Action: ActionCreate, Result: Failed, Err: err})
			}
			return report
		}
		for _, id := range missing {
			create[id] = true
		}
	}

	for _, id := range ids {
		spec := catalog.MustLookup(id)
		o := Outcome{Service: id, Action: ActionCreate, Image: spec.Image}

		if !create[id] {
			log.Info().Str("service", spec.DisplayName).Msg("Container already installed: skipping")
			o.Result = AlreadyInState
			m.record(&report, o)
			continue
		}

		log.Info().
			Str("service", spec.DisplayName).
			Str("container", spec.ContainerName).
			Str("image", spec.Image).
			Msg("Installing container")

		_, err := m.engine.CreateContainer(ctx, engine.CreateRequest{
			Name:          spec.ContainerName,
			Image:         spec.Image,
			Env:           m.settings.Environment(id),
			ContainerPort: spec.ContainerPort,
			HostPort:      m.hostPort(spec),
			Platform:      m.platform,
		})
		if err != nil {
			o.Result = Failed
			o.Err = err
		}
		m.record(&report, o)
	}
	return report
}

func (m *Manager) hostPort(spec catalog.ServiceSpec) int {
	if port := m.settings.HostPort(spec.ID); port > 0 {
		return port
	}
	return spec.DefaultHostPort
}
