package lifecycle

import (
	"context"
	"fmt"

	"github.com/rileyhales/tethys/pkg/catalog"
	"github.com/rs/zerolog/log"
)

// Pull downloads the images of the services. Without force only images missing from
// the engine are pulled, and services whose image is present report AlreadyInState.
func (m *Manager) Pull(ctx context.Context, ids []catalog.ServiceID, force bool) Report {
	var report Report
	ids = targets(ids)

	missing := make(map[string]bool)
	if force {
		for _, id := range ids {
			missing[catalog.MustLookup(id).Image] = true
		}
	} else {
		images, err := m.reconciler.ImagesToInstall(ctx, ids)
		if err != nil {
			for _, id := range ids {
				m.record(&report, Outcome{Service: id, Action: ActionPull, Result: Failed, Err: err})
			}
			return report
		}
		for _, img := range images {
			missing[img] = true
		}
	}

	if len(missing) == 0 {
		log.Debug().Msg("Docker images already pulled")
	}

	pulled := make(map[string]error)
	for _, id := range ids {
		image := catalog.MustLookup(id).Image
		o := Outcome{Service: id, Action: ActionPull, Image: image}

		if !missing[image] {
			o.Result = AlreadyInState
			m.record(&report, o)
			continue
		}

		err, done := pulled[image]
		if !done {
			err = m.pullImage(ctx, image)
			pulled[image] = err
		}

		if err != nil {
			o.Result = Failed
			o.Err = err
		}
		m.record(&report, o)
	}
	return report
}

func (m *Manager) pullImage(ctx context.Context, image string) error {
	log.Info().Str("image", image).Msg("Pulling image")

	stream, err := m.engine.PullImage(ctx, image)
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", image, err)
	}
	defer stream.Close()

	if err := m.progress.Render(image, stream); err != nil {
		return fmt.Errorf("failed to pull %s: %w", image, err)
	}
	return nil
}
