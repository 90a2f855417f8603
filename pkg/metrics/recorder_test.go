package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rileyhales/tethys/pkg/catalog"
	"github.com/rileyhales/tethys/pkg/config"
	"github.com/rileyhales/tethys/pkg/engine/enginetest"
	"github.com/rileyhales/tethys/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCountsOutcomes(t *testing.T) {
	r := NewRecorder()
	fake := enginetest.New()
	gs := catalog.MustLookup(catalog.MapServer)
	fake.AddContainer(gs.ContainerName, gs.Image, gs.ContainerPort, gs.DefaultHostPort, false)

	m := lifecycle.NewManager(fake, config.DefaultConfig(), lifecycle.WithObserver(r))
	m.Start(context.Background(), nil)
	m.Start(context.Background(), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.outcomes.WithLabelValues("map-server", "start", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.outcomes.WithLabelValues("map-server", "start", "already_in_state")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.outcomes.WithLabelValues("database-gis", "start", "not_installed")))
	assert.Equal(t, 4, testutil.CollectAndCount(r.outcomes))
}

func TestObserveCommand(t *testing.T) {
	r := NewRecorder()
	r.ObserveCommand("start", 2*time.Second, nil)
	r.ObserveCommand("start", time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.commands.WithLabelValues("start", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.commands.WithLabelValues("start", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe(lifecycle.Outcome{Service: catalog.DatabaseGIS, Action: lifecycle.ActionPull, Result: lifecycle.Applied})
	r.ObserveCommand("init", time.Second, nil)

	path := filepath.Join(t.TempDir(), "tethys.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "# TYPE tethys_docker_outcomes_total counter")
	assert.Contains(t, text, `tethys_docker_outcomes_total{action="pull",result="applied",service="database-gis"} 1`)
	assert.Contains(t, text, `tethys_docker_commands_total{command="init",status="success"} 1`)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestWriteTextfileMissingDirectory(t *testing.T) {
	err := NewRecorder().WriteTextfile(filepath.Join(t.TempDir(), "missing", "tethys.prom"))
	assert.Error(t, err)
}
