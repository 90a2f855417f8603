package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/rileyhales/tethys/pkg/catalog"
	"github.com/rileyhales/tethys/pkg/config"
	"github.com/rileyhales/tethys/pkg/engine/enginetest"
	"github.com/rileyhales/tethys/pkg/inventory"
	"github.com/rileyhales/tethys/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVM struct {
	stops int
	err   error
}

func (s *stubVM) StopVM(context.Context) error {
	s.stops++
	return s.err
}

func newRunner(fake *enginetest.Fake, vm VMStopper) *Runner {
	m := lifecycle.NewManager(fake, config.DefaultConfig())
	return NewRunner(m, "192.168.59.103", vm)
}

func installAll(fake *enginetest.Fake, running bool) {
	for _, spec := range catalog.Specs() {
		fake.AddImage(spec.Image)
		fake.AddContainer(spec.ContainerName, spec.Image, spec.ContainerPort, spec.DefaultHostPort, running)
	}
}

func TestInitWithDefaultsFromEmpty(t *testing.T) {
	ctx := context.Background()
	fake := enginetest.New()
	r := newRunner(fake, nil)

	pending, err := r.Pending(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, catalog.All(), pending)

	report := r.Init(ctx, nil)
	require.NoError(t, report.Err())

	var pulled, created []string
	for _, o := range report.Outcomes {
		require.Equal(t, lifecycle.Applied, o.Result, "%s %s", o.Action, o.Service)
		switch o.Action {
		case lifecycle.ActionPull:
			pulled = append(pulled, o.Image)
		case lifecycle.ActionCreate:
			created = append(created, string(o.Service))
		}
	}
	assert.Equal(t, []string{"ciwater/postgis:2.1.2", "ciwater/geoserver:2.8.2-clustered", "ciwater/n52wps:3.3.1"}, pulled)
	assert.Equal(t, []string{"database-gis", "map-server", "processing-service"}, created)

	cfg := config.DefaultConfig()
	for _, spec := range catalog.Specs() {
		rec, ok := fake.Container(spec.ContainerName)
		require.True(t, ok, spec.ContainerName)
		assert.Equal(t, cfg.Environment(spec.ID), rec.Env)
	}
	db, _ := fake.Container("tethys_postgis")
	assert.Contains(t, db.Env, "TETHYS_SUPER_PASS=pass")

	status, err := r.Status(ctx, nil)
	require.NoError(t, err)
	for _, s := range status {
		assert.Equal(t, inventory.Stopped, s.State, s.Service)
	}
}

func TestInitSecondRunIsNoop(t *testing.T) {
	ctx := context.Background()
	fake := enginetest.New()
	r := newRunner(fake, nil)
	require.NoError(t, r.Init(ctx, nil).Err())
	fake.ResetCalls()

	report := r.Init(ctx, nil)
	require.NoError(t, report.Err())
	assert.Equal(t, 6, report.Count(lifecycle.AlreadyInState))
	assert.Empty(t, fake.Calls)
}

func TestInitSkipsCreateWhenPullFails(t *testing.T) {
	fake := enginetest.New()
	fake.Errors["images"] = errors.New("daemon gone")

	report := newRunner(fake, nil).Init(context.Background(), nil)
	assert.True(t, report.Failed())
	assert.Empty(t, fake.Calls)
}

func TestStopAllThenStatus(t *testing.T) {
	ctx := context.Background()
	fake := enginetest.New()
	installAll(fake, true)
	r := newRunner(fake, nil)

	report, err := r.Stop(ctx, nil, false)
	require.NoError(t, err)
	require.NoError(t, report.Err())

	status, err := r.Status(ctx, nil)
	require.NoError(t, err)
	require.Len(t, status, 3)
	for _, s := range status {
		assert.Equal(t, "Stopped", s.State.String(), s.Service)
	}
}

func TestStopVMOnlyWhenAllTargeted(t *testing.T) {
	ctx := context.Background()
	fake := enginetest.New()
	installAll(fake, true)
	vm := &stubVM{}
	r := newRunner(fake, vm)

	_, err := r.Stop(ctx, []catalog.ServiceID{catalog.DatabaseGIS}, true)
	require.NoError(t, err)
	assert.Zero(t, vm.stops)

	_, err = r.Stop(ctx, nil, false)
	require.NoError(t, err)
	assert.Zero(t, vm.stops)

	_, err = r.Stop(ctx, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, vm.stops)

	// naming every service is the same as naming none
	_, err = r.Stop(ctx, []catalog.ServiceID{catalog.ProcessingService, catalog.DatabaseGIS, catalog.MapServer}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, vm.stops)

	_, err = r.Stop(ctx, []catalog.ServiceID{catalog.DatabaseGIS, catalog.MapServer, catalog.MapServer}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, vm.stops)

	vm.err = errors.New("vm stuck")
	_, err = r.Stop(ctx, nil, true)
	assert.ErrorContains(t, err, "vm stuck")
}

func TestStartPartialInstall(t *testing.T) {
	ctx := context.Background()
	fake := enginetest.New()
	gs := catalog.MustLookup(catalog.MapServer)
	fake.AddImage(gs.Image)
	fake.AddContainer(gs.ContainerName, gs.Image, gs.ContainerPort, gs.DefaultHostPort, false)
	r := newRunner(fake, nil)

	report := r.Start(ctx, []catalog.ServiceID{catalog.DatabaseGIS, catalog.MapServer})
	db, _ := report.Lookup(catalog.DatabaseGIS, lifecycle.ActionStart)
	ms, _ := report.Lookup(catalog.MapServer, lifecycle.ActionStart)
	assert.Equal(t, lifecycle.NotInstalled, db.Result)
	assert.Equal(t, lifecycle.Applied, ms.Result)

	eps, err := r.IP(ctx, nil)
	require.NoError(t, err)
	require.Len(t, eps, 3)
	assert.Equal(t, Endpoint{
		Service:     catalog.MapServer,
		DisplayName: "GeoServer",
		State:       inventory.Running,
		Host:        "192.168.59.103",
		Port:        8181,
		URL:         "http://192.168.59.103:8181/geoserver/rest",
	}, eps[1])
}

func TestIP(t *testing.T) {
	ctx := context.Background()
	fake := enginetest.New()
	db := catalog.MustLookup(catalog.DatabaseGIS)
	wps := catalog.MustLookup(catalog.ProcessingService)
	fake.AddContainer(db.ContainerName, db.Image, db.ContainerPort, db.DefaultHostPort, true)
	fake.AddContainer(wps.ContainerName, wps.Image, wps.ContainerPort, wps.DefaultHostPort, false)

	eps, err := newRunner(fake, nil).IP(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, inventory.Running, eps[0].State)
	assert.Equal(t, uint16(5435), eps[0].Port)
	assert.Empty(t, eps[0].URL)

	assert.Equal(t, inventory.NotInstalled, eps[1].State)
	assert.Empty(t, eps[1].Host)

	assert.Equal(t, inventory.Stopped, eps[2].State)
	assert.Zero(t, eps[2].Port)
}

func TestStatusAndIPForSelection(t *testing.T) {
	ctx := context.Background()
	fake := enginetest.New()
	installAll(fake, true)
	r := newRunner(fake, nil)

	status, err := r.Status(ctx, []catalog.ServiceID{catalog.ProcessingService, catalog.DatabaseGIS})
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.Equal(t, catalog.DatabaseGIS, status[0].Service)
	assert.Equal(t, catalog.ProcessingService, status[1].Service)

	eps, err := r.IP(ctx, []catalog.ServiceID{catalog.ProcessingService})
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.Equal(t, "http://192.168.59.103:8282/wps/WebProcessingService", eps[0].URL)
}

func TestRemoveStopsFirst(t *testing.T) {
	fake := enginetest.New()
	installAll(fake, true)
	fake.ResetCalls()

	report := newRunner(fake, nil).Remove(context.Background(), []catalog.ServiceID{catalog.ProcessingService})
	require.NoError(t, report.Err())
	assert.Equal(t, []string{"stop:tethys_wps", "remove:tethys_wps"}, fake.Calls)
}

func TestUpdateAndRestart(t *testing.T) {
	ctx := context.Background()
	fake := enginetest.New()
	installAll(fake, true)
	r := newRunner(fake, nil)

	require.NoError(t, r.Restart(ctx, nil).Err())
	require.NoError(t, r.Update(ctx, []catalog.ServiceID{catalog.MapServer}).Err())

	status, err := r.Status(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, inventory.Running, status[0].State)
	assert.Equal(t, inventory.Stopped, status[1].State)
	assert.Equal(t, inventory.Running, status[2].State)
}

func TestStatusEngineError(t *testing.T) {
	fake := enginetest.New()
	fake.Errors["list"] = errors.New("daemon gone")
	_, err := newRunner(fake, nil).Status(context.Background(), nil)
	assert.Error(t, err)
	_, err = newRunner(fake, nil).IP(context.Background(), nil)
	assert.Error(t, err)
}
