package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogConstants(t *testing.T) {
	db := MustLookup(DatabaseGIS)
	assert.Equal(t, "tethys_postgis", db.ContainerName)
	assert.Equal(t, 5432, db.ContainerPort)
	assert.Equal(t, 5435, db.DefaultHostPort)

	gs := MustLookup(MapServer)
	assert.Equal(t, "tethys_geoserver", gs.ContainerName)
	assert.Equal(t, 8080, gs.ContainerPort)
	assert.Equal(t, 8181, gs.DefaultHostPort)

	wps := MustLookup(ProcessingService)
	assert.Equal(t, "tethys_wps", wps.ContainerName)
	assert.Equal(t, 8080, wps.ContainerPort)
	assert.Equal(t, 8282, wps.DefaultHostPort)
}

func TestSelectEmptyMeansAll(t *testing.T) {
	ids, err := Select(nil)
	require.NoError(t, err)
	assert.Equal(t, []ServiceID{DatabaseGIS, MapServer, ProcessingService}, ids)
}

func TestSelectAliasesAndOrder(t *testing.T) {
	ids, err := Select([]string{"wps", "database-gis", "postgis", "GeoServer"})
	require.NoError(t, err)
	assert.Equal(t, []ServiceID{DatabaseGIS, MapServer, ProcessingService}, ids)
}

func TestSelectUnknown(t *testing.T) {
	_, err := Select([]string{"redis"})
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestByContainerName(t *testing.T) {
	s, ok := ByContainerName("/tethys_wps")
	require.True(t, ok)
	assert.Equal(t, ProcessingService, s.ID)

	_, ok = ByContainerName("/tethys_postgis_old")
	assert.False(t, ok)
}

func ExampleSelect() {
	ids, _ := Select([]string{"geoserver", "postgis"})
	for _, id := range ids {
		s := MustLookup(id)
		fmt.Printf("%s %s %d->%d\n", s.ContainerName, s.Image, s.DefaultHostPort, s.ContainerPort)
	}
	// Output:
	// tethys_postgis ciwater/postgis:2.1.2 5435->5432
	// tethys_geoserver ciwater/geoserver:2.8.2-clustered 8181->8080
}
