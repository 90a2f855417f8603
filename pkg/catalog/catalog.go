package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ServiceID identifies one of the three managed services
type ServiceID string

const (
	DatabaseGIS       ServiceID = "database-gis"
	MapServer         ServiceID = "map-server"
	ProcessingService ServiceID = "processing-service"
)

// ErrUnknownService is returned when a selection names a service outside the catalog
var ErrUnknownService = errors.New("unknown service")

// ServiceSpec is the static record for a managed service
type ServiceSpec struct {
	ID ServiceID

	// DisplayName is the human readable label used in console output
	DisplayName string

	// Alias is the short name accepted on the command line
	Alias string

	// Image is the full image reference including tag
	Image string

	// ContainerName is the fixed engine-side container name
	ContainerName string

	// ContainerPort is the port the service listens on inside the container
	ContainerPort int

	// DefaultHostPort is the host port published when config does not override it
	DefaultHostPort int

	// EndpointPath is appended to host:port to build the service HTTP endpoint (empty for none)
	EndpointPath string
}

var specs = []ServiceSpec{
	{
		ID:              DatabaseGIS,
		DisplayName:     "PostGIS/Database",
		Alias:           "postgis",
		Image:           "ciwater/postgis:2.1.2",
		ContainerName:   "tethys_postgis",
		ContainerPort:   5432,
		DefaultHostPort: 5435,
	},
	{
		ID:              MapServer,
		DisplayName:     "GeoServer",
		Alias:           "geoserver",
		Image:           "ciwater/geoserver:2.8.2-clustered",
		ContainerName:   "tethys_geoserver",
		ContainerPort:   8080,
		DefaultHostPort: 8181,
		EndpointPath:    "/geoserver/rest",
	},
	{
		ID:              ProcessingService,
		DisplayName:     "52 North WPS",
		Alias:           "wps",
		Image:           "ciwater/n52wps:3.3.1",
		ContainerName:   "tethys_wps",
		ContainerPort:   8080,
		DefaultHostPort: 8282,
		EndpointPath:    "/wps/WebProcessingService",
	},
}

// All returns every service ID in catalog order
func All() []ServiceID {
	ids := make([]ServiceID, len(specs))
	for i, s := range specs {
		ids[i] = s.ID
	}
	return ids
}

// Specs returns a copy of the catalog in catalog order
func Specs() []ServiceSpec {
	out := make([]ServiceSpec, len(specs))
	copy(out, specs)
	return out
}

// Lookup returns the ServiceSpec for id
func Lookup(id ServiceID) (ServiceSpec, bool) {
	for _, s := range specs {
		if s.ID == id {
			return s, true
		}
	}
	return ServiceSpec{}, false
}

// MustLookup returns the ServiceSpec for id and panics on an unknown id
func MustLookup(id ServiceID) ServiceSpec {
	s, ok := Lookup(id)
	if !ok {
		panic(fmt.Sprintf("catalog: unknown service %q", id))
	}
	return s
}

// ByContainerName returns the ServiceSpec owning the given container name.
// A leading '/' (as reported by the engine) is ignored.
func ByContainerName(name string) (ServiceSpec, bool) {
	name = strings.TrimPrefix(name, "/")
	for _, s := range specs {
		if s.ContainerName == name {
			return s, true
		}
	}
	return ServiceSpec{}, false
}

// Parse resolves a single name, accepting either the service ID or its alias
func Parse(name string) (ServiceID, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, s := range specs {
		if n == string(s.ID) || n == s.Alias {
			return s.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownService, name)
}

// Select resolves a user selection into catalog-ordered, de-duplicated IDs.
// An empty selection means every service.
func Select(names []string) ([]ServiceID, error) {
	if len(names) == 0 {
		return All(), nil
	}

	want := make(map[ServiceID]bool, len(names))
	for _, name := range names {
		id, err := Parse(name)
		if err != nil {
			return nil, err
		}
		want[id] = true
	}

	return Normalize(keys(want)), nil
}

// Normalize orders ids by catalog position and drops duplicates and unknown entries
func Normalize(ids []ServiceID) []ServiceID {
	want := make(map[ServiceID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	out := make([]ServiceID, 0, len(want))
	for _, s := range specs {
		if want[s.ID] {
			out = append(out, s.ID)
		}
	}
	return out
}

func keys(m map[ServiceID]bool) []ServiceID {
	out := make([]ServiceID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
