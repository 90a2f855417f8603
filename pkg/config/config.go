package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rileyhales/tethys/pkg/catalog"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for its configuration file
const DefaultPath = "tethys-docker.yaml"

// Flow control modes for the map server
const (
	FlowControlCores    = "cores"
	FlowControlExplicit = "explicit"
)

var validate = validator.New()

// Config represents the tethys-docker configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Engine     EngineConfig     `yaml:"engine"`
	Database   DatabaseConfig   `yaml:"database"`
	MapServer  MapServerConfig  `yaml:"map_server"`
	Processing ProcessingConfig `yaml:"processing"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// EngineConfig contains container engine connection settings
type EngineConfig struct {
	// Host overrides the engine endpoint, e.g. tcp://192.168.59.103:2376
	Host      string `yaml:"host"`
	CertPath  string `yaml:"cert_path"`
	TLSVerify bool   `yaml:"tls_verify"`

	// VMManager names the local VM bootstrap binary; empty disables the VM path
	VMManager string `yaml:"vm_manager"`

	// Platform pins created containers to os/arch[/variant]
	Platform string `yaml:"platform"`

	// StopTimeout is the grace period in seconds before a stop kills the container
	StopTimeout int `yaml:"stop_timeout" validate:"gte=0"`
}

// DatabaseConfig contains the spatial database credentials
type DatabaseConfig struct {
	HostPort          int    `yaml:"host_port" validate:"min=1,max=65535"`
	DefaultPassword   string `yaml:"tethys_default_pass" validate:"required"`
	DBManagerPassword string `yaml:"tethys_db_manager_pass" validate:"required"`
	SuperPassword     string `yaml:"tethys_super_pass" validate:"required"`
}

// MapServerConfig contains map server cluster and flow control settings
type MapServerConfig struct {
	HostPort     int               `yaml:"host_port" validate:"min=1,max=65535"`
	EnabledNodes int               `yaml:"enabled_nodes" validate:"min=1,max=4"`
	RestNodes    int               `yaml:"rest_nodes" validate:"min=1,max=4"`
	FlowControl  FlowControlConfig `yaml:"flow_control"`
}

// FlowControlConfig limits simultaneous requests to the map server
type FlowControlConfig struct {
	Mode         string `yaml:"mode" validate:"oneof=cores explicit"`
	MaxTimeout   int    `yaml:"max_timeout" validate:"min=1"`
	NumCores     int    `yaml:"num_cores" validate:"min=1"`
	MaxOWSGlobal int    `yaml:"max_ows_global" validate:"min=1"`
	MaxWMSGetMap int    `yaml:"max_wms_getmap" validate:"min=1"`
	MaxOWSGWC    int    `yaml:"max_ows_gwc" validate:"min=1"`
	MaxPerUser   int    `yaml:"max_per_user" validate:"min=1"`
}

// ProcessingConfig contains the processing service contact and admin settings
type ProcessingConfig struct {
	HostPort      int           `yaml:"host_port" validate:"min=1,max=65535"`
	Contact       ContactConfig `yaml:"contact"`
	AdminUsername string        `yaml:"admin_username" validate:"required"`
	AdminPassword string        `yaml:"admin_password" validate:"required"`
}

// ContactConfig is the service provider contact published by the processing service
type ContactConfig struct {
	Name       string `yaml:"name"`
	Position   string `yaml:"position"`
	Address    string `yaml:"address"`
	City       string `yaml:"city"`
	State      string `yaml:"state"`
	Country    string `yaml:"country"`
	PostalCode string `yaml:"postal_code"`
	Email      string `yaml:"email"`
	Phone      string `yaml:"phone"`
	Fax        string `yaml:"fax"`
}

// MetricsConfig contains metrics export settings
type MetricsConfig struct {
	// Textfile receives per-command counters in Prometheus text format when set
	Textfile string `yaml:"textfile"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Engine: EngineConfig{
			VMManager:   "boot2docker",
			StopTimeout: 10,
		},
		Database: DatabaseConfig{
			HostPort:          catalog.MustLookup(catalog.DatabaseGIS).DefaultHostPort,
			DefaultPassword:   "pass",
			DBManagerPassword: "pass",
			SuperPassword:     "pass",
		},
		MapServer: MapServerConfig{
			HostPort:     catalog.MustLookup(catalog.MapServer).DefaultHostPort,
			EnabledNodes: 1,
			RestNodes:    1,
			FlowControl: FlowControlConfig{
				Mode:         FlowControlCores,
				MaxTimeout:   60,
				NumCores:     4,
				MaxOWSGlobal: 100,
				MaxWMSGetMap: 8,
				MaxOWSGWC:    16,
				MaxPerUser:   8,
			},
		},
		Processing: ProcessingConfig{
			HostPort: catalog.MustLookup(catalog.ProcessingService).DefaultHostPort,
			Contact: ContactConfig{
				Name:       "NONE",
				Position:   "NONE",
				Address:    "NONE",
				City:       "NONE",
				State:      "NONE",
				Country:    "NONE",
				PostalCode: "NONE",
				Email:      "NONE",
				Phone:      "NONE",
				Fax:        "NONE",
			},
			AdminUsername: "wps",
			AdminPassword: "wps",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables so secrets can stay out of the file
	expanded := []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Passwords live here
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.MapServer.RestNodes > c.MapServer.EnabledNodes {
		return fmt.Errorf("map_server.rest_nodes (%d) cannot exceed map_server.enabled_nodes (%d)",
			c.MapServer.RestNodes, c.MapServer.EnabledNodes)
	}

	seen := make(map[int]catalog.ServiceID)
	for _, id := range catalog.All() {
		port := c.HostPort(id)
		if other, dup := seen[port]; dup {
			return fmt.Errorf("%s and %s both bind host port %d", other, id, port)
		}
		seen[port] = id
	}

	return nil
}

// HostPort returns the host port the service's container port is published on
func (c *Config) HostPort(id catalog.ServiceID) int {
	switch id {
	case catalog.DatabaseGIS:
		return c.Database.HostPort
	case catalog.MapServer:
		return c.MapServer.HostPort
	case catalog.ProcessingService:
		return c.Processing.HostPort
	}
	return 0
}

// Environment returns the container environment for a service as KEY=value pairs
func (c *Config) Environment(id catalog.ServiceID) []string {
	switch id {
	case catalog.DatabaseGIS:
		return []string{
			"TETHYS_DEFAULT_PASS=" + c.Database.DefaultPassword,
			"TETHYS_DB_MANAGER_PASS=" + c.Database.DBManagerPassword,
			"TETHYS_SUPER_PASS=" + c.Database.SuperPassword,
		}
	case catalog.MapServer:
		if !Clustered(catalog.MustLookup(id).Image) {
			return nil
		}
		fc := c.MapServer.FlowControl
		env := []string{
			"ENABLED_NODES=" + strconv.Itoa(c.MapServer.EnabledNodes),
			"REST_NODES=" + strconv.Itoa(c.MapServer.RestNodes),
			"MAX_TIMEOUT=" + strconv.Itoa(fc.MaxTimeout),
		}
		if fc.Mode == FlowControlExplicit {
			return append(env,
				"MAX_OWS_GLOBAL="+strconv.Itoa(fc.MaxOWSGlobal),
				"MAX_WMS_GETMAP="+strconv.Itoa(fc.MaxWMSGetMap),
				"MAX_OWS_GWC="+strconv.Itoa(fc.MaxOWSGWC),
				"MAX_PER_USER="+strconv.Itoa(fc.MaxPerUser),
			)
		}
		return append(env, "NUM_CORES="+strconv.Itoa(fc.NumCores))
	case catalog.ProcessingService:
		ct := c.Processing.Contact
		return []string{
			"NAME=" + ct.Name,
			"POSITION=" + ct.Position,
			"ADDRESS=" + ct.Address,
			"CITY=" + ct.City,
			"STATE=" + ct.State,
			"COUNTRY=" + ct.Country,
			"POSTAL_CODE=" + ct.PostalCode,
			"EMAIL=" + ct.Email,
			"PHONE=" + ct.Phone,
			"FAX=" + ct.Fax,
			"USERNAME=" + c.Processing.AdminUsername,
			"PASSWORD=" + c.Processing.AdminPassword,
		}
	}
	return nil
}

// Clustered reports whether a map server image supports cluster settings
func Clustered(image string) bool {
	return strings.Contains(image, "cluster")
}
