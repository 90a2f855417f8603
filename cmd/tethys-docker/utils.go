package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rileyhales/tethys/pkg/catalog"
	"github.com/rileyhales/tethys/pkg/commands"
	"github.com/rileyhales/tethys/pkg/config"
	"github.com/rileyhales/tethys/pkg/engine"
	"github.com/rileyhales/tethys/pkg/lifecycle"
	"github.com/rileyhales/tethys/pkg/metrics"
	"github.com/rileyhales/tethys/pkg/prompt"
	"github.com/rileyhales/tethys/pkg/reporting"
	"github.com/rs/zerolog/log"
)

// configPath returns the configuration file in use
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath
}

// loadConfig loads the configuration from file, auto-generating if needed
func loadConfig() (*config.Config, error) {
	path := configPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		log.Info().Str("path", path).Msg("Config file not found, created default configuration")
		return cfg, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// initLogging configures the global logger from flags and config and returns the
// command logger
func initLogging(cfg *config.Config, command string) *reporting.Logger {
	level := reporting.ParseLogLevel(cfg.Logging.Level)
	if verbose {
		level = reporting.LogLevelDebug
	}
	lc := reporting.LoggerConfig{
		Level:   level,
		Format:  reporting.LogFormat(cfg.Logging.Format),
		Output:  os.Stderr,
		NoColor: noColor,
	}
	reporting.InitGlobalLogger(lc)
	return reporting.NewLogger(lc).WithField("command", command)
}

// selection parses the --containers flag
func selection() ([]catalog.ServiceID, error) {
	if len(containers) == 0 {
		return nil, nil
	}
	return catalog.Select(containers)
}

// selectedOrAll expands an empty selection to every service
func selectedOrAll(ids []catalog.ServiceID) []catalog.ServiceID {
	if len(ids) == 0 {
		return catalog.All()
	}
	return ids
}

// session bundles everything one command invocation needs
type session struct {
	name      string
	started   time.Time
	logger    *reporting.Logger
	cfg       *config.Config
	conn      *engine.Connection
	connector *engine.Connector
	runner    *commands.Runner
	console   *reporting.Console
	recorder  *metrics.Recorder
}

// openSession loads config, connects to the engine and wires the lifecycle stack
func openSession(ctx context.Context, name string) (*session, error) {
	// Log to stderr with defaults until the config is read
	reporting.InitGlobalLogger(reporting.LoggerConfig{Level: reporting.LogLevelInfo, NoColor: noColor})

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := initLogging(cfg, name)
	logger.Debug("tethys-docker starting", "version", version, "config", configPath())

	var vm engine.VMManager
	if cfg.Engine.VMManager != "" {
		vm = engine.NewBoot2Docker(cfg.Engine.VMManager)
	}
	connector := engine.NewConnector(vm)
	connector.Override = engine.Endpoint{
		Host:      cfg.Engine.Host,
		CertPath:  cfg.Engine.CertPath,
		TLSVerify: cfg.Engine.TLSVerify,
	}
	connector.StopTimeout = cfg.Engine.StopTimeout

	conn, err := connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	stdoutTTY := prompt.Interactive(os.Stdout)
	progressFormat := reporting.FormatPlain
	if stdoutTTY {
		progressFormat = reporting.FormatText
	}

	recorder := metrics.NewRecorder()
	manager := lifecycle.NewManager(conn, cfg,
		lifecycle.WithPlatform(cfg.Engine.Platform),
		lifecycle.WithProgress(reporting.NewPullProgress(os.Stdout, progressFormat)),
		lifecycle.WithObserver(recorder),
	)

	logger.Debug("Engine ready", "host", conn.HostAddress, "api_version", conn.APIVersion, "vm", conn.ViaVM)

	return &session{
		name:      name,
		started:   time.Now(),
		logger:    logger,
		cfg:       cfg,
		conn:      conn,
		connector: connector,
		runner:    commands.NewRunner(manager, conn.HostAddress, connector),
		console:   reporting.NewConsole(os.Stdout, stdoutTTY && !noColor),
		recorder:  recorder,
	}, nil
}

// close records the command, exports metrics and releases the connection
func (s *session) close(err error) error {
	elapsed := time.Since(s.started)
	s.recorder.ObserveCommand(s.name, elapsed, err)

	if path := s.cfg.Metrics.Textfile; path != "" {
		if werr := s.recorder.WriteTextfile(path); werr != nil {
			s.logger.Warn("Failed to write metrics", "path", path, "error", werr)
		}
	}

	if cerr := s.conn.Close(); cerr != nil {
		s.logger.Debug("Failed to close engine connection", "error", cerr)
	}
	s.logger.Debug("Command finished", "duration", elapsed.String(), "failed", err != nil)
	return err
}

// collectSettings asks for the settings of services about to be created unless
// defaults were requested or stdin is not a terminal, then saves them
func collectSettings(s *session, pending []catalog.ServiceID, defaults bool) error {
	if defaults || len(pending) == 0 {
		return nil
	}
	if !prompt.Interactive(os.Stdin) {
		s.logger.Warn("Standard input is not a terminal, using configured values")
		return nil
	}

	p := prompt.New(s.cfg).Accessible(os.Getenv("ACCESSIBLE") != "")
	if err := p.Run(pending); err != nil {
		return err
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	if err := s.cfg.Save(configPath()); err != nil {
		return err
	}
	s.logger.Info("Saved settings", "path", configPath())
	return nil
}

// finish prints a report and turns its failures into the command error
func finish(s *session, report lifecycle.Report) error {
	s.console.Report(report)
	return s.close(report.Err())
}

// printError prints a command error with a hint for the common cases
func printError(err error) {
	console := reporting.NewConsole(os.Stderr, prompt.Interactive(os.Stderr) && !noColor)
	console.Error(err)

	switch {
	case errors.Is(err, engine.ErrEngineUnavailable):
		fmt.Fprintln(os.Stderr, "  Is Docker running? Set engine.host in the config or DOCKER_HOST to point at it.")
	case errors.Is(err, catalog.ErrUnknownService):
		fmt.Fprintln(os.Stderr, "  Valid services are: postgis, geoserver, wps.")
	}
}
