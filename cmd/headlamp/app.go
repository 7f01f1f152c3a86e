package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ethria/headlamp/internal/addon"
	"github.com/ethria/headlamp/internal/api"
	"github.com/ethria/headlamp/internal/command"
	"github.com/ethria/headlamp/internal/config"
	"github.com/ethria/headlamp/internal/dispatcher"
	"github.com/ethria/headlamp/internal/handlers"
	"github.com/ethria/headlamp/internal/i18n"
	"github.com/ethria/headlamp/internal/influx"
	"github.com/ethria/headlamp/internal/light"
	"github.com/ethria/headlamp/internal/logging"
	"github.com/ethria/headlamp/internal/monitor"
	intOtel "github.com/ethria/headlamp/internal/otel"
	"github.com/ethria/headlamp/internal/parser"
	"github.com/ethria/headlamp/internal/registry"
	"github.com/ethria/headlamp/internal/sim"
	"github.com/ethria/headlamp/internal/storage"
	"github.com/ethria/headlamp/internal/tracker"
	"github.com/ethria/headlamp/internal/version"
	"github.com/ethria/headlamp/pkg/core"
	"github.com/ethria/headlamp/pkg/host"
)

// app holds everything one run of the engine is wired from.
type app struct {
	started time.Time
	session *core.Session

	slogManager *logging.SlogManager
	logger      *slog.Logger
	logFile     *os.File
	otel        *intOtel.Provider
	graylog     io.Closer
	influx      *influx.Recorder

	backend    storage.Backend
	world      *sim.Sim
	engine     *light.Engine
	dispatcher *dispatcher.Dispatcher
	bridge     *host.Bridge
	catalog    *i18n.Catalog
	commands   *command.Handler
	modules    *addon.Manager
	monitor    *monitor.Service
}

// newApp loads configuration from configDir and wires every component
// against the in-memory host. Modules are not enabled yet.
func newApp(configDir string) (*app, error) {
	a := &app{started: time.Now(), slogManager: logging.NewSlogManager()}

	// stdout until the log file exists
	a.slogManager.Setup(logging.Options{Level: "info"})
	a.logger = a.slogManager.Logger()

	if err := config.Load(configDir); err != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", err)
	}
	general := config.GetGeneralConfig()

	if err := a.setupLogging(general); err != nil {
		return nil, err
	}

	a.session = &core.Session{
		Key:       core.NewSessionKey(Server, a.started),
		Server:    Server,
		Version:   version.Version,
		StartedAt: a.started,
	}

	if err := a.setupJournal(); err != nil {
		a.close()
		return nil, err
	}
	a.setupInflux(general)

	if err := a.setupEngine(general); err != nil {
		a.close()
		return nil, err
	}

	a.slogManager.SetContextProvider(func() []slog.Attr {
		return []slog.Attr{
			slog.String("session", a.session.Key),
			slog.Bool("engineRunning", a.engine.Running()),
			slog.Int("trackedMarkers", a.engine.TrackedMarkers()),
		}
	})

	return a, nil
}

func (a *app) setupLogging(general config.GeneralConfig) error {
	f, path, err := logging.OpenLogFile(general.LogsDir, ExtensionName, a.started)
	if err != nil {
		if path == "" {
			return err
		}
		a.logger.Error("Failed to create/open log file!", "error", err, "path", path)
	} else {
		a.logFile = f
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled && a.logFile != nil {
		a.otel, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      a.logFile,
			MetricWriter:   a.logFile,
			MetricInterval: otelCfg.MetricInterval,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
		})
		if err != nil {
			a.logger.Error("Failed to initialize OTel provider", "error", err)
		}
	}

	opts := logging.Options{Level: general.LogLevel, Format: general.LogFormat}
	if a.logFile != nil {
		opts.Output = a.logFile
	}
	if a.otel != nil {
		opts.Provider = a.otel.LoggerProvider()
	}
	if gl := config.GetGraylogConfig(); gl.Enabled {
		h, closer, err := logging.NewGraylogHandler(gl.Address, general.LogLevel)
		if err != nil {
			a.logger.Error("Failed to connect Graylog", "address", gl.Address, "error", err)
		} else {
			opts.Extra = append(opts.Extra, h)
			a.graylog = closer
		}
	}

	a.slogManager.Setup(opts)
	a.logger = a.slogManager.Logger()
	a.logger.Info("Logging to file", "path", path, "otel", a.otel != nil, "graylog", a.graylog != nil)
	return nil
}

// zerologger returns a zerolog logger writing next to the slog output.
func (a *app) zerologger(component string) zerolog.Logger {
	var w io.Writer = os.Stdout
	if a.logFile != nil {
		w = a.logFile
	}
	return zerolog.New(w).With().Timestamp().Str("component", component).Logger()
}

func (a *app) setupJournal() error {
	backend, err := createStorageBackend(config.GetStorageConfig(), a.logger, a.zerologger("database"))
	if err != nil {
		return fmt.Errorf("failed to create journal backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize journal backend: %w", err)
	}
	a.backend = backend
	return nil
}

func (a *app) setupInflux(general config.GeneralConfig) {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return
	}
	logsDir := cfg.LogsDir
	if logsDir == "" {
		logsDir = general.LogsDir
	}
	backup := filepath.Join(logsDir, fmt.Sprintf("%s_influx_%s.log.gz", ExtensionName, a.started.Format("20060102_150405")))

	r, err := influx.Open(cfg, backup, a.zerologger("influx"))
	if err != nil {
		a.logger.Error("Failed to set up pass statistics", "error", err)
		return
	}
	a.influx = r
}

func (a *app) setupEngine(general config.GeneralConfig) error {
	a.world = sim.New()

	var recorder light.PassRecorder
	if a.influx != nil {
		recorder = a.influx
	}

	reg := registry.New(a.logger)
	engine, err := light.New(light.Dependencies{
		Host:     a.world,
		Registry: reg,
		Tracker:  tracker.New(),
		Logger:   a.logger.With("module", addon.CustomLightName),
		Journal:  a.backend,
		Recorder: recorder,
	}, addon.Settings(config.GetLightConfig()))
	if err != nil {
		return err
	}
	a.engine = engine

	a.dispatcher, err = dispatcher.New(a.logger)
	if err != nil {
		return err
	}
	a.bridge = host.NewBridge(a.dispatcher)

	a.catalog, err = i18n.New(general.Language, a.logger)
	if err != nil {
		return err
	}

	p := parser.NewParser(a.logger)
	customLight, err := addon.NewCustomLight(addon.CustomLightDeps{
		Engine:     engine,
		Dispatcher: a.dispatcher,
		Parser:     p,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}

	a.modules = addon.NewManager(addon.Dependencies{
		Enabled: config.ModuleEnabled,
		ReloadHooks: []func() error{
			config.Reload,
			func() error {
				general := config.GetGeneralConfig()
				a.catalog.SetLanguage(general.Language)
				a.commands.SetAliases(general.CommandAliases)
				return nil
			},
		},
		Logger: a.logger,
	}, customLight)

	a.commands = command.New(command.Dependencies{
		Messages:    a.catalog,
		Reloader:    a.modules,
		CustomLight: customLight,
		Logger:      a.logger,
	}, general.CommandAliases)

	svc := handlers.NewService(handlers.Dependencies{Commands: a.commands, Parser: p, Logger: a.logger})
	if err := svc.RegisterCommands(a.dispatcher); err != nil {
		return err
	}

	if mc := config.GetMonitorConfig(); mc.Enabled {
		var pending func() int
		if q, ok := a.backend.(interface{ Pending() int }); ok {
			pending = q.Pending
		}
		a.monitor = monitor.NewService(monitor.Dependencies{
			Engine:     engine,
			Pending:    pending,
			SessionKey: a.session.Key,
			StatusFile: mc.StatusFile,
			Interval:   mc.Interval,
			Logger:     a.logger,
		})
	}
	return nil
}

// start opens the journal session, enables the modules and starts the monitor.
func (a *app) start() error {
	a.session.Settings = map[string]any{
		"light":   config.GetLightConfig(),
		"storage": config.GetStorageConfig().Type,
	}
	if err := a.backend.StartSession(a.session); err != nil {
		a.logger.Error("Failed to start journal session", "error", err)
	}

	if n := a.modules.EnableAll(); n == 0 {
		return errors.New("no module could be enabled")
	}

	if a.monitor != nil {
		if err := a.monitor.Start(); err != nil {
			a.logger.Error("Failed to start status monitor", "error", err)
		}
	}
	return nil
}

// upload sends an exported journal to the collector when storage.upload is enabled.
func (a *app) upload(path string) {
	cfg := config.GetStorageConfig().Upload
	if !cfg.Enabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := api.New(cfg.URL, cfg.APIKey)
	if err := client.Healthcheck(ctx); err != nil {
		a.logger.Warn("Journal collector unreachable, keeping local export", "url", cfg.URL, "error", err)
		return
	}
	meta := storage.UploadMetadata{
		Session:  a.session.Key,
		Server:   a.session.Server,
		Duration: time.Since(a.started).Seconds(),
		Tag:      cfg.Tag,
	}
	if err := client.Upload(ctx, path, meta); err != nil {
		a.logger.Error("Failed to upload journal", "path", path, "error", err)
		return
	}
	a.logger.Info("Journal uploaded", "url", cfg.URL, "session", meta.Session)
}

// close tears everything down in reverse order. Safe on a partially built app.
func (a *app) close() {
	if a.monitor != nil {
		a.monitor.Stop()
	}
	if a.modules != nil {
		a.modules.DisableAll()
	}
	if a.backend != nil {
		if err := a.backend.EndSession(); err != nil {
			a.logger.Error("Failed to end journal session", "error", err)
		}
		if err := a.backend.Close(); err != nil {
			a.logger.Error("Failed to close journal backend", "error", err)
		}
		if ex, ok := a.backend.(storage.Exporter); ok && ex.ExportedFilePath() != "" {
			a.logger.Info("Journal exported", "path", ex.ExportedFilePath())
			a.upload(ex.ExportedFilePath())
		}
	}
	if a.influx != nil {
		_ = a.influx.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil {
			a.logger.Error("Failed to shut down OTel provider", "error", err)
		}
	}
	if a.graylog != nil {
		_ = a.graylog.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
