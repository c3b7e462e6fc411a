// Package app wires the daemon together: configuration, input source,
// scheduler, execution engine, injector, and the companion endpoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/pedald/internal/api"
	"github.com/dshills/pedald/internal/config"
	"github.com/dshills/pedald/internal/device"
	"github.com/dshills/pedald/internal/engine"
	"github.com/dshills/pedald/internal/inject"
	"github.com/dshills/pedald/internal/logging"
	"github.com/dshills/pedald/internal/schedule"
)

// Options are the daemon's startup settings, usually from flags.
type Options struct {
	// ConfigPath overrides the default config location.
	ConfigPath string

	// LogLevel overrides the config file's log level.
	LogLevel string

	// DryRun logs actions instead of injecting them.
	DryRun bool

	// Listen overrides the config file's companion endpoint address.
	// Empty falls back to the config; "off" disables the endpoint.
	Listen string

	// Version is reported on the status endpoint.
	Version string
}

// Application owns the daemon's components and their lifecycle.
type Application struct {
	opts Options
	log  *logging.Logger

	cfgPath string
	file    *config.File

	// storeMu guards store and server, which HTTP handler and engine
	// worker goroutines read while Run is still wiring.
	storeMu sync.Mutex
	store   *config.Store
	server  *api.Server

	inj     inject.Injector
	eng     *engine.Engine
	sched   *schedule.Scheduler
	src     device.Source
	watcher *config.Watcher

	started time.Time

	shutdownOnce sync.Once
	shutdownErr  error
}

// New loads configuration and prepares the application. Nothing
// touches hardware until Run.
func New(opts Options) (*Application, error) {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}

	file, created, err := config.LoadOrCreate(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	store, err := config.Build(file)
	if err != nil {
		return nil, fmt.Errorf("build config: %w", err)
	}

	level := file.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(level)
	log := logging.New(logCfg)

	if created {
		log.Info("wrote default config to %s", cfgPath)
	}

	return &Application{
		opts:    opts,
		log:     log,
		cfgPath: cfgPath,
		file:    file,
		store:   store,
	}, nil
}

// Logger returns the application logger.
func (a *Application) Logger() *logging.Logger { return a.log }

// Run starts every component and blocks until the scheduler stops,
// whether by ctx, a fatal input error, or the device going away with
// nothing left to do. Shutdown always runs before Run returns.
func (a *Application) Run(ctx context.Context) error {
	a.started = time.Now()

	if err := a.buildInjector(); err != nil {
		return err
	}

	a.eng = engine.New(a.inj,
		engine.WithLogger(a.log),
		engine.WithHook(a.noticeHook()),
	)
	if err := a.eng.Start(a.currentStore().Buttons()); err != nil {
		a.Shutdown()
		return fmt.Errorf("start engine: %w", err)
	}

	a.sched = schedule.New(a.currentStore(), a.dispatcher(), schedule.WithLogger(a.log))
	a.eng.SetDeferrer(a.sched)

	if err := a.buildServer(); err != nil {
		a.Shutdown()
		return err
	}

	buttons := a.file.Device.ButtonCount
	if buttons <= 0 {
		buttons = config.DefaultButtonCount
	}
	src, err := device.Open(a.file.Source, buttons, a.log)
	if err != nil {
		a.Shutdown()
		return fmt.Errorf("open input source: %w", err)
	}
	a.src = src

	if err := a.watchConfig(); err != nil {
		a.log.Warn("config watching disabled: %v", err)
	}

	runErr := a.sched.Run(ctx, src.Snapshots())
	a.Shutdown()

	switch {
	case errors.Is(runErr, context.Canceled):
		return nil
	case errors.Is(runErr, schedule.ErrSourceClosed):
		if devErr := src.Err(); devErr != nil {
			return devErr
		}
		return runErr
	default:
		return runErr
	}
}

// Shutdown stops every component in reverse dependency order. It is
// safe to call more than once; only the first call does the work.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.log.Info("shutting down")

		if a.watcher != nil {
			if err := a.watcher.Close(); err != nil {
				a.log.Error("close watcher: %v", err)
			}
		}
		if a.src != nil {
			if err := a.src.Close(); err != nil {
				a.log.Error("close input source: %v", err)
			}
		}
		if server := a.getServer(); server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := server.Shutdown(ctx); err != nil {
				a.log.Error("shutdown endpoint: %v", err)
			}
			cancel()
		}
		if a.eng != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := a.eng.Stop(ctx); err != nil {
				a.shutdownErr = fmt.Errorf("stop engine: %w", err)
				a.log.Error("stop engine: %v", err)
			}
			cancel()
		}
		if a.inj != nil {
			if err := a.inj.Close(); err != nil {
				a.log.Error("close injector: %v", err)
			}
		}
	})
	return a.shutdownErr
}

func (a *Application) buildInjector() error {
	if a.opts.DryRun {
		a.log.Info("dry run, actions are logged instead of injected")
		a.inj = inject.NewRecorder(a.log)
		return nil
	}
	inj, err := inject.NewUinput("pedald")
	if err != nil {
		return fmt.Errorf("create virtual input devices: %w", err)
	}
	a.inj = inj
	return nil
}

func (a *Application) buildServer() error {
	addr := a.file.Listen
	if a.opts.Listen != "" {
		addr = a.opts.Listen
	}
	if addr == "" || addr == "off" {
		return nil
	}
	server := api.NewServer(addr, a.status, a.log)
	if err := server.Start(); err != nil {
		return fmt.Errorf("start endpoint on %s: %w", addr, err)
	}
	a.setServer(server)
	return nil
}

func (a *Application) watchConfig() error {
	w, err := config.NewWatcher(a.cfgPath,
		func(store *config.Store) {
			a.log.Info("configuration reloaded")
			a.setStore(store)
			a.sched.Swap(store)
		},
		func(err error) {
			a.log.Error("config reload rejected: %v", err)
		},
	)
	if err != nil {
		return err
	}
	a.watcher = w
	return nil
}
