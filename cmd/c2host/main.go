package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/EchoPBX/c2host/internal/config"
	"github.com/EchoPBX/c2host/internal/dispatch"
	"github.com/EchoPBX/c2host/internal/events"
	"github.com/EchoPBX/c2host/internal/httpserver"
	"github.com/EchoPBX/c2host/internal/journal"
	"github.com/EchoPBX/c2host/internal/logging"
	"github.com/EchoPBX/c2host/internal/plugins"
	"github.com/EchoPBX/c2host/internal/reloader"
	"github.com/EchoPBX/c2host/internal/uplink"
	"github.com/EchoPBX/c2host/pkg/sdk"
	"go.uber.org/zap"
)

// builtins are root modules linked into the binary. A configured plugin
// with a builtin's name skips the library search. The stock build has none.
var builtins map[string]*sdk.RootModule

func main() {
	os.Exit(run())
}

func configPath() string {
	if p := os.Getenv("C2HOST_CONFIG"); p != "" {
		return p
	}
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return "/etc/c2host/config.yaml"
}

func run() int {
	cfgPath := configPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "c2host: %v\n", err)
		return 1
	}

	logger, level := logging.New(logging.Cfg{
		Level: cfg.Logging.Level,
		JSON:  cfg.Logging.JSON,
	})
	defer func() { _ = logger.Sync() }()

	fmt.Println(`
   ___ ___  _               _
  / __|_  )| |_   ___  ___ | |_
 | (__ / / | ' \ / _ \(_-< |  _|
  \___/___||_||_|\___//__/  \__|

c2 plugin host, interface ` + sdk.InterfaceVersion.String() + `
------------------------------------------
Config:  ` + cfgPath + `
`)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bus := events.NewBus(events.WithLogger(logger))
	appOpts := []dispatch.AppOption{
		dispatch.WithIdleTimeout(cfg.Dispatch.IdleTimeout),
		dispatch.WithObserver(bus),
	}

	var jr *journal.Journal
	if cfg.Journal.Enabled {
		jr, err = journal.Open(ctx, cfg.Journal.Path, logger)
		if err != nil {
			logger.Error("could not open journal", zap.Error(err))
			return 1
		}
		defer func() { _ = jr.Close() }()
		appOpts = append(appOpts, dispatch.WithObserver(jr))
	}

	reg := plugins.NewRegistry()
	if cfg.HTTP.Enabled {
		reg.Register(sdk.PluginID(cfg.HTTP.EndpointID), plugins.Endpoint(cfg.HTTP.EndpointID).New)
	}
	if cfg.Uplink.Enabled {
		reg.Register(sdk.PluginID(cfg.Uplink.EndpointID), plugins.Endpoint(cfg.Uplink.EndpointID).New)
	}

	loader := plugins.NewLoader(logger,
		plugins.WithSearchDirs(cfg.Plugins.Dirs...),
		plugins.WithBuiltins(builtins))
	loaded := loader.Load(cfg.Plugins.Load, reg)
	logger.Info("libraries resolved",
		zap.Int("requested", len(cfg.Plugins.Load)),
		zap.Int("loaded", len(loaded)))

	state := dispatch.NewState()
	mgr := plugins.NewManager(logger)
	if err := mgr.Instantiate(reg, state.Sender()); err != nil {
		logger.Error("plugin instantiation failed, aborting", zap.Error(err))
		mgr.Shutdown(state.View())
		return 1
	}

	if cfg.Uplink.Enabled {
		up := uplink.NewClient(cfg, logger, state.Sender())
		appOpts = append(appOpts, dispatch.WithObserver(up))
		go up.Run(ctx)
		defer up.Close()
	}

	app := dispatch.NewApp(mgr, state, logger, appOpts...)
	host := dispatch.NewHost(app, logger, dispatch.WithPollInterval(cfg.Dispatch.PollInterval))

	var httpSrv *http.Server
	if cfg.HTTP.Enabled {
		var opts []httpserver.Option
		if jr != nil {
			opts = append(opts, httpserver.WithJournal(jr))
		}
		srv, err := httpserver.New(cfg, logger, bus, state.Sender(), mgr, opts...)
		if err != nil {
			logger.Error("admin api", zap.Error(err))
			app.Close()
			return 1
		}
		httpSrv = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Bind, cfg.HTTP.Port),
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			var err error
			if cfg.HTTP.TLS.Enabled {
				err = httpSrv.ListenAndServeTLS(cfg.HTTP.TLS.Cert, cfg.HTTP.TLS.Key)
			} else {
				err = httpSrv.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http", zap.Error(err))
				cancel()
			}
		}()
		logger.Info("admin api listening", zap.String("addr", httpSrv.Addr))
	}


	reloader.OnSIGHUP(ctx, func() {
		newCfg, err := config.Load(cfgPath)
		if err != nil {
			logger.Warn("config reload failed", zap.Error(err))
			return
		}
		if !logging.SetLevel(level, newCfg.Logging.Level) {
			logger.Warn("unknown log level, keeping current", zap.String("level", newCfg.Logging.Level))
		}
		if !slices.Equal(newCfg.Plugins.Load, cfg.Plugins.Load) {
			logger.Warn("plugin set changed, restart to apply")
		}
		logger.Info("reloaded config", zap.Stringer("level", level))
	})

	if err := host.Run(ctx, cfg.Commands); err != nil {
		logger.Info("host stopped", zap.Error(err))
	}

	if httpSrv != nil {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = httpSrv.Shutdown(sctx)
	}
	logger.Info("bye")
	return 0
}
