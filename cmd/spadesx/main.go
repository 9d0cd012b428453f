// Package main is the entry point for the SpadesX server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/spadesx/spadesx/internal/config"
	"github.com/spadesx/spadesx/internal/logging"
	"github.com/spadesx/spadesx/internal/permstore"
	"github.com/spadesx/spadesx/internal/plugin"
	"github.com/spadesx/spadesx/internal/plugin/lua"
	"github.com/spadesx/spadesx/internal/server"
	"github.com/spadesx/spadesx/internal/transport/ws"
	"github.com/spadesx/spadesx/internal/world"
	"github.com/spadesx/spadesx/internal/world/mapio"
	"github.com/spadesx/spadesx/pkg/pluginapi"
	"github.com/spadesx/spadesx/plugins/babel"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const shutdownTimeout = 10 * time.Second

type options struct {
	configPath string
	listen     string
	logLevel   string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.listen != "" {
		cfg.Server.Listen = opts.listen
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("server failed", zap.Error(err))
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := permstore.Open(ctx, cfg.Permissions.Database)
	if err != nil {
		return fmt.Errorf("opening permission store: %w", err)
	}
	defer store.Close()
	for _, name := range cfg.Permissions.Admins {
		if _, err := store.Grant(ctx, name, pluginapi.PermAdmin); err != nil {
			return fmt.Errorf("granting admin to %q: %w", name, err)
		}
	}

	wc, err := cfg.WorldConfig()
	if err != nil {
		return err
	}
	w, err := world.New(wc)
	if err != nil {
		return err
	}
	if path := cfg.Map.Snapshot; path != "" {
		switch err := mapio.Load(path, w); {
		case err == nil:
			logger.Info("map snapshot loaded", zap.String("path", path), zap.Int("blocks", w.BlockCount()))
		case errors.Is(err, os.ErrNotExist):
			logger.Info("no map snapshot yet", zap.String("path", path))
		default:
			return fmt.Errorf("loading map snapshot: %w", err)
		}
	}

	builtins := plugin.NewBuiltinOpener()
	babel.Register(builtins)

	srv, err := server.New(server.Config{
		Name:         cfg.Server.Name,
		MaxPlayers:   cfg.Server.MaxPlayers,
		TickRate:     cfg.Server.TickRate,
		InboxSize:    server.DefaultConfig().InboxSize,
		SnapshotPath: cfg.Map.Snapshot,
	}, w,
		server.WithLogger(logger),
		server.WithOpeners(builtins, plugin.NativeOpener{}, lua.Opener{Logger: logger.Named("lua")}),
		server.WithPermissions(store),
	)
	if err != nil {
		return err
	}

	sx, sy, sz := w.Size()
	hub := ws.NewHub(srv, [3]int32{sx, sy, sz}, ws.WithLogger(logger.Named("ws")))
	srv.AttachTransport(hub)

	paths, err := pluginPaths(cfg)
	if err != nil {
		logger.Warn("some plugins were not found", zap.Error(err))
	}
	if err := srv.Start(ctx, paths); err != nil {
		logger.Warn("some plugins failed to load", zap.Error(err))
	}

	if cfg.Plugins.Watch {
		if watcher, err := plugin.NewWatcher(srv.Registry()); err != nil {
			logger.Warn("plugin watcher unavailable", zap.Error(err))
		} else {
			defer watcher.Close()
			if err := watcher.Sync(); err != nil {
				logger.Warn("watching plugin directories", zap.Error(err))
			}
			go watcher.Run(ctx) //nolint:errcheck
			go reportChanges(ctx, watcher.Changes(), srv.Registry(), logger.Named("watch"))
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub.Handler())
	httpServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Listen), zap.String("version", version))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- srv.Run(runCtx) }()

	var failure error
	running := true
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case failure = <-listenErr:
	case failure = <-runErr:
		running = false
	}
	cancel()
	if running {
		<-runErr
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	if failure != nil && !errors.Is(failure, context.Canceled) {
		return failure
	}
	return nil
}

// reportChanges logs every changed image together with the plugins still
// running its old code.
func reportChanges(ctx context.Context, changes <-chan string, reg *plugin.Registry, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-changes:
			stale := make([]string, 0, 1)
			for _, rec := range reg.List() {
				if rec.Path() == path {
					stale = append(stale, rec.Name())
				}
			}
			logger.Info("restart required to pick up plugin change",
				zap.String("path", path), zap.Strings("plugins", stale))
		}
	}
}

// pluginPaths resolves the configured load list. An empty list loads every
// image in the plugin directory.
func pluginPaths(cfg *config.Config) ([]string, error) {
	if len(cfg.Plugins.Load) == 0 {
		return plugin.NewLoader(plugin.WithPaths(cfg.Plugins.Dir)).Discover()
	}
	// Relative entries are already joined with the plugin directory.
	return plugin.NewLoader(plugin.WithPaths(".")).ResolveAll(cfg.PluginPaths())
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.listen, "listen", "", "Websocket listen address, overrides the config")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "SpadesX - voxel game server with a plugin host\n\n")
		fmt.Fprintf(os.Stderr, "Usage: spadesx [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("SpadesX %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.logLevel {
	case "", "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		os.Exit(1)
	}

	return opts
}
