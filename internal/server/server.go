// Package server drives the plugin host: it owns the world and the plugin
// registry, runs the fixed-rate tick loop, and turns client events into
// plugin dispatches and world changes.
//
// Everything that touches the world or calls plugin code runs on the goroutine
// that calls Start, Step, Run and Shutdown. Transports hand events over
// through Submit.
package server

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spadesx/spadesx/internal/plugin"
	"github.com/spadesx/spadesx/internal/plugin/capability"
	"github.com/spadesx/spadesx/internal/plugin/command"
	"github.com/spadesx/spadesx/internal/world"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Config configures a Server.
type Config struct {
	Name       string
	MaxPlayers int

	// TickRate is the number of ticks per second.
	TickRate int

	// InboxSize bounds the number of events waiting for the next tick.
	InboxSize int

	// SnapshotPath is where /savemap writes the map. Empty disables it.
	SnapshotPath string
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Name:       "SpadesX",
		MaxPlayers: world.MaxPlayers,
		TickRate:   60,
		InboxSize:  1024,
	}
}

// Permissions is the persistent store of player permission bits.
type Permissions interface {
	Get(ctx context.Context, name string) (uint32, error)
	Grant(ctx context.Context, name string, bits uint32) (uint32, error)
}

// Transport is the network side of the server. Besides replicating world
// changes it can put a single client's refused edit back.
type Transport interface {
	world.Replicator

	// ResendBlock sends the authoritative state of one cell to one player.
	// Color 0 means the cell is empty.
	ResendBlock(slot uint8, b pluginapi.Block)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Plugin loggers derive from it.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithOpeners sets the plugin image openers, tried in order.
func WithOpeners(openers ...plugin.Opener) Option {
	return func(s *Server) {
		s.openers = openers
	}
}

// WithPermissions sets the permission store consulted when players join.
func WithPermissions(p Permissions) Option {
	return func(s *Server) {
		s.perms = p
	}
}

// Server is the plugin host. It implements pluginapi.Server.
type Server struct {
	cfg    Config
	logger *zap.Logger

	world     *world.World
	router    *command.Router
	reg       *plugin.Registry
	tables    *capability.Tables
	disp      *plugin.Dispatcher
	openers   []plugin.Opener
	perms     Permissions
	transport Transport
	builtins  map[string]builtin

	// ctx is the context of the running loop, used for store lookups.
	ctx context.Context

	inbox chan Event
	tick  atomic.Uint64

	started     atomic.Bool
	stopped     atomic.Bool
	unsubscribe func()
}

var _ pluginapi.Server = (*Server)(nil)

// New creates a server around w. Plugins are not loaded until Start.
func New(cfg Config, w *world.World, opts ...Option) (*Server, error) {
	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("%w: tick rate %d", ErrInvalidConfig, cfg.TickRate)
	}
	if cfg.MaxPlayers < 1 || cfg.MaxPlayers > world.MaxPlayers {
		return nil, fmt.Errorf("%w: max players %d (must be 1-%d)", ErrInvalidConfig, cfg.MaxPlayers, world.MaxPlayers)
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = DefaultConfig().InboxSize
	}

	s := &Server{
		cfg:    cfg,
		logger: zap.NewNop(),
		world:  w,
		ctx:    context.Background(),
		inbox:  make(chan Event, cfg.InboxSize),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.builtins = builtinCommands()
	reserved := make([]string, 0, len(s.builtins))
	for name := range s.builtins {
		reserved = append(reserved, name)
	}
	s.router = command.NewRouter(reserved...)

	regOpts := []plugin.RegistryOption{plugin.WithLogger(s.logger)}
	if len(s.openers) > 0 {
		regOpts = append(regOpts, plugin.WithOpeners(s.openers...))
	}
	s.reg = plugin.NewRegistry(s.router, regOpts...)
	s.tables = capability.New(w, s.router, s.reg)
	s.reg.Bind(s, s.tables.Full)
	s.disp = plugin.NewDispatcher(s.reg, s, w)
	s.unsubscribe = s.reg.Subscribe(s.onRegistryEvent)

	return s, nil
}

// Name implements pluginapi.Server.
func (s *Server) Name() string { return s.cfg.Name }

// Tick implements pluginapi.Server.
func (s *Server) Tick() uint64 { return s.tick.Load() }

// MaxPlayers implements pluginapi.Server.
func (s *Server) MaxPlayers() int { return s.cfg.MaxPlayers }

// Registry returns the plugin registry.
func (s *Server) Registry() *plugin.Registry { return s.reg }

// World returns the world. It must only be used from the tick goroutine.
func (s *Server) World() *world.World { return s.world }

// AttachTransport routes replication to t. It must be called before Run.
func (s *Server) AttachTransport(t Transport) {
	s.transport = t
	s.world.SetReplicator(t)
}

func (s *Server) onRegistryEvent(ev plugin.RegistryEvent) {
	fields := []zap.Field{zap.String("plugin", ev.Plugin), zap.Stringer("event", ev.Type)}
	if ev.Error != nil {
		fields = append(fields, zap.Error(ev.Error))
	}
	switch ev.Type {
	case plugin.EventPluginEvicted, plugin.EventPluginError:
		s.logger.Warn("plugin lifecycle", fields...)
	default:
		s.logger.Debug("plugin lifecycle", fields...)
	}
}

// Start loads the plugins at paths in order, runs the bootstrap phase and
// closes it. Load failures are returned joined; the plugins that did load
// stay loaded and the server is usable either way.
func (s *Server) Start(ctx context.Context, paths []string) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	loadErr := s.reg.LoadAll(ctx, paths)

	s.disp.ServerInit(s.tables.Bootstrap)
	s.tables.Bootstrap.Close()

	s.logger.Info("server started",
		zap.String("name", s.cfg.Name),
		zap.Int("plugins", s.reg.Count()),
		zap.Int("commands", s.router.Count()),
		zap.Int("blocks", s.world.BlockCount()))
	return loadErr
}

// Run ticks at the configured rate until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if !s.started.Load() {
		return ErrNotStarted
	}
	s.ctx = ctx

	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Step()
		}
	}
}

// Step runs one tick: it applies the events queued so far, advances the
// tick counter and dispatches the tick to plugins.
func (s *Server) Step() {
	for n := len(s.inbox); n > 0; n-- {
		ev := <-s.inbox
		ev.apply(s)
	}
	s.tick.Add(1)
	s.disp.Tick()
}

// Submit queues ev for the next tick. It never blocks.
func (s *Server) Submit(ev Event) error {
	if s.stopped.Load() {
		return ErrStopped
	}
	select {
	case s.inbox <- ev:
		return nil
	default:
		return ErrInboxFull
	}
}

// Shutdown announces the shutdown to plugins and unloads them in reverse load
// order. It must run on the tick goroutine after Run has returned.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if s.started.Load() {
		s.disp.ServerShutdown()
	}
	err := s.reg.UnloadAll(ctx)
	s.unsubscribe()
	s.logger.Info("server stopped", zap.Uint64("ticks", s.Tick()))
	return err
}

func (s *Server) resend(p pluginapi.Player, x, y, z int32) {
	if s.transport == nil {
		return
	}
	color := s.world.Block(s.world.Map(), x, y, z)
	s.transport.ResendBlock(p.Slot(), pluginapi.Block{X: x, Y: y, Z: z, Color: color})
}
