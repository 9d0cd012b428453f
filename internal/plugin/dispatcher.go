package plugin

import (
	"go.uber.org/zap"

	"github.com/spadesx/spadesx/internal/plugin/command"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// PlayerChecker reports whether a player handle still refers to a connected
// player.
type PlayerChecker interface {
	Valid(p pluginapi.Player) bool
}

// CommandOutcome is the result of routing a chat command.
type CommandOutcome int

const (
	// CommandUnhandled means neither a registered command nor any plugin took it.
	CommandUnhandled CommandOutcome = iota
	// CommandConsumed means a handler accepted the command.
	CommandConsumed
	// CommandDenied means the player lacks the permission the command requires.
	CommandDenied
)

// String returns a string representation of the outcome.
func (o CommandOutcome) String() string {
	switch o {
	case CommandUnhandled:
		return "unhandled"
	case CommandConsumed:
		return "consumed"
	case CommandDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Dispatcher delivers server events to running plugins in ordinal order.
//
// Notification events call every present handler. Decision events stop at the
// first ResultDeny; any other value is treated as no objection. A plugin that
// panics is evicted, counts as having no opinion, and dispatch moves on.
// Before each handler call every player in the payload is checked; once one
// has gone the dispatch stops, and a decision event reports ResultDeny.
type Dispatcher struct {
	reg     *Registry
	players PlayerChecker
	srv     pluginapi.Server
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher over the plugins in reg.
func NewDispatcher(reg *Registry, srv pluginapi.Server, players PlayerChecker) *Dispatcher {
	return &Dispatcher{
		reg:     reg,
		players: players,
		srv:     srv,
		logger:  reg.logger.Named("dispatch"),
	}
}

func (d *Dispatcher) valid(players ...pluginapi.Player) bool {
	for _, p := range players {
		if !d.players.Valid(p) {
			return false
		}
	}
	return true
}

// each calls fn for every running plugin in ordinal order. fn returns whether
// to continue. Plugins evicted mid-dispatch are skipped.
func (d *Dispatcher) each(event string, fn func(rec *Record, h *Handlers) (call func(), ok bool)) {
	for _, rec := range d.reg.List() {
		if !rec.State().Receives() {
			continue
		}
		h := rec.Handlers()
		call, ok := fn(rec, &h)
		if !ok {
			return
		}
		if call == nil {
			continue
		}
		if fault := d.reg.invoke(rec, call); fault != nil {
			d.logger.Error("handler faulted",
				zap.String("plugin", rec.Name()),
				zap.String("event", event),
				zap.Error(fault))
			d.reg.Evict(rec, fault)
		}
	}
}

// decide runs a decision event. pick returns the plugin's handler call, or nil
// when the plugin has none.
func (d *Dispatcher) decide(event string, players []pluginapi.Player, pick func(h *Handlers) func() pluginapi.Result) pluginapi.Result {
	result := pluginapi.ResultAllow
	d.each(event, func(rec *Record, h *Handlers) (func(), bool) {
		if result == pluginapi.ResultDeny {
			return nil, false
		}
		fn := pick(h)
		if fn == nil {
			return nil, true
		}
		if !d.valid(players...) {
			result = pluginapi.ResultDeny
			return nil, false
		}
		return func() {
			if fn() == pluginapi.ResultDeny {
				result = pluginapi.ResultDeny
			}
		}, true
	})
	return result
}

// notify runs a notification event.
func (d *Dispatcher) notify(event string, players []pluginapi.Player, pick func(h *Handlers) func()) {
	d.each(event, func(rec *Record, h *Handlers) (func(), bool) {
		fn := pick(h)
		if fn == nil {
			return nil, true
		}
		if !d.valid(players...) {
			return nil, false
		}
		return fn, true
	})
}

// ServerInit hands the bootstrap table to every plugin.
func (d *Dispatcher) ServerInit(api pluginapi.BootstrapAPI) {
	d.notify("server_init", nil, func(h *Handlers) func() {
		if h.OnServerInit == nil {
			return nil
		}
		return func() { h.OnServerInit(d.srv, api) }
	})
}

// ServerShutdown announces that the server is stopping.
func (d *Dispatcher) ServerShutdown() {
	d.notify("server_shutdown", nil, func(h *Handlers) func() {
		if h.OnServerShutdown == nil {
			return nil
		}
		return func() { h.OnServerShutdown(d.srv) }
	})
}

// PlayerConnect announces a player who has joined.
func (d *Dispatcher) PlayerConnect(p pluginapi.Player) {
	d.notify("player_connect", []pluginapi.Player{p}, func(h *Handlers) func() {
		if h.OnPlayerConnect == nil {
			return nil
		}
		return func() { h.OnPlayerConnect(d.srv, p) }
	})
}

// PlayerDisconnect announces a player who is leaving. It must be called while
// the handle is still valid.
func (d *Dispatcher) PlayerDisconnect(p pluginapi.Player, reason string) {
	d.notify("player_disconnect", []pluginapi.Player{p}, func(h *Handlers) func() {
		if h.OnPlayerDisconnect == nil {
			return nil
		}
		return func() { h.OnPlayerDisconnect(d.srv, p, reason) }
	})
}

// GrenadeExplode announces a grenade explosion.
func (d *Dispatcher) GrenadeExplode(p pluginapi.Player, pos pluginapi.Vec3f) {
	d.notify("grenade_explode", []pluginapi.Player{p}, func(h *Handlers) func() {
		if h.OnGrenadeExplode == nil {
			return nil
		}
		return func() { h.OnGrenadeExplode(d.srv, p, pos) }
	})
}

// Tick runs every plugin's tick handler.
func (d *Dispatcher) Tick() {
	d.notify("tick", nil, func(h *Handlers) func() {
		if h.OnTick == nil {
			return nil
		}
		return func() { h.OnTick(d.srv) }
	})
}

// BlockDestroy asks whether p may destroy block with tool.
func (d *Dispatcher) BlockDestroy(p pluginapi.Player, tool pluginapi.Tool, block pluginapi.Block) pluginapi.Result {
	return d.decide("block_destroy", []pluginapi.Player{p}, func(h *Handlers) func() pluginapi.Result {
		if h.OnBlockDestroy == nil {
			return nil
		}
		return func() pluginapi.Result {
			b := block
			return h.OnBlockDestroy(d.srv, p, tool, &b)
		}
	})
}

// BlockPlace asks whether p may place block. Plugins may change the block's
// color; the change is visible to later plugins and to the caller whatever
// the outcome.
func (d *Dispatcher) BlockPlace(p pluginapi.Player, block *pluginapi.Block) pluginapi.Result {
	return d.decide("block_place", []pluginapi.Player{p}, func(h *Handlers) func() pluginapi.Result {
		if h.OnBlockPlace == nil {
			return nil
		}
		return func() pluginapi.Result {
			b := *block
			res := h.OnBlockPlace(d.srv, p, &b)
			block.Color = b.Color
			return res
		}
	})
}

// PlayerHit asks whether a hit should apply.
func (d *Dispatcher) PlayerHit(shooter, victim pluginapi.Player, hit pluginapi.HitType, weapon uint8) pluginapi.Result {
	return d.decide("player_hit", []pluginapi.Player{shooter, victim}, func(h *Handlers) func() pluginapi.Result {
		if h.OnPlayerHit == nil {
			return nil
		}
		return func() pluginapi.Result {
			return h.OnPlayerHit(d.srv, shooter, victim, hit, weapon)
		}
	})
}

// ColorChange asks whether p may switch to *color. Plugins may rewrite the
// color.
func (d *Dispatcher) ColorChange(p pluginapi.Player, color *uint32) pluginapi.Result {
	return d.decide("color_change", []pluginapi.Player{p}, func(h *Handlers) func() pluginapi.Result {
		if h.OnColorChange == nil {
			return nil
		}
		return func() pluginapi.Result {
			return h.OnColorChange(d.srv, p, color)
		}
	})
}

// Command routes a chat line beginning with "/". A registered command is tried
// first, subject to its permission bits. If it is not registered, or its
// handler returns ResultDeny, the line goes through the plugins' OnCommand
// handlers until one returns ResultAllow.
func (d *Dispatcher) Command(p pluginapi.Player, perms uint32, line string) CommandOutcome {
	name, args, ok := command.Split(line)
	if !ok {
		return CommandUnhandled
	}

	if cmd, found := d.reg.router.Lookup(name); found {
		if !cmd.Permits(perms) {
			return CommandDenied
		}
		if d.runRegistered(cmd, p, args) {
			return CommandConsumed
		}
	}

	consumed := false
	d.each("command", func(rec *Record, h *Handlers) (func(), bool) {
		if consumed {
			return nil, false
		}
		if h.OnCommand == nil {
			return nil, true
		}
		if !d.valid(p) {
			return nil, false
		}
		fn := h.OnCommand
		return func() {
			if fn(d.srv, p, line) == pluginapi.ResultAllow {
				consumed = true
			}
		}, true
	})
	if consumed {
		return CommandConsumed
	}
	return CommandUnhandled
}

// runRegistered invokes a registered command handler as its owning plugin and
// reports whether it consumed the command.
func (d *Dispatcher) runRegistered(cmd *command.Command, p pluginapi.Player, args string) bool {
	owner := d.reg.byOrdinal(cmd.Owner)
	if owner == nil || !owner.State().Receives() || !d.valid(p) {
		return false
	}
	var res pluginapi.Result
	if fault := d.reg.invoke(owner, func() { res = cmd.Handler(d.srv, p, args) }); fault != nil {
		d.logger.Error("command handler faulted",
			zap.String("plugin", owner.Name()),
			zap.String("command", cmd.Name),
			zap.Error(fault))
		d.reg.Evict(owner, fault)
		return false
	}
	return res == pluginapi.ResultAllow
}
