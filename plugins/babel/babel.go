// Package babel is the example Babel gamemode: two teams build towers from a
// shared central platform and try to tear down the other side's tower.
//
// The gamemode ships as a builtin image ("builtin:babel") and can also be
// compiled into a native plugin from ./cmd/babelso.
package babel

import (
	"github.com/spadesx/spadesx/internal/plugin"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Name is the builtin image name.
const Name = "babel"

// Platform geometry. The platform is a single layer at z=1 spanning
// x 206..306 and y 240..272; the protected zone is one block wider at z=1 and
// covers the layers directly above and below it.
const (
	PlatformMinX int32 = 206
	PlatformMaxX int32 = 306
	PlatformMinY int32 = 240
	PlatformMaxY int32 = 272
	PlatformZ    int32 = 1

	// Intel column shared by both teams.
	IntelX int32 = 255
	IntelY int32 = 255

	// Towers may only be attacked from beyond these lines.
	GreenTowerLine int32 = 292
	BlueTowerLine  int32 = 220

	// Below this many blocks a builder is restocked automatically.
	RestockThreshold uint8 = 10

	// Trail blocks are laid this far below the player.
	TrailDepth int32 = 3
)

// Colors used by the gamemode.
const (
	PlatformColor uint32 = 0xFF00FFFF
	TrailColor    uint32 = 0xFFFFFF00
)

// Player-facing messages.
const (
	MsgPlatform      = "You should try to destroy the ennemy's tower... Not the platform!"
	MsgWrongSide     = "You should try to destroy the ennemy's tower... It is not on this side of the map!"
	MsgRestocked     = "Restocked!"
	MsgHeadshotsOnly = "Headshots only!"
)

// Welcome is sent to every player on connect, in order.
var Welcome = []string{
	"Welcome to the Babel-style server!",
	"Type /restock to refill your blocks and grenades",
	"Headshots only mode enabled!",
}

// Info is the gamemode metadata.
var Info = pluginapi.Info{
	Name:        "Example Gamemode",
	Version:     "1.0.0",
	Author:      "SpadesX Team",
	Description: "Babel-style gamemode with platform protection",
	APIVersion:  pluginapi.Version,
}

type trailMark struct {
	x, y, z int32
	set     bool
}

// Gamemode holds the state of one loaded instance.
type Gamemode struct {
	api pluginapi.API
	log pluginapi.Logger

	trail []trailMark
	ticks uint64
}

// New returns an unloaded gamemode.
func New() *Gamemode {
	return &Gamemode{}
}

// Symbols returns the image exports bound to g.
func (g *Gamemode) Symbols() plugin.Symbols {
	info := Info
	return plugin.Symbols{
		pluginapi.SymbolInfo:               &info,
		pluginapi.SymbolInit:               pluginapi.InitFunc(g.Init),
		pluginapi.SymbolShutdown:           pluginapi.ShutdownFunc(g.Shutdown),
		pluginapi.SymbolOnServerInit:       pluginapi.OnServerInitFunc(g.OnServerInit),
		pluginapi.SymbolOnBlockDestroy:     pluginapi.OnBlockDestroyFunc(g.OnBlockDestroy),
		pluginapi.SymbolOnBlockPlace:       pluginapi.OnBlockPlaceFunc(g.OnBlockPlace),
		pluginapi.SymbolOnCommand:          pluginapi.OnCommandFunc(g.OnCommand),
		pluginapi.SymbolOnPlayerConnect:    pluginapi.OnPlayerConnectFunc(g.OnPlayerConnect),
		pluginapi.SymbolOnPlayerDisconnect: pluginapi.OnPlayerDisconnectFunc(g.OnPlayerDisconnect),
		pluginapi.SymbolOnPlayerHit:        pluginapi.OnPlayerHitFunc(g.OnPlayerHit),
		pluginapi.SymbolOnTick:             pluginapi.OnTickFunc(g.OnTick),
	}
}

// Register adds the gamemode to a builtin opener. Every load gets a fresh
// instance.
func Register(o *plugin.BuiltinOpener) {
	o.Register(Name, func() plugin.Symbols {
		return New().Symbols()
	})
}

// Init stores the capability table and resets the trail tracker.
func (g *Gamemode) Init(srv pluginapi.Server, api pluginapi.API, log pluginapi.Logger) int {
	g.api = api
	g.log = log
	g.trail = make([]trailMark, srv.MaxPlayers())
	g.ticks = 0
	log.Info("loaded", "trail", true)
	return 0
}

// Shutdown logs the unload.
func (g *Gamemode) Shutdown(srv pluginapi.Server) {
	g.log.Info("shutting down", "ticks", g.ticks)
}

// OnServerInit builds the platform and puts both intels on top of it.
func (g *Gamemode) OnServerInit(srv pluginapi.Server, api pluginapi.BootstrapAPI) {
	m := api.GetMap()
	if m == pluginapi.NoMap {
		g.log.Error("map is not available")
		return
	}

	for x := PlatformMinX; x <= PlatformMaxX; x++ {
		for y := PlatformMinY; y <= PlatformMaxY; y++ {
			api.InitAddBlock(x, y, PlatformZ, PlatformColor)
		}
	}

	z := api.MapFindTopBlock(m, IntelX, IntelY)
	for _, team := range []uint8{pluginapi.TeamBlue, pluginapi.TeamGreen} {
		if r := api.InitSetIntelPosition(team, IntelX, IntelY, z); r != pluginapi.ResultOK {
			g.log.Warn("intel not placed", "team", team, "result", r.String())
		}
	}
	g.log.Info("map initialized", "intel_z", z)
}

// OnPlatform reports whether a block belongs to the protected platform zone.
func OnPlatform(x, y, z int32) bool {
	if x >= PlatformMinX && x <= PlatformMaxX && y >= PlatformMinY && y <= PlatformMaxY && (z == PlatformZ+1 || z == PlatformZ-1) {
		return true
	}
	return x >= PlatformMinX-1 && x <= PlatformMaxX+1 && y >= PlatformMinY-1 && y <= PlatformMaxY+1 && z == PlatformZ
}

// OnBlockDestroy protects the platform and a team's own tower.
func (g *Gamemode) OnBlockDestroy(srv pluginapi.Server, p pluginapi.Player, tool pluginapi.Tool, b *pluginapi.Block) pluginapi.Result {
	if OnPlatform(b.X, b.Y, b.Z) {
		g.api.PlayerSendNotice(p, MsgPlatform)
		return pluginapi.ResultDeny
	}
	if tool == pluginapi.ToolSpade {
		return pluginapi.ResultAllow
	}

	team := g.api.PlayerTeam(p)
	if (team.ID == pluginapi.TeamGreen && b.X > GreenTowerLine) || (team.ID == pluginapi.TeamBlue && b.X < BlueTowerLine) {
		g.api.PlayerSendNotice(p, MsgWrongSide)
		return pluginapi.ResultDeny
	}
	return pluginapi.ResultAllow
}

// OnBlockPlace forces team colors and keeps builders stocked.
func (g *Gamemode) OnBlockPlace(srv pluginapi.Server, p pluginapi.Player, b *pluginapi.Block) pluginapi.Result {
	team := g.api.PlayerTeam(p)
	b.Color = team.Color

	if g.api.PlayerColor(p) != team.Color {
		g.api.PlayerSetColorBroadcast(p, team.Color)
	}
	if g.api.PlayerBlocks(p) < RestockThreshold {
		g.api.PlayerRestock(p)
	}
	return pluginapi.ResultAllow
}

// OnCommand handles /restock.
func (g *Gamemode) OnCommand(srv pluginapi.Server, p pluginapi.Player, command string) pluginapi.Result {
	if command != "/restock" {
		return pluginapi.ResultDeny
	}
	g.api.PlayerRestock(p)
	g.api.PlayerSendNotice(p, MsgRestocked)
	return pluginapi.ResultAllow
}

// OnPlayerConnect greets the player.
func (g *Gamemode) OnPlayerConnect(srv pluginapi.Server, p pluginapi.Player) {
	g.log.Info("player connected", "name", g.api.PlayerName(p))
	for _, msg := range Welcome {
		g.api.PlayerSendNotice(p, msg)
	}
}

// OnPlayerDisconnect forgets the player's trail.
func (g *Gamemode) OnPlayerDisconnect(srv pluginapi.Server, p pluginapi.Player, reason string) {
	g.log.Info("player disconnected", "name", g.api.PlayerName(p), "reason", reason)
	if slot := int(p.Slot()); slot < len(g.trail) {
		g.trail[slot] = trailMark{}
	}
}

func hitLocation(hit pluginapi.HitType) string {
	switch hit {
	case pluginapi.HitTorso:
		return "torso"
	case pluginapi.HitHead:
		return "head"
	case pluginapi.HitArms:
		return "arms"
	case pluginapi.HitLegs:
		return "legs"
	case pluginapi.HitMelee:
		return "melee"
	default:
		return "unknown"
	}
}

// OnPlayerHit only lets headshots and melee through.
func (g *Gamemode) OnPlayerHit(srv pluginapi.Server, shooter, victim pluginapi.Player, hit pluginapi.HitType, weapon uint8) pluginapi.Result {
	g.log.Debug("hit",
		"shooter", g.api.PlayerName(shooter),
		"victim", g.api.PlayerName(victim),
		"location", hitLocation(hit))

	if hit != pluginapi.HitHead && hit != pluginapi.HitMelee {
		g.api.PlayerSendNotice(shooter, MsgHeadshotsOnly)
		return pluginapi.ResultDeny
	}
	return pluginapi.ResultAllow
}

// OnTick lays a trail block under every player that moved to a new cell.
func (g *Gamemode) OnTick(srv pluginapi.Server) {
	g.ticks++
	m := g.api.GetMap()
	for i := range g.trail {
		p := g.api.GetPlayer(uint8(i))
		if p.IsNull() {
			g.trail[i].set = false
			continue
		}

		pos := g.api.PlayerPosition(p)
		x, y, z := int32(pos.X), int32(pos.Y), int32(pos.Z)-TrailDepth

		mark := &g.trail[i]
		if mark.set && mark.x == x && mark.y == y && mark.z == z {
			continue
		}
		if !g.api.MapIsValidPos(m, x, y, z) {
			continue
		}
		g.api.MapSetBlock(x, y, z, TrailColor)
		*mark = trailMark{x: x, y: y, z: z, set: true}
	}
}
