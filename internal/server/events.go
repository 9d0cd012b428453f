package server

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spadesx/spadesx/internal/world"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Event is a client action waiting to be applied on the tick goroutine.
type Event interface {
	apply(s *Server)
}

// Damage per hit type.
const (
	DamageHead  uint8 = 100
	DamageTorso uint8 = 49
	DamageLimb  uint8 = 33
	DamageMelee uint8 = 80
)

// HitDamage returns the damage dealt by a hit of type hit.
func HitDamage(hit pluginapi.HitType) uint8 {
	switch hit {
	case pluginapi.HitHead:
		return DamageHead
	case pluginapi.HitTorso:
		return DamageTorso
	case pluginapi.HitArms, pluginapi.HitLegs:
		return DamageLimb
	case pluginapi.HitMelee:
		return DamageMelee
	default:
		return 0
	}
}

// GrenadeRadius is the half-width of the cube of blocks a grenade removes.
const GrenadeRadius int32 = 1

// JoinResult is handed back to the transport when a Connect is applied.
type JoinResult struct {
	Player pluginapi.Player
	Team   pluginapi.Team

	// Blocks is the map as it stands when the player joins.
	Blocks []pluginapi.Block

	Err error
}

// Connect asks for a player slot.
type Connect struct {
	Name string
	Team uint8

	// Joined is called on the tick goroutine once the join is decided, before
	// plugins hear about the player. It must not block.
	Joined func(JoinResult)
}

func (e Connect) reply(r JoinResult) {
	if e.Joined != nil {
		e.Joined(r)
	}
}

func (e Connect) apply(s *Server) {
	if s.world.PlayerCount() >= s.cfg.MaxPlayers {
		e.reply(JoinResult{Err: fmt.Errorf("join %s: %w", e.Name, world.ErrServerFull)})
		return
	}

	var perms uint32
	if s.perms != nil {
		bits, err := s.perms.Get(s.ctx, e.Name)
		if err != nil {
			s.logger.Warn("permission lookup failed", zap.String("player", e.Name), zap.Error(err))
		}
		perms = bits
	}

	p, err := s.world.Join(e.Name, e.Team, perms)
	if err != nil {
		e.reply(JoinResult{Err: fmt.Errorf("join %s: %w", e.Name, err)})
		return
	}
	e.reply(JoinResult{
		Player: p,
		Team:   s.world.PlayerTeam(p),
		Blocks: s.world.Blocks(),
	})

	s.logger.Info("player joined",
		zap.String("player", e.Name),
		zap.Uint8("slot", p.Slot()),
		zap.Uint8("team", e.Team),
		zap.Uint32("perms", perms))
	s.disp.PlayerConnect(p)
}

// Disconnect releases a player's slot.
type Disconnect struct {
	Player pluginapi.Player
	Reason string
}

func (e Disconnect) apply(s *Server) {
	if !s.world.Valid(e.Player) {
		return
	}
	name := s.world.PlayerName(e.Player)
	s.disp.PlayerDisconnect(e.Player, e.Reason)
	if err := s.world.Leave(e.Player); err != nil {
		s.logger.Warn("leave failed", zap.String("player", name), zap.Error(err))
		return
	}
	s.logger.Info("player left", zap.String("player", name), zap.String("reason", e.Reason))
}

// BlockDestroy reports a block a player broke.
type BlockDestroy struct {
	Player  pluginapi.Player
	Tool    pluginapi.Tool
	X, Y, Z int32
}

func (e BlockDestroy) apply(s *Server) {
	if !s.world.Valid(e.Player) {
		return
	}
	color := s.world.Block(s.world.Map(), e.X, e.Y, e.Z)
	if color == 0 {
		return
	}
	b := pluginapi.Block{X: e.X, Y: e.Y, Z: e.Z, Color: color}
	if s.disp.BlockDestroy(e.Player, e.Tool, b) == pluginapi.ResultDeny {
		s.resend(e.Player, e.X, e.Y, e.Z)
		return
	}
	s.world.RemoveBlock(e.X, e.Y, e.Z)
}

// BlockPlace reports a block a player built. A zero color means the
// player's current tool color.
type BlockPlace struct {
	Player pluginapi.Player
	Block  pluginapi.Block
}

func (e BlockPlace) apply(s *Server) {
	p := e.Player
	if !s.world.Valid(p) {
		return
	}
	b := e.Block
	if !s.world.IsValidPos(s.world.Map(), b.X, b.Y, b.Z) {
		return
	}
	if s.world.PlayerBlocks(p) == 0 {
		s.resend(p, b.X, b.Y, b.Z)
		return
	}
	if b.Color == 0 {
		b.Color = s.world.PlayerColor(p)
	}

	if s.disp.BlockPlace(p, &b) == pluginapi.ResultDeny {
		s.resend(p, b.X, b.Y, b.Z)
		return
	}
	if r := s.world.SetBlock(b.X, b.Y, b.Z, b.Color); r != pluginapi.ResultOK {
		s.logger.Debug("block place rejected", zap.Stringer("result", r))
		s.resend(p, b.X, b.Y, b.Z)
		return
	}
	s.world.UseBlock(p)
}

// Chat is a chat line. Lines beginning with "/" are commands.
type Chat struct {
	Player pluginapi.Player
	Text   string
}

func (e Chat) apply(s *Server) {
	if !s.world.Valid(e.Player) {
		return
	}
	text := strings.TrimSpace(e.Text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "/") {
		s.command(e.Player, text)
		return
	}
	s.world.Broadcast(s.world.PlayerName(e.Player) + ": " + text)
}

// Hit reports a shot or melee strike that landed.
type Hit struct {
	Shooter pluginapi.Player
	Victim  pluginapi.Player
	Type    pluginapi.HitType
	Weapon  uint8
}

func (e Hit) apply(s *Server) {
	if !s.world.PlayerAlive(e.Shooter) || !s.world.PlayerAlive(e.Victim) {
		return
	}
	if s.disp.PlayerHit(e.Shooter, e.Victim, e.Type, e.Weapon) == pluginapi.ResultDeny {
		return
	}
	if s.world.Damage(e.Victim, HitDamage(e.Type)) {
		s.logger.Info("player killed",
			zap.String("shooter", s.world.PlayerName(e.Shooter)),
			zap.String("victim", s.world.PlayerName(e.Victim)))
	}
}

// ColorChange reports a player picking a new tool color.
type ColorChange struct {
	Player pluginapi.Player
	Color  uint32
}

func (e ColorChange) apply(s *Server) {
	if !s.world.Valid(e.Player) {
		return
	}
	color := e.Color
	res := s.disp.ColorChange(e.Player, &color)
	switch {
	case color == 0:
		color = s.world.PlayerColor(e.Player)
	case res == pluginapi.ResultDeny && color == e.Color:
		// Refused as asked: put every client back on the color the server has.
		color = s.world.PlayerColor(e.Player)
	}
	// A color a plugin rewrote is applied whatever the outcome.
	s.world.SetPlayerColor(e.Player, color, true)
}

// GrenadeExplode reports a grenade going off at Pos.
type GrenadeExplode struct {
	Player pluginapi.Player
	Pos    pluginapi.Vec3f
}

func (e GrenadeExplode) apply(s *Server) {
	if !s.world.PlayerAlive(e.Player) || !s.world.UseGrenade(e.Player) {
		return
	}
	s.disp.GrenadeExplode(e.Player, e.Pos)

	m := s.world.Map()
	cx, cy, cz := int32(e.Pos.X), int32(e.Pos.Y), int32(e.Pos.Z)
	for x := cx - GrenadeRadius; x <= cx+GrenadeRadius; x++ {
		for y := cy - GrenadeRadius; y <= cy+GrenadeRadius; y++ {
			for z := cz - GrenadeRadius; z <= cz+GrenadeRadius; z++ {
				if s.world.Block(m, x, y, z) != 0 {
					s.world.RemoveBlock(x, y, z)
				}
			}
		}
	}
}

// Move reports a client position update.
type Move struct {
	Player pluginapi.Player
	Pos    pluginapi.Vec3f
}

func (e Move) apply(s *Server) {
	s.world.UpdatePosition(e.Player, e.Pos)
}

// ToolChange reports a player switching tools.
type ToolChange struct {
	Player pluginapi.Player
	Tool   pluginapi.Tool
}

func (e ToolChange) apply(s *Server) {
	s.world.UpdateTool(e.Player, e.Tool)
}

// Respawn brings a dead player back at their team's spawn.
type Respawn struct {
	Player pluginapi.Player
}

func (e Respawn) apply(s *Server) {
	if !s.world.Valid(e.Player) || s.world.PlayerAlive(e.Player) {
		return
	}
	s.world.Respawn(e.Player, s.spawnPoint(s.world.PlayerTeam(e.Player).ID))
}

// spawnPoint returns a position standing on the ground in the middle of a
// team's half of the map.
func (s *Server) spawnPoint(team uint8) pluginapi.Vec3f {
	sx, sy, _ := s.world.Size()
	x := sx / 4
	if team == pluginapi.TeamGreen {
		x = sx - sx/4
	}
	y := sy / 2
	z := s.world.FindTopBlock(s.world.Map(), x, y)
	if z < 0 {
		z = 0
	}
	return pluginapi.Vec3f{X: float32(x) + 0.5, Y: float32(y) + 0.5, Z: float32(z)}
}
