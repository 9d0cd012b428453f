package server

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spadesx/spadesx/internal/plugin"
	"github.com/spadesx/spadesx/internal/plugin/command"
	"github.com/spadesx/spadesx/internal/world/mapio"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Replies sent by the command fallback.
const (
	MsgNoPermission   = "You do not have permission to use this command"
	MsgUnknownCommand = "Unknown command"
)

// builtin is a server command. Builtins run only when no plugin consumed
// the line.
type builtin struct {
	description string
	required    uint32
	run         func(s *Server, p pluginapi.Player, args string)
}

func builtinCommands() map[string]builtin {
	return map[string]builtin{
		"help": {
			description: "List the commands you can use",
			run:         (*Server).cmdHelp,
		},
		"plugins": {
			description: "List loaded plugins",
			run:         (*Server).cmdPlugins,
		},
		"savemap": {
			description: "Save the map snapshot",
			required:    pluginapi.PermAdmin,
			run:         (*Server).cmdSaveMap,
		},
		"grant": {
			description: "Grant a permission: /grant <player> <moderator|admin|manager|trusted>",
			required:    pluginapi.PermAdmin | pluginapi.PermManager,
			run:         (*Server).cmdGrant,
		},
	}
}

// permissionNames maps /grant arguments to permission bits.
var permissionNames = map[string]uint32{
	"moderator": pluginapi.PermModerator,
	"admin":     pluginapi.PermAdmin,
	"manager":   pluginapi.PermManager,
	"trusted":   pluginapi.PermTrusted,
}

// command runs a chat command: plugins first, then the builtins.
func (s *Server) command(p pluginapi.Player, line string) {
	perms := s.world.PlayerPermissions(p)
	switch s.disp.Command(p, perms, line) {
	case plugin.CommandConsumed:
		return
	case plugin.CommandDenied:
		s.world.SendNotice(p, MsgNoPermission)
		return
	}

	name, args, ok := command.Split(line)
	if !ok {
		s.world.SendNotice(p, MsgUnknownCommand)
		return
	}
	b, ok := s.builtins[name]
	if !ok {
		s.world.SendNotice(p, MsgUnknownCommand)
		return
	}
	if b.required != 0 && perms&b.required == 0 {
		s.world.SendNotice(p, MsgNoPermission)
		return
	}
	b.run(s, p, args)
}

func (s *Server) cmdHelp(p pluginapi.Player, _ string) {
	perms := s.world.PlayerPermissions(p)

	lines := make([]string, 0, len(s.builtins)+s.router.Count())
	for name, b := range s.builtins {
		if b.required == 0 || perms&b.required != 0 {
			lines = append(lines, "/"+name+" - "+b.description)
		}
	}
	for _, cmd := range s.router.All() {
		if cmd.Permits(perms) {
			lines = append(lines, "/"+cmd.Name+" - "+cmd.Description)
		}
	}
	sort.Strings(lines)

	for _, line := range lines {
		s.world.SendNotice(p, line)
	}
}

func (s *Server) cmdPlugins(p pluginapi.Player, _ string) {
	recs := s.reg.List()
	if len(recs) == 0 {
		s.world.SendNotice(p, "No plugins loaded")
		return
	}
	names := make([]string, len(recs))
	for i, rec := range recs {
		names[i] = rec.String()
	}
	s.world.SendNotice(p, "Plugins: "+strings.Join(names, ", "))
}

func (s *Server) cmdSaveMap(p pluginapi.Player, _ string) {
	if s.cfg.SnapshotPath == "" {
		s.world.SendNotice(p, "Map snapshots are disabled")
		return
	}
	if err := mapio.Save(s.cfg.SnapshotPath, s.world, s.Tick()); err != nil {
		s.logger.Error("save map failed", zap.String("path", s.cfg.SnapshotPath), zap.Error(err))
		s.world.SendNotice(p, "Saving the map failed")
		return
	}
	s.logger.Info("map saved",
		zap.String("path", s.cfg.SnapshotPath),
		zap.String("by", s.world.PlayerName(p)),
		zap.Int("blocks", s.world.BlockCount()))
	s.world.SendNotice(p, "Map saved")
}

func (s *Server) cmdGrant(p pluginapi.Player, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		s.world.SendNotice(p, "Usage: /grant <player> <moderator|admin|manager|trusted>")
		return
	}
	target, permName := fields[0], strings.ToLower(fields[1])
	bit, ok := permissionNames[permName]
	if !ok {
		s.world.SendNotice(p, fmt.Sprintf("Unknown permission %q", fields[1]))
		return
	}
	if s.perms == nil {
		s.world.SendNotice(p, "Permissions are not persisted on this server")
		return
	}

	bits, err := s.perms.Grant(s.ctx, target, bit)
	if err != nil {
		s.logger.Error("grant failed", zap.String("player", target), zap.Error(err))
		s.world.SendNotice(p, "Grant failed")
		return
	}
	if online, ok := s.world.FindPlayer(target); ok {
		s.world.SetPermissions(online, bits)
	}

	s.logger.Info("permission granted",
		zap.String("player", target),
		zap.String("permission", permName),
		zap.String("by", s.world.PlayerName(p)))
	s.world.SendNotice(p, fmt.Sprintf("Granted %s to %s", permName, target))
}
