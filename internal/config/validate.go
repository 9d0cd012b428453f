package config

import (
	"errors"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/spadesx/spadesx/internal/logging"
	"github.com/spadesx/spadesx/internal/world"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	fail := func(path, msg string, v any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
	}

	if strings.TrimSpace(c.Server.Name) == "" {
		fail("server.name", "must not be empty", c.Server.Name)
	}
	if c.Server.Listen == "" {
		fail("server.listen", "must not be empty", c.Server.Listen)
	}
	if c.Server.MaxPlayers < 1 || c.Server.MaxPlayers > world.MaxPlayers {
		fail("server.max_players", "must be between 1 and 32", c.Server.MaxPlayers)
	}
	if c.Server.TickRate < 1 || c.Server.TickRate > 1000 {
		fail("server.tick_rate", "must be between 1 and 1000", c.Server.TickRate)
	}

	for _, dim := range []struct {
		path string
		v    int
	}{
		{"map.size_x", c.Map.SizeX},
		{"map.size_y", c.Map.SizeY},
		{"map.size_z", c.Map.SizeZ},
	} {
		if dim.v < 1 || dim.v > 4096 {
			fail(dim.path, "must be between 1 and 4096", dim.v)
		}
	}

	if len(c.Teams) != 2 {
		fail("teams", "exactly two teams are required", len(c.Teams))
	}
	for i, team := range c.Teams {
		if team.Name == "" {
			fail("teams.name", "must not be empty", i)
		}
		if _, err := parseColor(team.Color); err != nil {
			fail("teams.color", err.Error(), team.Color)
		}
	}

	for _, entry := range c.Plugins.Load {
		if strings.TrimSpace(entry) == "" {
			fail("plugins.load", "entries must not be empty", entry)
		}
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		fail("log.level", "must be debug, info, warn or error", c.Log.Level)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		fail("log.format", "must be console or json", c.Log.Format)
	}

	return errors.Join(errs...)
}

// parseColor parses "#rrggbb" into an opaque ARGB color.
func parseColor(s string) (uint32, error) {
	col, err := colorful.Hex(s)
	if err != nil {
		return 0, err
	}
	r, g, b := col.RGB255()
	return pluginapi.Color(0xFF, r, g, b), nil
}

// WorldConfig converts the map and team sections for world.New. It expects a
// validated configuration.
func (c *Config) WorldConfig() (world.Config, error) {
	wc := world.Config{
		SizeX: int32(c.Map.SizeX),
		SizeY: int32(c.Map.SizeY),
		SizeZ: int32(c.Map.SizeZ),
	}
	if len(c.Teams) != 2 {
		return wc, &ValidationError{Path: "teams", Message: "exactly two teams are required", Value: len(c.Teams)}
	}
	for i, team := range c.Teams {
		color, err := parseColor(team.Color)
		if err != nil {
			return wc, &ValidationError{Path: "teams.color", Message: err.Error(), Value: team.Color}
		}
		wc.Teams[i] = pluginapi.Team{ID: uint8(i), Name: team.Name, Color: color}
	}
	return wc, nil
}

// LoggingConfig converts the log section for logging.New.
func (c *Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	return lc
}
