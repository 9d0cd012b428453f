package config

import (
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SPADESX_"

// envMapping maps environment variables to the settings they override.
var envMapping = map[string]func(c *Config, v string){
	"SPADESX_SERVER_NAME": func(c *Config, v string) { c.Server.Name = v },
	"SPADESX_LISTEN":      func(c *Config, v string) { c.Server.Listen = v },
	"SPADESX_MAX_PLAYERS": func(c *Config, v string) { setInt(&c.Server.MaxPlayers, v) },
	"SPADESX_TICK_RATE":   func(c *Config, v string) { setInt(&c.Server.TickRate, v) },
	"SPADESX_MAP":         func(c *Config, v string) { c.Map.Snapshot = v },
	"SPADESX_PLUGIN_DIR":  func(c *Config, v string) { c.Plugins.Dir = v },
	"SPADESX_PLUGINS":     func(c *Config, v string) { c.Plugins.Load = splitList(v) },
	"SPADESX_DATABASE":    func(c *Config, v string) { c.Permissions.Database = v },
	"SPADESX_LOG_LEVEL":   func(c *Config, v string) { c.Log.Level = v },
	"SPADESX_LOG_FORMAT":  func(c *Config, v string) { c.Log.Format = v },
}

// ApplyEnv overrides settings from environment variables looked up with
// lookup. Empty values count as set. Numbers that fail to parse are left
// for Validate to reject as -1.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for name, set := range envMapping {
		if v, ok := lookup(name); ok {
			set(c, v)
		}
	}
}

func setInt(dst *int, v string) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		n = -1
	}
	*dst = n
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
