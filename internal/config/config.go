// Package config loads the server configuration.
//
// A configuration file is TOML (.toml) or YAML (.yaml, .yml). Values missing
// from the file keep their defaults; SPADESX_* environment variables override
// the file; the result is validated before use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the complete server configuration.
type Config struct {
	Server      ServerConfig      `toml:"server" yaml:"server"`
	Map         MapConfig         `toml:"map" yaml:"map"`
	Teams       []TeamConfig      `toml:"teams" yaml:"teams"`
	Plugins     PluginsConfig     `toml:"plugins" yaml:"plugins"`
	Permissions PermissionsConfig `toml:"permissions" yaml:"permissions"`
	Log         LogConfig         `toml:"log" yaml:"log"`
}

// ServerConfig holds the network-facing settings.
type ServerConfig struct {
	// Name is reported to plugins and clients.
	Name string `toml:"name" yaml:"name"`

	// Listen is the websocket listen address.
	Listen string `toml:"listen" yaml:"listen"`

	// MaxPlayers caps concurrent players. It cannot exceed the slot table.
	MaxPlayers int `toml:"max_players" yaml:"max_players"`

	// TickRate is the number of ticks per second.
	TickRate int `toml:"tick_rate" yaml:"tick_rate"`
}

// MapConfig holds the voxel map settings.
type MapConfig struct {
	SizeX int `toml:"size_x" yaml:"size_x"`
	SizeY int `toml:"size_y" yaml:"size_y"`
	SizeZ int `toml:"size_z" yaml:"size_z"`

	// Snapshot is loaded at boot when it exists and written by /savemap.
	Snapshot string `toml:"snapshot" yaml:"snapshot"`
}

// TeamConfig names a team and gives its color as "#rrggbb".
type TeamConfig struct {
	Name  string `toml:"name" yaml:"name"`
	Color string `toml:"color" yaml:"color"`
}

// PluginsConfig lists the plugin images to load.
type PluginsConfig struct {
	// Dir is where relative entries of Load are resolved.
	Dir string `toml:"dir" yaml:"dir"`

	// Load is the ordered image list. Order defines dispatch order.
	Load []string `toml:"load" yaml:"load"`

	// Watch logs a warning when a loaded image changes on disk.
	Watch bool `toml:"watch" yaml:"watch"`
}

// PermissionsConfig configures the permission store.
type PermissionsConfig struct {
	// Database is the sqlite file holding player permission bits.
	Database string `toml:"database" yaml:"database"`

	// Admins are granted the admin bit at startup.
	Admins []string `toml:"admins" yaml:"admins"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:       "SpadesX",
			Listen:     ":32887",
			MaxPlayers: 32,
			TickRate:   60,
		},
		Map: MapConfig{
			SizeX: 512,
			SizeY: 512,
			SizeZ: 64,
		},
		Teams: []TeamConfig{
			{Name: "Blue", Color: "#0000ff"},
			{Name: "Green", Color: "#00ff00"},
		},
		Plugins: PluginsConfig{
			Dir:  "plugins",
			Load: []string{"builtin:babel"},
		},
		Permissions: PermissionsConfig{
			Database: "spadesx.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := cfg.decode(path, data); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode unmarshals data over cfg in the format implied by path's extension.
func (c *Config) decode(path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(c); err != nil {
			perr := &ParseError{Path: path, Message: err.Error(), Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				perr.Line, perr.Column = derr.Position()
			}
			return perr
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to io.EOF; it leaves the defaults alone.
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	return nil
}

// PluginPaths returns the load list with relative file entries resolved
// against the plugin directory. builtin: entries are returned unchanged.
func (c *Config) PluginPaths() []string {
	paths := make([]string, 0, len(c.Plugins.Load))
	for _, entry := range c.Plugins.Load {
		switch {
		case strings.HasPrefix(entry, "builtin:"), filepath.IsAbs(entry), c.Plugins.Dir == "":
			paths = append(paths, entry)
		default:
			paths = append(paths, filepath.Join(c.Plugins.Dir, entry))
		}
	}
	return paths
}
