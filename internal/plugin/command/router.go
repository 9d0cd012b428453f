// Package command holds the registry of plugin chat commands.
package command

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Limits.
const (
	MaxCommands   = 64
	MaxNameLength = 32
)

// Command is a registered chat command.
type Command struct {
	Name        string
	Description string
	Handler     pluginapi.CommandHandler
	Required    uint32

	// Owner is the load ordinal of the registering plugin.
	Owner uint64
}

// Permits reports whether a player holding perms may run the command.
// A command with no required bits is open to everyone; otherwise any one of
// the required bits is enough.
func (c *Command) Permits(perms uint32) bool {
	return c.Required == 0 || perms&c.Required != 0
}

// Router maps command names to handlers. Names are case-sensitive.
type Router struct {
	mu       sync.RWMutex
	commands map[string]*Command
	reserved map[string]bool
}

// NewRouter creates an empty router. Reserved names cannot be registered by
// plugins; the server uses them for its own commands.
func NewRouter(reserved ...string) *Router {
	r := &Router{
		commands: make(map[string]*Command),
		reserved: make(map[string]bool, len(reserved)),
	}
	for _, name := range reserved {
		r.reserved[name] = true
	}
	return r
}

// ValidName reports whether name can be registered: non-empty, at most
// MaxNameLength bytes, no whitespace, and no leading slash.
func ValidName(name string) bool {
	if name == "" || len(name) > MaxNameLength || name[0] == '/' {
		return false
	}
	return strings.IndexFunc(name, unicode.IsSpace) < 0
}

// Register adds a command owned by the plugin with the given ordinal.
func (r *Router) Register(owner uint64, name, description string, handler pluginapi.CommandHandler, required uint32) pluginapi.Result {
	if !ValidName(name) {
		return pluginapi.ResultCmdInvalidName
	}
	if handler == nil {
		return pluginapi.ResultInvalidParam
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists || r.reserved[name] {
		return pluginapi.ResultCmdAlreadyRegistered
	}
	if len(r.commands) >= MaxCommands {
		return pluginapi.ResultCmdTooMany
	}
	r.commands[name] = &Command{
		Name:        name,
		Description: description,
		Handler:     handler,
		Required:    required,
		Owner:       owner,
	}
	return pluginapi.ResultOK
}

// Lookup returns the command registered under name.
func (r *Router) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// RemoveOwner removes every command registered by owner and returns how many
// were removed.
func (r *Router) RemoveOwner(owner uint64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for name, cmd := range r.commands {
		if cmd.Owner == owner {
			delete(r.commands, name)
			count++
		}
	}
	return count
}

// All returns every command sorted by name.
func (r *Router) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		result = append(result, cmd)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Count returns the number of registered commands.
func (r *Router) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Split breaks a chat line of the form "/name args" into the command name and
// its arguments with surrounding spaces removed. ok is false when the line is
// not a command.
func Split(line string) (name, args string, ok bool) {
	if !strings.HasPrefix(line, "/") {
		return "", "", false
	}
	rest := line[1:]
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, args = rest[:i], strings.TrimSpace(rest[i:])
	} else {
		name = rest
	}
	if name == "" {
		return "", "", false
	}
	return name, args, true
}
