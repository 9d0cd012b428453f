package plugin

import (
	"context"
	"testing"

	"github.com/spadesx/spadesx/internal/plugin/command"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

type fakeServer struct{}

func (fakeServer) Name() string    { return "test" }
func (fakeServer) Tick() uint64    { return 0 }
func (fakeServer) MaxPlayers() int { return 32 }

// fakeAPI implements only RegisterCommand; any other call panics.
type fakeAPI struct {
	pluginapi.API
	reg *Registry
}

func (a *fakeAPI) RegisterCommand(name, description string, handler pluginapi.CommandHandler, required uint32) pluginapi.Result {
	owner, ok := a.reg.ActiveOrdinal()
	if !ok {
		return pluginapi.ResultInvalidState
	}
	return a.reg.Router().Register(owner, name, description, handler, required)
}

type fakePlayers map[pluginapi.Player]bool

func (f fakePlayers) Valid(p pluginapi.Player) bool { return f[p] }

type harness struct {
	reg      *Registry
	builtins *BuiltinOpener
	players  fakePlayers
	disp     *Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	builtins := NewBuiltinOpener()
	reg := NewRegistry(command.NewRouter(), WithOpeners(builtins))
	reg.Bind(fakeServer{}, &fakeAPI{reg: reg})
	players := fakePlayers{}
	return &harness{
		reg:      reg,
		builtins: builtins,
		players:  players,
		disp:     NewDispatcher(reg, fakeServer{}, players),
	}
}

// symbols returns a minimal valid image named name, with extra entries added
// or overriding the defaults.
func symbols(name string, extra Symbols) Symbols {
	syms := Symbols{
		pluginapi.SymbolInfo: &pluginapi.Info{
			Name:       name,
			Version:    "1.0.0",
			Author:     "test",
			APIVersion: pluginapi.Version,
		},
		pluginapi.SymbolInit: func(srv pluginapi.Server, api pluginapi.API, log pluginapi.Logger) int {
			return 0
		},
		pluginapi.SymbolShutdown: func(srv pluginapi.Server) {},
	}
	for k, v := range extra {
		syms[k] = v
	}
	return syms
}

func (h *harness) register(name string, syms Symbols) string {
	h.builtins.Register(name, func() Symbols { return syms })
	return BuiltinPrefix + name
}

func (h *harness) load(t *testing.T, name string, extra Symbols) *Record {
	t.Helper()
	rec, err := h.reg.Load(context.Background(), h.register(name, symbols(name, extra)))
	if err != nil {
		t.Fatalf("Load(%s) error = %v", name, err)
	}
	return rec
}
