// Command babelso builds the Babel gamemode as a native plugin image:
//
//	go build -buildmode=plugin -o plugins/babel.so ./plugins/babel/cmd/babelso
//
// The host must be built from the same module version.
package main

import (
	"github.com/spadesx/spadesx/pkg/pluginapi"
	"github.com/spadesx/spadesx/plugins/babel"
)

var gm = babel.New()

// SpadesXPluginInfo is the exported metadata record.
var SpadesXPluginInfo = babel.Info

func SpadesXPluginInit(srv pluginapi.Server, api pluginapi.API, log pluginapi.Logger) int {
	return gm.Init(srv, api, log)
}

func SpadesXPluginShutdown(srv pluginapi.Server) {
	gm.Shutdown(srv)
}

func SpadesXPluginOnServerInit(srv pluginapi.Server, api pluginapi.BootstrapAPI) {
	gm.OnServerInit(srv, api)
}

func SpadesXPluginOnBlockDestroy(srv pluginapi.Server, p pluginapi.Player, tool pluginapi.Tool, b *pluginapi.Block) pluginapi.Result {
	return gm.OnBlockDestroy(srv, p, tool, b)
}

func SpadesXPluginOnBlockPlace(srv pluginapi.Server, p pluginapi.Player, b *pluginapi.Block) pluginapi.Result {
	return gm.OnBlockPlace(srv, p, b)
}

func SpadesXPluginOnCommand(srv pluginapi.Server, p pluginapi.Player, command string) pluginapi.Result {
	return gm.OnCommand(srv, p, command)
}

func SpadesXPluginOnPlayerConnect(srv pluginapi.Server, p pluginapi.Player) {
	gm.OnPlayerConnect(srv, p)
}

func SpadesXPluginOnPlayerDisconnect(srv pluginapi.Server, p pluginapi.Player, reason string) {
	gm.OnPlayerDisconnect(srv, p, reason)
}

func SpadesXPluginOnPlayerHit(srv pluginapi.Server, shooter, victim pluginapi.Player, hit pluginapi.HitType, weapon uint8) pluginapi.Result {
	return gm.OnPlayerHit(srv, shooter, victim, hit, weapon)
}

func SpadesXPluginOnTick(srv pluginapi.Server) {
	gm.OnTick(srv)
}

func main() {}
