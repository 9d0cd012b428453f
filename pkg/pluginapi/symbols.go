package pluginapi

// Exported symbol names. The host resolves them by exact name.
const (
	SymbolInfo     = "SpadesXPluginInfo"
	SymbolInit     = "SpadesXPluginInit"
	SymbolShutdown = "SpadesXPluginShutdown"

	SymbolOnServerInit       = "SpadesXPluginOnServerInit"
	SymbolOnServerShutdown   = "SpadesXPluginOnServerShutdown"
	SymbolOnBlockDestroy     = "SpadesXPluginOnBlockDestroy"
	SymbolOnBlockPlace       = "SpadesXPluginOnBlockPlace"
	SymbolOnCommand          = "SpadesXPluginOnCommand"
	SymbolOnPlayerConnect    = "SpadesXPluginOnPlayerConnect"
	SymbolOnPlayerDisconnect = "SpadesXPluginOnPlayerDisconnect"
	SymbolOnGrenadeExplode   = "SpadesXPluginOnGrenadeExplode"
	SymbolOnTick             = "SpadesXPluginOnTick"
	SymbolOnPlayerHit        = "SpadesXPluginOnPlayerHit"
	SymbolOnColorChange      = "SpadesXPluginOnColorChange"
)

// OptionalSymbols lists every optional handler symbol.
var OptionalSymbols = []string{
	SymbolOnServerInit,
	SymbolOnServerShutdown,
	SymbolOnBlockDestroy,
	SymbolOnBlockPlace,
	SymbolOnCommand,
	SymbolOnPlayerConnect,
	SymbolOnPlayerDisconnect,
	SymbolOnGrenadeExplode,
	SymbolOnTick,
	SymbolOnPlayerHit,
	SymbolOnColorChange,
}

// Entry point signatures. These are aliases so that a plain func exported from a
// Go shared object satisfies them.
type (
	// InitFunc returns 0 on success. Any other value unloads the plugin
	// without calling its shutdown function.
	InitFunc     = func(srv Server, api API, log Logger) int
	ShutdownFunc = func(srv Server)

	OnServerInitFunc       = func(srv Server, api BootstrapAPI)
	OnServerShutdownFunc   = func(srv Server)
	OnBlockDestroyFunc     = func(srv Server, player Player, tool Tool, block *Block) Result
	OnBlockPlaceFunc       = func(srv Server, player Player, block *Block) Result
	OnCommandFunc          = func(srv Server, player Player, command string) Result
	OnPlayerConnectFunc    = func(srv Server, player Player)
	OnPlayerDisconnectFunc = func(srv Server, player Player, reason string)
	OnGrenadeExplodeFunc   = func(srv Server, player Player, pos Vec3f)
	OnTickFunc             = func(srv Server)
	OnPlayerHitFunc        = func(srv Server, shooter, victim Player, hit HitType, weapon uint8) Result
	OnColorChangeFunc      = func(srv Server, player Player, newColor *uint32) Result
)
