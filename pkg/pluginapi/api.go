package pluginapi

// CommandHandler handles a registered command. args is the text after the command
// name with surrounding spaces removed. Returning ResultAllow consumes the command;
// ResultDeny passes it on to the plugins' OnCommand handlers.
type CommandHandler = func(srv Server, player Player, args string) Result

// API is the full capability table, valid for the plugin's whole lifetime.
type API interface {
	// GetPlayer returns the player in slot id, or NoPlayer.
	GetPlayer(id uint8) Player

	PlayerName(p Player) string
	PlayerTeam(p Player) Team
	PlayerTool(p Player) Tool
	PlayerBlocks(p Player) uint8
	PlayerGrenades(p Player) uint8
	PlayerColor(p Player) uint32

	// PlayerHP returns 0-100, or 0 for a null handle.
	PlayerHP(p Player) uint8

	// PlayerPosition returns the zero vector for a null handle.
	PlayerPosition(p Player) Vec3f

	// PlayerPermissions returns the player's permission bits.
	PlayerPermissions(p Player) uint32

	// PlayerSetColor changes the tool color locally without telling any client.
	PlayerSetColor(p Player, color uint32) Result

	// PlayerSetColorBroadcast changes the tool color and replicates it to every client.
	PlayerSetColorBroadcast(p Player, color uint32) Result

	// PlayerRestock sets blocks to 50 and grenades to 3.
	PlayerRestock(p Player) Result

	PlayerSendNotice(p Player, message string) Result
	PlayerKill(p Player) Result

	// PlayerSetHP fails with ResultInvalidHP when hp > 100.
	PlayerSetHP(p Player, hp uint8) Result

	PlayerSetPosition(p Player, pos Vec3f) Result

	// GetMap returns the handle of the live map.
	GetMap() Map

	// MapBlock returns the color at the position, or 0 when empty or out of bounds.
	MapBlock(m Map, x, y, z int32) uint32

	// MapSetBlock places a block and replicates it.
	MapSetBlock(x, y, z int32, color uint32) Result

	// MapRemoveBlock removes a block and replicates the removal.
	MapRemoveBlock(x, y, z int32) Result

	// MapFindTopBlock returns the z of the topmost solid block in column (x, y), or -1.
	MapFindTopBlock(m Map, x, y int32) int32

	MapIsValidPos(m Map, x, y, z int32) bool

	BroadcastMessage(message string) Result

	// RegisterCommand registers a command for the calling plugin.
	RegisterCommand(name, description string, handler CommandHandler, requiredPermissions uint32) Result
}

// BootstrapAPI is handed to OnServerInit only. Its Init* functions write the world
// without network replication and fail with ResultInvalidState once the bootstrap
// window has closed. Replicating mutators always fail through this table.
type BootstrapAPI interface {
	API

	InitAddBlock(x, y, z int32, color uint32) Result

	// InitSetIntelPosition fails with ResultInvalidTeam when team >= 2.
	InitSetIntelPosition(team uint8, x, y, z int32) Result
}

// LogLevel is the severity of a plugin log message.
type LogLevel int

// Log levels.
const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarning
	LogError
	LogFatal
)

// String returns the level name.
func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "debug"
	case LogInfo:
		return "info"
	case LogWarning:
		return "warning"
	case LogError:
		return "error"
	case LogFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Logger is the structured logger handed to a plugin at init. Messages carry
// alternating key/value pairs. The logger stops accepting messages once the
// plugin is unloaded.
type Logger interface {
	Log(level LogLevel, msg string, keysAndValues ...any)
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)

	// Fatal records the message and flushes the sink. It does not stop the server.
	Fatal(msg string, keysAndValues ...any)
}
