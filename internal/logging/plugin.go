package logging

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// PluginLogger is the pluginapi.Logger given to one plugin. It is named after the
// plugin and stops writing once Close is called.
type PluginLogger struct {
	log    *zap.SugaredLogger
	closed atomic.Bool
}

// NewPluginLogger returns a logger scoped to the named plugin.
func NewPluginLogger(base *zap.Logger, pluginName string) *PluginLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &PluginLogger{
		log: base.Named("plugin").With(zap.String("plugin", pluginName)).Sugar(),
	}
}

// Close detaches the logger from the sink.
func (l *PluginLogger) Close() {
	if l.closed.CompareAndSwap(false, true) {
		_ = l.log.Sync()
	}
}

// Log writes msg at the given level.
func (l *PluginLogger) Log(level pluginapi.LogLevel, msg string, keysAndValues ...any) {
	if l.closed.Load() {
		return
	}

	switch level {
	case pluginapi.LogDebug:
		l.log.Debugw(msg, keysAndValues...)
	case pluginapi.LogInfo:
		l.log.Infow(msg, keysAndValues...)
	case pluginapi.LogWarning:
		l.log.Warnw(msg, keysAndValues...)
	case pluginapi.LogError:
		l.log.Errorw(msg, keysAndValues...)
	case pluginapi.LogFatal:
		// zap's Fatal exits the process; a plugin must not be able to do that.
		l.log.Errorw(msg, append([]any{"severity", "fatal"}, keysAndValues...)...)
		_ = l.log.Sync()
	default:
		l.log.Infow(msg, keysAndValues...)
	}
}

func (l *PluginLogger) Debug(msg string, keysAndValues ...any) {
	l.Log(pluginapi.LogDebug, msg, keysAndValues...)
}

func (l *PluginLogger) Info(msg string, keysAndValues ...any) {
	l.Log(pluginapi.LogInfo, msg, keysAndValues...)
}

func (l *PluginLogger) Warn(msg string, keysAndValues ...any) {
	l.Log(pluginapi.LogWarning, msg, keysAndValues...)
}

func (l *PluginLogger) Error(msg string, keysAndValues ...any) {
	l.Log(pluginapi.LogError, msg, keysAndValues...)
}

func (l *PluginLogger) Fatal(msg string, keysAndValues ...any) {
	l.Log(pluginapi.LogFatal, msg, keysAndValues...)
}
