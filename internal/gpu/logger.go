package gpu

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Logging in this package is configured only through moon.SetLogger, which
// forwards its logger here. Records carry component=gpu so HAL plumbing can
// be told apart from the public API in one stream.

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() { loggerPtr.Store(slog.New(nopHandler{})) }

func slogger() *slog.Logger { return loggerPtr.Load() }

// SetLogger installs l for the package, tagged with component=gpu. Nil
// restores the silent default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		loggerPtr.Store(slog.New(nopHandler{}))
		return
	}
	loggerPtr.Store(l.With("component", "gpu"))
}
