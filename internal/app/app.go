// Package app holds the CLI's configuration and the dependencies built from it.
package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aussiebroadwan/vonage/pkg/slogx"
	"github.com/aussiebroadwan/vonage/pkg/vonage"
)

// Service names the CLI in log records.
const Service = "vonage-cli"

// App carries the resolved configuration, the logger and a lazily built SDK
// client. Commands that never talk to the API do not need valid credentials.
type App struct {
	Config Config
	Logger *slog.Logger

	once      sync.Once
	client    *vonage.Vonage
	err       error
	closeOnce sync.Once
	closed    atomic.Bool
}

// New builds an App whose logs go to logs.
func New(cfg Config, logs io.Writer) *App {
	return &App{
		Config: cfg,
		Logger: slogx.New(slogx.Config{
			Service: Service,
			Version: vonage.Version,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Writer:  logs,
		}),
	}
}

// Client returns the SDK client, building it on first use. Configuration
// errors are returned on every call.
func (a *App) Client() (*vonage.Vonage, error) {
	a.once.Do(func() {
		opts := a.Config.Options()
		opts.Logger = a.Logger
		a.client, a.err = vonage.New(a.Config.Credentials(), &opts)
	})
	return a.client, a.err
}

// Close releases the client's connection pool if it was built. Calls after
// the first do nothing.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.client != nil {
			a.client.Close()
		}
		a.closed.Store(true)
	})
}

// Closed reports whether Close has run.
func (a *App) Closed() bool { return a.closed.Load() }

type contextKey struct{}

// WithApp stores a in ctx.
func WithApp(ctx context.Context, a *App) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the App stored by WithApp, or nil.
func FromContext(ctx context.Context) *App {
	if ctx == nil {
		return nil
	}
	a, _ := ctx.Value(contextKey{}).(*App)
	return a
}
