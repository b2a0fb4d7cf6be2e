package app

import (
	"time"

	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/server"
)

// logSummary logs the wiring that startup ended with and, at debug level,
// every HTTP route.
func (a *App) logSummary(took time.Duration) {
	fields := logger.Fields(
		"token_store", a.Cfg.TokenStore,
		"auth", a.Cfg.Auth.Describe(),
		"schemes", a.Dispatcher.Schemes(),
		logger.FieldDuration, took.Milliseconds(),
	)
	if a.Server != nil {
		fields["addr"] = a.Server.Addr()
	}
	a.Logger.Info("Startup complete", fields)

	c, ok := a.Components.Get("http-server").(*server.Component)
	if !ok {
		return
	}
	for _, r := range c.Routes() {
		a.Logger.Debug("Route", logger.Fields("method", r.Method, "path", r.Path))
	}
}
