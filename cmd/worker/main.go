package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/di"
)

// The worker drains the notification outbox and runs the counter
// reconciliation schedule. It serves no HTTP routes.
func main() {
	app := fx.New(
		di.WorkerModule,
		fx.Invoke(di.PrintBanner),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
	)

	app.Run()
}
