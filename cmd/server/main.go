package main

import (
	"log"

	"github.com/yukikurage/household-api/internal/config"
	"github.com/yukikurage/household-api/internal/logging"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "household-api")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	app := fx.New(
		fx.Supply(cfg, logger),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		storageModule,
		realtimeModule,
		notifierModule,
		serviceModule,
		httpModule,
		jobsModule,
	)

	app.Run()
}
