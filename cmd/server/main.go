// @title        session-auth API
// @version      1.0
// @description  Username/password registration and login with JWT session cookies.
// @BasePath     /
package main

import (
	"context"
	"os"

	"github.com/99minutos/session-auth/internal/app"
	"github.com/99minutos/session-auth/internal/pkg/config"
	"github.com/99minutos/session-auth/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "session-auth",
	})

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialise")
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
