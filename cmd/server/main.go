package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"filiales-backend/internal/async"
	"filiales-backend/internal/config"
	"filiales-backend/internal/database"
	"filiales-backend/internal/logging"
	"filiales-backend/internal/server"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg)
	database.Init(cfg)

	app := server.New(cfg)

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("env", cfg.Environment).Msg("servidor iniciado")
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Fatal().Err(err).Msg("el servidor se detuvo")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("apagando servidor")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("error al apagar el servidor")
	}
	// registros de auditoría pendientes
	if !async.Wait(5 * time.Second) {
		log.Warn().Msg("quedaron tareas en segundo plano sin terminar")
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("servidor detenido")
}
