package main

import (
	"os"

	"github.com/fox-gonic/fox"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/devguard/devguard/internal/config"
	"github.com/devguard/devguard/internal/scanagent"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msg("Starting scan agent server")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.Server.BindAddr = ":9999"
	if port := os.Getenv("SCANAGENT_PORT"); port != "" {
		cfg.Server.BindAddr = ":" + port
	}

	agent, err := scanagent.NewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scan agent server")
	}
	defer agent.Close()

	router := fox.New()
	if err := agent.UseApi(router); err != nil {
		log.Fatal().Err(err).Msg("failed to setup API routes")
	}

	log.Info().Msgf("Starting scan agent on %s", cfg.Server.BindAddr)
	if err := router.Run(cfg.Server.BindAddr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
