package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2beens/rerack/internal"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "server",
	Short:   "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(cfg, "rerack-service")

		log.Warnf("---->> running in [%s] environment", envFlag)
		log.Debugf("using port: %d", cfg.Port)
		log.Debugf("using server logs path: [%s]", cfg.LogsPath)

		secrets := readSecrets()

		chOsInterrupt := make(chan os.Signal, 1)
		signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		server, err := internal.NewServer(
			ctx,
			internal.NewServerParams{
				Config:                  cfg,
				RedisPassword:           secrets.redisPassword,
				PostgresPassword:        secrets.postgresPassword,
				AIApiKey:                secrets.aiApiKey,
				HoneycombTracingEnabled: secrets.honeycombEnabled,
			},
		)
		if err != nil {
			return err
		}

		server.Serve(ctx, cfg.Host, cfg.Port)

		receivedSig := <-chOsInterrupt
		log.Warnf("signal [%s] received, killing everything ...", receivedSig)
		cancel()

		server.GracefulShutdown()
		return nil
	},
}
