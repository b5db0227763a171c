package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2beens/rerack/internal/config"
	"github.com/2beens/rerack/internal/logging"
)

var (
	envFlag    string
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:   "rerack",
	Short: "Offline first workout tracking backend",
	Long: `rerack keeps workouts, personal records and the user profile in a local
store, mirrors them to a remote store for signed in users and replays writes
made while offline once the remote is reachable again.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "development", "environment [prod | production | dev | development]")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path for the TOML config file (empty for built in defaults)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "server", Title: "Server:"},
		&cobra.Group{ID: "sync", Title: "Sync:"},
		&cobra.Group{ID: "reference", Title: "Reference data:"},
	)
	rootCmd.AddCommand(serveCmd, loginCmd, logoutCmd, syncCmd, migrateCmd, cacheCmd, matchCmd)
}

func loadConfig() (*config.Config, error) {
	if configFlag == "" {
		log.Debugln("no config file given, using defaults")
		return config.Default(), nil
	}
	return config.Load(envFlag, configFlag)
}

func setupLogging(cfg *config.Config, serverName string) {
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: serverName,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
