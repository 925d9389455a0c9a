package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kozaktomas/reclaim/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "reclaim",
	Short: "Find where your photos appear online and get them taken down",
	Long: `Reclaim searches public image sources for pictures of a person, compares
every candidate face against a reference photo and prepares removal
requests for the images that match.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error), overrides LOG_LEVEL")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	logCfg := config.Load().Log
	if logLevel != "" {
		logCfg.Level = logLevel
	}
	if err := configureLogging(logrus.StandardLogger(), logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// configureLogging applies level and format to logger. An unknown level keeps info.
func configureLogging(logger *logrus.Logger, cfg config.LogConfig) error {
	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
		return fmt.Errorf("invalid log level %q, using info", cfg.Level)
	}
	logger.SetLevel(level)
	return nil
}
