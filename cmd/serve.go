package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/reclaim/internal/config"
	"github.com/kozaktomas/reclaim/internal/report"
	"github.com/kozaktomas/reclaim/internal/web"
	"github.com/kozaktomas/reclaim/internal/workspace"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Reclaim HTTP API.
The API accepts a reference photo with search terms on /upload, returns ranked
matches and builds removal action plans on /report.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (defaults to WEB_PORT or 5000)")
	serveCmd.Flags().String("host", "", "Host to bind to (defaults to WEB_HOST or 0.0.0.0)")
}

// applyServeFlags lets explicit flags override the environment.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Web.Port = flagValue(cmd, "port", cmd.Flags().GetInt)
	}
	if cmd.Flags().Changed("host") {
		cfg.Web.Host = flagValue(cmd, "host", cmd.Flags().GetString)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyServeFlags(cmd, cfg)
	logger := logrus.StandardLogger()

	deps, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	reports, err := report.NewBuilder()
	if err != nil {
		return fmt.Errorf("loading report catalog: %w", err)
	}

	server := web.NewServer(cfg, web.Services{
		Extractor:  deps.extractor,
		Matcher:    deps.pipeline,
		Reports:    reports,
		Workspaces: &workspace.Manager{Root: cfg.Workspace.Dir},
		Logger:     logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Error during shutdown")
		}
	}()

	fmt.Printf("Starting Reclaim API on http://%s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
