package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facetag/internal/config"
	"github.com/kozaktomas/facetag/internal/constants"
	"github.com/kozaktomas/facetag/internal/enroll"
	"github.com/kozaktomas/facetag/internal/pipeline"
	"github.com/kozaktomas/facetag/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the facetag web server.

Loads the face models, enrolls the identity roster from its reference images
and serves an upload page. Every face in an uploaded photo is boxed and
labeled on an overlay: green for a known identity, red for unknown.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", constants.DefaultWebPort, "Port to listen on")
	serveCmd.Flags().String("host", constants.DefaultWebHost, "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies")
}

// applyServeFlags lets explicitly set flags override the environment.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Web.Port = mustGetInt(cmd, "port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Web.Host = mustGetString(cmd, "host")
	}
	if secret := mustGetString(cmd, "session-secret"); secret != "" {
		cfg.Web.SessionSecret = secret
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)

	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Printf("Enrolling %d identities...\n", len(cfg.Roster.Identities))
	result, err := enrollRoster(ctx, cfg, analyzer, enroll.Options{})
	if err != nil {
		return err
	}
	logOutcomes(result)
	fmt.Printf("Enrolled %d reference faces\n", result.Enrolled())

	m, err := buildMatcher(cfg, result, 0)
	if err != nil {
		return err
	}

	server := web.NewServer(cfg, web.Deps{
		Pipeline:   pipeline.New(analyzer, m, detectionPolicy(cfg)),
		Identities: m,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting facetag on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
