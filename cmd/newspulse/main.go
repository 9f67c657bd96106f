// newspulse: competitor and keyword news sentiment monitoring.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seenimoa/newspulse/api"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/logging"
	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set in PersistentPreRunE.
var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "newspulse",
	Short: "newspulse: news sentiment monitoring for competitors and keywords",
	Long: `newspulse collects recent news for a set of competitors and keywords
from NewsAPI, GNews and Google News, scores each article's sentiment,
rolls the scores up into daily series with a short forecast, and raises
alerts on strongly negative or positive coverage.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger = logging.Setup(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// config is not needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "newspulse %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		api.Version = version
		srv, err := api.NewServer(cfg, logger)
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()
		addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
		return srv.ListenAndServe(ctx, addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, sources and key status",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := pipeline.Build(cfg, nil, logging.Discard())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  newspulse: System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    Competitors:   %v\n", cfg.Collector.Competitors)
		fmt.Fprintf(out, "    Keywords:      %v\n", cfg.Collector.Keywords)
		fmt.Fprintf(out, "    Lookback:      %d days, %d articles per term\n", cfg.Collector.LookbackDays, cfg.Collector.MaxArticles)
		fmt.Fprintf(out, "    Scorer:        %s\n", cfg.Analysis.Scorer)
		fmt.Fprintf(out, "    Alerts:        threshold %.2f via %s\n", cfg.Alerts.Threshold, cfg.Alerts.Notifier)
		fmt.Fprintf(out, "    Snapshot:      %s\n", cfg.Snapshot.Path)
		fmt.Fprintf(out, "    Watch:         %q (%s)\n", cfg.Watch.Schedule, cfg.Watch.Timezone)
		fmt.Fprintf(out, "    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Sources:")
		for _, name := range models.AllProviders {
			status := "✅ ready"
			if why, ok := env.Unavailable[name]; ok {
				status = "❌ " + why.Error()
			}
			fmt.Fprintf(out, "    %-25s %s\n", string(name)+":", status)
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
		}

		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}
