package cli

import (
	"github.com/spf13/cobra"

	"tradecoach/internal/config"
	"tradecoach/internal/security"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-01"
)

// skipSetup marks commands that run without config, store or logger.
const skipSetup = "skip-setup"

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

// newRootCmd builds the command tree around app. A prebuilt app (Journal set)
// is used as is.
func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tradecoach",
		Short: "tradecoach - trading psychology coach",
		Long: `tradecoach analyzes how you felt when you took a trade alongside the trade itself.

Each analysis reviews the setup, your emotional state and your risk, then suggests
what to practise next. With an OpenAI key the review comes from a vision model;
without one it comes from built-in coaching rules. Every analysis is kept in a
local journal you can list, report on and serve over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := cmd.Annotations[skipSetup]; ok || app.Journal != nil {
				return nil
			}
			return app.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/tradecoach)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newJournalCmd(app))
	rootCmd.AddCommand(newServeCmd(app))

	return rootCmd
}

func (a *App) setup(cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging, debug, cmd.Name() == "serve")

	built, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	*a = *built
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("tradecoach v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long:  "Show the configuration after files and environment overrides are applied. The API key is masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			view := *app.Config
			view.Credentials.OpenAI.APIKey = security.MaskCredential(view.Credentials.OpenAI.APIKey)
			if output.IsJSON() {
				return output.JSON(view)
			}
			showConfig(output, &view)
			return nil
		},
	}
}

func showConfig(output *Output, cfg *config.Config) {
	key := cfg.Credentials.OpenAI.APIKey
	if key == "" {
		key = output.Yellow("not set (offline analysis)")
	}

	output.Bold("Coach")
	output.Printf("  Model:            %s\n", cfg.Coach.Model)
	if cfg.Coach.BaseURL != "" {
		output.Printf("  Base URL:         %s\n", cfg.Coach.BaseURL)
	}
	output.Printf("  API Key:          %s\n", key)
	output.Printf("  Response Format:  %s\n", cfg.Coach.ResponseFormat)
	output.Printf("  Unify Confidence: %v\n", cfg.Coach.UnifyConfidence)
	output.Printf("  Request Timeout:  %s\n", cfg.Coach.RequestTimeout)
	output.Printf("  Retry:            %d attempts, %s to %s\n", cfg.Coach.Retry.MaxAttempts, cfg.Coach.Retry.InitialDelay, cfg.Coach.Retry.MaxDelay)
	if cfg.Coach.Circuit.Enabled {
		output.Printf("  Circuit:          opens after %d failures for %s\n", cfg.Coach.Circuit.FailureThreshold, cfg.Coach.Circuit.Timeout)
	} else {
		output.Printf("  Circuit:          disabled\n")
	}
	output.Println()

	output.Bold("Storage")
	output.Printf("  Database:         %s\n", cfg.Storage.DBPath)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:          %s\n", cfg.Server.Addr)
	output.Printf("  Rate Limit:       %.1f/s (burst %d)\n", cfg.Server.RatePerSec, cfg.Server.Burst)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:            %s\n", cfg.Logging.Level)
	if cfg.Logging.File {
		output.Printf("  File:             %s\n", cfg.Logging.FilePath)
	}
	output.Dim("Config directory: %s", cfg.Dir)
}
