package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vedsharma/adminkit/internal/config"
	"github.com/vedsharma/adminkit/internal/format"
	"github.com/vedsharma/adminkit/internal/logging"
)

var (
	configPath string
	baseURL    string
	lang       string

	// current is set by the root PersistentPreRunE for commands that need it.
	current *app
)

var rootCmd = &cobra.Command{
	Use:   "adminkit",
	Short: "Manage REST and JSON:API backends from the command line",
	Long: `adminkit talks to admin backends described in adminkit.yaml.

It signs in with token auth, refreshes expired tokens transparently, and
lists, shows, creates, updates and deletes configured entities.

Examples:
  adminkit login -u admin
  adminkit entities
  adminkit list users --page 2 --filter role=admin
  adminkit create users --set name=Alice --set age=30
  adminkit get /api/health`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if current == nil {
			return nil
		}
		return current.Close()
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		format.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./adminkit.yaml or ~/.adminkit/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Override api.base_url")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "", "Override i18n.lang")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show headers and debug logs")
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if lang != "" {
		cfg.I18n.Lang = lang
	}

	level := cfg.Logging.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	logging.Init(logging.Config{Level: level, Format: cfg.Logging.Format})

	cmd.SetContext(logging.ContextWithNewCorrelationID(cmd.Context()))
	logging.Ctx(cmd.Context()).Debug().Str("command", cmd.CommandPath()).Msg("Starting command")

	current, err = newApp(cfg)
	return err
}
