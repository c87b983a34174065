package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/artmeta/internal/config"
)

var configInitPath string

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", "", "Where to write the file (default ~/.config/artmeta/config.yaml)")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the artmeta configuration",
	Long: `Manage the artmeta configuration.

Settings are read from config.yaml, then ARTMETA_* environment variables
(e.g. ARTMETA_DEPOSITOR_EMAIL), then command line flags.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration and where it came from",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// ConfigResponse is the output of config show.
type ConfigResponse struct {
	Source     string         `json:"source"`
	SourcePath string         `json:"source_path,omitempty"`
	Journal    string         `json:"journal"`
	Config     *config.Config `json:"config"`
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := config.Generate(configInitPath, config.New())
	if err != nil {
		exitWithErr(ExitConfigError, err)
	}
	if humanOutput {
		outputHuman("Created %s\n", path)
		return nil
	}
	return outputJSON(StatusResponse{Status: "created", Path: path})
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	resp := ConfigResponse{
		Source:     cfgSource.Source,
		SourcePath: cfgSource.SourcePath,
		Journal:    cfg.JournalFile(),
		Config:     cfg,
	}
	if !humanOutput {
		return outputJSON(resp)
	}
	outputHuman("source:           %s %s\n", resp.Source, resp.SourcePath)
	outputHuman("depositor name:   %s\n", orDash(cfg.Depositor.Name))
	outputHuman("depositor email:  %s\n", orDash(cfg.Depositor.Email))
	outputHuman("registrant:       %s\n", orDash(cfg.Registrant))
	outputHuman("resource url:     %s\n", orDash(cfg.ResourceURLTemplate))
	outputHuman("journal:          %s\n", resp.Journal)
	outputHuman("metrics:          %s\n", orDash(cfg.MetricsPath))
	outputHuman("log:              %s/%s\n", cfg.Log.Format, cfg.Log.Level)
	return nil
}
