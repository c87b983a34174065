// Package main provides the artmeta CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gnames/gn"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/artmeta/internal/config"
	"github.com/matsen/artmeta/internal/logger"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	configPath  string
	logLevel    string

	cfg       *config.Config
	cfgSource *config.LoadResult
	log       *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is on, so cobra errors (like unknown flags) are
		// printed here.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "artmeta",
	Short: "Export JATS article metadata to deposit and harvesting formats",
	Long: `artmeta reads JATS / SciELO PS article XML and turns the article and each
of its translations into an export record. Records go out as a Crossref DOI
deposit, OAI-PMH Dublin Core, DOAJ XML, JSON, BibTeX or a spreadsheet.

Every export run is written to a local deposit journal (SQLite), so that
"what did we deposit, and what was left out" can be answered later.
Commands output JSON by default; use --human for text.`,
	PersistentPreRunE: bootstrap,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/artmeta/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	rootCmd.Version = Version
}

// bootstrap loads .env, the config file and sets up logging.
func bootstrap(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	res, err := config.Load(configPath)
	if err != nil {
		gn.PrintErrorMessage(err)
		os.Exit(ExitConfigError)
	}
	cfg = res.Config
	cfgSource = res
	if logLevel != "" {
		cfg.Update([]config.Option{config.OptLogLevel(logLevel)})
	}

	log = logger.New(cfg.Log, os.Stderr)
	slog.SetDefault(log)
	log.Debug("configuration loaded", "source", res.Source, "path", res.SourcePath)
	return nil
}
