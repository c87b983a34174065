package main

import (
	"os"
	"strings"
	"time"

	"github.com/gnames/gn"
	"github.com/gnames/gnuuid"
	"github.com/spf13/cobra"

	"github.com/matsen/artmeta/internal/config"
	"github.com/matsen/artmeta/internal/errcode"
	"github.com/matsen/artmeta/internal/export"
	"github.com/matsen/artmeta/internal/metrics"
	"github.com/matsen/artmeta/internal/record"
	"github.com/matsen/artmeta/internal/storage"
)

var (
	exportFormat      string
	exportOutput      string
	exportBatchID     string
	exportResourceURL string
	exportDepName     string
	exportDepEmail    string
	exportRegistrant  string
	exportMetrics     string
	exportNoJournal   bool
)

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportFormat, "format", "f", "crossref", "Output format (see 'artmeta formats')")
	f.StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	f.StringVar(&exportBatchID, "batch-id", "", "Deposit batch id (default: derived from the DOIs)")
	f.StringVar(&exportResourceURL, "resource-url", "", "Landing page template, e.g. https://example.org/{doi}")
	f.StringVar(&exportDepName, "depositor-name", "", "Depositor name (overrides config)")
	f.StringVar(&exportDepEmail, "depositor-email", "", "Depositor email (overrides config)")
	f.StringVar(&exportRegistrant, "registrant", "", "Registrant (overrides config)")
	f.StringVar(&exportMetrics, "metrics", "", "Write run metrics to this textfile (overrides config)")
	f.BoolVar(&exportNoJournal, "no-journal", false, "Do not record this run in the deposit journal")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <article.xml>...",
	Short: "Export articles and their translations to a deposit or harvesting format",
	Long: `Export articles and their translations to a deposit or harvesting format.

Records that lack a field the format requires are left out and reported;
the rest are exported. Every run is recorded in the deposit journal.

Examples:
  artmeta export article.xml -f crossref -o deposit.xml
  artmeta export *.xml -f oai_dc > records.xml
  artmeta export article.xml -f xlsx -o review.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

// exportSummary is printed after the data is written.
type exportSummary struct {
	RunID    string   `json:"run_id"`
	Format   string   `json:"format"`
	Output   string   `json:"output,omitempty"`
	Exported int      `json:"exported"`
	Skipped  int      `json:"skipped"`
	Dropped  int      `json:"dropped"`
	Notes    []string `json:"notes,omitempty"`
}

func runExport(cmd *cobra.Command, args []string) error {
	f, err := export.Get(exportFormat)
	if err != nil {
		exitWithErr(ExitError, err)
	}

	m := metrics.New()
	sources, err := buildSources(args, newBuilder(m.ObserveTransition), m.ObserveBuild)
	if err != nil {
		exitWithErr(ExitDataError, err)
	}

	var records []record.ExportRecord
	for _, s := range sources {
		records = append(records, s.Result.Records...)
	}

	now := nowUTC()
	params := exportParams(cfg, now)
	out, serr := export.Serialize(f, records, params)
	m.ObserveOutput(out, serr)

	runID := gnuuid.New(f.Name() + "|" + now.Format(time.RFC3339Nano) + "|" + strings.Join(args, "|")).String()
	journal := func(failure string) ([]storage.Entry, []string) {
		var entries []storage.Entry
		for _, s := range sources {
			entries = append(entries, journalEntries(runID, now, f, s, failure)...)
		}
		var notes []string
		if !exportNoJournal {
			notes = recordJournal(entries)
		}
		writeMetrics(m)
		return entries, notes
	}

	if serr != nil {
		journal("serialization failed")
		exitWithErr(ExitDataError, serr)
	}
	// the journal only claims what reached the output
	if err := writeOutput(exportOutput, out.Data); err != nil {
		journal("output not written")
		exitWithErr(ExitError, err)
	}
	entries, notes := journal("")

	sum := summarize(runID, f.Name(), entries)
	sum.Output = exportOutput
	sum.Notes = notes
	for _, s := range sources {
		for _, fl := range s.Result.Report.Flags() {
			sum.Notes = append(sum.Notes, s.Path+": "+fl.Error())
		}
	}
	reportSummary(sum)

	if sum.Skipped > 0 || sum.Dropped > 0 {
		os.Exit(ExitIncomplete)
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// exportParams merges config values with flag overrides.
func exportParams(c *config.Config, now time.Time) export.Params {
	p := export.Params{
		DepositorName:  c.Depositor.Name,
		DepositorEmail: c.Depositor.Email,
		Registrant:     c.Registrant,
		ResourceURL:    c.ResourceURLTemplate,
		BatchID:        exportBatchID,
		Timestamp:      now,
	}
	override := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	override(&p.DepositorName, exportDepName)
	override(&p.DepositorEmail, exportDepEmail)
	override(&p.Registrant, exportRegistrant)
	override(&p.ResourceURL, exportResourceURL)
	return p
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &gn.Error{
			Code: errcode.WriteOutputError,
			Msg:  "Cannot write <em>%s</em>",
			Vars: []any{path},
			Err:  err,
		}
	}
	return nil
}

// writeMetrics never fails the run; metrics are a side channel.
func writeMetrics(m *metrics.Metrics) {
	path := cfg.MetricsPath
	if exportMetrics != "" {
		path = config.ExpandPath(exportMetrics)
	}
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		log.Warn("cannot write metrics", "path", path, "error", err)
	}
}

// reportSummary goes to stderr when the data went to stdout.
func reportSummary(sum exportSummary) {
	if humanOutput || sum.Output == "" {
		gn.Info("Exported <em>%d</em> records as <em>%s</em> (skipped %d, dropped %d)",
			sum.Exported, sum.Format, sum.Skipped, sum.Dropped)
		for _, n := range sum.Notes {
			gn.Warn("%s", n)
		}
		return
	}
	outputJSON(sum)
}
