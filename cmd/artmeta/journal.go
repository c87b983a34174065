package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gnames/gn"
	"github.com/spf13/cobra"

	"github.com/matsen/artmeta/internal/diag"
	"github.com/matsen/artmeta/internal/errcode"
	"github.com/matsen/artmeta/internal/export"
	"github.com/matsen/artmeta/internal/record"
	"github.com/matsen/artmeta/internal/storage"
)

// journalEntries lists what happened to every renderable document of one
// source: exported, skipped by the format, or dropped by the builder.
// A non-empty failure means the run produced no output, so nothing counts
// as exported and the failure becomes the reason.
func journalEntries(runID string, ts time.Time, f export.Format, s source, failure string) []storage.Entry {
	base := storage.Entry{RunID: runID, Time: ts, Format: f.Name(), Source: s.Path}
	var res []storage.Entry
	for _, r := range s.Result.Records {
		e := base
		e.DocID, e.Language, e.DOI = r.DocID, r.Language, r.Identifiers.DOI
		e.Status = storage.StatusExported
		if miss := export.Check(f, []record.ExportRecord{r}); len(miss) > 0 {
			e.Status = storage.StatusSkipped
			e.Reason = "missing " + fieldList(miss)
		} else if failure != "" {
			e.Status = storage.StatusSkipped
			e.Reason = failure
		}
		res = append(res, e)
	}

	dropped := make(map[string][]diag.Failure)
	var order []string
	for _, fl := range s.Result.Report.OfKind(diag.MissingRequiredField) {
		key := fl.DocID + "\x00" + fl.Language
		if _, ok := dropped[key]; !ok {
			order = append(order, key)
		}
		dropped[key] = append(dropped[key], fl)
	}
	for _, key := range order {
		fs := dropped[key]
		e := base
		e.DocID, e.Language = fs[0].DocID, fs[0].Language
		e.Status = storage.StatusDropped
		e.Reason = "missing " + fieldList(fs)
		res = append(res, e)
	}
	return res
}

func fieldList(fs []diag.Failure) string {
	fields := make([]string, len(fs))
	for i, f := range fs {
		fields[i] = f.Field
	}
	return strings.Join(fields, ", ")
}

func summarize(runID, format string, entries []storage.Entry) exportSummary {
	sum := exportSummary{RunID: runID, Format: format}
	for _, e := range entries {
		switch e.Status {
		case storage.StatusExported:
			sum.Exported++
		case storage.StatusSkipped:
			sum.Skipped++
		case storage.StatusDropped:
			sum.Dropped++
		}
	}
	return sum
}

// mustOpenJournal opens the deposit journal, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenJournal() *storage.DB {
	path := cfg.JournalFile()
	db, err := storage.OpenDB(path)
	if err != nil {
		exitWithErr(ExitError, &gn.Error{
			Code: errcode.JournalOpenError,
			Msg:  "Cannot open deposit journal <em>%s</em>",
			Vars: []any{path},
			Err:  err,
		})
	}
	return db
}

// recordJournal never fails the export; the data is already produced.
// It returns a note for every DOI that an earlier run already exported in
// the same format.
func recordJournal(entries []storage.Entry) []string {
	db := mustOpenJournal()
	defer db.Close()

	var notes []string
	for _, e := range entries {
		if e.Status != storage.StatusExported || e.DOI == "" {
			continue
		}
		prev, err := db.LastExported(e.DOI, e.Format)
		if err != nil {
			log.Warn("cannot read deposit journal", "path", cfg.JournalFile(), "error", err)
			break
		}
		if prev != nil {
			notes = append(notes, fmt.Sprintf("%s was already exported as %s on %s (run %s)",
				e.DOI, e.Format, prev.Time.Format("2006-01-02"), prev.RunID))
		}
	}

	if err := db.Record(entries); err != nil {
		log.Warn("cannot record run in deposit journal", "path", cfg.JournalFile(), "error", err)
	}
	return notes
}

var (
	journalRun    string
	journalDOI    string
	journalFormat string
	journalStatus string
	journalLimit  int
	journalRuns   int
	journalOutput string
)

func init() {
	f := journalListCmd.Flags()
	f.StringVar(&journalRun, "run", "", "Only entries of this run")
	f.StringVar(&journalDOI, "doi", "", "Only entries of this DOI")
	f.StringVar(&journalFormat, "format", "", "Only entries of this format")
	f.StringVar(&journalStatus, "status", "", "Only entries with this status (exported, skipped, dropped)")
	f.IntVar(&journalLimit, "limit", 50, "Maximum entries (0 for all)")

	journalRunsCmd.Flags().IntVar(&journalRuns, "limit", 20, "Maximum runs (0 for all)")
	journalDumpCmd.Flags().StringVarP(&journalOutput, "output", "o", "", "Write to file instead of stdout")

	journalCmd.AddCommand(journalListCmd, journalRunsCmd, journalDumpCmd, journalRestoreCmd)
	rootCmd.AddCommand(journalCmd)
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the deposit journal",
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries, newest run first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch storage.Status(journalStatus) {
		case "", storage.StatusExported, storage.StatusSkipped, storage.StatusDropped:
		default:
			exitWithError(ExitError, "unknown status %q", journalStatus)
		}

		db := mustOpenJournal()
		defer db.Close()
		entries, err := db.Entries(storage.Filter{
			RunID:  journalRun,
			DOI:    journalDOI,
			Format: journalFormat,
			Status: storage.Status(journalStatus),
		}, journalLimit)
		if err != nil {
			exitWithErr(ExitError, journalReadError(err))
		}

		if !humanOutput {
			if entries == nil {
				entries = []storage.Entry{}
			}
			return outputJSON(entries)
		}
		for _, e := range entries {
			outputHuman("%s  %-8s %-8s %-12s %-4s %-30s %s\n",
				e.Time.Format("2006-01-02 15:04"), e.Format, e.Status,
				e.DocID, orDash(e.Language), orDash(e.DOI), e.Reason)
		}
		return nil
	},
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Summarize recent export runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db := mustOpenJournal()
		defer db.Close()
		runs, err := db.Runs(journalRuns)
		if err != nil {
			exitWithErr(ExitError, journalReadError(err))
		}

		if !humanOutput {
			if runs == nil {
				runs = []storage.Run{}
			}
			return outputJSON(runs)
		}
		for _, r := range runs {
			outputHuman("%s  %s  %-8s exported %d, skipped %d, dropped %d  %s\n",
				r.Time.Format("2006-01-02 15:04"), r.ID, r.Format,
				r.Exported, r.Skipped, r.Dropped, r.Source)
		}
		return nil
	},
}

var journalDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write the whole journal as JSONL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db := mustOpenJournal()
		defer db.Close()
		entries, err := db.Entries(storage.Filter{}, 0)
		if err != nil {
			exitWithErr(ExitError, journalReadError(err))
		}

		w := os.Stdout
		if journalOutput != "" {
			fh, err := os.Create(journalOutput)
			if err != nil {
				exitWithError(ExitError, "creating %s: %v", journalOutput, err)
			}
			defer fh.Close()
			w = fh
		}
		if err := storage.WriteAll(w, entries); err != nil {
			exitWithError(ExitError, "writing journal: %v", err)
		}
		if journalOutput != "" && humanOutput {
			gn.Info("Wrote <em>%d</em> entries to <em>%s</em>", len(entries), journalOutput)
		}
		return nil
	},
}

var journalRestoreCmd = &cobra.Command{
	Use:   "restore <dump.jsonl>",
	Short: "Replace the journal with the entries of a JSONL dump",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db := mustOpenJournal()
		defer db.Close()
		n, err := db.RebuildFromJSONL(args[0])
		if err != nil {
			exitWithErr(ExitError, &gn.Error{
				Code: errcode.JournalWriteError,
				Msg:  "Cannot restore the journal from <em>%s</em>",
				Vars: []any{args[0]},
				Err:  err,
			})
		}
		if humanOutput {
			outputHuman("Restored %d entries\n", n)
			return nil
		}
		return outputJSON(StatusResponse{Status: "restored", Path: cfg.JournalFile(), Count: n})
	},
}

func journalReadError(err error) error {
	return &gn.Error{
		Code: errcode.JournalReadError,
		Msg:  "Cannot read deposit journal",
		Err:  fmt.Errorf("%s: %w", cfg.JournalFile(), err),
	}
}
