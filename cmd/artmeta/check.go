package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/artmeta/internal/diag"
	"github.com/matsen/artmeta/internal/export"
	"github.com/matsen/artmeta/internal/record"
)

var checkFormats []string

func init() {
	checkCmd.Flags().StringSliceVarP(&checkFormats, "format", "f", nil, "Formats to check (default: all)")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <article.xml>...",
	Short: "Check which records each format can export",
	Long: `Check which records each format can export, without writing anything.

Exits with status 4 when a record is dropped or a format would leave a
record out.

Examples:
  artmeta check article.xml
  artmeta check article.xml -f crossref,doaj --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

// CheckResult is the pre-flight verdict of one format.
type CheckResult struct {
	Format   string         `json:"format"`
	Ready    int            `json:"ready"`
	Missing  []diag.Failure `json:"missing,omitempty"`
	ParamErr string         `json:"params_error,omitempty"`
}

// CheckResponse is the output of the check command.
type CheckResponse struct {
	Build   []diag.Failure `json:"build,omitempty"`
	Formats []CheckResult  `json:"formats"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	formats := export.All()
	if len(checkFormats) > 0 {
		formats = nil
		for _, name := range checkFormats {
			f, err := export.Get(name)
			if err != nil {
				exitWithErr(ExitError, err)
			}
			formats = append(formats, f)
		}
	}

	sources, err := buildSources(args, newBuilder(nil), nil)
	if err != nil {
		exitWithErr(ExitDataError, err)
	}
	var records []record.ExportRecord
	var resp CheckResponse
	for _, s := range sources {
		records = append(records, s.Result.Records...)
		resp.Build = append(resp.Build, s.Result.Report.Failures...)
	}

	params := exportParams(cfg, nowUTC())
	incomplete := len(diag.Report{Failures: resp.Build}.Fatal()) > 0
	for _, f := range formats {
		res := checkFormat(f, records, params)
		if len(res.Missing) > 0 || res.ParamErr != "" {
			incomplete = true
		}
		resp.Formats = append(resp.Formats, res)
	}

	if humanOutput {
		for _, f := range resp.Build {
			outputHuman("build  ! %s\n", f.Error())
		}
		for _, r := range resp.Formats {
			outputHuman("%-8s ready %d\n", r.Format, r.Ready)
			if r.ParamErr != "" {
				outputHuman("         ! %s\n", r.ParamErr)
			}
			for _, m := range r.Missing {
				outputHuman("         ! %s\n", m.Error())
			}
		}
	} else {
		outputJSON(resp)
	}

	if incomplete {
		os.Exit(ExitIncomplete)
	}
	return nil
}

func checkFormat(f export.Format, records []record.ExportRecord, p export.Params) CheckResult {
	res := CheckResult{Format: f.Name(), Missing: export.Check(f, records)}
	skipped := make(map[string]bool)
	for _, m := range res.Missing {
		skipped[m.DocID+"\x00"+m.Language] = true
	}
	res.Ready = len(records) - len(skipped)
	if pc, ok := f.(export.ParamsChecker); ok {
		if err := pc.CheckParams(p); err != nil {
			res.ParamErr = err.Error()
		}
	}
	return res
}
