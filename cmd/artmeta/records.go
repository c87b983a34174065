package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(recordsCmd)
}

var recordsCmd = &cobra.Command{
	Use:   "records <article.xml>...",
	Short: "Show the export records built from articles, with the build report",
	Long: `Show the export records built from articles, with the build report.

The primary article and each translation become one record. Records that
lack a required field (title, year, DOI or pid_v2) are dropped and appear
only in the report.

Examples:
  artmeta records article.xml
  artmeta records article.xml --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecords,
}

func runRecords(cmd *cobra.Command, args []string) error {
	sources, err := buildSources(args, newBuilder(nil), nil)
	if err != nil {
		exitWithErr(ExitDataError, err)
	}

	if !humanOutput {
		return outputJSON(sources)
	}

	for _, s := range sources {
		outputHuman("%s\n", s.Path)
		for _, r := range s.Result.Records {
			kind := "translation"
			if r.Primary {
				kind = "primary"
			}
			outputHuman("  %-12s %-4s %-11s %-30s %s\n",
				r.DocID, orDash(r.Language), kind, orDash(r.Identifiers.DOI),
				truncateString(r.Title, TitleMaxLen))
			for _, l := range r.Links {
				outputHuman("  %12s %s %s\n", "", l.Relationship, l.CounterpartIdentifier)
			}
		}
		for _, f := range s.Result.Report.Failures {
			outputHuman("  ! %s\n", f.Error())
		}
	}
	return nil
}
