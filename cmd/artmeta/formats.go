package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/artmeta/internal/export"
)

func init() {
	rootCmd.AddCommand(formatsCmd)
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the export formats and the fields each one requires",
	Args:  cobra.NoArgs,
	RunE:  runFormats,
}

// FormatInfo describes a registered format.
type FormatInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Extensions  []string `json:"extensions"`
	Required    []string `json:"required"`
}

func runFormats(cmd *cobra.Command, args []string) error {
	var infos []FormatInfo
	for _, f := range export.All() {
		req := make([]string, 0, len(f.Required()))
		for _, r := range f.Required() {
			req = append(req, string(r))
		}
		infos = append(infos, FormatInfo{
			Name:        f.Name(),
			Description: f.Description(),
			Extensions:  f.Extensions(),
			Required:    req,
		})
	}

	if !humanOutput {
		return outputJSON(infos)
	}
	for _, i := range infos {
		outputHuman("%-9s %s\n", i.Name, i.Description)
		outputHuman("%-9s requires: %s\n", "", orDash(strings.Join(i.Required, ", ")))
	}
	return nil
}
