package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/matsen/artmeta/internal/record"
)

// Sheet names of the spreadsheet format.
const (
	SheetRecords      = "Records"
	SheetContributors = "Contributors"
	SheetCitations    = "Citations"
)

// XLSX writes a spreadsheet for editorial review: one row per record, per
// contributor and per citation of each work.
type XLSX struct{}

var _ Format = (*XLSX)(nil)

func (x *XLSX) Name() string {
	return "xlsx"
}

func (x *XLSX) Description() string {
	return "Spreadsheet with records, contributors and citations"
}

func (x *XLSX) Extensions() []string {
	return []string{"xlsx"}
}

func (x *XLSX) Required() []Field {
	return nil
}

var (
	recordHeader = []any{
		"Doc ID", "Language", "Primary", "DOI", "PID v2", "PID v3", "Title",
		"Journal", "Volume", "Issue", "Pages", "Year", "Publication date",
		"License", "Relationship", "Counterpart",
	}
	contributorHeader = []any{
		"Doc ID", "Language", "Sequence", "Role", "Surname", "Given names",
		"Organization", "ORCID", "Affiliation", "Country",
	}
	citationHeader = []any{
		"Work", "Key", "Authors", "Year", "Source", "Title", "Volume",
		"Issue", "Pages", "DOI", "Reference",
	}
)

func (x *XLSX) Encode(records []record.ExportRecord, _ Params) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRecords); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetContributors, SheetCitations} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	sheets := map[string][][]any{
		SheetRecords:      {recordHeader},
		SheetContributors: {contributorHeader},
		SheetCitations:    {citationHeader},
	}
	for _, r := range records {
		sheets[SheetRecords] = append(sheets[SheetRecords], recordRow(r))
		for _, p := range r.Contributors {
			sheets[SheetContributors] = append(sheets[SheetContributors], contributorRow(r, p))
		}
	}
	for _, w := range groupWorks(records) {
		for _, c := range w.base.Citations {
			sheets[SheetCitations] = append(sheets[SheetCitations], citationRow(w.base, c))
		}
	}

	for name, rows := range sheets {
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return nil, fmt.Errorf("sheet %s row %d: %w", name, i+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func recordRow(r record.ExportRecord) []any {
	var date, lic, rel, counterpart string
	if d := pubDate(r); d != nil {
		date = d.ISO()
	}
	if r.License != nil {
		lic = r.License.Link
	}
	if l := r.Link(); l != nil {
		rel = string(l.Relationship)
		counterpart = l.CounterpartIdentifier
	}
	return []any{
		r.DocID, r.Language, r.Primary, r.Identifiers.DOI, r.Identifiers.PIDv2,
		r.Identifiers.PIDv3, r.Title, r.Journal.Title, r.Issue.Volume,
		r.Issue.Label(), r.Issue.Pages(), r.Year(), date, lic, rel, counterpart,
	}
}

func contributorRow(r record.ExportRecord, p record.Person) []any {
	var aff, country string
	if p.Affiliation != nil {
		aff = p.Affiliation.Label()
		country = p.Affiliation.CountryCode
	}
	return []any{
		r.DocID, r.Language, p.Sequence, p.RoleLabel, p.Surname, p.GivenNames,
		p.Organization, p.ORCID, aff, country,
	}
}

func citationRow(r record.ExportRecord, c record.Citation) []any {
	authors := make([]string, len(c.Authors))
	for i, a := range c.Authors {
		authors[i] = strings.TrimSpace(a.Surname + " " + a.GivenName)
	}
	work := r.Identifiers.PIDv2
	if work == "" {
		work = r.Identifiers.DOI
	}
	return []any{
		work, c.Key, strings.Join(authors, "; "), c.Year, c.Source,
		c.ArticleTitle, c.Volume, c.Issue, record.FormatPageRange(c.FPage, c.LPage),
		c.DOI, c.Unstructured,
	}
}

func init() {
	Register(&XLSX{})
}
