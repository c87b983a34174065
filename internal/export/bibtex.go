package export

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/matsen/artmeta/internal/record"
)

// BibTeX writes one @article entry per record.
type BibTeX struct{}

var _ Format = (*BibTeX)(nil)

func (bt *BibTeX) Name() string {
	return "bibtex"
}

func (bt *BibTeX) Description() string {
	return "BibTeX entries, one per language variant"
}

func (bt *BibTeX) Extensions() []string {
	return []string{"bib"}
}

func (bt *BibTeX) Required() []Field {
	return []Field{FieldTitle, FieldYear}
}

func (bt *BibTeX) Encode(records []record.ExportRecord, p Params) ([]byte, error) {
	return []byte(ToBibTeXList(records, p)), nil
}

// ToBibTeX converts a record to BibTeX format.
func ToBibTeX(r record.ExportRecord, p Params) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", determineEntryType(r), BibKey(r)))

	// Authors
	if len(r.Contributors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatAuthors(r.Contributors)))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(r.Title)))

	if r.Journal.Title != "" {
		b.WriteString(fmt.Sprintf("  journal = {%s},\n", escapeLatex(r.Journal.Title)))
	}

	b.WriteString(fmt.Sprintf("  year = {%d},\n", r.Year()))

	// Month (optional)
	if d := pubDate(r); d != nil && d.Month > 0 {
		b.WriteString(fmt.Sprintf("  month = {%d},\n", d.Month))
	}

	if r.Issue.Volume != "" {
		b.WriteString(fmt.Sprintf("  volume = {%s},\n", escapeLatex(r.Issue.Volume)))
	}
	if label := r.Issue.Label(); label != "" {
		b.WriteString(fmt.Sprintf("  number = {%s},\n", escapeLatex(label)))
	}

	// BibTeX ranges use an en dash
	if pages := r.Issue.Pages(); pages != "" {
		b.WriteString(fmt.Sprintf("  pages = {%s},\n", strings.Replace(pages, "-", "--", 1)))
	} else if r.Issue.ElocationID != "" {
		b.WriteString(fmt.Sprintf("  eid = {%s},\n", escapeLatex(r.Issue.ElocationID)))
	}

	if r.Identifiers.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", r.Identifiers.DOI))
	}
	if issn := r.Journal.EISSN; issn != "" || r.Journal.PISSN != "" {
		if issn == "" {
			issn = r.Journal.PISSN
		}
		b.WriteString(fmt.Sprintf("  issn = {%s},\n", issn))
	}
	if r.Language != "" {
		b.WriteString(fmt.Sprintf("  language = {%s},\n", r.Language))
	}
	if r.Identifiers.PIDv2 != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", p.Resource(r)))
	}

	// Abstract and keywords in the record language (optional)
	if abs := r.Abstracts[r.Language]; abs != "" {
		b.WriteString(fmt.Sprintf("  abstract = {%s},\n", escapeLatex(abs)))
	}
	if kwds := r.Keywords[r.Language]; len(kwds) > 0 {
		b.WriteString(fmt.Sprintf("  keywords = {%s},\n", escapeLatex(strings.Join(kwds, ", "))))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple records to BibTeX format.
func ToBibTeXList(records []record.ExportRecord, p Params) string {
	var entries []string
	for _, r := range records {
		entries = append(entries, ToBibTeX(r, p))
	}
	return strings.Join(entries, "\n")
}

// determineEntryType returns the BibTeX entry type for a record.
func determineEntryType(r record.ExportRecord) string {
	if r.Journal.Title == "" {
		return "misc"
	}
	return "article"
}

// BibKey builds a citation key "Surname2024-pt" from the first contributor,
// the year and the language, folded to ASCII letters.
func BibKey(r record.ExportRecord) string {
	name := "anon"
	if len(r.Contributors) > 0 {
		p := r.Contributors[0]
		name = p.Surname
		if name == "" {
			name = p.Organization
		}
	}
	key := asciiLetters(name)
	if key == "" {
		key = "anon"
	}
	key = fmt.Sprintf("%s%d", key, r.Year())
	if r.Language != "" {
		key += "-" + r.Language
	}
	return key
}

var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func asciiLetters(s string) string {
	folded, _, err := transform.String(foldMarks, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range folded {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// formatAuthors formats authors in BibTeX style: "Last, First and Last, First".
// Group authors are braced so BibTeX does not split them.
func formatAuthors(people []record.Person) string {
	var formatted []string
	for _, p := range people {
		switch {
		case p.Organization != "":
			formatted = append(formatted, "{"+escapeLatex(p.Organization)+"}")
		case p.GivenNames != "":
			formatted = append(formatted, fmt.Sprintf("%s, %s", escapeLatex(p.Surname), escapeLatex(p.GivenNames)))
		default:
			formatted = append(formatted, escapeLatex(p.Surname))
		}
	}
	return strings.Join(formatted, " and ")
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Order matters: & must be first (before other escapes that might produce &)
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}

func init() {
	Register(&BibTeX{})
}
