// Package linker relates the language variants of one work. The primary
// record points to every translation with HasTranslation; each translation
// points back to the primary with IsTranslationOf. Counterparts are
// identified by DOI.
package linker

import (
	"fmt"

	"github.com/matsen/artmeta/internal/diag"
	"github.com/matsen/artmeta/internal/record"
)

// IdentifierType names the identifier used for counterparts.
const IdentifierType = "doi"

// Link returns linked copies of records in the same order; the input is not
// changed. A counterpart without a DOI cannot be referenced: the link is
// left out and a DanglingReference failure is returned for the record that
// needed it. Other links of the same record are unaffected.
func Link(records []record.ExportRecord) ([]record.ExportRecord, []diag.Failure) {
	res := make([]record.ExportRecord, len(records))
	for i := range records {
		res[i] = records[i].Clone()
		res[i].Links = nil
	}

	primary := -1
	for i := range records {
		if records[i].Primary {
			primary = i
			break
		}
	}

	var fails []diag.Failure
	for i := range records {
		if i == primary {
			continue
		}
		if primary < 0 {
			fails = append(fails, dangling(records[i], "no primary record to point to"))
			continue
		}
		p, tr := records[primary], records[i]

		if p.Identifiers.DOI == "" {
			fails = append(fails, dangling(tr, fmt.Sprintf("primary %q has no doi", p.DocID)))
		} else {
			res[i].Links = append(res[i].Links, linkTo(record.IsTranslationOf, p))
		}

		if tr.Identifiers.DOI == "" {
			fails = append(fails, dangling(p, fmt.Sprintf("translation %q (%s) has no doi", tr.DocID, tr.Language)))
		} else {
			res[primary].Links = append(res[primary].Links, linkTo(record.HasTranslation, tr))
		}
	}
	return res, fails
}

func linkTo(rel record.Relationship, counterpart record.ExportRecord) record.TranslationLink {
	return record.TranslationLink{
		Relationship:          rel,
		CounterpartIdentifier: counterpart.Identifiers.DOI,
		IdentifierType:        IdentifierType,
		CounterpartTitle:      counterpart.Title,
		CounterpartLanguage:   counterpart.Language,
	}
}

func dangling(r record.ExportRecord, msg string) diag.Failure {
	return diag.Failure{
		Kind:     diag.DanglingReference,
		DocID:    r.DocID,
		Language: r.Language,
		Field:    "translation_link",
		Message:  msg,
	}
}
