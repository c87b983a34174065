package resolve

import (
	"github.com/matsen/artmeta/internal/record"
)

// Journal returns the container metadata declared on the primary document.
func (s *Source) Journal() record.Journal {
	t := s.Tree
	jm, ok := t.SelectFirst(s.Primary.Node, "front/journal-meta")
	if !ok {
		return record.Journal{}
	}
	res := record.Journal{
		Title:       t.SelectText(jm, "journal-title-group/journal-title"),
		AbbrevTitle: t.SelectText(jm, "journal-title-group/abbrev-journal-title"),
		Publisher:   t.SelectText(jm, "publisher/publisher-name"),
	}
	if res.Title == "" {
		res.Title = t.SelectText(jm, "journal-title")
	}
	if res.AbbrevTitle == "" {
		res.AbbrevTitle = t.SelectText(jm, "abbrev-journal-title")
	}
	for _, id := range t.Select(jm, "issn") {
		v := t.Text(id)
		typ := t.Attr(id, "pub-type")
		if typ == "" {
			typ = t.Attr(id, "publication-format")
		}
		switch typ {
		case "epub", "electronic":
			if res.EISSN == "" {
				res.EISSN = v
			}
		case "ppub", "print":
			if res.PISSN == "" {
				res.PISSN = v
			}
		}
	}
	return res
}
