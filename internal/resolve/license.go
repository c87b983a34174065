package resolve

import (
	"strings"

	"github.com/matsen/artmeta/internal/doctree"
	"github.com/matsen/artmeta/internal/record"
	"github.com/matsen/artmeta/internal/role"
)

// License returns the license of a document in its language. A document
// without its own permissions uses the primary's. Among the licenses found,
// the one in the document language wins, then the first one. The result is
// nil when no license declares a link or a statement.
func (s *Source) License(doc role.Document) *record.License {
	licenses := s.Tree.Select(s.Meta(doc), "permissions/license")
	if len(licenses) == 0 && doc.Node != s.Primary.Node {
		licenses = s.Tree.Select(s.primaryMeta(), "permissions/license")
	}
	if len(licenses) == 0 {
		return nil
	}

	chosen := licenses[0]
	for _, id := range licenses {
		if s.Tree.Attr(id, "xml:lang") == doc.Language {
			chosen = id
			break
		}
	}
	return s.license(chosen, doc.Language)
}

func (s *Source) license(id doctree.NodeID, lang string) *record.License {
	res := &record.License{
		Link:      strings.TrimSpace(s.Tree.Attr(id, "xlink:href")),
		Statement: s.Tree.SelectText(id, "license-p"),
		Language:  s.langOf(id, lang),
		Type:      s.Tree.Attr(id, "license-type"),
	}
	if res.Statement == "" {
		res.Statement = s.Tree.Text(id)
	}
	if res.Link == "" {
		// SciELO also puts the link on an ext-link inside license-p
		for _, x := range s.Tree.FindAll(id, "ext-link") {
			if href := strings.TrimSpace(s.Tree.Attr(x, "xlink:href")); href != "" {
				res.Link = href
				break
			}
		}
	}
	if res.Link == "" && res.Statement == "" {
		return nil
	}
	return res
}
