package resolve

import (
	"regexp"
	"strings"

	"github.com/matsen/artmeta/internal/doctree"
	"github.com/matsen/artmeta/internal/record"
	"github.com/matsen/artmeta/internal/role"
)

var pidV2Pattern = regexp.MustCompile(`^S\d{4}-\d{3}[\dXx]\d{13}$`)

// Identifiers returns the identifiers of a document. The DOI always comes
// from the document itself; translations inherit the work identifiers
// (pid v2, pid v3, other) from the primary unless they declare their own.
func (s *Source) Identifiers(doc role.Document) record.Identifiers {
	res := s.articleIDs(s.Meta(doc))
	if doc.Node == s.Primary.Node {
		return res
	}
	prim := s.articleIDs(s.primaryMeta())
	if res.PIDv2 == "" {
		res.PIDv2 = prim.PIDv2
	}
	if res.PIDv3 == "" {
		res.PIDv3 = prim.PIDv3
	}
	if res.Other == "" {
		res.Other = prim.Other
	}
	return res
}

func (s *Source) articleIDs(meta doctree.NodeID) record.Identifiers {
	var res record.Identifiers
	for _, id := range s.Tree.Select(meta, "article-id") {
		v := s.Tree.Text(id)
		if v == "" {
			continue
		}
		typ := s.Tree.Attr(id, "pub-id-type")
		use := s.Tree.Attr(id, "specific-use")
		switch {
		case typ == "doi":
			if res.DOI == "" {
				res.DOI = CleanDOI(v)
			}
		case use == "scielo-v2",
			typ == "publisher-id" && use == "" && pidV2Pattern.MatchString(v):
			if res.PIDv2 == "" {
				res.PIDv2 = v
			}
		case use == "scielo-v3":
			if res.PIDv3 == "" {
				res.PIDv3 = v
			}
		case typ == "other":
			if res.Other == "" {
				res.Other = v
			}
		}
	}
	return res
}

// CleanDOI removes resolver prefixes from a DOI. Case is kept because the
// deposit wants the DOI as registered.
func CleanDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, p := range []string{
		"https://doi.org/", "http://doi.org/",
		"https://dx.doi.org/", "http://dx.doi.org/",
		"doi.org/", "DOI:", "doi:",
	} {
		if len(doi) >= len(p) && strings.EqualFold(doi[:len(p)], p) {
			doi = strings.TrimSpace(doi[len(p):])
			break
		}
	}
	return doi
}

// ArticleType returns the declared type of the work. Translations report the
// type of the primary, since their own article-type only says "translation".
func (s *Source) ArticleType() string {
	return s.Primary.Type
}
