package resolve

import (
	"strings"

	"github.com/matsen/artmeta/internal/doctree"
	"github.com/matsen/artmeta/internal/record"
)

// Citations returns the bibliographic entries of the primary document in
// the order of its reference list. Structured element-citation data is
// preferred; mixed-citation provides the unstructured text and, when it is
// the only form present, whatever tagged parts it carries.
func (s *Source) Citations() []record.Citation {
	back, ok := s.Tree.Child(s.Primary.Node, "back")
	if !ok {
		return nil
	}
	var res []record.Citation
	for _, list := range s.Tree.FindAll(back, "ref-list") {
		for _, ref := range s.Tree.Select(list, "ref") {
			res = append(res, s.citation(ref))
		}
	}
	return res
}

func (s *Source) citation(ref doctree.NodeID) record.Citation {
	t := s.Tree
	res := record.Citation{Key: strings.TrimSpace(t.Attr(ref, "id"))}

	mixed, hasMixed := t.Child(ref, "mixed-citation")
	if hasMixed {
		res.Unstructured = t.Text(mixed)
	}
	node, ok := t.Child(ref, "element-citation")
	if !ok {
		node, ok = t.Child(ref, "nlm-citation")
	}
	if !ok {
		if !hasMixed {
			return res
		}
		node = mixed
	}

	res.PublicationType = t.Attr(node, "publication-type")
	res.Authors = s.citationAuthors(node)
	res.Source = t.SelectText(node, "source")
	res.ArticleTitle = t.SelectText(node, "article-title")
	if res.ArticleTitle == "" {
		res.ArticleTitle = t.SelectText(node, "chapter-title")
	}
	res.Volume = t.SelectText(node, "volume")
	res.Issue = t.SelectText(node, "issue")
	res.FPage = t.SelectText(node, "fpage")
	res.LPage = t.SelectText(node, "lpage")
	res.Year = YearDigits(t.SelectText(node, "year"))

	for _, id := range t.Select(node, "pub-id") {
		if t.Attr(id, "pub-id-type") == "doi" {
			res.DOI = CleanDOI(t.Text(id))
			break
		}
	}
	if res.DOI == "" {
		for _, id := range t.Select(node, "ext-link") {
			if t.Attr(id, "ext-link-type") == "doi" {
				res.DOI = CleanDOI(t.Text(id))
				break
			}
		}
	}
	return res
}

func (s *Source) citationAuthors(node doctree.NodeID) []record.CitationAuthor {
	t := s.Tree
	var names []doctree.NodeID
	for _, g := range t.Select(node, "person-group") {
		typ := t.Attr(g, "person-group-type")
		if typ != "" && typ != "author" {
			continue
		}
		names = append(names, t.Select(g, "name")...)
	}
	if len(names) == 0 {
		names = t.Select(node, "name")
	}

	var res []record.CitationAuthor
	for _, n := range names {
		a := record.CitationAuthor{
			Surname:   t.SelectText(n, "surname"),
			GivenName: t.SelectText(n, "given-names"),
		}
		if a.Surname != "" {
			res = append(res, a)
		}
	}
	return res
}
