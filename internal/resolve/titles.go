package resolve

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/matsen/artmeta/internal/doctree"
	"github.com/matsen/artmeta/internal/role"
)

// titleSkip are elements whose content never belongs to a title: footnote
// markers and cross references.
var titleSkip = []string{"xref", "fn"}

var (
	faceTags = map[string]string{
		"italic": "i",
		"bold":   "b",
		"sup":    "sup",
		"sub":    "sub",
	}
	faceTagRe = regexp.MustCompile(`<(/?)(italic|bold|sup|sub)(\s[^>]*)?>`)

	// facePolicy keeps the face markup allowed in deposit titles and
	// drops every other tag, keeping its text.
	facePolicy = bluemonday.NewPolicy().AllowElements("i", "b", "sup", "sub")
)

// Title returns the plain title of a document and its face markup variant.
// A translation without its own article-title falls back to the primary's
// trans-title in the translation language.
func (s *Source) Title(doc role.Document) (plain, markup string) {
	if id, ok := s.Tree.SelectFirst(s.Meta(doc), "title-group/article-title"); ok {
		if plain = s.Tree.Text(id, titleSkip...); plain != "" {
			return plain, s.faceMarkup(id)
		}
	}
	if doc.Node == s.Primary.Node {
		return "", ""
	}
	for _, g := range s.Tree.Select(s.primaryMeta(), "title-group/trans-title-group") {
		if s.Tree.Attr(g, "xml:lang") != doc.Language {
			continue
		}
		if id, ok := s.Tree.Child(g, "trans-title"); ok {
			return s.Tree.Text(id, titleSkip...), s.faceMarkup(id)
		}
	}
	return "", ""
}

func (s *Source) faceMarkup(id doctree.NodeID) string {
	raw := s.Tree.InnerXML(id, titleSkip...)
	raw = faceTagRe.ReplaceAllStringFunc(raw, func(tag string) string {
		m := faceTagRe.FindStringSubmatch(tag)
		return "<" + m[1] + faceTags[m[2]] + ">"
	})
	return strings.Join(strings.Fields(facePolicy.Sanitize(raw)), " ")
}

// ignoredAbstracts are abstract-type values that are not a summary of the
// work.
var ignoredAbstracts = map[string]bool{
	"graphical":  true,
	"key-points": true,
	"short":      true,
}

// Abstracts collects one abstract per language over every renderable
// document. The first abstract found for a language wins, so the primary's
// trans-abstract beats a translation's own abstract.
func (s *Source) Abstracts(docs []role.Document) map[string]string {
	res := make(map[string]string)
	for _, doc := range docs {
		meta := s.Meta(doc)
		for _, name := range []string{"abstract", "trans-abstract"} {
			for _, id := range s.Tree.Select(meta, name) {
				if ignoredAbstracts[s.Tree.Attr(id, "abstract-type")] {
					continue
				}
				lang := s.langOf(id, doc.Language)
				if _, ok := res[lang]; ok {
					continue
				}
				if text := s.abstractText(id); text != "" {
					res[lang] = text
				}
			}
		}
	}
	return res
}

// abstractText flattens an abstract without its heading. Section titles of
// structured abstracts are kept.
func (s *Source) abstractText(id doctree.NodeID) string {
	children := s.Tree.Children(id)
	if len(children) == 0 {
		return s.Tree.Text(id)
	}
	var parts []string
	for _, c := range children {
		if s.Tree.Name(c) == "title" {
			continue
		}
		if t := s.Tree.Text(c); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Keywords collects the keyword groups of every renderable document by
// language, keeping the first group declared for each language.
func (s *Source) Keywords(docs []role.Document) map[string][]string {
	res := make(map[string][]string)
	for _, doc := range docs {
		for _, g := range s.Tree.Select(s.Meta(doc), "kwd-group") {
			lang := s.langOf(g, doc.Language)
			if _, ok := res[lang]; ok {
				continue
			}
			var kwds []string
			for _, k := range s.Tree.Select(g, "kwd") {
				if t := s.Tree.Text(k); t != "" {
					kwds = append(kwds, t)
				}
			}
			if len(kwds) > 0 {
				res[lang] = kwds
			}
		}
	}
	return res
}
