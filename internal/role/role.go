// Package role labels every document node of an article tree (the root and
// each nested sub-article or response) with the part it plays in export.
//
// Only Primary and Translation documents are renderable, i.e. produce an
// export record. Review reports and other nested documents stay in the
// classification so that external checkers can still visit them.
package role

import (
	"fmt"
	"strings"

	"github.com/matsen/artmeta/internal/diag"
	"github.com/matsen/artmeta/internal/doctree"
)

// Role of a document node.
type Role int

const (
	Other Role = iota
	Primary
	Translation
	ReviewReport
)

func (r Role) String() string {
	switch r {
	case Primary:
		return "Primary"
	case Translation:
		return "Translation"
	case ReviewReport:
		return "ReviewReport"
	default:
		return "Other"
	}
}

// Renderable reports whether documents with this role get an export record.
func (r Role) Renderable() bool {
	return r == Primary || r == Translation
}

// translationTypes and reviewTypes are the article-type values that decide
// the role of a nested document.
var (
	translationTypes = map[string]bool{
		"translation": true,
	}
	reviewTypes = map[string]bool{
		"reviewer-report":    true,
		"peer-review-report": true,
		"referee-report":     true,
	}
)

// RootDocID is the DocID of the root document when it has no id attribute.
const RootDocID = "article"

// Document is a classified document node.
type Document struct {
	Node     doctree.NodeID
	DocID    string // id attribute, or RootDocID for an anonymous root
	Role     Role
	Type     string // declared article-type
	Language string // own xml:lang, or inherited from the closest ancestor
	Parent   doctree.NodeID
	Depth    int // 0 for the root, 1 for its sub-articles, ...
}

// Classification is the result of one classification pass. It is read-only
// once returned.
type Classification struct {
	docs   []Document
	byNode map[doctree.NodeID]int
	flags  []diag.Failure
}

// Classify walks the tree once and assigns a role to every document node.
// The root is always Primary. Classification recurses below translations:
// a review report nested in a translation is still a ReviewReport. Only a
// translation of the primary or of another translation is a Translation.
func Classify(t *doctree.Tree) *Classification {
	c := &Classification{byNode: make(map[doctree.NodeID]int)}
	root := t.Root()
	if root == doctree.None {
		return c
	}

	rootDoc := Document{
		Node:     root,
		DocID:    docID(t, root),
		Role:     Primary,
		Type:     t.Attr(root, "article-type"),
		Language: strings.TrimSpace(t.Attr(root, "xml:lang")),
		Parent:   doctree.None,
	}
	c.add(rootDoc)

	var visit func(scope doctree.NodeID, parent Document)
	visit = func(scope doctree.NodeID, parent Document) {
		t.Walk(scope, true, func(id doctree.NodeID) {
			if !t.IsBoundary(id) {
				return
			}
			doc := c.classifyNode(t, id, parent)
			c.add(doc)
			visit(id, doc)
		})
	}
	visit(root, rootDoc)

	primaryLang := rootDoc.Language
	for _, d := range c.docs {
		if d.Role == Translation && primaryLang != "" && d.Language == primaryLang {
			c.flags = append(c.flags, diag.Failure{
				Kind:     diag.AmbiguousClassification,
				DocID:    d.DocID,
				Language: d.Language,
				Field:    "xml:lang",
				Message:  "translation has the same language as the primary document",
			})
		}
	}
	return c
}

func (c *Classification) classifyNode(t *doctree.Tree, id doctree.NodeID, parent Document) Document {
	doc := Document{
		Node:     id,
		DocID:    docID(t, id),
		Type:     strings.TrimSpace(t.Attr(id, "article-type")),
		Language: strings.TrimSpace(t.Attr(id, "xml:lang")),
		Parent:   parent.Node,
		Depth:    parent.Depth + 1,
	}
	if doc.Language == "" {
		doc.Language = parent.Language
	}

	typ := strings.ToLower(doc.Type)
	switch {
	case t.Name(id) == "response":
		doc.Role = Other
	case translationTypes[typ] && parent.Role.Renderable():
		doc.Role = Translation
	case translationTypes[typ] && parent.Role == ReviewReport:
		// the report in another language, still a report
		doc.Role = ReviewReport
	case translationTypes[typ]:
		doc.Role = Other
		c.flags = append(c.flags, diag.Failure{
			Kind:     diag.AmbiguousClassification,
			DocID:    doc.DocID,
			Language: doc.Language,
			Field:    "article-type",
			Message:  "translation of a document that is not exported; treated as Other",
		})
	case reviewTypes[typ]:
		doc.Role = ReviewReport
	case typ == "":
		doc.Role = Other
		c.flags = append(c.flags, diag.Failure{
			Kind:     diag.AmbiguousClassification,
			DocID:    doc.DocID,
			Language: doc.Language,
			Field:    "article-type",
			Message:  "nested document declares no article-type; treated as Other",
		})
	default:
		doc.Role = Other
	}
	return doc
}

func (c *Classification) add(d Document) {
	c.byNode[d.Node] = len(c.docs)
	c.docs = append(c.docs, d)
}

func docID(t *doctree.Tree, id doctree.NodeID) string {
	if v := strings.TrimSpace(t.Attr(id, "id")); v != "" {
		return v
	}
	if id == t.Root() {
		return RootDocID
	}
	return fmt.Sprintf("%s-%d", t.Name(id), int(id))
}

// Role returns the role of a document node; non-document nodes are Other.
func (c *Classification) Role(id doctree.NodeID) Role {
	if i, ok := c.byNode[id]; ok {
		return c.docs[i].Role
	}
	return Other
}

// Roles returns the role of every document node.
func (c *Classification) Roles() map[doctree.NodeID]Role {
	res := make(map[doctree.NodeID]Role, len(c.docs))
	for _, d := range c.docs {
		res[d.Node] = d.Role
	}
	return res
}

// Document returns the classified document for a node.
func (c *Classification) Document(id doctree.NodeID) (Document, bool) {
	i, ok := c.byNode[id]
	if !ok {
		return Document{}, false
	}
	return c.docs[i], true
}

// Documents returns all document nodes in document order.
func (c *Classification) Documents() []Document {
	return append([]Document(nil), c.docs...)
}

// Primary returns the root document.
func (c *Classification) Primary() (Document, bool) {
	if len(c.docs) == 0 {
		return Document{}, false
	}
	return c.docs[0], true
}

// Renderable returns the primary document followed by every translation,
// in document order.
func (c *Classification) Renderable() []Document {
	var res []Document
	for _, d := range c.docs {
		if d.Role.Renderable() {
			res = append(res, d)
		}
	}
	return res
}

// Flags returns the classification notes (ambiguous nodes).
func (c *Classification) Flags() []diag.Failure {
	return append([]diag.Failure(nil), c.flags...)
}
