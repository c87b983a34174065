// Package resolve extracts typed fields from the renderable documents of a
// classified article tree.
//
// A Source bundles the read-only inputs every resolver needs: the tree, the
// primary document and the global affiliation table. The table is built
// once per tree and only read afterwards, so a Source can be shared by
// concurrent callers.
package resolve

import (
	"fmt"

	"github.com/matsen/artmeta/internal/doctree"
	"github.com/matsen/artmeta/internal/role"
)

// Source is the read-only view resolvers work on.
type Source struct {
	Tree         *doctree.Tree
	Primary      role.Document
	Affiliations *AffiliationTable
}

// NewSource prepares a Source for a classified tree. It fails only when the
// classification has no primary document.
func NewSource(t *doctree.Tree, c *role.Classification) (*Source, error) {
	primary, ok := c.Primary()
	if !ok {
		return nil, fmt.Errorf("tree has no primary document")
	}
	return &Source{
		Tree:         t,
		Primary:      primary,
		Affiliations: NewAffiliationTable(t),
	}, nil
}

// Meta returns the metadata container of a document: article-meta for the
// root, front-stub (or a nested front) for sub-articles.
func (s *Source) Meta(doc role.Document) doctree.NodeID {
	for _, path := range []string{"front/article-meta", "front-stub", "front"} {
		if id, ok := s.Tree.SelectFirst(doc.Node, path); ok {
			return id
		}
	}
	return doctree.None
}

func (s *Source) primaryMeta() doctree.NodeID {
	return s.Meta(s.Primary)
}

// langOf returns the xml:lang of a node, or fallback.
func (s *Source) langOf(id doctree.NodeID, fallback string) string {
	if l := s.Tree.Attr(id, "xml:lang"); l != "" {
		return l
	}
	return fallback
}
