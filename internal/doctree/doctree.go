// Package doctree parses a JATS article into a read-only arena of nodes.
//
// Every node gets a stable NodeID in document order. Lookups come in two
// flavours: scoped lookups stop at nested document boundaries (sub-article,
// response) so that one document never sees the fields of another, and
// global lookups see the whole tree. The global flavour is what affiliation
// resolution needs, because affiliations declared on the root are referenced
// from contributors anywhere.
package doctree

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NodeID identifies a node inside one Tree.
type NodeID int

// None is returned where no node exists (the parent of the root).
const None NodeID = -1

type kind uint8

const (
	elementNode kind = iota
	textNode
)

// boundaries are the elements that open a nested document.
var boundaries = map[string]bool{
	"sub-article": true,
	"response":    true,
}

// Tree is an immutable view of a parsed document. It is safe for concurrent
// readers.
type Tree struct {
	kinds    []kind
	names    []string
	attrs    []map[string]string
	data     []string
	parents  []NodeID
	children [][]NodeID

	// ids maps the value of an element's id attribute to the first element
	// that declares it.
	ids map[string]NodeID
}

// Root returns the document element.
func (t *Tree) Root() NodeID {
	for i, k := range t.kinds {
		if k == elementNode {
			return NodeID(i)
		}
	}
	return None
}

// Len returns the number of nodes, text nodes included.
func (t *Tree) Len() int {
	return len(t.kinds)
}

// IsElement reports whether id is a valid element node.
func (t *Tree) IsElement(id NodeID) bool {
	return t.valid(id) && t.kinds[id] == elementNode
}

// Name returns the qualified element name ("article-title", "mml:math").
func (t *Tree) Name(id NodeID) string {
	if !t.valid(id) {
		return ""
	}
	return t.names[id]
}

// Attr returns the attribute value, or "" if absent. Prefixed attributes are
// addressed with their prefix, e.g. "xml:lang" or "xlink:href".
func (t *Tree) Attr(id NodeID, key string) string {
	if !t.valid(id) || t.attrs[id] == nil {
		return ""
	}
	return t.attrs[id][key]
}

// HasAttr reports whether the attribute is present.
func (t *Tree) HasAttr(id NodeID, key string) bool {
	if !t.valid(id) || t.attrs[id] == nil {
		return false
	}
	_, ok := t.attrs[id][key]
	return ok
}

// Parent returns the parent element, or None for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	if !t.valid(id) {
		return None
	}
	return t.parents[id]
}

// Children returns the element children of id in document order.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.valid(id) {
		return nil
	}
	var res []NodeID
	for _, c := range t.children[id] {
		if t.kinds[c] == elementNode {
			res = append(res, c)
		}
	}
	return res
}

// Child returns the first element child with the given name.
func (t *Tree) Child(id NodeID, name string) (NodeID, bool) {
	if !t.valid(id) {
		return None, false
	}
	for _, c := range t.children[id] {
		if t.kinds[c] == elementNode && t.names[c] == name {
			return c, true
		}
	}
	return None, false
}

// IsBoundary reports whether the element opens a nested document.
func (t *Tree) IsBoundary(id NodeID) bool {
	return t.IsElement(id) && boundaries[t.names[id]]
}

// Select follows a slash separated path of child element names from scope
// and returns every match, e.g. Select(root, "front/article-meta/volume").
func (t *Tree) Select(scope NodeID, path string) []NodeID {
	if !t.IsElement(scope) {
		return nil
	}
	current := []NodeID{scope}
	for _, step := range strings.Split(path, "/") {
		if step == "" {
			continue
		}
		var next []NodeID
		for _, n := range current {
			for _, c := range t.children[n] {
				if t.kinds[c] == elementNode && (step == "*" || t.names[c] == step) {
					next = append(next, c)
				}
			}
		}
		current = next
		if len(current) == 0 {
			return nil
		}
	}
	return current
}

// SelectFirst returns the first node found by Select.
func (t *Tree) SelectFirst(scope NodeID, path string) (NodeID, bool) {
	res := t.Select(scope, path)
	if len(res) == 0 {
		return None, false
	}
	return res[0], true
}

// SelectText returns the normalized text of the first node found by Select.
func (t *Tree) SelectText(scope NodeID, path string) string {
	id, ok := t.SelectFirst(scope, path)
	if !ok {
		return ""
	}
	return t.Text(id)
}

// FindAll returns descendants of scope named name, in document order. The
// search does not enter nested documents below scope.
func (t *Tree) FindAll(scope NodeID, name string) []NodeID {
	var res []NodeID
	t.walk(scope, true, func(id NodeID) {
		if t.names[id] == name {
			res = append(res, id)
		}
	})
	return res
}

// FindAllDeep is FindAll without the nested document boundary.
func (t *Tree) FindAllDeep(scope NodeID, name string) []NodeID {
	var res []NodeID
	t.walk(scope, false, func(id NodeID) {
		if t.names[id] == name {
			res = append(res, id)
		}
	})
	return res
}

// Walk visits every element below scope (scope excluded) in document order.
// When scoped is true nested documents are skipped, but the boundary
// element itself is still visited.
func (t *Tree) Walk(scope NodeID, scoped bool, fn func(NodeID)) {
	t.walk(scope, scoped, fn)
}

func (t *Tree) walk(scope NodeID, scoped bool, fn func(NodeID)) {
	if !t.IsElement(scope) {
		return
	}
	var visit func(NodeID)
	visit = func(n NodeID) {
		for _, c := range t.children[n] {
			if t.kinds[c] != elementNode {
				continue
			}
			fn(c)
			if scoped && boundaries[t.names[c]] {
				continue
			}
			visit(c)
		}
	}
	visit(scope)
}

// ByID looks an id attribute up across the whole tree.
func (t *Tree) ByID(value string) (NodeID, bool) {
	id, ok := t.ids[value]
	return id, ok
}

// ByIDIn looks an id attribute up inside the subtree of scope only.
func (t *Tree) ByIDIn(scope NodeID, value string) (NodeID, bool) {
	if id, ok := t.ids[value]; ok && t.Contains(scope, id) {
		return id, true
	}
	// a later duplicate may live inside scope
	found := None
	t.walk(scope, false, func(n NodeID) {
		if found == None && t.attrs[n] != nil && t.attrs[n]["id"] == value {
			found = n
		}
	})
	return found, found != None
}

// Contains reports whether node lies in the subtree rooted at scope.
func (t *Tree) Contains(scope, node NodeID) bool {
	for n := node; n != None; n = t.Parent(n) {
		if n == scope {
			return true
		}
	}
	return false
}

// Text returns the concatenated character data below id, whitespace
// collapsed and NFC normalized. Elements named in skip are left out
// together with their content.
func (t *Tree) Text(id NodeID, skip ...string) string {
	if !t.valid(id) {
		return ""
	}
	var b strings.Builder
	t.collectText(id, skip, &b)
	return normalize(b.String())
}

func (t *Tree) collectText(id NodeID, skip []string, b *strings.Builder) {
	if t.kinds[id] == textNode {
		b.WriteString(t.data[id])
		return
	}
	for _, c := range t.children[id] {
		if t.kinds[c] == elementNode && contains(skip, t.names[c]) {
			continue
		}
		if t.kinds[c] == elementNode && blockLike[t.names[c]] {
			b.WriteByte(' ')
		}
		t.collectText(c, skip, b)
	}
}

// blockLike elements are separated by a space when flattened to text.
var blockLike = map[string]bool{
	"p":     true,
	"title": true,
	"sec":   true,
	"label": true,
	"list":  true,
}

func normalize(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.kinds)
}
