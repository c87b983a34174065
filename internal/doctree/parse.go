package doctree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrEmptyDocument is returned when the input has no root element.
var ErrEmptyDocument = errors.New("document has no root element")

// Parse reads an XML document into a Tree. The input is expected to be
// well formed; grammar validation is someone else's job.
func Parse(r io.Reader) (*Tree, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	t := &Tree{ids: make(map[string]NodeID)}
	var stack []NodeID

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading token: %w", err)
		}

		switch tok := tok.(type) {
		case xml.StartElement:
			parent := None
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			} else if t.Root() != None {
				return nil, fmt.Errorf("second root element <%s>", qualified(tok.Name))
			}
			id := t.add(elementNode, qualified(tok.Name), parent)
			if len(tok.Attr) > 0 {
				attrs := make(map[string]string, len(tok.Attr))
				for _, a := range tok.Attr {
					attrs[qualified(a.Name)] = a.Value
				}
				t.attrs[id] = attrs
				if v, ok := attrs["id"]; ok {
					if _, seen := t.ids[v]; !seen {
						t.ids[v] = id
					}
				}
			}
			stack = append(stack, id)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected </%s>", qualified(tok.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			t.add(textNode, "", stack[len(stack)-1])
			t.data[len(t.data)-1] = string(tok)
		}
	}

	if t.Root() == None {
		return nil, ErrEmptyDocument
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("unclosed element <%s>", t.names[stack[len(stack)-1]])
	}
	return t, nil
}

// ParseBytes is Parse for an in-memory document.
func ParseBytes(data []byte) (*Tree, error) {
	return Parse(bytes.NewReader(data))
}

func (t *Tree) add(k kind, name string, parent NodeID) NodeID {
	id := NodeID(len(t.kinds))
	t.kinds = append(t.kinds, k)
	t.names = append(t.names, name)
	t.attrs = append(t.attrs, nil)
	t.data = append(t.data, "")
	t.parents = append(t.parents, parent)
	t.children = append(t.children, nil)
	if parent != None {
		t.children[parent] = append(t.children[parent], id)
	}
	return id
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// InnerXML rebuilds the markup below id. Elements named in skip are left
// out together with their content. Attributes are written in sorted order
// so the output is stable.
func (t *Tree) InnerXML(id NodeID, skip ...string) string {
	if !t.IsElement(id) {
		return ""
	}
	var b strings.Builder
	for _, c := range t.children[id] {
		t.writeXML(c, skip, &b)
	}
	return strings.TrimSpace(b.String())
}

func (t *Tree) writeXML(id NodeID, skip []string, b *strings.Builder) {
	if t.kinds[id] == textNode {
		b.WriteString(textEscaper.Replace(t.data[id]))
		return
	}
	name := t.names[id]
	if contains(skip, name) {
		return
	}
	b.WriteByte('<')
	b.WriteString(name)
	keys := make([]string, 0, len(t.attrs[id]))
	for k := range t.attrs[id] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(t.attrs[id][k]))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	for _, c := range t.children[id] {
		t.writeXML(c, skip, b)
	}
	b.WriteString("</")
	b.WriteString(name)
	b.WriteByte('>')
}
