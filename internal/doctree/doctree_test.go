package doctree_test

import (
	"strings"
	"testing"

	"github.com/matsen/artmeta/internal/doctree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE article PUBLIC "-//NLM//DTD JATS (Z39.96) Journal Publishing DTD v1.1 20151215//EN" "JATS-journalpublishing1.dtd">
<article xmlns:xlink="http://www.w3.org/1999/xlink" article-type="research-article" xml:lang="en">
  <front>
    <article-meta>
      <title-group>
        <article-title>Soil <italic>microbes</italic> &amp; rain<xref ref-type="fn" rid="fn1">*</xref></article-title>
      </title-group>
      <aff id="aff1"><institution content-type="orgname">USP</institution></aff>
      <permissions><license xlink:href="https://creativecommons.org/licenses/by/4.0/"/></permissions>
    </article-meta>
  </front>
  <sub-article article-type="translation" id="s1" xml:lang="pt">
    <front-stub>
      <title-group><article-title>Micróbios do solo</article-title></title-group>
      <aff id="aff2"><institution>UFRJ</institution></aff>
    </front-stub>
    <sub-article article-type="reviewer-report" id="s2">
      <front-stub><aff id="aff3"><institution>Unicamp</institution></aff></front-stub>
    </sub-article>
  </sub-article>
</article>`

func parseSample(t *testing.T) *doctree.Tree {
	t.Helper()
	tree, err := doctree.Parse(strings.NewReader(sample))
	require.NoError(t, err)
	return tree
}

func TestParse(t *testing.T) {
	tree := parseSample(t)
	root := tree.Root()
	assert.Equal(t, "article", tree.Name(root))
	assert.Equal(t, "en", tree.Attr(root, "xml:lang"))
	assert.Equal(t, doctree.None, tree.Parent(root))

	lic, ok := tree.SelectFirst(root, "front/article-meta/permissions/license")
	require.True(t, ok)
	assert.Equal(t, "https://creativecommons.org/licenses/by/4.0/", tree.Attr(lic, "xlink:href"))
	assert.True(t, tree.HasAttr(lic, "xlink:href"))
	assert.False(t, tree.HasAttr(lic, "license-type"))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		msg   string
		input string
	}{
		{"empty", ""},
		{"only a comment", "<!-- nothing -->"},
		{"unclosed", "<article><front>"},
	}
	for _, v := range tests {
		_, err := doctree.Parse(strings.NewReader(v.input))
		assert.Error(t, err, v.msg)
	}
}

func TestText(t *testing.T) {
	tree := parseSample(t)
	title, ok := tree.SelectFirst(tree.Root(), "front/article-meta/title-group/article-title")
	require.True(t, ok)

	assert.Equal(t, "Soil microbes & rain*", tree.Text(title))
	assert.Equal(t, "Soil microbes & rain", tree.Text(title, "xref"))
	assert.Equal(t, "Soil <italic>microbes</italic> &amp; rain", tree.InnerXML(title, "xref"))
}

func TestScopedAndGlobalLookup(t *testing.T) {
	tree := parseSample(t)
	root := tree.Root()

	// scoped search stops at the translation boundary
	affs := tree.FindAll(root, "aff")
	require.Len(t, affs, 1)
	assert.Equal(t, "aff1", tree.Attr(affs[0], "id"))

	// deep search sees every document
	assert.Len(t, tree.FindAllDeep(root, "aff"), 3)

	sub, ok := tree.ByID("s1")
	require.True(t, ok)
	assert.True(t, tree.IsBoundary(sub))
	assert.Len(t, tree.FindAll(sub, "aff"), 1)

	// the boundary element itself is still visited by a scoped search
	subs := tree.FindAll(root, "sub-article")
	assert.Len(t, subs, 1)

	_, ok = tree.ByIDIn(sub, "aff1")
	assert.False(t, ok)
	id, ok := tree.ByIDIn(sub, "aff3")
	require.True(t, ok)
	assert.Equal(t, "Unicamp", tree.SelectText(id, "institution"))

	_, ok = tree.ByID("missing")
	assert.False(t, ok)
}

func TestChildrenAndContains(t *testing.T) {
	tree := parseSample(t)
	root := tree.Root()

	kids := tree.Children(root)
	require.Len(t, kids, 2)
	assert.Equal(t, "front", tree.Name(kids[0]))
	assert.Equal(t, "sub-article", tree.Name(kids[1]))

	front, ok := tree.Child(root, "front")
	require.True(t, ok)
	assert.True(t, tree.Contains(root, front))
	assert.False(t, tree.Contains(front, root))

	var names []string
	tree.Walk(kids[1], true, func(id doctree.NodeID) {
		names = append(names, tree.Name(id))
	})
	assert.Equal(t, []string{"front-stub", "title-group", "article-title", "aff", "institution", "sub-article"}, names)
}

func TestInvalidNodes(t *testing.T) {
	tree := parseSample(t)
	assert.Equal(t, "", tree.Name(doctree.NodeID(10_000)))
	assert.Equal(t, "", tree.Attr(doctree.None, "id"))
	assert.Nil(t, tree.Children(doctree.None))
	assert.Nil(t, tree.Select(doctree.None, "front"))
	assert.Equal(t, "", tree.SelectText(tree.Root(), "front/nothing"))
}
