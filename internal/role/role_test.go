package role_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/matsen/artmeta/internal/diag"
	"github.com/matsen/artmeta/internal/doctree"
	"github.com/matsen/artmeta/internal/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nested = `<article article-type="research-article" xml:lang="en">
  <front><article-meta/></front>
  <sub-article article-type="reviewer-report" id="r1"/>
  <sub-article article-type="translation" id="t1" xml:lang="pt">
    <front-stub/>
    <sub-article article-type="reviewer-report" id="t1r1"/>
    <sub-article id="t1x"/>
    <sub-article article-type="translation" id="t1t"/>
  </sub-article>
  <sub-article article-type="translation" id="t2" xml:lang="es">
    <response id="t2resp"/>
  </sub-article>
  <sub-article article-type="author-comment" id="c1" xml:lang="en"/>
</article>`

func classify(t *testing.T, src string) (*doctree.Tree, *role.Classification) {
	t.Helper()
	tree, err := doctree.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return tree, role.Classify(tree)
}

func TestClassify(t *testing.T) {
	tree, c := classify(t, nested)

	want := map[string]role.Role{
		"article": role.Primary,
		"r1":      role.ReviewReport,
		"t1":      role.Translation,
		"t1r1":    role.ReviewReport,
		"t1x":     role.Other,
		"t1t":     role.Translation,
		"t2":      role.Translation,
		"t2resp":  role.Other,
		"c1":      role.Other,
	}
	docs := c.Documents()
	require.Len(t, docs, len(want))
	for _, d := range docs {
		assert.Equal(t, want[d.DocID], d.Role, d.DocID)
		assert.Equal(t, d.Role, c.Role(d.Node), d.DocID)
	}

	// document order, pre-order
	var ids []string
	for _, d := range docs {
		ids = append(ids, d.DocID)
	}
	assert.Equal(t, []string{"article", "r1", "t1", "t1r1", "t1x", "t1t", "t2", "t2resp", "c1"}, ids)

	t1r1, ok := tree.ByID("t1r1")
	require.True(t, ok)
	d, ok := c.Document(t1r1)
	require.True(t, ok)
	assert.Equal(t, "pt", d.Language, "language is inherited")
	assert.Equal(t, 2, d.Depth)

	front, _ := tree.Child(tree.Root(), "front")
	assert.Equal(t, role.Other, c.Role(front))
	_, ok = c.Document(front)
	assert.False(t, ok)

	assert.Len(t, c.Roles(), len(want))
}

func TestRenderableSet(t *testing.T) {
	_, c := classify(t, nested)

	rend := c.Renderable()
	var ids []string
	translations := 0
	for _, d := range rend {
		ids = append(ids, d.DocID)
		assert.True(t, d.Role.Renderable())
		if d.Role == role.Translation {
			translations++
		}
	}
	assert.Equal(t, []string{"article", "t1", "t1t", "t2"}, ids)
	assert.Equal(t, translations+1, len(rend))

	p, ok := c.Primary()
	require.True(t, ok)
	assert.Equal(t, role.Primary, p.Role)
	assert.Equal(t, "en", p.Language)
}

func TestRenderableSizeProperty(t *testing.T) {
	// N translations at varying depths, mixed with reports, give N+1.
	for n := 0; n < 5; n++ {
		var b strings.Builder
		b.WriteString(`<article xml:lang="en">`)
		for i := 0; i < n; i++ {
			fmt.Fprintf(&b, `<sub-article article-type="translation" id="t%d" xml:lang="l%d">`, i, i)
			fmt.Fprintf(&b, `<sub-article article-type="reviewer-report" id="r%d"/>`, i)
		}
		for i := 0; i < n; i++ {
			b.WriteString(`</sub-article>`)
		}
		b.WriteString(`<sub-article article-type="reviewer-report" id="top"/></article>`)

		_, c := classify(t, b.String())
		rend := c.Renderable()
		assert.Len(t, rend, n+1, "translations=%d", n)
		for _, d := range rend {
			assert.NotEqual(t, role.ReviewReport, d.Role)
			assert.NotEqual(t, role.Other, d.Role)
		}
	}
}

func TestClassifyFlags(t *testing.T) {
	_, c := classify(t, nested)
	flags := c.Flags()
	require.Len(t, flags, 1)

	assert.Equal(t, diag.AmbiguousClassification, flags[0].Kind)
	assert.Equal(t, "t1x", flags[0].DocID)
	assert.Equal(t, "article-type", flags[0].Field)

	// a translation in the primary language is kept but flagged
	_, c2 := classify(t, `<article xml:lang="en"><sub-article article-type="translation" id="x" xml:lang="en"/></article>`)
	f2 := c2.Flags()
	require.Len(t, f2, 1)
	assert.Equal(t, "xml:lang", f2[0].Field)
	assert.Len(t, c2.Renderable(), 2)
}

func TestAnonymousDocuments(t *testing.T) {
	_, c := classify(t, `<article><sub-article article-type="translation"/></article>`)
	docs := c.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, role.RootDocID, docs[0].DocID)
	assert.True(t, strings.HasPrefix(docs[1].DocID, "sub-article-"))
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "Primary", role.Primary.String())
	assert.Equal(t, "Translation", role.Translation.String())
	assert.Equal(t, "ReviewReport", role.ReviewReport.String())
	assert.Equal(t, "Other", role.Other.String())
	assert.False(t, role.ReviewReport.Renderable())
}

func TestTranslationBelowReportIsNotRenderable(t *testing.T) {
	_, c := classify(t, `<article xml:lang="en">
  <sub-article article-type="reviewer-report" id="r1" xml:lang="en">
    <sub-article article-type="translation" id="r1pt" xml:lang="pt"/>
  </sub-article>
  <sub-article article-type="author-comment" id="c1">
    <sub-article article-type="translation" id="c1pt" xml:lang="pt"/>
  </sub-article>
  <sub-article article-type="translation" id="s1" xml:lang="pt">
    <sub-article article-type="translation" id="s1es" xml:lang="es"/>
  </sub-article>
</article>`)

	roles := make(map[string]role.Role)
	for _, d := range c.Documents() {
		roles[d.DocID] = d.Role
	}
	assert.Equal(t, role.ReviewReport, roles["r1pt"])
	assert.Equal(t, role.Other, roles["c1pt"])
	assert.Equal(t, role.Translation, roles["s1"])
	assert.Equal(t, role.Translation, roles["s1es"])

	var ids []string
	for _, d := range c.Renderable() {
		ids = append(ids, d.DocID)
	}
	assert.Equal(t, []string{"article", "s1", "s1es"}, ids)

	flags := c.Flags()
	require.Len(t, flags, 1)
	assert.Equal(t, "c1pt", flags[0].DocID)
	assert.Equal(t, diag.AmbiguousClassification, flags[0].Kind)
}
