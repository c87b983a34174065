package builder_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/artmeta/internal/builder"
	"github.com/matsen/artmeta/internal/diag"
	"github.com/matsen/artmeta/internal/doctree"
	"github.com/matsen/artmeta/internal/errcode"
	"github.com/matsen/artmeta/internal/record"
)

func fixtureTree(t *testing.T) *doctree.Tree {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "article.xml"))
	require.NoError(t, err)
	tree, err := doctree.ParseBytes(data)
	require.NoError(t, err)
	return tree
}

func parse(t *testing.T, src string) *doctree.Tree {
	t.Helper()
	tree, err := doctree.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return tree
}

func TestBuildArticle(t *testing.T) {
	res, err := builder.New().Build(fixtureTree(t))
	require.NoError(t, err)
	assert.Zero(t, res.Report.Len(), res.Report.Err())
	require.Len(t, res.Records, 2)

	en, pt := res.Records[0], res.Records[1]
	assert.True(t, en.Primary)
	assert.Equal(t, "en", en.Language)
	assert.Equal(t, "article", en.DocID)
	assert.False(t, pt.Primary)
	assert.Equal(t, "pt", pt.Language)
	assert.Equal(t, "s1", pt.DocID)

	assert.Equal(t, "research-article", pt.ArticleType)
	assert.Equal(t, 2024, pt.Year())
	assert.Equal(t, "85-91", pt.Issue.Pages())
	assert.Equal(t, "1", pt.Issue.Supplement)

	require.NotNil(t, en.Link())
	assert.Equal(t, record.HasTranslation, en.Link().Relationship)
	assert.Equal(t, pt.Identifiers.DOI, en.Link().CounterpartIdentifier)
	assert.Equal(t, pt.Title, en.CounterpartTitle())
	require.NotNil(t, pt.Link())
	assert.Equal(t, record.IsTranslationOf, pt.Link().Relationship)
	assert.Equal(t, en.Identifiers.DOI, pt.Link().CounterpartIdentifier)
	assert.Equal(t, en.Title, pt.CounterpartTitle())

	assert.Equal(t, en.Citations, pt.Citations)
	assert.Equal(t, en.Abstracts, pt.Abstracts)
	require.Len(t, pt.Contributors, len(en.Contributors))
	for i := range en.Contributors {
		assert.Equal(t, en.Contributors[i].Affiliation, pt.Contributors[i].Affiliation)
	}
	assert.Equal(t, "pt", pt.License.Language)
}

func TestBuildIsIdempotent(t *testing.T) {
	tree := fixtureTree(t)
	b := builder.New()
	first, err := b.Build(tree)
	require.NoError(t, err)
	second, err := b.Build(tree)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecordsShareNothing(t *testing.T) {
	res, err := builder.New().Build(fixtureTree(t))
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	res.Records[0].Abstracts["en"] = "changed"
	res.Records[0].Citations[0].Key = "changed"
	res.Records[0].Contributors[0].Affiliation.Institution = "changed"

	assert.NotEqual(t, "changed", res.Records[1].Abstracts["en"])
	assert.Equal(t, "B1", res.Records[1].Citations[0].Key)
	assert.Equal(t, "Universidade de São Paulo", res.Records[1].Contributors[0].Affiliation.Institution)
}

const incomplete = `<article article-type="research-article" xml:lang="en">
  <front><article-meta>
    <article-id pub-id-type="doi">10.1/en</article-id>
    <title-group><article-title>Rain</article-title></title-group>
    <pub-date date-type="pub"><year>2021</year></pub-date>
    <issue>1 2 3</issue>
  </article-meta></front>
  <sub-article article-type="translation" id="s1" xml:lang="pt">
    <front-stub><article-id pub-id-type="doi">10.1/pt</article-id></front-stub>
  </sub-article>
  <sub-article article-type="translation" id="s2" xml:lang="es">
    <front-stub><title-group><article-title>Lluvia</article-title></title-group></front-stub>
  </sub-article>
  <sub-article id="x1"/>
</article>`

func TestBuildFailuresAreScoped(t *testing.T) {
	res, err := builder.New().Build(parse(t, incomplete))
	require.NoError(t, err)

	// s1 has no title; s2 only has the work-level year, no doi and no pid
	require.Len(t, res.Records, 1)
	assert.Equal(t, "article", res.Records[0].DocID)

	missing := res.Report.OfKind(diag.MissingRequiredField)
	require.Len(t, missing, 2)
	assert.Equal(t, "s1", missing[0].DocID)
	assert.Equal(t, "title", missing[0].Field)
	assert.Equal(t, "s2", missing[1].DocID)
	assert.Equal(t, "doi|pid_v2", missing[1].Field)

	// dropped translations are not link targets
	assert.Empty(t, res.Records[0].Links)
	assert.Empty(t, res.Report.OfKind(diag.DanglingReference))

	assert.Len(t, res.Report.OfKind(diag.HeuristicFallback), 1)
	assert.Len(t, res.Report.OfKind(diag.AmbiguousClassification), 1)
	assert.Error(t, res.Report.Err())
}

func TestBuildTransitions(t *testing.T) {
	var seen []builder.Transition
	b := builder.New(builder.OptObserver(func(tr builder.Transition) {
		seen = append(seen, tr)
	}))
	_, err := b.Build(fixtureTree(t))
	require.NoError(t, err)

	require.Len(t, seen, 6)
	want := []builder.State{
		builder.FieldsResolved, builder.FieldsResolved,
		builder.Linked, builder.Linked,
		builder.Finalized, builder.Finalized,
	}
	for i, tr := range seen {
		assert.Equal(t, want[i], tr.To, i)
		assert.Equal(t, tr.To-1, tr.From, i)
	}
	assert.Equal(t, "article", seen[0].DocID)
	assert.Equal(t, "s1", seen[1].DocID)
}

func TestBuildDroppedRecordStopsAtFieldsResolved(t *testing.T) {
	final := map[string]builder.State{}
	b := builder.New(builder.OptObserver(func(tr builder.Transition) {
		final[tr.DocID] = tr.To
	}))
	_, err := b.Build(parse(t, incomplete))
	require.NoError(t, err)
	assert.Equal(t, builder.Finalized, final["article"])
	assert.Equal(t, builder.FieldsResolved, final["s1"])
	assert.Equal(t, builder.FieldsResolved, final["s2"])
}

func TestBuildTranslationWithoutDOI(t *testing.T) {
	res, err := builder.New().Build(parse(t, `<article article-type="research-article" xml:lang="en">
  <front><article-meta>
    <article-id pub-id-type="publisher-id" specific-use="scielo-v2">S0000-00002021000100001</article-id>
    <article-id pub-id-type="doi">10.1/en</article-id>
    <title-group><article-title>Rain</article-title></title-group>
    <pub-date date-type="pub"><year>2021</year></pub-date>
  </article-meta></front>
  <sub-article article-type="translation" id="s1" xml:lang="pt">
    <front-stub><title-group><article-title>Chuva</article-title></title-group></front-stub>
  </sub-article>
</article>`))
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	// s1 is delivered on its pid; only the primary's link to it is missing
	assert.Empty(t, res.Records[0].Links)
	require.Len(t, res.Records[1].Links, 1)
	assert.Equal(t, record.IsTranslationOf, res.Records[1].Links[0].Relationship)

	dangling := res.Report.OfKind(diag.DanglingReference)
	require.Len(t, dangling, 1)
	assert.Equal(t, "article", dangling[0].DocID)
}

func TestBuildEmptyTree(t *testing.T) {
	_, err := builder.New().Build(&doctree.Tree{})
	require.Error(t, err)
	var gnErr *gn.Error
	require.True(t, errors.As(err, &gnErr))
	assert.Equal(t, errcode.NoRenderableDocumentsError, gnErr.Code)
}

func TestBuildLogs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := builder.New(builder.OptLogger(l)).Build(parse(t, incomplete))
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "record dropped")
	assert.Contains(t, out, "ambiguous document node")
	assert.Contains(t, out, "build finished")
}

func TestMissing(t *testing.T) {
	assert.Equal(t, []string{"title", "year", "doi|pid_v2"}, builder.Missing(record.ExportRecord{}))
	ok := record.ExportRecord{
		Title:       "T",
		Identifiers: record.Identifiers{PIDv2: "S0000-00002000000100001"},
		Dates:       record.Dates{Collection: &record.DateInfo{Year: 2020}},
	}
	assert.Empty(t, builder.Missing(ok))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Empty", builder.Empty.String())
	assert.Equal(t, "Finalized", builder.Finalized.String())
}
