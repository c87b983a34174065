package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/artmeta/internal/builder"
	"github.com/matsen/artmeta/internal/diag"
	"github.com/matsen/artmeta/internal/doctree"
	"github.com/matsen/artmeta/internal/export"
	"github.com/matsen/artmeta/internal/metrics"
)

func TestMetricsTextfile(t *testing.T) {
	m := metrics.New()

	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "article.xml"))
	require.NoError(t, err)
	tree, err := doctree.ParseBytes(data)
	require.NoError(t, err)

	res, err := builder.New(builder.OptObserver(m.ObserveTransition)).Build(tree)
	require.NoError(t, err)
	m.ObserveBuild(res)

	m.ObserveOutput(export.Output{
		Format:  "crossref",
		Records: 1,
		Skipped: []diag.Failure{
			{DocID: "s1", Language: "pt", Field: "doi"},
			{DocID: "s1", Language: "pt", Field: "pages"},
		},
	}, nil)
	m.ObserveOutput(export.Output{Format: "doaj"}, errors.New("no records"))

	path := filepath.Join(t.TempDir(), "artmeta.prom")
	require.NoError(t, m.WriteTextfile(path))
	out, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, `artmeta_documents_total 1`)
	assert.Contains(t, text, `artmeta_record_transitions_total{state="Finalized"} 2`)
	assert.Contains(t, text, `artmeta_records_serialized_total{format="crossref"} 1`)
	assert.Contains(t, text, `artmeta_records_skipped_total{format="crossref"} 1`)
	assert.Contains(t, text, `artmeta_serialize_errors_total{format="doaj"} 1`)
	for _, f := range res.Report.Failures {
		assert.Contains(t, text, `artmeta_failures_total{kind="`+f.Kind.String()+`"}`)
	}
}

func TestWriteTextfileError(t *testing.T) {
	m := metrics.New()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}
