// Package metrics counts what an artmeta run did: record state changes,
// failures by kind and serializer outcomes. Counters live on a private
// registry and are written out as a node-exporter textfile, since a CLI
// run is too short to be scraped.
package metrics

import (
	"github.com/gnames/gn"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matsen/artmeta/internal/builder"
	"github.com/matsen/artmeta/internal/diag"
	"github.com/matsen/artmeta/internal/errcode"
	"github.com/matsen/artmeta/internal/export"
)

const namespace = "artmeta"

// Metrics contains the counters of one process.
type Metrics struct {
	reg *prometheus.Registry

	// Transitions counts record state changes, labeled by target state.
	Transitions *prometheus.CounterVec

	// Failures counts report entries, labeled by kind.
	Failures *prometheus.CounterVec

	// RecordsSerialized counts records a format encoded.
	RecordsSerialized *prometheus.CounterVec

	// RecordsSkipped counts records a format left out for a missing field.
	RecordsSkipped *prometheus.CounterVec

	// SerializeErrors counts Serialize calls that returned an error.
	SerializeErrors *prometheus.CounterVec

	// Documents counts source documents processed.
	Documents prometheus.Counter
}

// New creates the counters on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_transitions_total",
			Help:      "Record state transitions by target state",
		}, []string{"state"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Build failures and flags by kind",
		}, []string{"kind"}),
		RecordsSerialized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_serialized_total",
			Help:      "Records encoded, by format",
		}, []string{"format"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Records left out by a format, by format",
		}, []string{"format"}),
		SerializeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serialize_errors_total",
			Help:      "Failed serializations, by format",
		}, []string{"format"}),
		Documents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Source documents processed",
		}),
	}
	m.reg.MustRegister(
		m.Transitions, m.Failures, m.RecordsSerialized,
		m.RecordsSkipped, m.SerializeErrors, m.Documents,
	)
	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveTransition is meant for builder.OptObserver.
func (m *Metrics) ObserveTransition(t builder.Transition) {
	m.Transitions.WithLabelValues(t.To.String()).Inc()
}

// ObserveBuild counts one document and every entry of its report.
func (m *Metrics) ObserveBuild(res builder.Result) {
	m.Documents.Inc()
	for _, f := range res.Report.Failures {
		m.Failures.WithLabelValues(f.Kind.String()).Inc()
	}
}

// ObserveOutput counts the outcome of one Serialize call.
func (m *Metrics) ObserveOutput(out export.Output, err error) {
	if err != nil {
		m.SerializeErrors.WithLabelValues(out.Format).Inc()
		return
	}
	m.RecordsSerialized.WithLabelValues(out.Format).Add(float64(out.Records))
	m.RecordsSkipped.WithLabelValues(out.Format).Add(float64(skippedDocs(out.Skipped)))
}

// skippedDocs counts records, not missing fields.
func skippedDocs(fs []diag.Failure) int {
	seen := make(map[string]struct{})
	for _, f := range fs {
		seen[f.DocID+"\x00"+f.Language] = struct{}{}
	}
	return len(seen)
}

// WriteTextfile writes all counters to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return &gn.Error{
			Code: errcode.MetricsWriteError,
			Msg:  "Cannot write metrics to <em>%s</em>",
			Vars: []any{path},
			Err:  err,
		}
	}
	return nil
}
