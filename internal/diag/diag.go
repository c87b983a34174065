// Package diag holds the failures and flags collected while resolving and
// exporting a document. Every entry is scoped to one document (and, for
// serializers, one format); nothing here aborts a whole run.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a Failure.
type Kind int

const (
	// MissingRequiredField means a record (or a serializer's view of it)
	// lacks a field it cannot do without.
	MissingRequiredField Kind = iota + 1
	// DanglingReference means an id points nowhere, e.g. a translation
	// whose counterpart identifier cannot be resolved.
	DanglingReference
	// AmbiguousClassification means a document node could not be given a
	// role and was treated as Other.
	AmbiguousClassification
	// HeuristicFallback means a best-effort value was returned.
	HeuristicFallback
)

var kindNames = map[Kind]string{
	MissingRequiredField:    "MissingRequiredField",
	DanglingReference:       "DanglingReference",
	AmbiguousClassification: "AmbiguousClassification",
	HeuristicFallback:       "HeuristicFallback",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText lets kinds appear by name in JSON reports.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Fatal reports whether the failure stops the step it was raised in.
// Flags (ambiguous classification, heuristic fallback) never do.
func (k Kind) Fatal() bool {
	return k == MissingRequiredField || k == DanglingReference
}

// Failure is one scoped problem.
type Failure struct {
	Kind     Kind   `json:"kind"`
	DocID    string `json:"doc_id"`
	Language string `json:"language,omitempty"`
	Field    string `json:"field,omitempty"`
	Format   string `json:"format,omitempty"`
	Message  string `json:"message"`
}

func (f Failure) Error() string {
	var b strings.Builder
	b.WriteString(f.Kind.String())
	b.WriteString(" [")
	b.WriteString(f.DocID)
	if f.Language != "" {
		b.WriteString("/" + f.Language)
	}
	b.WriteString("]")
	if f.Format != "" {
		b.WriteString(" " + f.Format)
	}
	if f.Field != "" {
		b.WriteString(" " + f.Field)
	}
	if f.Message != "" {
		b.WriteString(": " + f.Message)
	}
	return b.String()
}

// Report aggregates failures in the order they were raised.
type Report struct {
	Failures []Failure `json:"failures"`
}

// Add appends failures to the report.
func (r *Report) Add(fs ...Failure) {
	r.Failures = append(r.Failures, fs...)
}

// Merge appends every failure of other.
func (r *Report) Merge(other Report) {
	r.Failures = append(r.Failures, other.Failures...)
}

// Len returns the number of entries.
func (r Report) Len() int {
	return len(r.Failures)
}

// Fatal returns failures that stopped a step.
func (r Report) Fatal() []Failure {
	return r.filter(func(f Failure) bool { return f.Kind.Fatal() })
}

// Flags returns the non-fatal entries.
func (r Report) Flags() []Failure {
	return r.filter(func(f Failure) bool { return !f.Kind.Fatal() })
}

// OfKind returns entries of one kind.
func (r Report) OfKind(k Kind) []Failure {
	return r.filter(func(f Failure) bool { return f.Kind == k })
}

// ForDoc returns entries raised for one document.
func (r Report) ForDoc(docID string) []Failure {
	return r.filter(func(f Failure) bool { return f.DocID == docID })
}

// Err joins the fatal failures, or returns nil when there are none.
func (r Report) Err() error {
	fatal := r.Fatal()
	if len(fatal) == 0 {
		return nil
	}
	errs := make([]error, len(fatal))
	for i := range fatal {
		errs[i] = fatal[i]
	}
	return errors.Join(errs...)
}

func (r Report) filter(keep func(Failure) bool) []Failure {
	var res []Failure
	for _, f := range r.Failures {
		if keep(f) {
			res = append(res, f)
		}
	}
	return res
}
