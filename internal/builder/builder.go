// Package builder turns a parsed article into one export record per
// renderable document.
//
// Every record goes through Empty -> FieldsResolved -> Linked -> Finalized.
// Fields of all records are resolved first, because linking needs the
// titles and identifiers of every sibling. A record that lacks a required
// field is dropped with a MissingRequiredField failure before linking, so
// it never becomes a link target; its siblings are built regardless.
package builder

import (
	"fmt"
	"log/slog"

	"github.com/gnames/gn"

	"github.com/matsen/artmeta/internal/diag"
	"github.com/matsen/artmeta/internal/doctree"
	"github.com/matsen/artmeta/internal/errcode"
	"github.com/matsen/artmeta/internal/linker"
	"github.com/matsen/artmeta/internal/record"
	"github.com/matsen/artmeta/internal/resolve"
	"github.com/matsen/artmeta/internal/role"
)

// State of a record under construction.
type State int

const (
	Empty State = iota
	FieldsResolved
	Linked
	Finalized
)

func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case FieldsResolved:
		return "FieldsResolved"
	case Linked:
		return "Linked"
	case Finalized:
		return "Finalized"
	}
	return "Unknown"
}

// Transition is reported to an observer every time a record changes state.
type Transition struct {
	DocID    string
	Language string
	From, To State
}

// Result of a build. Records are finalized: they share no state with the
// builder or with each other and must not be modified.
type Result struct {
	Records []record.ExportRecord `json:"records"`
	Report  diag.Report           `json:"report"`
}

// Builder builds export records. A Builder keeps no state between builds
// and can be used from several goroutines.
type Builder struct {
	logger  *slog.Logger
	observe func(Transition)
}

// Option configures a Builder.
type Option func(*Builder)

// OptLogger sets the logger. Nil keeps slog.Default().
func OptLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// OptObserver registers a function called on every state transition.
func OptObserver(fn func(Transition)) Option {
	return func(b *Builder) {
		b.observe = fn
	}
}

// New returns a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// draft is a record under construction.
type draft struct {
	doc   role.Document
	rec   record.ExportRecord
	state State
}

// Build resolves, links and finalizes the records of a tree. The error is
// returned only when the tree has no document at all; every other problem
// is scoped to one record and lands in the report.
func (b *Builder) Build(t *doctree.Tree) (Result, error) {
	var res Result
	c := role.Classify(t)
	src, err := resolve.NewSource(t, c)
	if err != nil {
		return res, &gn.Error{
			Code: errcode.NoRenderableDocumentsError,
			Msg:  "Document has no article to export",
			Err:  err,
		}
	}

	for _, f := range c.Flags() {
		b.logger.Warn("ambiguous document node", "doc", f.DocID, "field", f.Field, "message", f.Message)
	}
	res.Report.Add(c.Flags()...)

	renderable := c.Renderable()
	drafts := make([]*draft, len(renderable))
	for i, doc := range renderable {
		drafts[i] = &draft{doc: doc}
	}

	shared := b.resolveShared(src, renderable, &res.Report)
	for _, d := range drafts {
		d.rec = b.resolveFields(src, d.doc, shared)
		b.advance(d, FieldsResolved)
	}

	// A record without its required fields stops here, so no sibling
	// links to a record that is not delivered.
	var kept []*draft
	for _, d := range drafts {
		if missing := Missing(d.rec); len(missing) > 0 {
			for _, field := range missing {
				res.Report.Add(diag.Failure{
					Kind:     diag.MissingRequiredField,
					DocID:    d.doc.DocID,
					Language: d.doc.Language,
					Field:    field,
					Message:  "record not built",
				})
			}
			b.logger.Warn("record dropped", "doc", d.doc.DocID, "lang", d.doc.Language, "missing", missing)
			continue
		}
		kept = append(kept, d)
	}

	recs := make([]record.ExportRecord, len(kept))
	for i, d := range kept {
		recs[i] = d.rec
	}
	linked, fails := linker.Link(recs)
	for _, f := range fails {
		b.logger.Warn("translation link not set", "doc", f.DocID, "lang", f.Language, "reason", f.Message)
	}
	res.Report.Add(fails...)
	for i, d := range kept {
		d.rec = linked[i]
		b.advance(d, Linked)
	}

	for _, d := range kept {
		res.Records = append(res.Records, d.rec.Clone())
		b.advance(d, Finalized)
	}

	b.logger.Debug("build finished",
		"renderable", len(renderable),
		"records", len(res.Records),
		"failures", len(res.Report.Fatal()),
		"flags", len(res.Report.Flags()),
	)
	return res, nil
}

// shared holds the fields every language variant carries unchanged.
type shared struct {
	articleType string
	journal     record.Journal
	issue       record.IssueInfo
	abstracts   map[string]string
	keywords    map[string][]string
	citations   []record.Citation
}

func (b *Builder) resolveShared(src *resolve.Source, docs []role.Document, rep *diag.Report) shared {
	issue, flag := src.Issue()
	if flag != nil {
		b.logger.Warn("issue label parsed by fallback", "doc", flag.DocID, "raw", issue.Raw)
		rep.Add(*flag)
	}
	return shared{
		articleType: src.ArticleType(),
		journal:     src.Journal(),
		issue:       issue,
		abstracts:   src.Abstracts(docs),
		keywords:    src.Keywords(docs),
		citations:   src.Citations(),
	}
}

func (b *Builder) resolveFields(src *resolve.Source, doc role.Document, sh shared) record.ExportRecord {
	rec := record.ExportRecord{
		DocID:        doc.DocID,
		Language:     doc.Language,
		Primary:      doc.Role == role.Primary,
		ArticleType:  sh.articleType,
		Identifiers:  src.Identifiers(doc),
		Contributors: src.Contributors(doc),
		Journal:      sh.journal,
		Issue:        sh.issue,
		Dates:        src.Dates(doc),
		Abstracts:    sh.abstracts,
		Keywords:     sh.keywords,
		License:      src.License(doc),
		Citations:    sh.citations,
	}
	rec.Title, rec.TitleMarkup = src.Title(doc)
	return rec
}

func (b *Builder) advance(d *draft, to State) {
	if to != d.state+1 {
		panic(fmt.Sprintf("builder: %s cannot move to %s", d.state, to))
	}
	from := d.state
	d.state = to
	if b.observe != nil {
		b.observe(Transition{DocID: d.doc.DocID, Language: d.doc.Language, From: from, To: to})
	}
}

// Missing lists the required fields a record lacks: a title, a year and
// at least one of doi and pid_v2.
func Missing(r record.ExportRecord) []string {
	var res []string
	if r.Title == "" {
		res = append(res, "title")
	}
	if r.Year() == 0 {
		res = append(res, "year")
	}
	if r.Identifiers.DOI == "" && r.Identifiers.PIDv2 == "" {
		res = append(res, "doi|pid_v2")
	}
	return res
}
