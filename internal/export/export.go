// Package export serializes finalized export records into deposit and
// harvesting formats.
//
// A Format declares the fields it cannot do without. Serialize checks every
// record against that list, skips the records that fail it and encodes the
// rest. Formats never change the records they are given, so one record set
// can be fed to any number of formats, and one format failing does not
// affect another.
package export

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gnames/gn"
	"github.com/go-playground/validator/v10"

	"github.com/matsen/artmeta/internal/diag"
	"github.com/matsen/artmeta/internal/errcode"
	"github.com/matsen/artmeta/internal/record"
)

// Field is a record field a format may require.
type Field string

const (
	FieldDOI          Field = "doi"
	FieldPIDv2        Field = "pid_v2"
	FieldTitle        Field = "title"
	FieldYear         Field = "year"
	FieldPages        Field = "pages"
	FieldLanguage     Field = "language"
	FieldContributors Field = "contributors"
)

// Present reports whether the record carries the field.
func (f Field) Present(r record.ExportRecord) bool {
	switch f {
	case FieldDOI:
		return r.Identifiers.DOI != ""
	case FieldPIDv2:
		return r.Identifiers.PIDv2 != ""
	case FieldTitle:
		return r.Title != ""
	case FieldYear:
		return r.Year() > 0
	case FieldPages:
		return r.Issue.HasPages()
	case FieldLanguage:
		return r.Language != ""
	case FieldContributors:
		return len(r.Contributors) > 0
	}
	return false
}

// Format encodes records into one target document.
type Format interface {
	// Name is the identifier used on the command line.
	Name() string
	Description() string
	Extensions() []string
	// Required lists the fields every encoded record must carry.
	Required() []Field
	// Encode writes records that already passed the Required check.
	Encode(records []record.ExportRecord, p Params) ([]byte, error)
}

// ParamsChecker is implemented by formats that need operator parameters.
type ParamsChecker interface {
	CheckParams(p Params) error
}

// Params are operator supplied values passed through to the formats.
type Params struct {
	DepositorName  string `json:"depositor_name"`
	DepositorEmail string `json:"depositor_email" validate:"omitempty,email"`
	Registrant     string `json:"registrant"`
	// BatchID identifies a deposit. Empty means derived from the DOIs.
	BatchID string `json:"batch_id" validate:"omitempty,max=100"`
	// Timestamp of the deposit. Zero means now.
	Timestamp time.Time `json:"timestamp"`
	// ResourceURL is the landing page template. The placeholders {doi},
	// {pid_v2}, {pid_v3} and {lang} are replaced per record.
	ResourceURL string `json:"resource_url" validate:"omitempty,startswith=http"`
}

// DefaultResourceURL points to the SciELO article page in the record
// language.
const DefaultResourceURL = "https://www.scielo.br/scielo.php?script=sci_arttext&pid={pid_v2}&tlng={lang}"

// Resource expands the landing page template for a record.
func (p Params) Resource(r record.ExportRecord) string {
	tmpl := p.ResourceURL
	if tmpl == "" {
		tmpl = DefaultResourceURL
	}
	return strings.NewReplacer(
		"{doi}", r.Identifiers.DOI,
		"{pid_v2}", r.Identifiers.PIDv2,
		"{pid_v3}", r.Identifiers.PIDv3,
		"{lang}", r.Language,
	).Replace(tmpl)
}

func (p Params) timestamp() time.Time {
	if p.Timestamp.IsZero() {
		return time.Now().UTC()
	}
	return p.Timestamp.UTC()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the generic constraints of the parameters.
func (p Params) Validate() error {
	return validationError(validate.Struct(p))
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s fails %q", fe.Field(), fe.Tag())
	}
	return &gn.Error{
		Code: errcode.FormatParamsError,
		Msg:  "Invalid export parameters: %s",
		Vars: []any{strings.Join(msgs, "; ")},
		Err:  err,
	}
}

// Output is the result of one Serialize call.
type Output struct {
	Format  string
	Data    []byte
	Records int            // records encoded
	Skipped []diag.Failure // one entry per missing field of a skipped record
}

// Check returns a MissingRequiredField failure for every required field a
// record lacks. No failures means the format can encode all records.
func Check(f Format, records []record.ExportRecord) []diag.Failure {
	var res []diag.Failure
	for _, r := range records {
		res = append(res, missing(f, r)...)
	}
	return res
}

func missing(f Format, r record.ExportRecord) []diag.Failure {
	var res []diag.Failure
	for _, field := range f.Required() {
		if field.Present(r) {
			continue
		}
		res = append(res, diag.Failure{
			Kind:     diag.MissingRequiredField,
			DocID:    r.DocID,
			Language: r.Language,
			Field:    string(field),
			Format:   f.Name(),
			Message:  "required by " + f.Name(),
		})
	}
	return res
}

// Serialize encodes the records that carry every field the format needs.
// It fails when the parameters are invalid or when no record qualifies.
func Serialize(f Format, records []record.ExportRecord, p Params) (Output, error) {
	res := Output{Format: f.Name()}
	if err := p.Validate(); err != nil {
		return res, err
	}
	if pc, ok := f.(ParamsChecker); ok {
		if err := pc.CheckParams(p); err != nil {
			return res, err
		}
	}

	ok := make([]record.ExportRecord, 0, len(records))
	for _, r := range records {
		if miss := missing(f, r); len(miss) > 0 {
			res.Skipped = append(res.Skipped, miss...)
			continue
		}
		ok = append(ok, r)
	}
	if len(ok) == 0 {
		return res, &gn.Error{
			Code: errcode.FormatNoRecordsError,
			Msg:  "No record has the fields required by <em>%s</em>",
			Vars: []any{f.Name()},
			Err:  fmt.Errorf("%s: no encodable records out of %d", f.Name(), len(records)),
		}
	}

	data, err := f.Encode(ok, p)
	if err != nil {
		return res, fmt.Errorf("%s: %w", f.Name(), err)
	}
	res.Data = data
	res.Records = len(ok)
	return res, nil
}

var (
	mu      sync.RWMutex
	formats = make(map[string]Format)
)

// Register adds a format. It panics when the name is taken.
func Register(f Format) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := formats[f.Name()]; dup {
		panic("export: format registered twice: " + f.Name())
	}
	formats[f.Name()] = f
}

// Lookup returns the format with the given name.
func Lookup(name string) (Format, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := formats[strings.ToLower(name)]
	return f, ok
}

// Get is Lookup returning a user facing error.
func Get(name string) (Format, error) {
	if f, ok := Lookup(name); ok {
		return f, nil
	}
	return nil, &gn.Error{
		Code: errcode.UnknownFormatError,
		Msg:  "Unknown format <em>%s</em>, use one of: %s",
		Vars: []any{name, strings.Join(Names(), ", ")},
		Err:  fmt.Errorf("unknown format %q", name),
	}
}

// Names returns the registered format names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	res := make([]string, 0, len(formats))
	for name := range formats {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// All returns the registered formats sorted by name.
func All() []Format {
	names := Names()
	res := make([]Format, len(names))
	for i, n := range names {
		res[i], _ = Lookup(n)
	}
	return res
}
