package export

import (
	"github.com/gnames/gnfmt"

	"github.com/matsen/artmeta/internal/record"
)

// JSON writes the records as they are, for inspection and for tools that
// want the resolved metadata rather than a deposit schema.
type JSON struct{}

var _ Format = (*JSON)(nil)

func (j *JSON) Name() string {
	return "json"
}

func (j *JSON) Description() string {
	return "Export records as a JSON array"
}

func (j *JSON) Extensions() []string {
	return []string{"json"}
}

func (j *JSON) Required() []Field {
	return nil
}

func (j *JSON) Encode(records []record.ExportRecord, _ Params) ([]byte, error) {
	enc := gnfmt.GNjson{Pretty: true}
	res, err := enc.Encode(records)
	if err != nil {
		return nil, err
	}
	return append(res, '\n'), nil
}

func init() {
	Register(&JSON{})
}
