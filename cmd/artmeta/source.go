package main

import (
	"os"

	"github.com/gnames/gn"

	"github.com/matsen/artmeta/internal/builder"
	"github.com/matsen/artmeta/internal/doctree"
	"github.com/matsen/artmeta/internal/errcode"
)

// source is one input file and what the builder made of it.
type source struct {
	Path   string         `json:"source"`
	Result builder.Result `json:"result"`
}

// readSource parses one JATS file.
func readSource(path string) (*doctree.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &gn.Error{
			Code: errcode.ReadSourceError,
			Msg:  "Cannot read <em>%s</em>",
			Vars: []any{path},
			Err:  err,
		}
	}
	tree, err := doctree.ParseBytes(data)
	if err != nil {
		return nil, &gn.Error{
			Code: errcode.ParseSourceError,
			Msg:  "Cannot parse <em>%s</em> as XML",
			Vars: []any{path},
			Err:  err,
		}
	}
	return tree, nil
}

// buildSources builds every file. A file that cannot be read or has no
// renderable document stops the run: exporting the rest silently would
// hide it.
func buildSources(paths []string, b *builder.Builder, observe func(builder.Result)) ([]source, error) {
	res := make([]source, 0, len(paths))
	for _, path := range paths {
		tree, err := readSource(path)
		if err != nil {
			return nil, err
		}
		r, err := b.Build(tree)
		if err != nil {
			return nil, err
		}
		if observe != nil {
			observe(r)
		}
		log.Info("built records", "source", path, "records", len(r.Records), "failures", r.Report.Len())
		res = append(res, source{Path: path, Result: r})
	}
	return res, nil
}

// newBuilder wires the CLI logger and an optional transition observer.
func newBuilder(observe func(builder.Transition)) *builder.Builder {
	opts := []builder.Option{builder.OptLogger(log)}
	if observe != nil {
		opts = append(opts, builder.OptObserver(observe))
	}
	return builder.New(opts...)
}
