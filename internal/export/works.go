package export

import (
	"github.com/matsen/artmeta/internal/record"
)

// work is the set of language variants of one article.
type work struct {
	base     record.ExportRecord // the primary, or the first variant seen
	variants []record.ExportRecord
}

// groupWorks gathers language variants by work, keeping the order in which
// works first appear. Variants share pid_v2; without it a translation joins
// the work of the DOI it is a translation of.
func groupWorks(records []record.ExportRecord) []*work {
	var res []*work
	index := make(map[string]*work)
	for _, r := range records {
		key := workKey(r)
		w, ok := index[key]
		if !ok {
			w = &work{base: r}
			index[key] = w
			res = append(res, w)
		}
		if r.Primary && !w.base.Primary {
			w.base = r
		}
		w.variants = append(w.variants, r)
	}
	return res
}

func workKey(r record.ExportRecord) string {
	if r.Identifiers.PIDv2 != "" {
		return "pid:" + r.Identifiers.PIDv2
	}
	if !r.Primary {
		for _, l := range r.Links {
			if l.Relationship == record.IsTranslationOf {
				return "doi:" + l.CounterpartIdentifier
			}
		}
	}
	if r.Identifiers.DOI != "" {
		return "doi:" + r.Identifiers.DOI
	}
	return "doc:" + r.DocID
}
