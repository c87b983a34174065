package resolve

import (
	"strconv"
	"unicode"

	"github.com/matsen/artmeta/internal/doctree"
	"github.com/matsen/artmeta/internal/record"
	"github.com/matsen/artmeta/internal/role"
)

var (
	pubTypes = map[string]bool{
		"pub":       true,
		"epub":      true,
		"epub-ppub": true,
		"ppub":      true,
	}
	collectionTypes = map[string]bool{
		"collection": true,
	}
)

// Dates returns the publication, collection and history dates of a
// document. A translation that declares no pub-date of its own uses the
// primary's dates.
func (s *Source) Dates(doc role.Document) record.Dates {
	res := s.datesOf(s.Meta(doc))
	if doc.Node == s.Primary.Node || res.Pub != nil || res.Collection != nil {
		return res
	}
	prim := s.datesOf(s.primaryMeta())
	if len(res.History) == 0 {
		res.History = prim.History
	}
	res.Pub, res.Collection = prim.Pub, prim.Collection
	return res
}

func (s *Source) datesOf(meta doctree.NodeID) record.Dates {
	var res record.Dates
	pubDates := s.Tree.Select(meta, "pub-date")
	for _, id := range pubDates {
		typ := s.Tree.Attr(id, "date-type")
		if typ == "" {
			typ = s.Tree.Attr(id, "pub-type")
		}
		switch {
		case collectionTypes[typ]:
			if res.Collection == nil {
				d := s.dateInfo(id, record.DateCollection)
				if !d.IsZero() {
					res.Collection = &d
				}
			}
		case pubTypes[typ], typ == "" && len(pubDates) == 1:
			if res.Pub == nil {
				d := s.dateInfo(id, record.DatePub)
				if !d.IsZero() {
					res.Pub = &d
				}
			}
		}
	}
	for _, id := range s.Tree.Select(meta, "history/date") {
		d := s.dateInfo(id, record.DateHistory)
		if d.IsZero() {
			continue
		}
		d.Event = s.Tree.Attr(id, "date-type")
		res.History = append(res.History, d)
	}
	return res
}

func (s *Source) dateInfo(id doctree.NodeID, kind record.DateKind) record.DateInfo {
	d := record.DateInfo{
		Year:   ParseYear(s.Tree.SelectText(id, "year")),
		Month:  record.MonthNumber(s.Tree.SelectText(id, "month")),
		Season: s.Tree.SelectText(id, "season"),
		Kind:   kind,
	}
	if day, err := strconv.Atoi(s.Tree.SelectText(id, "day")); err == nil && day >= 1 && day <= 31 {
		d.Day = day
	}
	if d.Month == 0 {
		d.Day = 0
	}
	return d
}

// ParseYear returns the first run of four digits in s, or 0. Citation years
// such as "2020b" or "(2019)" are common.
func ParseYear(s string) int {
	digits := YearDigits(s)
	if digits == "" {
		return 0
	}
	y, _ := strconv.Atoi(digits)
	return y
}

// YearDigits returns the first run of four digits in s, or "".
func YearDigits(s string) string {
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) && r < 128 {
			if start < 0 {
				start = i
			}
			if i-start == 3 {
				return s[start : i+1]
			}
			continue
		}
		start = -1
	}
	return ""
}
