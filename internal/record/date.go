package record

import (
	"fmt"
	"strings"
	"time"
)

// DateKind tells what a date stands for.
type DateKind string

const (
	DatePub        DateKind = "pub"
	DateCollection DateKind = "collection"
	DateHistory    DateKind = "history"
)

// DateInfo is a possibly partial date. Month and Day are 0 when unknown.
// A date with only a year is valid; it is just not complete.
type DateInfo struct {
	Year   int      `json:"year"`
	Month  int      `json:"month,omitempty"` // 1-12, 0 if unknown
	Day    int      `json:"day,omitempty"`   // 1-31, 0 if unknown
	Season string   `json:"season,omitempty"`
	Kind   DateKind `json:"kind"`
	Event  string   `json:"event,omitempty"` // history event: received, accepted, ...
}

// Dates groups the dates of a record.
type Dates struct {
	Pub        *DateInfo  `json:"pub,omitempty"`
	Collection *DateInfo  `json:"collection,omitempty"`
	History    []DateInfo `json:"history,omitempty"`
}

// IsZero reports whether no year is known.
func (d DateInfo) IsZero() bool {
	return d.Year <= 0
}

// IsComplete reports whether year, month and day are all known and form a
// real calendar date.
func (d DateInfo) IsComplete() bool {
	if d.Year <= 0 || d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	return d.Day <= daysIn(d.Year, d.Month)
}

// Estimate returns a copy with the unknown parts filled in. The month comes
// from the season when there is one, otherwise from month; the day from day.
// Values that do not fit the calendar are clamped. The receiver is not
// changed.
func (d DateInfo) Estimate(month, day int) DateInfo {
	if d.IsZero() {
		return d
	}
	res := d
	if res.Month < 1 || res.Month > 12 {
		res.Month = month
		if m := SeasonMonth(d.Season); m > 0 {
			res.Month = m
		}
	}
	res.Month = clamp(res.Month, 1, 12)
	if res.Day < 1 {
		res.Day = day
	}
	res.Day = clamp(res.Day, 1, daysIn(res.Year, res.Month))
	return res
}

// ISO formats the known parts: "2024", "2024-03" or "2024-03-05".
func (d DateInfo) ISO() string {
	if d.IsZero() {
		return ""
	}
	if d.Month < 1 || d.Month > 12 {
		return fmt.Sprintf("%04d", d.Year)
	}
	if d.Day < 1 {
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time converts a complete date to midnight UTC.
func (d DateInfo) Time() (time.Time, bool) {
	if !d.IsComplete() {
		return time.Time{}, false
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC), true
}

var seasonMonths = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
	"spring": 3, "summer": 6, "fall": 9, "autumn": 9, "winter": 12,
}

// SeasonMonth returns the first month of a season such as "Jan-Mar" or
// "Spring", or 0 if it cannot tell.
func SeasonMonth(season string) int {
	s := strings.ToLower(strings.TrimSpace(season))
	if s == "" {
		return 0
	}
	first := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || r == ' ' || r == '–'
	})
	if len(first) == 0 {
		return 0
	}
	if m, ok := seasonMonths[first[0]]; ok {
		return m
	}
	if len(first[0]) >= 3 {
		return seasonMonths[first[0][:3]]
	}
	return 0
}

// MonthNumber parses "3", "03", "Mar" or "March" into 1-12, or 0.
func MonthNumber(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			n = -1
			break
		}
		n = n*10 + int(r-'0')
	}
	if n >= 1 && n <= 12 {
		return n
	}
	if n == -1 && len(s) >= 3 {
		if m, ok := seasonMonths[s[:3]]; ok && m <= 12 {
			return m
		}
	}
	return 0
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (d Dates) clone() Dates {
	res := Dates{}
	if d.Pub != nil {
		p := *d.Pub
		res.Pub = &p
	}
	if d.Collection != nil {
		c := *d.Collection
		res.Collection = &c
	}
	if d.History != nil {
		res.History = append([]DateInfo(nil), d.History...)
	}
	return res
}
