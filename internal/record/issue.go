package record

import "strings"

// IssueInfo holds volume, issue and pagination. Number and Supplement are
// derived from the free-text issue element; Raw keeps that text.
type IssueInfo struct {
	Volume      string `json:"volume,omitempty"`
	Number      string `json:"number,omitempty"`
	Supplement  string `json:"supplement,omitempty"`
	FPage       string `json:"fpage,omitempty"`
	LPage       string `json:"lpage,omitempty"`
	ElocationID string `json:"elocation_id,omitempty"`
	Raw         string `json:"raw_issue,omitempty"`
}

// Pages returns the page range, e.g. "85-91".
func (i IssueInfo) Pages() string {
	return FormatPageRange(i.FPage, i.LPage)
}

// HasPages reports whether the article can be located inside the issue,
// either by page numbers or by an electronic location id.
func (i IssueInfo) HasPages() bool {
	return i.FPage != "" || i.ElocationID != ""
}

// FormatPageRange joins first and last page. A single page (or a range that
// starts and ends on the same page) is written once.
func FormatPageRange(first, last string) string {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	switch {
	case first == "":
		return last
	case last == "" || last == first:
		return first
	default:
		return first + "-" + last
	}
}

// Label rebuilds a printable issue label from number and supplement:
// "5", "5 Suppl 1", "Suppl". A supplement of "0" stands for an unnumbered
// supplement.
func (i IssueInfo) Label() string {
	var parts []string
	if i.Number != "" {
		parts = append(parts, i.Number)
	}
	if i.Supplement != "" {
		parts = append(parts, "Suppl")
		if i.Supplement != "0" {
			parts = append(parts, i.Supplement)
		}
	}
	return strings.Join(parts, " ")
}
