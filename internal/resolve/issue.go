package resolve

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/matsen/artmeta/internal/diag"
	"github.com/matsen/artmeta/internal/record"
)

var suppNumberRe = regexp.MustCompile(`^s(\d+)$`)

// ParseIssue splits a free-text issue label into issue number and
// supplement. Recognized shapes:
//
//	"5"          -> ("5", "")
//	"Suppl"      -> ("", "0")
//	"s2"         -> ("", "2")
//	"3A"         -> ("3A", "")
//	"spe"        -> ("spe", "")
//	"Suppl 1"    -> ("", "1")
//	"5 Suppl"    -> ("5", "0")
//	"spe 4"      -> ("spe4", "")
//	"5 Suppl 1"  -> ("5", "1")
//
// Anything else is joined into the number and ok is false, so the caller
// can flag the best-effort value.
func ParseIssue(raw string) (number, supplement string, ok bool) {
	tokens := issueTokens(raw)
	switch len(tokens) {
	case 0:
		return "", "", true
	case 1:
		tok := tokens[0]
		switch {
		case isDigits(tok):
			return tok, "", true
		case isSupplement(tok):
			return "", "0", true
		}
		if m := suppNumberRe.FindStringSubmatch(tok); m != nil {
			return "", m[1], true
		}
		return tok, "", true
	case 2:
		switch {
		case isSupplement(tokens[0]):
			return "", tokens[1], true
		case isSupplement(tokens[1]):
			return tokens[0], "0", true
		}
		return tokens[0] + tokens[1], "", true
	case 3:
		if isSupplement(tokens[1]) {
			return tokens[0], tokens[2], true
		}
	}
	return strings.Join(tokens, ""), "", false
}

// issueTokens drops periods and splits the label on whitespace, keeping
// the case of each token. Alphabetic tokens that mention "spe" (spe,
// Especial, special) all become "spe".
func issueTokens(raw string) []string {
	tokens := strings.Fields(strings.ReplaceAll(raw, ".", ""))
	for i, tok := range tokens {
		if isAlpha(tok) && strings.Contains(strings.ToLower(tok), "spe") {
			tokens[i] = "spe"
		}
	}
	return tokens
}

func isSupplement(tok string) bool {
	return strings.Contains(strings.ToLower(tok), "sup")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

// Issue resolves volume, issue, supplement and pagination. They are declared
// once on the primary document and shared by every language variant. An
// explicit supplement element wins over a supplement parsed from the issue
// label. The returned failure is a HeuristicFallback flag, or nil.
func (s *Source) Issue() (record.IssueInfo, *diag.Failure) {
	meta := s.primaryMeta()
	res := record.IssueInfo{
		Volume:      s.Tree.SelectText(meta, "volume"),
		FPage:       s.Tree.SelectText(meta, "fpage"),
		LPage:       s.Tree.SelectText(meta, "lpage"),
		ElocationID: s.Tree.SelectText(meta, "elocation-id"),
		Raw:         s.Tree.SelectText(meta, "issue"),
	}

	var flag *diag.Failure
	number, supplement, ok := ParseIssue(res.Raw)
	if !ok {
		flag = &diag.Failure{
			Kind:     diag.HeuristicFallback,
			DocID:    s.Primary.DocID,
			Language: s.Primary.Language,
			Field:    "issue",
			Message:  fmt.Sprintf("unrecognized issue label %q, using number %q", res.Raw, number),
		}
	}
	res.Number, res.Supplement = number, supplement
	if supp := s.Tree.SelectText(meta, "supplement"); supp != "" {
		res.Supplement = supp
	}
	return res, flag
}
