package resolve

import (
	"regexp"
	"strings"

	"github.com/matsen/artmeta/internal/doctree"
	"github.com/matsen/artmeta/internal/record"
	"github.com/matsen/artmeta/internal/role"
)

// AffiliationTable indexes every aff element of a tree by id. It is built
// from the whole tree, because contributors reference affiliations declared
// anywhere, and never changes afterwards.
type AffiliationTable struct {
	byID  map[string]record.Affiliation
	order []string
}

// NewAffiliationTable scans the whole tree once. When two aff elements share
// an id the first one wins.
func NewAffiliationTable(t *doctree.Tree) *AffiliationTable {
	res := &AffiliationTable{byID: make(map[string]record.Affiliation)}
	for _, id := range t.FindAllDeep(t.Root(), "aff") {
		aff := parseAffiliation(t, id)
		if aff.ID == "" {
			continue
		}
		if _, ok := res.byID[aff.ID]; ok {
			continue
		}
		res.byID[aff.ID] = aff
		res.order = append(res.order, aff.ID)
	}
	return res
}

// Lookup returns a copy of the affiliation with the given id.
func (a *AffiliationTable) Lookup(id string) (record.Affiliation, bool) {
	aff, ok := a.byID[id]
	return aff, ok
}

// Len returns the number of affiliations.
func (a *AffiliationTable) Len() int {
	return len(a.order)
}

// IDs returns affiliation ids in document order.
func (a *AffiliationTable) IDs() []string {
	return append([]string(nil), a.order...)
}

func parseAffiliation(t *doctree.Tree, id doctree.NodeID) record.Affiliation {
	res := record.Affiliation{ID: strings.TrimSpace(t.Attr(id, "id"))}
	for _, inst := range t.Select(id, "institution") {
		text := t.Text(inst)
		switch t.Attr(inst, "content-type") {
		case "original":
			res.Original = text
		case "orgname", "":
			if res.Institution == "" {
				res.Institution = text
			}
		case "orgdiv1", "orgdiv2", "orgdiv3":
			if res.Division == "" {
				res.Division = text
			}
		}
	}
	for _, nc := range t.Select(id, "addr-line/named-content") {
		switch t.Attr(nc, "content-type") {
		case "city":
			res.City = t.Text(nc)
		case "state":
			res.State = t.Text(nc)
		}
	}
	if res.City == "" {
		res.City = t.SelectText(id, "addr-line/city")
	}
	if res.State == "" {
		res.State = t.SelectText(id, "addr-line/state")
	}
	if c, ok := t.Child(id, "country"); ok {
		res.Country = t.Text(c)
		res.CountryCode = strings.ToUpper(strings.TrimSpace(t.Attr(c, "country")))
	}
	if res.Original == "" && res.Institution == "" {
		res.Original = t.Text(id, "label")
	}
	return res
}

// contributorRoles are the contrib-type values exported as contributors.
var contributorRoles = map[string]bool{
	"":           true,
	"author":     true,
	"editor":     true,
	"translator": true,
	"chair":      true,
}

// authorRoles are the contrib-type values that make up an authorship.
var authorRoles = map[string]bool{
	"":       true,
	"author": true,
}

// Contributors returns the contributors of a renderable document. Every
// document uses the primary's list unless it declares authors of its own;
// translators or editors declared on a translation are added after the
// primary's authors. Reviewers of nested reports are never reached because
// lookups stop at nested documents. Affiliations come from the global
// table; a dangling reference leaves Affiliation nil.
func (s *Source) Contributors(doc role.Document) []record.Person {
	contribs := s.contribs(s.Meta(doc))
	if doc.Node != s.Primary.Node && !s.hasAuthors(contribs) {
		contribs = append(s.contribs(s.primaryMeta()), contribs...)
	}

	res := make([]record.Person, 0, len(contribs))
	for _, c := range contribs {
		p := s.person(c)
		if p.Surname == "" && p.GivenNames == "" && p.Organization == "" {
			continue
		}
		p.Sequence = record.SequenceAt(len(res))
		res = append(res, p)
	}
	return res
}

func (s *Source) contribs(meta doctree.NodeID) []doctree.NodeID {
	var res []doctree.NodeID
	for _, c := range s.Tree.Select(meta, "contrib-group/contrib") {
		if contributorRoles[s.Tree.Attr(c, "contrib-type")] {
			res = append(res, c)
		}
	}
	return res
}

func (s *Source) hasAuthors(contribs []doctree.NodeID) bool {
	for _, c := range contribs {
		if authorRoles[s.Tree.Attr(c, "contrib-type")] {
			return true
		}
	}
	return false
}

func (s *Source) person(c doctree.NodeID) record.Person {
	t := s.Tree
	p := record.Person{RoleLabel: t.Attr(c, "contrib-type")}
	if p.RoleLabel == "" {
		p.RoleLabel = "author"
	}

	if name, ok := t.Child(c, "name"); ok {
		p.Surname = t.SelectText(name, "surname")
		p.GivenNames = t.SelectText(name, "given-names")
		p.Suffix = t.SelectText(name, "suffix")
	} else if name, ok := t.Child(c, "string-name"); ok {
		p.Surname = t.SelectText(name, "surname")
		p.GivenNames = t.SelectText(name, "given-names")
		if p.Surname == "" {
			p.Surname = t.Text(name)
		}
	}
	if p.Surname == "" && p.GivenNames == "" {
		p.Organization = t.SelectText(c, "collab")
	}

	for _, cid := range t.Select(c, "contrib-id") {
		if strings.EqualFold(t.Attr(cid, "contrib-id-type"), "orcid") {
			p.ORCID = NormalizeORCID(t.Text(cid))
			break
		}
	}

	for _, x := range t.Select(c, "xref") {
		if t.Attr(x, "ref-type") != "aff" {
			continue
		}
		rids := strings.Fields(t.Attr(x, "rid"))
		if len(rids) == 0 {
			continue
		}
		p.AffiliationRef = rids[0]
		if aff, ok := s.Affiliations.Lookup(rids[0]); ok {
			p.Affiliation = &aff
		}
		break
	}
	return p
}

var orcidRe = regexp.MustCompile(`(\d{4})-?(\d{4})-?(\d{4})-?(\d{3}[\dX])`)

// NormalizeORCID reduces an ORCID iD or URL to the bare
// 0000-0000-0000-000X form. Unrecognized values are returned trimmed.
func NormalizeORCID(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	m := orcidRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return m[1] + "-" + m[2] + "-" + m[3] + "-" + m[4]
}
