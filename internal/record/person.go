package record

// Sequence values of a contributor.
const (
	SequenceFirst      = "first"
	SequenceAdditional = "additional"
)

// Person is a contributor of a document. Organization is set instead of the
// name parts for group authors.
type Person struct {
	Surname        string       `json:"surname,omitempty"`
	GivenNames     string       `json:"given_names,omitempty"`
	Suffix         string       `json:"suffix,omitempty"`
	Organization   string       `json:"organization,omitempty"`
	ORCID          string       `json:"orcid,omitempty"` // bare 0000-0000-0000-000X form
	RoleLabel      string       `json:"role"`            // contrib-type, "author" by default
	Sequence       string       `json:"sequence"`        // first or additional
	AffiliationRef string       `json:"affiliation_ref,omitempty"`
	Affiliation    *Affiliation `json:"affiliation,omitempty"` // nil when the reference dangles
}

// Affiliation is an entry of the global affiliation table.
type Affiliation struct {
	ID          string `json:"id"`
	Institution string `json:"institution,omitempty"`
	Division    string `json:"division,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Original    string `json:"original,omitempty"` // affiliation text as printed
}

// SequenceAt returns the contributor sequence for a zero-based position.
func SequenceAt(i int) string {
	if i == 0 {
		return SequenceFirst
	}
	return SequenceAdditional
}

// FullName returns "Given Surname", or the organization name.
func (p Person) FullName() string {
	if p.Organization != "" {
		return p.Organization
	}
	if p.GivenNames == "" {
		return p.Surname
	}
	return p.GivenNames + " " + p.Surname
}

// InvertedName returns "Surname, Given".
func (p Person) InvertedName() string {
	if p.Organization != "" {
		return p.Organization
	}
	if p.GivenNames == "" {
		return p.Surname
	}
	return p.Surname + ", " + p.GivenNames
}

// Label returns the affiliation as a single line, preferring the structured
// parts over the printed text.
func (a Affiliation) Label() string {
	var parts []string
	for _, s := range []string{a.Division, a.Institution, a.City, a.State, a.Country} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return a.Original
	}
	res := parts[0]
	for _, s := range parts[1:] {
		res += ", " + s
	}
	return res
}

func (p Person) clone() Person {
	if p.Affiliation != nil {
		aff := *p.Affiliation
		p.Affiliation = &aff
	}
	return p
}
