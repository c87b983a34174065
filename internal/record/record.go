// Package record defines the export record, the per-language metadata bundle
// consumed by every deposit format, and the field types it is made of.
package record

// ExportRecord is the fully resolved metadata of one renderable document
// (the primary article or one of its translations). Records are built once
// and never mutated afterwards; serializers only read them.
type ExportRecord struct {
	// Identity
	DocID       string      `json:"doc_id"`   // id of the source document node ("article" for the root)
	Language    string      `json:"language"` // language of this rendering
	Primary     bool        `json:"primary"`  // true for the original-language document
	ArticleType string      `json:"article_type,omitempty"`
	Identifiers Identifiers `json:"identifiers"`

	// Metadata
	Title        string              `json:"title"`
	TitleMarkup  string              `json:"title_markup,omitempty"` // title with face markup (i, b, sup, sub)
	Contributors []Person            `json:"contributors"`
	Journal      Journal             `json:"journal"`
	Issue        IssueInfo           `json:"issue"`
	Dates        Dates               `json:"dates"`
	Abstracts    map[string]string   `json:"abstracts,omitempty"` // language -> text
	Keywords     map[string][]string `json:"keywords,omitempty"`  // language -> keywords
	License      *License            `json:"license,omitempty"`
	Citations    []Citation          `json:"citations,omitempty"`

	// Relationships between language variants of the same work
	Links []TranslationLink `json:"translation_links,omitempty"`
}

// Identifiers of a record. PIDv2 and PIDv3 identify the work, so all
// language variants share them; DOIs are per language.
type Identifiers struct {
	DOI   string `json:"doi,omitempty"`
	PIDv2 string `json:"pid_v2,omitempty"`
	PIDv3 string `json:"pid_v3,omitempty"`
	Other string `json:"other,omitempty"`
}

// Journal carries the container metadata the deposit formats need.
type Journal struct {
	Title       string `json:"title,omitempty"`
	AbbrevTitle string `json:"abbrev_title,omitempty"`
	EISSN       string `json:"eissn,omitempty"`
	PISSN       string `json:"pissn,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
}

// License of one language rendering.
type License struct {
	Link      string `json:"link"`
	Statement string `json:"statement,omitempty"`
	Language  string `json:"language,omitempty"`
	Type      string `json:"type,omitempty"`
}

// Citation is a bibliographic entry of the primary document. Citations are
// not translated, so every record of a work carries the same list.
type Citation struct {
	Key             string           `json:"key"`
	Authors         []CitationAuthor `json:"authors,omitempty"`
	Source          string           `json:"source,omitempty"`
	ArticleTitle    string           `json:"article_title,omitempty"`
	Volume          string           `json:"volume,omitempty"`
	Issue           string           `json:"issue,omitempty"`
	FPage           string           `json:"fpage,omitempty"`
	LPage           string           `json:"lpage,omitempty"`
	Year            string           `json:"year,omitempty"`
	DOI             string           `json:"doi,omitempty"`
	PublicationType string           `json:"publication_type,omitempty"`
	Unstructured    string           `json:"unstructured,omitempty"` // mixed-citation text
}

// CitationAuthor is a cited author.
type CitationAuthor struct {
	Surname   string `json:"surname"`
	GivenName string `json:"given_name,omitempty"`
}

// Relationship between two language variants of the same work.
type Relationship string

const (
	// IsTranslationOf is set on a translation and points to the primary.
	IsTranslationOf Relationship = "isTranslationOf"
	// HasTranslation is set on the primary and points to a translation.
	HasTranslation Relationship = "hasTranslation"
)

// TranslationLink relates a record to a language variant of the same work.
// The counterpart title travels along because deposit schemas want a
// human-readable description next to the identifier.
type TranslationLink struct {
	Relationship          Relationship `json:"relationship"`
	CounterpartIdentifier string       `json:"counterpart_identifier"`
	IdentifierType        string       `json:"identifier_type"`
	CounterpartTitle      string       `json:"counterpart_title,omitempty"`
	CounterpartLanguage   string       `json:"counterpart_language,omitempty"`
}

// Link returns the first translation link, or nil. A translation has at
// most one link (to the primary); the primary has one per translation.
func (r ExportRecord) Link() *TranslationLink {
	if len(r.Links) == 0 {
		return nil
	}
	l := r.Links[0]
	return &l
}

// CounterpartTitle returns the title of the first linked language variant.
func (r ExportRecord) CounterpartTitle() string {
	if l := r.Link(); l != nil {
		return l.CounterpartTitle
	}
	return ""
}

// Year returns the publication year, falling back to the collection year.
func (r ExportRecord) Year() int {
	if r.Dates.Pub != nil && r.Dates.Pub.Year > 0 {
		return r.Dates.Pub.Year
	}
	if r.Dates.Collection != nil {
		return r.Dates.Collection.Year
	}
	return 0
}

// Clone returns a deep copy so that a finalized record shares no mutable
// state with the builder or with other records.
func (r ExportRecord) Clone() ExportRecord {
	res := r
	if r.Contributors != nil {
		res.Contributors = make([]Person, len(r.Contributors))
		for i, p := range r.Contributors {
			res.Contributors[i] = p.clone()
		}
	}
	res.Dates = r.Dates.clone()
	if r.Abstracts != nil {
		res.Abstracts = make(map[string]string, len(r.Abstracts))
		for k, v := range r.Abstracts {
			res.Abstracts[k] = v
		}
	}
	if r.Keywords != nil {
		res.Keywords = make(map[string][]string, len(r.Keywords))
		for k, v := range r.Keywords {
			res.Keywords[k] = append([]string(nil), v...)
		}
	}
	if r.License != nil {
		lic := *r.License
		res.License = &lic
	}
	if r.Citations != nil {
		res.Citations = make([]Citation, len(r.Citations))
		for i, c := range r.Citations {
			c.Authors = append([]CitationAuthor(nil), c.Authors...)
			res.Citations[i] = c
		}
	}
	if r.Links != nil {
		res.Links = append([]TranslationLink(nil), r.Links...)
	}
	return res
}
