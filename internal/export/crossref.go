package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"github.com/gnames/gnuuid"

	"github.com/matsen/artmeta/internal/record"
)

// CrossrefVersion is the deposit schema version written by the crossref
// format.
const CrossrefVersion = "4.4.2"

const (
	crossrefNS     = "http://www.crossref.org/schema/" + CrossrefVersion
	crossrefSchema = "http://www.crossref.org/schema/" + CrossrefVersion +
		" http://www.crossref.org/schemas/crossref" + CrossrefVersion + ".xsd"
	jatsNS = "http://www.ncbi.nlm.nih.gov/JATS1"
	aiNS   = "http://www.crossref.org/AccessIndicators.xsd"
	relNS  = "http://www.crossref.org/relations.xsd"
	xsiNS  = "http://www.w3.org/2001/XMLSchema-instance"
)

// Crossref writes a DOI deposit batch. Language variants of one work become
// sibling journal_article entries related by intra_work_relation.
type Crossref struct{}

var (
	_ Format        = (*Crossref)(nil)
	_ ParamsChecker = (*Crossref)(nil)
)

func (c *Crossref) Name() string {
	return "crossref"
}

func (c *Crossref) Description() string {
	return "Crossref DOI deposit XML (schema " + CrossrefVersion + ")"
}

func (c *Crossref) Extensions() []string {
	return []string{"xml"}
}

func (c *Crossref) Required() []Field {
	return []Field{FieldDOI, FieldPages, FieldTitle, FieldYear}
}

type depositor struct {
	Name       string `validate:"required"`
	Email      string `validate:"required,email"`
	Registrant string `validate:"required"`
}

// CheckParams requires the depositor identity Crossref asks for in every
// batch head.
func (c *Crossref) CheckParams(p Params) error {
	return validationError(validate.Struct(depositor{
		Name:       p.DepositorName,
		Email:      p.DepositorEmail,
		Registrant: p.Registrant,
	}))
}

type xDOIBatch struct {
	XMLName        xml.Name   `xml:"doi_batch"`
	Version        string     `xml:"version,attr"`
	XMLNS          string     `xml:"xmlns,attr"`
	XSI            string     `xml:"xmlns:xsi,attr"`
	JATS           string     `xml:"xmlns:jats,attr"`
	AI             string     `xml:"xmlns:ai,attr"`
	Rel            string     `xml:"xmlns:rel,attr"`
	SchemaLocation string     `xml:"xsi:schemaLocation,attr"`
	Head           xHead      `xml:"head"`
	Journals       []xJournal `xml:"body>journal"`
}

type xHead struct {
	BatchID    string `xml:"doi_batch_id"`
	Timestamp  string `xml:"timestamp"`
	Name       string `xml:"depositor>depositor_name"`
	Email      string `xml:"depositor>email_address"`
	Registrant string `xml:"registrant"`
}

type xJournal struct {
	Metadata xJournalMetadata  `xml:"journal_metadata"`
	Issue    *xJournalIssue    `xml:"journal_issue,omitempty"`
	Articles []xJournalArticle `xml:"journal_article"`
}

type xJournalMetadata struct {
	Language    string  `xml:"language,attr,omitempty"`
	FullTitle   string  `xml:"full_title"`
	AbbrevTitle string  `xml:"abbrev_title,omitempty"`
	ISSN        []xISSN `xml:"issn"`
}

type xISSN struct {
	MediaType string `xml:"media_type,attr"`
	Value     string `xml:",chardata"`
}

type xJournalIssue struct {
	PubDate *xPubDate `xml:"publication_date,omitempty"`
	Volume  string    `xml:"journal_volume>volume,omitempty"`
	Issue   string    `xml:"issue,omitempty"`
}

type xPubDate struct {
	MediaType string `xml:"media_type,attr"`
	Month     string `xml:"month,omitempty"`
	Day       string `xml:"day,omitempty"`
	Year      int    `xml:"year"`
}

type xJournalArticle struct {
	Language        string          `xml:"language,attr,omitempty"`
	PublicationType string          `xml:"publication_type,attr"`
	RefDistribution string          `xml:"reference_distribution_opts,attr"`
	Titles          xTitles         `xml:"titles"`
	Contributors    []xContributor  `xml:"contributors>x,omitempty"`
	Abstracts       []xAbstract     `xml:"jats:abstract"`
	PubDate         xPubDate        `xml:"publication_date"`
	Pages           *xPages         `xml:"pages,omitempty"`
	PublisherItem   *xPublisherItem `xml:"publisher_item,omitempty"`
	License         *xAIProgram     `xml:"ai:program,omitempty"`
	Relations       *xRelProgram    `xml:"rel:program,omitempty"`
	DOIData         xDOIData        `xml:"doi_data"`
	Citations       []xCitation     `xml:"citation_list>citation,omitempty"`
}

type xTitles struct {
	Title         xInner  `xml:"title"`
	OriginalTitle *xTitle `xml:"original_language_title,omitempty"`
}

type xTitle struct {
	Language string `xml:"language,attr"`
	Inner    string `xml:",innerxml"`
}

// xInner holds already escaped face markup.
type xInner struct {
	Inner string `xml:",innerxml"`
}

// xContributor is either a person_name or an organization; XMLName picks
// which.
type xContributor struct {
	XMLName     xml.Name
	Role        string `xml:"contributor_role,attr"`
	Sequence    string `xml:"sequence,attr"`
	Name        string `xml:",chardata"`
	GivenName   string `xml:"given_name,omitempty"`
	Surname     string `xml:"surname,omitempty"`
	Suffix      string `xml:"suffix,omitempty"`
	Affiliation string `xml:"affiliation,omitempty"`
	ORCID       string `xml:"ORCID,omitempty"`
}

type xAbstract struct {
	Lang string `xml:"xml:lang,attr"`
	P    string `xml:"jats:p"`
}

type xPages struct {
	First string `xml:"first_page"`
	Last  string `xml:"last_page,omitempty"`
}

type xPublisherItem struct {
	ItemNumber *xItemNumber `xml:"item_number,omitempty"`
	Identifier *xIdentifier `xml:"identifier,omitempty"`
}

type xItemNumber struct {
	Type  string `xml:"item_number_type,attr"`
	Value string `xml:",chardata"`
}

type xIdentifier struct {
	Type  string `xml:"id_type,attr"`
	Value string `xml:",chardata"`
}

type xAIProgram struct {
	Name       string `xml:"name,attr"`
	LicenseRef struct {
		AppliesTo string `xml:"applies_to,attr"`
		Value     string `xml:",chardata"`
	} `xml:"ai:license_ref"`
}

type xRelProgram struct {
	Items []xRelatedItem `xml:"rel:related_item"`
}

type xRelatedItem struct {
	Description string `xml:"rel:description"`
	Relation    struct {
		Type           string `xml:"relationship-type,attr"`
		IdentifierType string `xml:"identifier-type,attr"`
		Value          string `xml:",chardata"`
	} `xml:"rel:intra_work_relation"`
}

type xDOIData struct {
	DOI      string `xml:"doi"`
	Resource string `xml:"resource"`
}

type xCitation struct {
	Key          string `xml:"key,attr"`
	JournalTitle string `xml:"journal_title,omitempty"`
	Author       string `xml:"author,omitempty"`
	Volume       string `xml:"volume,omitempty"`
	Issue        string `xml:"issue,omitempty"`
	FirstPage    string `xml:"first_page,omitempty"`
	Year         string `xml:"cYear,omitempty"`
	DOI          string `xml:"doi,omitempty"`
	VolumeTitle  string `xml:"volume_title,omitempty"`
	ArticleTitle string `xml:"article_title,omitempty"`
	Unstructured string `xml:"unstructured_citation,omitempty"`
}

// Encode writes one doi_batch. Records of the same journal issue share a
// journal element.
func (c *Crossref) Encode(records []record.ExportRecord, p Params) ([]byte, error) {
	ts := p.timestamp()
	batch := xDOIBatch{
		Version:        CrossrefVersion,
		XMLNS:          crossrefNS,
		XSI:            xsiNS,
		JATS:           jatsNS,
		AI:             aiNS,
		Rel:            relNS,
		SchemaLocation: crossrefSchema,
		Head: xHead{
			BatchID:    p.BatchID,
			Timestamp:  ts.Format("20060102150405"),
			Name:       p.DepositorName,
			Email:      p.DepositorEmail,
			Registrant: p.Registrant,
		},
	}
	if batch.Head.BatchID == "" {
		batch.Head.BatchID = BatchID(records)
	}

	index := make(map[string]int)
	for _, r := range records {
		key := r.Journal.Title + "\x00" + r.Issue.Volume + "\x00" + r.Issue.Label()
		i, ok := index[key]
		if !ok {
			i = len(batch.Journals)
			index[key] = i
			batch.Journals = append(batch.Journals, crossrefJournal(r))
		}
		batch.Journals[i].Articles = append(batch.Journals[i].Articles, crossrefArticle(r, p))
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(batch); err != nil {
		return nil, fmt.Errorf("encode doi_batch: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// BatchID derives a stable batch id from the DOIs of the records, so that
// depositing the same records twice reuses the id.
func BatchID(records []record.ExportRecord) string {
	dois := make([]string, 0, len(records))
	for _, r := range records {
		dois = append(dois, r.Identifiers.DOI)
	}
	return gnuuid.New(strings.Join(dois, "|")).String()
}

func crossrefJournal(r record.ExportRecord) xJournal {
	j := xJournal{
		Metadata: xJournalMetadata{
			FullTitle:   r.Journal.Title,
			AbbrevTitle: r.Journal.AbbrevTitle,
		},
	}
	if r.Primary {
		j.Metadata.Language = r.Language
	}
	if r.Journal.EISSN != "" {
		j.Metadata.ISSN = append(j.Metadata.ISSN, xISSN{MediaType: "electronic", Value: r.Journal.EISSN})
	}
	if r.Journal.PISSN != "" {
		j.Metadata.ISSN = append(j.Metadata.ISSN, xISSN{MediaType: "print", Value: r.Journal.PISSN})
	}

	issue := &xJournalIssue{Volume: r.Issue.Volume, Issue: r.Issue.Label()}
	if d := r.Dates.Collection; d != nil && !d.IsZero() {
		issue.PubDate = &xPubDate{MediaType: "online", Year: d.Year}
	}
	if issue.PubDate != nil || issue.Volume != "" || issue.Issue != "" {
		j.Issue = issue
	}
	return j
}

func crossrefArticle(r record.ExportRecord, p Params) xJournalArticle {
	a := xJournalArticle{
		Language:        r.Language,
		PublicationType: "full_text",
		RefDistribution: "any",
		Titles:          xTitles{Title: xInner{Inner: titleMarkup(r)}},
		PubDate:         crossrefPubDate(r),
		DOIData: xDOIData{
			DOI:      r.Identifiers.DOI,
			Resource: p.Resource(r),
		},
	}
	if l := r.Link(); !r.Primary && l != nil && l.CounterpartTitle != "" {
		a.Titles.OriginalTitle = &xTitle{
			Language: l.CounterpartLanguage,
			Inner:    escapeText(l.CounterpartTitle),
		}
	}

	for _, person := range r.Contributors {
		a.Contributors = append(a.Contributors, crossrefContributor(person))
	}
	for _, lang := range abstractLanguages(r) {
		a.Abstracts = append(a.Abstracts, xAbstract{Lang: lang, P: r.Abstracts[lang]})
	}

	if r.Issue.FPage != "" {
		a.Pages = &xPages{First: r.Issue.FPage}
		if r.Issue.LPage != r.Issue.FPage {
			a.Pages.Last = r.Issue.LPage
		}
	}
	var item xPublisherItem
	if r.Issue.ElocationID != "" {
		item.ItemNumber = &xItemNumber{Type: "article_number", Value: r.Issue.ElocationID}
	}
	if r.Identifiers.PIDv2 != "" {
		item.Identifier = &xIdentifier{Type: "pii", Value: r.Identifiers.PIDv2}
	}
	if item.ItemNumber != nil || item.Identifier != nil {
		a.PublisherItem = &item
	}

	if r.License != nil && r.License.Link != "" {
		a.License = &xAIProgram{Name: "AccessIndicators"}
		a.License.LicenseRef.AppliesTo = "vor"
		a.License.LicenseRef.Value = r.License.Link
	}

	if len(r.Links) > 0 {
		a.Relations = &xRelProgram{}
		for _, l := range r.Links {
			var item xRelatedItem
			item.Description = l.CounterpartTitle
			item.Relation.Type = string(l.Relationship)
			item.Relation.IdentifierType = l.IdentifierType
			item.Relation.Value = l.CounterpartIdentifier
			a.Relations.Items = append(a.Relations.Items, item)
		}
	}

	for _, cit := range r.Citations {
		a.Citations = append(a.Citations, crossrefCitation(cit))
	}
	return a
}

func titleMarkup(r record.ExportRecord) string {
	if r.TitleMarkup != "" {
		return r.TitleMarkup
	}
	return escapeText(r.Title)
}

func escapeText(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func crossrefPubDate(r record.ExportRecord) xPubDate {
	d := r.Dates.Pub
	if d == nil || d.IsZero() {
		d = r.Dates.Collection
	}
	res := xPubDate{MediaType: "online"}
	if d == nil {
		return res
	}
	res.Year = d.Year
	if d.Month > 0 {
		res.Month = fmt.Sprintf("%02d", d.Month)
		if d.Day > 0 {
			res.Day = fmt.Sprintf("%02d", d.Day)
		}
	}
	return res
}

var crossrefRoles = map[string]string{
	"author":     "author",
	"editor":     "editor",
	"chair":      "chair",
	"translator": "translator",
}

func crossrefContributor(p record.Person) xContributor {
	role, ok := crossrefRoles[p.RoleLabel]
	if !ok {
		role = "author"
	}
	c := xContributor{Role: role, Sequence: p.Sequence}
	if p.Organization != "" {
		c.XMLName.Local = "organization"
		c.Name = p.Organization
		return c
	}
	c.XMLName.Local = "person_name"
	c.GivenName = p.GivenNames
	c.Surname = p.Surname
	if c.Surname == "" {
		c.Surname, c.GivenName = p.GivenNames, ""
	}
	c.Suffix = p.Suffix
	if p.Affiliation != nil {
		c.Affiliation = p.Affiliation.Label()
	}
	if p.ORCID != "" {
		c.ORCID = "https://orcid.org/" + p.ORCID
	}
	return c
}

// abstractLanguages puts the record language first, then the others in
// alphabetical order.
func abstractLanguages(r record.ExportRecord) []string {
	var others []string
	for lang := range r.Abstracts {
		if lang != r.Language {
			others = append(others, lang)
		}
	}
	sort.Strings(others)
	if _, ok := r.Abstracts[r.Language]; ok {
		return append([]string{r.Language}, others...)
	}
	return others
}

func crossrefCitation(c record.Citation) xCitation {
	res := xCitation{
		Key:          c.Key,
		Volume:       c.Volume,
		Issue:        c.Issue,
		FirstPage:    c.FPage,
		Year:         c.Year,
		DOI:          c.DOI,
		ArticleTitle: c.ArticleTitle,
		Unstructured: c.Unstructured,
	}
	if len(c.Authors) > 0 {
		res.Author = c.Authors[0].Surname
	}
	if c.PublicationType == "journal" || c.ArticleTitle != "" {
		res.JournalTitle = c.Source
	} else {
		res.VolumeTitle = c.Source
	}
	return res
}

func init() {
	Register(&Crossref{})
}
