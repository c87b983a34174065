package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/gnames/gnfmt/gnlang"
	"golang.org/x/text/language"

	"github.com/matsen/artmeta/internal/record"
)

// DOAJ writes the DOAJ article import XML, one record per work with the
// titles, abstracts and keywords of every language variant.
type DOAJ struct{}

var _ Format = (*DOAJ)(nil)

func (d *DOAJ) Name() string {
	return "doaj"
}

func (d *DOAJ) Description() string {
	return "DOAJ article metadata XML"
}

func (d *DOAJ) Extensions() []string {
	return []string{"xml"}
}

func (d *DOAJ) Required() []Field {
	return []Field{FieldPIDv2, FieldTitle}
}

type xDOAJRecords struct {
	XMLName xml.Name      `xml:"records"`
	Records []xDOAJRecord `xml:"record"`
}

type xDOAJRecord struct {
	Languages         []string           `xml:"language"`
	Publisher         string             `xml:"publisher,omitempty"`
	JournalTitle      string             `xml:"journalTitle"`
	ISSN              string             `xml:"issn,omitempty"`
	EISSN             string             `xml:"eissn,omitempty"`
	PublicationDate   string             `xml:"publicationDate,omitempty"`
	Volume            string             `xml:"volume,omitempty"`
	Issue             string             `xml:"issue,omitempty"`
	StartPage         string             `xml:"startPage,omitempty"`
	EndPage           string             `xml:"endPage,omitempty"`
	DOI               string             `xml:"doi,omitempty"`
	PublisherRecordID string             `xml:"publisherRecordId"`
	DocumentType      string             `xml:"documentType,omitempty"`
	Titles            []xDOAJText        `xml:"title"`
	Authors           []xDOAJAuthor      `xml:"authors>author,omitempty"`
	Affiliations      []xDOAJAffiliation `xml:"affiliationsList>affiliationName,omitempty"`
	Abstracts         []xDOAJText        `xml:"abstract"`
	FullTextURL       *xDOAJURL          `xml:"fullTextUrl,omitempty"`
	Keywords          []xDOAJKeywords    `xml:"keywords"`
}

type xDOAJText struct {
	Language string `xml:"language,attr"`
	Text     string `xml:",chardata"`
}

type xDOAJAuthor struct {
	Name          string `xml:"name"`
	AffiliationID string `xml:"affiliationId,omitempty"`
	ORCID         string `xml:"orcid_id,omitempty"`
}

type xDOAJAffiliation struct {
	ID   string `xml:"affiliationId,attr"`
	Name string `xml:",chardata"`
}

type xDOAJURL struct {
	Format string `xml:"format,attr"`
	URL    string `xml:",chardata"`
}

type xDOAJKeywords struct {
	Language string   `xml:"language,attr"`
	Keywords []string `xml:"keyword"`
}

func (d *DOAJ) Encode(records []record.ExportRecord, p Params) ([]byte, error) {
	var doc xDOAJRecords
	for _, w := range groupWorks(records) {
		doc.Records = append(doc.Records, doajRecord(w, p))
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode doaj: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func doajRecord(w *work, p Params) xDOAJRecord {
	b := w.base
	res := xDOAJRecord{
		Publisher:         b.Journal.Publisher,
		JournalTitle:      b.Journal.Title,
		ISSN:              b.Journal.PISSN,
		EISSN:             b.Journal.EISSN,
		Volume:            b.Issue.Volume,
		Issue:             b.Issue.Label(),
		StartPage:         b.Issue.FPage,
		EndPage:           b.Issue.LPage,
		DOI:               b.Identifiers.DOI,
		PublisherRecordID: b.Identifiers.PIDv2,
		DocumentType:      b.ArticleType,
		FullTextURL:       &xDOAJURL{Format: "html", URL: p.Resource(b)},
	}
	if res.StartPage == "" {
		res.StartPage = b.Issue.ElocationID
	}
	if d := pubDate(b); d != nil {
		res.PublicationDate = d.Estimate(1, 1).ISO()
	}

	for _, v := range w.variants {
		lang := ISO639_2(v.Language)
		res.Languages = append(res.Languages, lang)
		res.Titles = append(res.Titles, xDOAJText{Language: lang, Text: v.Title})
	}
	for _, lang := range sortedKeys(b.Abstracts) {
		res.Abstracts = append(res.Abstracts, xDOAJText{Language: ISO639_2(lang), Text: b.Abstracts[lang]})
	}
	for _, lang := range sortedKeys(b.Keywords) {
		res.Keywords = append(res.Keywords, xDOAJKeywords{Language: ISO639_2(lang), Keywords: b.Keywords[lang]})
	}

	affIDs := make(map[string]string)
	for _, person := range b.Contributors {
		a := xDOAJAuthor{Name: person.FullName()}
		if person.ORCID != "" {
			a.ORCID = "https://orcid.org/" + person.ORCID
		}
		if aff := person.Affiliation; aff != nil {
			id, ok := affIDs[aff.ID]
			if !ok {
				id = strconv.Itoa(len(affIDs))
				affIDs[aff.ID] = id
				res.Affiliations = append(res.Affiliations, xDOAJAffiliation{ID: id, Name: aff.Label()})
			}
			a.AffiliationID = id
		}
		res.Authors = append(res.Authors, a)
	}
	return res
}

// ISO639_2 converts a language tag ("pt", "pt-BR", "en") to the three
// letter code DOAJ expects. Unknown tags are returned unchanged.
func ISO639_2(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	base, _ := t.Base()
	if code, err := gnlang.LangCode2To3Letters(base.String()); err == nil && code != "" {
		return code
	}
	return base.ISO3()
}

func init() {
	Register(&DOAJ{})
}
