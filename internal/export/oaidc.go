package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/matsen/artmeta/internal/record"
)

const (
	oaiDCNS       = "http://www.openarchives.org/OAI/2.0/oai_dc/"
	dcNS          = "http://purl.org/dc/elements/1.1/"
	oaiDCSchema   = oaiDCNS + " http://www.openarchives.org/OAI/2.0/oai_dc.xsd"
	oaiIDPrefix   = "oai:scielo:"
	dcArticleType = "info:eu-repo/semantics/article"
)

// OAIDC writes OAI-PMH records with Dublin Core metadata, one record per
// work. The OAI identifier is built from pid_v2.
type OAIDC struct{}

var _ Format = (*OAIDC)(nil)

func (o *OAIDC) Name() string {
	return "oai_dc"
}

func (o *OAIDC) Description() string {
	return "OAI-PMH records with unqualified Dublin Core"
}

func (o *OAIDC) Extensions() []string {
	return []string{"xml"}
}

func (o *OAIDC) Required() []Field {
	return []Field{FieldPIDv2}
}

type xOAIRecords struct {
	XMLName xml.Name     `xml:"records"`
	Records []xOAIRecord `xml:"record"`
}

type xOAIRecord struct {
	Header   xOAIHeader `xml:"header"`
	Metadata xDC        `xml:"metadata>oai_dc:dc"`
}

type xOAIHeader struct {
	Identifier string `xml:"identifier"`
	Datestamp  string `xml:"datestamp,omitempty"`
	SetSpec    string `xml:"setSpec,omitempty"`
}

type xDC struct {
	OAIDC          string      `xml:"xmlns:oai_dc,attr"`
	DC             string      `xml:"xmlns:dc,attr"`
	XSI            string      `xml:"xmlns:xsi,attr"`
	SchemaLocation string      `xml:"xsi:schemaLocation,attr"`
	Titles         []xLangText `xml:"dc:title"`
	Creators       []string    `xml:"dc:creator"`
	Subjects       []xLangText `xml:"dc:subject"`
	Descriptions   []xLangText `xml:"dc:description"`
	Publisher      string      `xml:"dc:publisher,omitempty"`
	Date           string      `xml:"dc:date,omitempty"`
	Type           string      `xml:"dc:type"`
	Identifiers    []string    `xml:"dc:identifier"`
	Languages      []string    `xml:"dc:language"`
	Source         string      `xml:"dc:source,omitempty"`
	Rights         string      `xml:"dc:rights,omitempty"`
	Relations      []string    `xml:"dc:relation"`
}

type xLangText struct {
	Lang string `xml:"xml:lang,attr,omitempty"`
	Text string `xml:",chardata"`
}

func (o *OAIDC) Encode(records []record.ExportRecord, _ Params) ([]byte, error) {
	var doc xOAIRecords
	for _, w := range groupWorks(records) {
		doc.Records = append(doc.Records, oaiRecord(w))
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode oai_dc: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func oaiRecord(w *work) xOAIRecord {
	b := w.base
	dc := xDC{
		OAIDC:          oaiDCNS,
		DC:             dcNS,
		XSI:            xsiNS,
		SchemaLocation: oaiDCSchema,
		Publisher:      b.Journal.Publisher,
		Type:           dcArticleType,
		Source:         dcSource(b),
	}
	if d := pubDate(b); d != nil {
		dc.Date = d.ISO()
	}
	if b.License != nil {
		dc.Rights = b.License.Link
	}
	for _, p := range b.Contributors {
		dc.Creators = append(dc.Creators, p.InvertedName())
	}

	for _, v := range w.variants {
		dc.Titles = append(dc.Titles, xLangText{Lang: v.Language, Text: v.Title})
		dc.Languages = append(dc.Languages, v.Language)
		if v.Identifiers.DOI != "" {
			dc.Identifiers = append(dc.Identifiers, "https://doi.org/"+v.Identifiers.DOI)
		}
	}
	for _, lang := range sortedKeys(b.Abstracts) {
		dc.Descriptions = append(dc.Descriptions, xLangText{Lang: lang, Text: b.Abstracts[lang]})
	}
	for _, lang := range sortedKeys(b.Keywords) {
		for _, kw := range b.Keywords[lang] {
			dc.Subjects = append(dc.Subjects, xLangText{Lang: lang, Text: kw})
		}
	}
	for _, l := range b.Links {
		dc.Relations = append(dc.Relations, "https://doi.org/"+l.CounterpartIdentifier)
	}

	return xOAIRecord{
		Header: xOAIHeader{
			Identifier: oaiIDPrefix + b.Identifiers.PIDv2,
			Datestamp:  dc.Date,
			SetSpec:    setSpec(b),
		},
		Metadata: dc,
	}
}

// dcSource follows the "Journal, v. 84, n. 5 Suppl 1, 2024" convention.
func dcSource(r record.ExportRecord) string {
	s := r.Journal.Title
	if r.Issue.Volume != "" {
		s += ", v. " + r.Issue.Volume
	}
	if label := r.Issue.Label(); label != "" {
		s += ", n. " + label
	}
	if y := r.Year(); y > 0 {
		s += fmt.Sprintf(", %d", y)
	}
	return s
}

func setSpec(r record.ExportRecord) string {
	if r.Journal.EISSN != "" {
		return r.Journal.EISSN
	}
	return r.Journal.PISSN
}

func pubDate(r record.ExportRecord) *record.DateInfo {
	if r.Dates.Pub != nil && !r.Dates.Pub.IsZero() {
		return r.Dates.Pub
	}
	return r.Dates.Collection
}

func sortedKeys[V any](m map[string]V) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

func init() {
	Register(&OAIDC{})
}
