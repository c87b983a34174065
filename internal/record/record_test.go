package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPageRange(t *testing.T) {
	tests := []struct {
		first, last string
		want        string
	}{
		{"85", "85", "85"},
		{"85", "91", "85-91"},
		{"85", "", "85"},
		{"", "91", "91"},
		{" e12 ", "", "e12"},
		{"", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPageRange(tt.first, tt.last), "%q-%q", tt.first, tt.last)
	}
}

func TestIssueInfoPages(t *testing.T) {
	i := IssueInfo{FPage: "10", LPage: "20"}
	assert.Equal(t, "10-20", i.Pages())
	assert.True(t, i.HasPages())
	assert.True(t, IssueInfo{ElocationID: "e2024"}.HasPages())
	assert.False(t, IssueInfo{Volume: "3"}.HasPages())
}

func TestDateInfo(t *testing.T) {
	tests := []struct {
		name     string
		date     DateInfo
		complete bool
		iso      string
	}{
		{"year only", DateInfo{Year: 2024}, false, "2024"},
		{"year and month", DateInfo{Year: 2024, Month: 3}, false, "2024-03"},
		{"full date", DateInfo{Year: 2024, Month: 2, Day: 29}, true, "2024-02-29"},
		{"impossible day", DateInfo{Year: 2023, Month: 2, Day: 29}, false, "2023-02-29"},
		{"zero", DateInfo{}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.complete, tt.date.IsComplete())
			assert.Equal(t, tt.iso, tt.date.ISO())
		})
	}
}

func TestDateEstimate(t *testing.T) {
	d := DateInfo{Year: 2023, Kind: DatePub}
	est := d.Estimate(6, 15)
	assert.Equal(t, DateInfo{Year: 2023, Month: 6, Day: 15, Kind: DatePub}, est)
	// the receiver stays incomplete
	assert.False(t, d.IsComplete())
	assert.Equal(t, 0, d.Month)

	seasonal := DateInfo{Year: 2023, Season: "Jul-Sep"}
	assert.Equal(t, 7, seasonal.Estimate(1, 1).Month)

	clamped := DateInfo{Year: 2023, Month: 2}.Estimate(1, 31)
	assert.Equal(t, 28, clamped.Day)

	tm, ok := clamped.Time()
	require.True(t, ok)
	assert.Equal(t, "2023-02-28", tm.Format("2006-01-02"))

	_, ok = DateInfo{Year: 2023}.Time()
	assert.False(t, ok)

	assert.True(t, DateInfo{}.Estimate(1, 1).IsZero())
}

func TestMonthNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3", 3}, {"03", 3}, {"Mar", 3}, {"March", 3}, {"dec", 12},
		{"13", 0}, {"0", 0}, {"", 0}, {"Spring", 0}, {"xx", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MonthNumber(tt.in), tt.in)
	}
}

func TestSeasonMonth(t *testing.T) {
	assert.Equal(t, 1, SeasonMonth("Jan-Mar"))
	assert.Equal(t, 4, SeasonMonth("April/June"))
	assert.Equal(t, 9, SeasonMonth("Autumn"))
	assert.Equal(t, 0, SeasonMonth(""))
	assert.Equal(t, 0, SeasonMonth("??"))
}

func TestPersonNames(t *testing.T) {
	p := Person{Surname: "Silva", GivenNames: "Ana"}
	assert.Equal(t, "Ana Silva", p.FullName())
	assert.Equal(t, "Silva, Ana", p.InvertedName())

	org := Person{Organization: "WHO Group"}
	assert.Equal(t, "WHO Group", org.FullName())
	assert.Equal(t, "WHO Group", org.InvertedName())

	assert.Equal(t, SequenceFirst, SequenceAt(0))
	assert.Equal(t, SequenceAdditional, SequenceAt(3))
}

func TestAffiliationLabel(t *testing.T) {
	a := Affiliation{Institution: "USP", City: "São Paulo", Country: "Brasil"}
	assert.Equal(t, "USP, São Paulo, Brasil", a.Label())
	assert.Equal(t, "printed", Affiliation{Original: "printed"}.Label())
}

func TestCloneIsDeep(t *testing.T) {
	orig := ExportRecord{
		Contributors: []Person{{Surname: "Silva", Affiliation: &Affiliation{ID: "aff1"}}},
		Dates:        Dates{Pub: &DateInfo{Year: 2024}},
		Abstracts:    map[string]string{"en": "text"},
		Keywords:     map[string][]string{"en": {"soil"}},
		License:      &License{Link: "https://example.org"},
		Citations:    []Citation{{Key: "B1", Authors: []CitationAuthor{{Surname: "Doe"}}}},
		Links:        []TranslationLink{{Relationship: HasTranslation}},
	}
	c := orig.Clone()
	c.Contributors[0].Affiliation.ID = "changed"
	c.Dates.Pub.Year = 1900
	c.Abstracts["en"] = "changed"
	c.Keywords["en"][0] = "changed"
	c.License.Link = "changed"
	c.Citations[0].Authors[0].Surname = "changed"
	c.Links[0].Relationship = IsTranslationOf

	assert.Equal(t, "aff1", orig.Contributors[0].Affiliation.ID)
	assert.Equal(t, 2024, orig.Dates.Pub.Year)
	assert.Equal(t, "text", orig.Abstracts["en"])
	assert.Equal(t, "soil", orig.Keywords["en"][0])
	assert.Equal(t, "https://example.org", orig.License.Link)
	assert.Equal(t, "Doe", orig.Citations[0].Authors[0].Surname)
	assert.Equal(t, HasTranslation, orig.Links[0].Relationship)
}

func TestYearAndLink(t *testing.T) {
	r := ExportRecord{Dates: Dates{Collection: &DateInfo{Year: 2022}}}
	assert.Equal(t, 2022, r.Year())
	r.Dates.Pub = &DateInfo{Year: 2023}
	assert.Equal(t, 2023, r.Year())

	assert.Nil(t, r.Link())
	assert.Equal(t, "", r.CounterpartTitle())
	r.Links = []TranslationLink{{CounterpartTitle: "Título"}}
	assert.Equal(t, "Título", r.CounterpartTitle())
}

func TestIssueLabel(t *testing.T) {
	assert.Equal(t, "5 Suppl 1", IssueInfo{Number: "5", Supplement: "1"}.Label())
	assert.Equal(t, "Suppl", IssueInfo{Supplement: "0"}.Label())
	assert.Equal(t, "spe", IssueInfo{Number: "spe"}.Label())
	assert.Equal(t, "", IssueInfo{}.Label())
}
