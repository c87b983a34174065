package storage

import (
	"path/filepath"
	"testing"
	"time"
)

var (
	t1 = time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	t2 = time.Date(2024, 3, 21, 9, 30, 0, 0, time.UTC)
)

func testEntries() []Entry {
	return []Entry{
		{RunID: "run-1", Time: t1, Format: "crossref", Source: "a.xml", DocID: "article", Language: "en", DOI: "10.1590/a", Status: StatusExported},
		{RunID: "run-1", Time: t1, Format: "crossref", Source: "a.xml", DocID: "s1", Language: "pt", DOI: "10.1590/a.pt", Status: StatusSkipped, Reason: "pages"},
		{RunID: "run-2", Time: t2, Format: "crossref", Source: "a.xml", DocID: "article", Language: "en", DOI: "10.1590/a", Status: StatusExported},
		{RunID: "run-2", Time: t2, Format: "crossref", Source: "a.xml", DocID: "s1", Language: "pt", DOI: "10.1590/a.pt", Status: StatusExported},
		{RunID: "run-2", Time: t2, Format: "crossref", Source: "a.xml", DocID: "s2", Language: "es", Status: StatusDropped, Reason: "title"},
	}
}

// setupTestDB creates a journal with two runs.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "nested", "journal.db"))
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Record(testEntries()); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	return db
}

func TestRecordAndCount(t *testing.T) {
	db := setupTestDB(t)
	n, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 5 {
		t.Errorf("Count() = %d, want 5", n)
	}
}

func TestEntries(t *testing.T) {
	db := setupTestDB(t)

	all, err := db.Entries(Filter{}, 0)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("Entries() returned %d, want 5", len(all))
	}
	if all[0].RunID != "run-2" || all[0].DocID != "article" {
		t.Errorf("first entry = %s/%s, want newest run first", all[0].RunID, all[0].DocID)
	}
	if !all[0].Time.Equal(t2) {
		t.Errorf("Time = %v, want %v", all[0].Time, t2)
	}

	dropped := all[2]
	if dropped.Status != StatusDropped || dropped.DOI != "" || dropped.Reason != "title" {
		t.Errorf("dropped entry = %+v", dropped)
	}

	tests := []struct {
		name   string
		filter Filter
		limit  int
		want   int
	}{
		{"by run", Filter{RunID: "run-1"}, 0, 2},
		{"by doi", Filter{DOI: "10.1590/a.pt"}, 0, 2},
		{"by status", Filter{Status: StatusExported}, 0, 3},
		{"combined", Filter{DOI: "10.1590/a", Status: StatusExported}, 0, 2},
		{"other format", Filter{Format: "doaj"}, 0, 0},
		{"limited", Filter{}, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Entries(tt.filter, tt.limit)
			if err != nil {
				t.Fatalf("Entries() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Entries() returned %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestLastExported(t *testing.T) {
	db := setupTestDB(t)

	e, err := db.LastExported("10.1590/a.pt", "crossref")
	if err != nil {
		t.Fatalf("LastExported() error = %v", err)
	}
	if e == nil || e.RunID != "run-2" {
		t.Fatalf("LastExported() = %+v, want run-2", e)
	}

	e, err = db.LastExported("10.1590/a.pt", "doaj")
	if err != nil {
		t.Fatalf("LastExported() error = %v", err)
	}
	if e != nil {
		t.Errorf("LastExported() = %+v, want nil", e)
	}
}

func TestRuns(t *testing.T) {
	db := setupTestDB(t)

	runs, err := db.Runs(0)
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Runs() returned %d, want 2", len(runs))
	}
	want := Run{ID: "run-2", Time: t2, Format: "crossref", Source: "a.xml", Exported: 2, Dropped: 1}
	if runs[0] != want {
		t.Errorf("Runs()[0] = %+v, want %+v", runs[0], want)
	}
	if runs[1].ID != "run-1" || runs[1].Exported != 1 || runs[1].Skipped != 1 {
		t.Errorf("Runs()[1] = %+v", runs[1])
	}

	runs, err = db.Runs(1)
	if err != nil {
		t.Fatalf("Runs(1) error = %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("Runs(1) returned %d", len(runs))
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	db, err := OpenDB(path)
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	if err := db.Record(testEntries()[:1]); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	db.Close()

	db, err = OpenDB(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer db.Close()
	if n, _ := db.Count(); n != 1 {
		t.Errorf("Count() after reopen = %d, want 1", n)
	}
}
