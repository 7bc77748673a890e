package country

import (
	"os"
	"path/filepath"
	"testing"
)

func TestColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"United States", "UNITED_STATES"},
		{"India", "INDIA"},
		{"Bosnia  and\tHerzegovina", "BOSNIA_AND_HERZEGOVINA"},
		{"Korea, Republic of", "KOREA,_REPUBLIC_OF"},
		{"UNITED_KINGDOM", "UNITED_KINGDOM"},
	}

	for _, tt := range tests {
		if got := ColumnName(tt.in); got != tt.want {
			t.Errorf("ColumnName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	data := []byte(`[
		{"Code": 842, "Name": "United States"},
		{"Code": "699", "Name": "India"}
	]`)

	countries, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(countries) != 2 {
		t.Fatalf("Expected 2 countries, got %d", len(countries))
	}
	if countries[0].Code != "842" || countries[0].Column != "UNITED_STATES" {
		t.Errorf("Unexpected first country: %+v", countries[0])
	}
	if countries[1].Code != "699" || countries[1].Name != "India" || countries[1].Column != "INDIA" {
		t.Errorf("Unexpected second country: %+v", countries[1])
	}
}

func TestParseRejectsIncompleteEntries(t *testing.T) {
	for _, doc := range []string{
		`[{"Name": "Nowhere"}]`,
		`[{"Code": 1}]`,
		`{"Code": 1, "Name": "x"}`,
	} {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("Expected error for %s", doc)
		}
	}
}

func TestLoadAndFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.json")
	doc := `[{"Code": 36, "Name": "Australia"}, {"Code": 842, "Name": "United States"}, {"Code": 76, "Name": "Brazil"}]`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	countries, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got := Filter(countries, []string{"76", "36"})
	if len(got) != 2 || got[0].Code != "36" || got[1].Code != "76" {
		t.Errorf("Filter should keep list order, got %+v", got)
	}
	if len(Filter(countries, nil)) != 3 {
		t.Error("Empty filter should keep every country")
	}
}
