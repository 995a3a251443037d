package lot

import (
	"testing"

	"github.com/zulandar/ribbonlog/internal/models"
)

func filterFixture() []models.Record {
	return []models.Record{
		{ID: "1", LotNumber: "ABC123", Problem: "broken", RibbonModel: "R1", Status: models.StatusActive},
		{ID: "2", LotNumber: "000124", Problem: "Paper JAM at head", RibbonModel: "R-500", Status: models.StatusPending},
		{ID: "3", LotNumber: "000125", Problem: "smudged", RibbonModel: "abc-900", Status: models.StatusResolved},
		{ID: "4", LotNumber: "000126", Problem: "torn", RibbonModel: "R-1000", Status: models.StatusActive},
	}
}

func ids(records []models.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty matches all in order", "", []string{"1", "2", "3", "4"}},
		{"lot number case-insensitive", "abc", []string{"1", "3"}},
		{"problem field", "jam", []string{"2"}},
		{"ribbon model", "r-1000", []string{"4"}},
		{"shared prefix keeps order", "0001", []string{"2", "3", "4"}},
		{"no match", "zzz", []string{}},
		{"details are not searched", "head jam", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(filterFixture(), tt.query))
			if len(got) != len(tt.want) {
				t.Fatalf("Filter(%q) = %v, want %v", tt.query, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Filter(%q) = %v, want %v", tt.query, got, tt.want)
					break
				}
			}
		})
	}
}

func TestFilter_SingleRecordCaseInsensitive(t *testing.T) {
	in := []models.Record{{LotNumber: "ABC123", Problem: "broken", RibbonModel: "R1"}}
	got := Filter(in, "abc")
	if len(got) != 1 || got[0].LotNumber != "ABC123" {
		t.Errorf("Filter() = %+v", got)
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	in := filterFixture()
	out := Filter(in, "")
	out[0].LotNumber = "changed"
	if in[0].LotNumber != "ABC123" {
		t.Error("Filter output aliases input")
	}
}

func TestSummarize(t *testing.T) {
	st := Summarize(filterFixture())
	want := Stats{Total: 4, Active: 2, Pending: 1, Resolved: 1}
	if st != want {
		t.Errorf("Summarize() = %+v, want %+v", st, want)
	}
	if got := Summarize(nil); got != (Stats{}) {
		t.Errorf("Summarize(nil) = %+v", got)
	}
}

func TestWithStatus(t *testing.T) {
	got := ids(WithStatus(filterFixture(), models.StatusActive))
	if len(got) != 2 || got[0] != "1" || got[1] != "4" {
		t.Errorf("WithStatus(active) = %v", got)
	}
}
