package lot

import (
	"strings"

	"github.com/zulandar/ribbonlog/internal/models"
)

// Filter returns the records whose lot number, problem or ribbon model
// contains query, ignoring case. An empty query matches everything. Input
// order is kept.
func Filter(records []models.Record, query string) []models.Record {
	q := strings.ToLower(query)
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if q == "" ||
			strings.Contains(strings.ToLower(r.LotNumber), q) ||
			strings.Contains(strings.ToLower(r.Problem), q) ||
			strings.Contains(strings.ToLower(r.RibbonModel), q) {
			out = append(out, r)
		}
	}
	return out
}

// Stats counts records by status.
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Pending  int `json:"pending"`
	Resolved int `json:"resolved"`
}

// Summarize computes Stats over records.
func Summarize(records []models.Record) Stats {
	st := Stats{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case models.StatusActive:
			st.Active++
		case models.StatusPending:
			st.Pending++
		case models.StatusResolved:
			st.Resolved++
		}
	}
	return st
}

// WithStatus returns the records in the given status, keeping order.
func WithStatus(records []models.Record, status models.Status) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}
