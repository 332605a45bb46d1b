package kpi

import (
	"strings"

	"shipment-kpi/internal/sheet"
)

// StatusFlagMissing: значение колонки статуса, которое считается проблемой.
const StatusFlagMissing = "N"

type StatusEntry struct {
	Location   string `json:"port"`
	Identifier string `json:"mawb_number"`
	Category   string `json:"category"`
}

// StatusCheck lists rows whose status flag is "N". Category and location do
// not matter here, so rows without a port are checked too.
func StatusCheck(ex Extraction) []StatusEntry {
	out := make([]StatusEntry, 0)
	for _, set := range [][]Record{ex.Records, ex.Unlocated} {
		for _, r := range set {
			if r.Status != StatusFlagMissing {
				continue
			}
			out = append(out, StatusEntry{
				Location:   r.Location,
				Identifier: r.Identifier,
				Category:   r.Category,
			})
		}
	}
	return out
}

// CheckedMilestones are the columns P, N, M, L, K in the order they are reported.
var CheckedMilestones = []Milestone{Handover, FinalRelease, MilestoneM, MilestoneL, Release}

type MissingEntry struct {
	Location   string          `json:"port"`
	Identifier string          `json:"mawb_number"`
	Category   string          `json:"category"`
	Created    sheet.Timestamp `json:"created"`
	Missing    []string        `json:"missing"`
}

func (e MissingEntry) MissingList() string {
	return strings.Join(e.Missing, ", ")
}

// MissingMilestones reports consigned T01 records with at least one blank checked column.
// Records without a consigned date are still in transit and are skipped.
// Blank follows sheet.IsEmpty, so a literal 0 counts as filled.
func MissingMilestones(records []Record) []MissingEntry {
	out := make([]MissingEntry, 0)
	for i := range records {
		r := &records[i]
		if r.Category != CategoryT01 || !r.At(Consigned).Valid {
			continue
		}
		var missing []string
		for _, m := range CheckedMilestones {
			if r.Blank[m] {
				missing = append(missing, m.String())
			}
		}
		if len(missing) == 0 {
			continue
		}
		out = append(out, MissingEntry{
			Location:   r.Location,
			Identifier: r.Identifier,
			Category:   r.Category,
			Created:    r.Created,
			Missing:    missing,
		})
	}
	return out
}
