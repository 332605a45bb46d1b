package kpi

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shipment-kpi/internal/sheet"
)

// headerRows: первые две строки выгрузки: заголовок отчета и шапка таблицы.
const headerRows = 2

const (
	CategoryT01 = "T01"
	CategoryT86 = "T86"
	All         = "ALL"
)

type Milestone int

const (
	Arrival Milestone = iota
	WarehouseArrival
	Release
	MilestoneL
	MilestoneM
	FinalRelease
	Consigned
	Handover
	milestoneCount
)

var milestoneNames = [milestoneCount]string{
	Arrival:          "ATA",
	WarehouseArrival: "Arrived at Warehouse",
	Release:          "Release",
	MilestoneL:       "Milestone L",
	MilestoneM:       "Milestone M",
	FinalRelease:     "Custom Final Release",
	Consigned:        "Consigned to Final Mile Carrier",
	Handover:         "Handover",
}

func (m Milestone) String() string {
	if m < 0 || m >= milestoneCount {
		return fmt.Sprintf("Milestone(%d)", int(m))
	}
	return milestoneNames[m]
}

func (m Milestone) column(c sheet.Columns) int {
	switch m {
	case Arrival:
		return c.Arrival
	case WarehouseArrival:
		return c.WarehouseArrival
	case Release:
		return c.Release
	case MilestoneL:
		return c.MilestoneL
	case MilestoneM:
		return c.MilestoneM
	case FinalRelease:
		return c.FinalRelease
	case Consigned:
		return c.Consigned
	default:
		return c.Handover
	}
}

// Record: одна строка выгрузки после разбора. После создания не меняется.
type Record struct {
	Row        int             `json:"row"`
	Category   string          `json:"category"`
	Location   string          `json:"port"`
	Identifier string          `json:"mawb_number"`
	Created    sheet.Timestamp `json:"created"`
	Status     string          `json:"status"`

	Milestones [milestoneCount]sheet.Timestamp `json:"-"`
	Blank      [milestoneCount]bool            `json:"-"`
}

func (r *Record) At(m Milestone) sheet.Timestamp {
	return r.Milestones[m]
}

type ExtractOptions struct {
	Floor        time.Time
	StatusColumn int
}

type Stats struct {
	TotalRows    int      `json:"total_rows"`
	Records      int      `json:"records"`
	Unlocated    int      `json:"unlocated"`
	BeforeFloor  int      `json:"before_floor"`
	Malformed    int      `json:"malformed"`
	InvalidDates int      `json:"invalid_dates"`
	Warnings     []string `json:"warnings,omitempty"`
}

type Extraction struct {
	Variant   sheet.Variant
	Records   []Record
	Unlocated []Record
	Stats     Stats
}

// caser хранит состояние, поэтому на каждый разбор создается свой
func normalizeCode(upper cases.Caser, c sheet.Cell) string {
	return upper.String(strings.TrimSpace(c.Text()))
}

// Extract builds records from a grid. Secondary rows are brought to the Primary
// layout first, so every field is read with the Primary column table.
func Extract(grid sheet.Grid, variant sheet.Variant, opts ExtractOptions) Extraction {
	cols := sheet.ResolveColumns(sheet.Primary)
	out := Extraction{
		Variant: variant,
		Stats: Stats{
			TotalRows: len(grid),
			Warnings:  layoutWarnings(variant, opts.StatusColumn),
		},
	}
	floor := sheet.At(opts.Floor)
	upper := cases.Upper(language.Und)

	for i := headerRows; i < len(grid); i++ {
		raw := grid[i]
		if raw == nil {
			out.Stats.Malformed++
			continue
		}
		row := sheet.NormalizeRow(raw, variant)

		created := parseDate(row.At(cols.Created), &out.Stats)
		if !opts.Floor.IsZero() && created.Before(floor) {
			out.Stats.BeforeFloor++
			continue
		}

		rec := Record{
			Row:        i + 1,
			Category:   normalizeCode(upper, row.At(cols.Category)),
			Location:   normalizeCode(upper, row.At(cols.Location)),
			Identifier: strings.TrimSpace(row.At(cols.Identifier).Text()),
			Created:    created,
			Status:     normalizeCode(upper, row.At(opts.StatusColumn)),
		}
		for m := Milestone(0); m < milestoneCount; m++ {
			cell := row.At(m.column(cols))
			rec.Milestones[m] = parseDate(cell, &out.Stats)
			rec.Blank[m] = sheet.IsEmpty(cell)
		}

		if rec.Location == "" {
			out.Unlocated = append(out.Unlocated, rec)
			continue
		}
		out.Records = append(out.Records, rec)
	}

	out.Stats.Records = len(out.Records)
	out.Stats.Unlocated = len(out.Unlocated)

	return out
}

// parseDate counts cells that hold something but do not yield a date.
func parseDate(c sheet.Cell, st *Stats) sheet.Timestamp {
	ts := sheet.NormalizeDate(c)
	if !ts.Valid && !sheet.IsEmpty(c) && !(c.Kind == sheet.KindNumber && c.Number == 0) {
		st.InvalidDates++
	}
	return ts
}

func layoutWarnings(variant sheet.Variant, statusColumn int) []string {
	var warnings []string
	cols := sheet.ResolveColumns(sheet.Primary)
	if statusColumn != cols.Status && statusColumn != cols.StatusAlt {
		warnings = append(warnings, fmt.Sprintf(
			"status column %d is neither %d nor %d of the known layout", statusColumn, cols.Status, cols.StatusAlt))
	}
	if variant == sheet.Secondary && statusColumn == sheet.Pivot {
		warnings = append(warnings, fmt.Sprintf(
			"status column %d is the placeholder inserted into secondary rows, status check will find no flags", statusColumn))
	}
	return warnings
}
