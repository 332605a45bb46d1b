package kpi

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipment-kpi/internal/sheet"
)

var testFloor = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

func ts(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

// primaryRow builds a 16-column row; cells overrides any column.
func primaryRow(category, port, mawb string, created time.Time, cells map[int]sheet.Cell) sheet.Row {
	r := make(sheet.Row, 16)
	r[0] = sheet.String(category)
	r[1] = sheet.String(port)
	r[2] = sheet.String(mawb)
	if !created.IsZero() {
		r[3] = sheet.Date(created)
	}
	for i, c := range cells {
		r[i] = c
	}
	return r
}

// secondaryFrom drops column 6, which is how secondary exports come in.
func secondaryFrom(r sheet.Row) sheet.Row {
	out := slices.Clone(r[:6])
	return append(out, r[7:]...)
}

func grid(rows ...sheet.Row) sheet.Grid {
	g := sheet.Grid{
		{sheet.String("Shipment report")},
		{sheet.String("Category"), sheet.String("POE"), sheet.String("MAWB")},
	}
	return append(g, rows...)
}

func defaultOpts() ExtractOptions {
	return ExtractOptions{Floor: testFloor, StatusColumn: 6}
}

func TestExtract_SkipsHeaderAndFloor(t *testing.T) {
	g := grid(
		primaryRow("T01", "ORD", "001", ts(2025, 6, 30, 23, 59), nil),
		primaryRow("T01", "ORD", "002", testFloor, nil),
		primaryRow("T01", "LAX", "003", time.Time{}, nil),
		primaryRow("T86", "JFK", "004", ts(2025, 8, 1, 10, 0), nil),
	)

	ex := Extract(g, sheet.Primary, defaultOpts())

	require.Len(t, ex.Records, 3)
	assert.Equal(t, "002", ex.Records[0].Identifier)
	assert.Equal(t, "003", ex.Records[1].Identifier)
	assert.Equal(t, "004", ex.Records[2].Identifier)
	assert.Equal(t, 4, ex.Records[0].Row)

	assert.Equal(t, 6, ex.Stats.TotalRows)
	assert.Equal(t, 1, ex.Stats.BeforeFloor)
	assert.Equal(t, 3, ex.Stats.Records)
	assert.Empty(t, ex.Stats.Warnings)
}

func TestExtract_NormalizesCodes(t *testing.T) {
	g := grid(primaryRow(" t01 ", " ord", " 123-456 ", testFloor, map[int]sheet.Cell{
		6: sheet.String(" n "),
	}))

	ex := Extract(g, sheet.Primary, defaultOpts())

	require.Len(t, ex.Records, 1)
	r := ex.Records[0]
	assert.Equal(t, "T01", r.Category)
	assert.Equal(t, "ORD", r.Location)
	assert.Equal(t, "123-456", r.Identifier)
	assert.Equal(t, "N", r.Status)
}

func TestExtract_Unlocated(t *testing.T) {
	g := grid(
		primaryRow("T01", "", "001", testFloor, nil),
		primaryRow("T01", "  ", "002", testFloor, nil),
		primaryRow("T01", "MIA", "003", testFloor, nil),
	)

	ex := Extract(g, sheet.Primary, defaultOpts())

	assert.Len(t, ex.Records, 1)
	require.Len(t, ex.Unlocated, 2)
	assert.Equal(t, "001", ex.Unlocated[0].Identifier)
	assert.Equal(t, 2, ex.Stats.Unlocated)
}

func TestExtract_MalformedAndInvalidDates(t *testing.T) {
	g := grid(
		nil,
		primaryRow("T01", "ORD", "001", testFloor, map[int]sheet.Cell{
			5:  sheet.String("not a date"),
			8:  sheet.Number(0),
			10: sheet.Other("#VALUE!"),
		}),
	)

	ex := Extract(g, sheet.Primary, defaultOpts())

	require.Len(t, ex.Records, 1)
	assert.Equal(t, 1, ex.Stats.Malformed)
	assert.Equal(t, 2, ex.Stats.InvalidDates)

	r := ex.Records[0]
	assert.False(t, r.At(Arrival).Valid)
	assert.False(t, r.At(WarehouseArrival).Valid)
	assert.False(t, r.Blank[WarehouseArrival], "a literal zero is not blank")
	assert.True(t, r.Blank[Handover])
}

func TestExtract_ReadsMilestones(t *testing.T) {
	g := grid(primaryRow("T01", "ORD", "001", testFloor, map[int]sheet.Cell{
		5:  sheet.Number(45839.5),
		8:  sheet.Date(ts(2025, 7, 1, 18, 0)),
		10: sheet.String("2025-07-02 09:30"),
		15: sheet.Date(ts(2025, 7, 3, 0, 0)),
	}))

	ex := Extract(g, sheet.Primary, defaultOpts())

	require.Len(t, ex.Records, 1)
	r := ex.Records[0]
	assert.Equal(t, ts(2025, 7, 1, 12, 0), r.At(Arrival).Time)
	assert.Equal(t, ts(2025, 7, 1, 18, 0), r.At(WarehouseArrival).Time)
	assert.Equal(t, ts(2025, 7, 2, 9, 30), r.At(Release).Time)
	assert.Equal(t, ts(2025, 7, 3, 0, 0), r.At(Handover).Time)
	assert.False(t, r.At(Consigned).Valid)
}

func TestExtract_SecondaryMatchesPrimary(t *testing.T) {
	base := primaryRow("T86", "DFW", "777", testFloor, map[int]sheet.Cell{
		5:  sheet.Date(ts(2025, 7, 4, 8, 0)),
		8:  sheet.Date(ts(2025, 7, 4, 20, 0)),
		10: sheet.Date(ts(2025, 7, 5, 8, 0)),
		13: sheet.Date(ts(2025, 7, 6, 8, 0)),
		14: sheet.Date(ts(2025, 7, 7, 8, 0)),
		15: sheet.Date(ts(2025, 7, 8, 8, 0)),
	})

	prim := Extract(grid(base), sheet.Primary, defaultOpts())
	sec := Extract(grid(secondaryFrom(base)), sheet.Secondary, ExtractOptions{Floor: testFloor, StatusColumn: 7})

	require.Len(t, prim.Records, 1)
	require.Len(t, sec.Records, 1)
	assert.Equal(t, prim.Records[0].Milestones, sec.Records[0].Milestones)
	assert.Equal(t, prim.Records[0].Blank, sec.Records[0].Blank)
	assert.Equal(t, sheet.Secondary, sec.Variant)
}

func TestExtract_Warnings(t *testing.T) {
	ex := Extract(grid(), sheet.Primary, ExtractOptions{Floor: testFloor, StatusColumn: 9})
	assert.Len(t, ex.Stats.Warnings, 1)

	ex = Extract(grid(), sheet.Secondary, ExtractOptions{Floor: testFloor, StatusColumn: 6})
	assert.Len(t, ex.Stats.Warnings, 1)

	ex = Extract(grid(), sheet.Secondary, ExtractOptions{Floor: testFloor, StatusColumn: 7})
	assert.Empty(t, ex.Stats.Warnings)
}

func TestExtract_NoFloor(t *testing.T) {
	g := grid(primaryRow("T01", "ORD", "001", ts(2020, 1, 1, 0, 0), nil))

	ex := Extract(g, sheet.Primary, ExtractOptions{StatusColumn: 6})

	assert.Len(t, ex.Records, 1)
	assert.Zero(t, ex.Stats.BeforeFloor)
}

func TestMilestoneString(t *testing.T) {
	assert.Equal(t, "ATA", Arrival.String())
	assert.Equal(t, "Custom Final Release", FinalRelease.String())
	assert.Equal(t, "Milestone(42)", Milestone(42).String())
}
