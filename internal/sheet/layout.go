package sheet

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownVariant = errors.New("unknown source variant")

type Variant int

const (
	Primary Variant = iota
	Secondary
)

// Pivot: позиция, с которой раскладка Secondary сдвинута на одну колонку.
const Pivot = 6

func (v Variant) String() string {
	switch v {
	case Secondary:
		return "secondary"
	default:
		return "primary"
	}
}

// ParseVariant accepts the slot names and the legacy data-source names.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary", "shein":
		return Primary, nil
	case "secondary", "temu":
		return Secondary, nil
	default:
		return Primary, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Columns maps semantic fields to 0-based column indices.
type Columns struct {
	Category         int `json:"category"`
	Location         int `json:"location"`
	Identifier       int `json:"identifier"`
	Created          int `json:"created"`
	Arrival          int `json:"arrival"`
	Status           int `json:"status"`
	StatusAlt        int `json:"status_alt"`
	WarehouseArrival int `json:"warehouse_arrival"`
	Release          int `json:"release"`
	MilestoneL       int `json:"milestone_l"`
	MilestoneM       int `json:"milestone_m"`
	FinalRelease     int `json:"final_release"`
	Consigned        int `json:"consigned"`
	Handover         int `json:"handover"`
}

var primaryColumns = Columns{
	Category:         0,
	Location:         1,
	Identifier:       2,
	Created:          3,
	Arrival:          5,
	Status:           6,
	StatusAlt:        7,
	WarehouseArrival: 8,
	Release:          10,
	MilestoneL:       11,
	MilestoneM:       12,
	FinalRelease:     13,
	Consigned:        14,
	Handover:         15,
}

var secondaryColumns = primaryColumns.shifted()

func (c Columns) shifted() Columns {
	shift := func(i int) int {
		if i >= Pivot {
			return i + 1
		}
		return i
	}
	return Columns{
		Category:         shift(c.Category),
		Location:         shift(c.Location),
		Identifier:       shift(c.Identifier),
		Created:          shift(c.Created),
		Arrival:          shift(c.Arrival),
		Status:           shift(c.Status),
		StatusAlt:        shift(c.StatusAlt),
		WarehouseArrival: shift(c.WarehouseArrival),
		Release:          shift(c.Release),
		MilestoneL:       shift(c.MilestoneL),
		MilestoneM:       shift(c.MilestoneM),
		FinalRelease:     shift(c.FinalRelease),
		Consigned:        shift(c.Consigned),
		Handover:         shift(c.Handover),
	}
}

// ResolveColumns returns the static column table of a variant.
// Rows passed through NormalizeRow are always read with the Primary table.
func ResolveColumns(v Variant) Columns {
	if v == Secondary {
		return secondaryColumns
	}
	return primaryColumns
}

// LastIndex is the highest column index the layout refers to.
func (c Columns) LastIndex() int {
	return c.Handover
}

// InsertPlaceholder returns a copy of row with one empty cell at pos.
// Short rows are padded so the placeholder always lands at pos.
func InsertPlaceholder(row Row, pos int) Row {
	if row == nil {
		return nil
	}
	size := len(row) + 1
	if pos >= len(row) {
		size = pos + 1
	}
	out := make(Row, size)
	if pos >= len(row) {
		copy(out, row)
		return out
	}
	copy(out, row[:pos])
	copy(out[pos+1:], row[pos:])
	return out
}

// NormalizeRow brings a row of any variant to the Primary layout.
func NormalizeRow(row Row, v Variant) Row {
	if v == Secondary {
		return InsertPlaceholder(row, Pivot)
	}
	return row
}
