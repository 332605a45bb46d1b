package sheet

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// CheckFileName accepts only .xlsx uploads.
func CheckFileName(name string) error {
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return fmt.Errorf("%w: %q is not an .xlsx file", ErrUnsupportedFormat, name)
	}
	return nil
}

// ReadGrid reads the first worksheet of an xlsx workbook into a typed grid.
func ReadGrid(r io.Reader) (Grid, error) {
	const op = "sheet.ReadGrid"

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: %w: workbook has no sheets", op, ErrUnsupportedFormat)
	}
	name := sheets[0]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: read rows of %q: %v", op, ErrUnsupportedFormat, name, err)
	}

	grid := make(Grid, len(rows))
	for i, raw := range rows {
		row := make(Row, len(raw))
		for j, v := range raw {
			if v == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			typ, err := f.GetCellType(name, ref)
			if err != nil {
				// тип не определился: оставляем как строку
				row[j] = String(v)
				continue
			}
			row[j] = typedCell(typ, v)
		}
		grid[i] = row
	}

	return grid, nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func typedCell(typ excelize.CellType, v string) Cell {
	switch typ {
	case excelize.CellTypeBool:
		return Bool(v == "1" || strings.EqualFold(v, "true"))
	case excelize.CellTypeDate:
		for _, layout := range isoLayouts {
			if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
				return Date(t)
			}
		}
		return Other(v)
	case excelize.CellTypeError:
		return Other(v)
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return String(v)
	default:
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return Number(n)
		}
		return String(v)
	}
}
