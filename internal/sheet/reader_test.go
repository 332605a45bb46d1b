package sheet

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, fill func(f *excelize.File, sheet string)) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	fill(f, "Sheet1")
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadGrid_TypedCells(t *testing.T) {
	buf := buildWorkbook(t, func(f *excelize.File, sheet string) {
		require.NoError(t, f.SetCellValue(sheet, "A1", "Shipments"))
		require.NoError(t, f.SetCellValue(sheet, "A3", "T01"))
		require.NoError(t, f.SetCellValue(sheet, "B3", "ord"))
		require.NoError(t, f.SetCellValue(sheet, "C3", 17612345))
		require.NoError(t, f.SetCellValue(sheet, "F3", 45839.5))
		require.NoError(t, f.SetCellValue(sheet, "G3", true))
	})

	grid, err := ReadGrid(buf)
	require.NoError(t, err)
	require.Len(t, grid, 3)

	assert.Equal(t, String("Shipments"), grid[0].At(0))
	assert.Empty(t, grid[1])

	row := grid[2]
	assert.Equal(t, String("T01"), row.At(0))
	assert.Equal(t, String("ord"), row.At(1))
	assert.Equal(t, Number(17612345), row.At(2))
	assert.Equal(t, Empty(), row.At(3))
	assert.Equal(t, Number(45839.5), row.At(5))
	assert.Equal(t, Bool(true), row.At(6))

	ts := NormalizeDate(row.At(5))
	require.True(t, ts.Valid)
	assert.Equal(t, time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC), ts.Time)
}

func TestReadGrid_FirstSheetOnly(t *testing.T) {
	buf := buildWorkbook(t, func(f *excelize.File, sheet string) {
		require.NoError(t, f.SetCellValue(sheet, "A1", "first"))
		_, err := f.NewSheet("Other")
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Other", "A1", "second"))
	})

	grid, err := ReadGrid(buf)
	require.NoError(t, err)
	require.Len(t, grid, 1)
	assert.Equal(t, String("first"), grid[0].At(0))
}

func TestReadGrid_RejectsNonWorkbook(t *testing.T) {
	_, err := ReadGrid(bytes.NewBufferString("port,mawb\nORD,123\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestCheckFileName(t *testing.T) {
	assert.NoError(t, CheckFileName("shein_export.xlsx"))
	assert.NoError(t, CheckFileName("TEMU.XLSX"))

	err := CheckFileName("export.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.Error(t, CheckFileName("export.xls"))
}

func TestTypedCell(t *testing.T) {
	assert.Equal(t, Number(12.5), typedCell(excelize.CellTypeUnset, "12.5"))
	assert.Equal(t, String("abc"), typedCell(excelize.CellTypeUnset, "abc"))
	assert.Equal(t, String("42"), typedCell(excelize.CellTypeSharedString, "42"))
	assert.Equal(t, Other("#DIV/0!"), typedCell(excelize.CellTypeError, "#DIV/0!"))
	assert.Equal(t, Bool(false), typedCell(excelize.CellTypeBool, "0"))
	assert.Equal(t,
		Date(time.Date(2025, 7, 2, 4, 0, 0, 0, time.UTC)),
		typedCell(excelize.CellTypeDate, "2025-07-02T04:00:00Z"),
	)
}
