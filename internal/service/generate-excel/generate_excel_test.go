package generate_excel

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shipment-kpi/internal/service/kpi"
	"shipment-kpi/internal/sheet"
)

type MockReportSource struct {
	mock.Mock
}

func (m *MockReportSource) MetricRows(ctx context.Context, slot sheet.Variant, metric kpi.Metric, b *kpi.Bucket, state kpi.FilterState) ([]kpi.MetricRow, error) {
	args := m.Called(ctx, slot, metric, b, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]kpi.MetricRow), args.Error(1)
}

func (m *MockReportSource) QualityRows(ctx context.Context, slot sheet.Variant, state kpi.FilterState) ([]kpi.StatusEntry, []kpi.MissingEntry, error) {
	args := m.Called(ctx, slot, state)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]kpi.StatusEntry), args.Get(1).([]kpi.MissingEntry), args.Error(2)
}

func metricRow(port, mawb string, hours float64) kpi.MetricRow {
	start := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	return kpi.MetricRow{
		Record: &kpi.Record{Location: port, Identifier: mawb, Category: kpi.CategoryT01},
		Start:  sheet.At(start),
		End:    sheet.At(start.Add(time.Duration(hours * float64(time.Hour)))),
		Hours:  hours,
		Bucket: kpi.Classify(hours),
	}
}

func sampleRows() []kpi.MetricRow {
	return []kpi.MetricRow{
		metricRow("ORD", "176-1", -6),
		metricRow("LAX", "176-2", 12.345678),
		metricRow("ORD", "176-3", 80.5),
	}
}

func TestWriteMetricWorkbook_RoundTrip(t *testing.T) {
	rows := sampleRows()

	f, err := WriteMetricWorkbook(kpi.MetricDriver, rows, false)
	require.NoError(t, err)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	grid, err := sheet.ReadGrid(buf)
	require.NoError(t, err)
	require.Len(t, grid, len(rows)+1)

	header := grid[0]
	assert.Equal(t, "POE", header.At(0).Text())
	assert.Equal(t, "MAWB Number", header.At(1).Text())
	assert.Equal(t, "ATA to Warehouse (hours)", header.At(5).Text())
	assert.Equal(t, "ATA to Warehouse (formatted)", header.At(6).Text())

	for i, r := range rows {
		got := grid[i+1]
		assert.Equal(t, r.Location(), got.At(0).Text())
		assert.Equal(t, r.Identifier(), got.At(1).Text())
		assert.Equal(t, sheet.KindNumber, got.At(5).Kind)
		assert.Equal(t, r.Hours, got.At(5).Number)
		assert.Equal(t, kpi.FormatHours(r.Hours), got.At(6).Text())
	}
}

func TestWriteMetricWorkbook_Summary(t *testing.T) {
	f, err := WriteMetricWorkbook(kpi.MetricWarehouse, sampleRows(), true)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Final Release to ConsigntoFM", summarySheet}, f.GetSheetList())

	rows, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"KPI Type", "POE", "Average Hours", "Record Count"}, rows[0])
	assert.Equal(t, []string{"Final Release to ConsigntoFM", kpi.All, "28.95", "3"}, rows[1])
	assert.Equal(t, "ORD", rows[2][1])
	assert.Equal(t, "37.25", rows[2][2])
	assert.Equal(t, "LAX", rows[3][1])
}

func TestWriteQualityWorkbook(t *testing.T) {
	status := []kpi.StatusEntry{{Location: "ORD", Identifier: "1", Category: kpi.CategoryT01}}
	missing := []kpi.MissingEntry{{
		Location:   "LAX",
		Identifier: "2",
		Category:   kpi.CategoryT01,
		Created:    sheet.At(time.Date(2025, 7, 2, 8, 30, 0, 0, time.UTC)),
		Missing:    []string{"Handover", "Release"},
	}}

	f, err := WriteQualityWorkbook(status, missing)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(statusSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"POE", "MAWB Number", "Category"}, {"ORD", "1", "T01"}}, rows)

	rows, err = f.GetRows(missingSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"LAX", "2", "T01", "2025-07-02 08:30", "Handover, Release"}, rows[1])
}

func TestGenerateMetricExcel(t *testing.T) {
	src := new(MockReportSource)
	bucket := kpi.BucketNegative
	state := kpi.DefaultFilterState(30)
	src.On("MetricRows", mock.Anything, sheet.Primary, kpi.MetricDriver, &bucket, state).
		Return(sampleRows()[:1], nil)

	svc := NewGenerateService(src)
	svc.now = func() time.Time { return time.Date(2025, 8, 3, 9, 0, 0, 0, time.UTC) }

	rep, err := svc.GenerateMetricExcel(context.Background(), MetricReport{
		Slot:   sheet.Primary,
		Metric: kpi.MetricDriver,
		Bucket: &bucket,
		State:  state,
	})
	require.NoError(t, err)

	assert.Equal(t, "ATA_to_Warehouse_lessThanZero_2025-08-03.xlsx", rep.FileName)
	f, err := excelize.OpenReader(bytes.NewReader(rep.Data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"ATA to Warehouse"}, f.GetSheetList())
	src.AssertExpectations(t)
}

func TestGenerateMetricExcel_SourceError(t *testing.T) {
	src := new(MockReportSource)
	src.On("MetricRows", mock.Anything, sheet.Secondary, kpi.MetricHandover, (*kpi.Bucket)(nil), mock.Anything).
		Return(nil, errors.New("no data uploaded"))

	_, err := NewGenerateService(src).GenerateMetricExcel(context.Background(), MetricReport{
		Slot:   sheet.Secondary,
		Metric: kpi.MetricHandover,
	})

	assert.Error(t, err)
	src.AssertExpectations(t)
}

func TestGenerateMissingDataExcel(t *testing.T) {
	src := new(MockReportSource)
	src.On("QualityRows", mock.Anything, sheet.Primary, mock.Anything).
		Return([]kpi.StatusEntry{}, []kpi.MissingEntry{}, nil)

	svc := NewGenerateService(src)
	svc.now = func() time.Time { return time.Date(2025, 8, 3, 9, 0, 0, 0, time.UTC) }

	rep, err := svc.GenerateMissingDataExcel(context.Background(), sheet.Primary, kpi.DefaultFilterState(30))
	require.NoError(t, err)
	assert.Equal(t, "Missing_Data_2025-08-03.xlsx", rep.FileName)
	assert.NotEmpty(t, rep.Data)
}

func TestFileName(t *testing.T) {
	date := time.Date(2025, 7, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "ATA_to_ConsigntoFM_2025-07-09.xlsx", FileName("ATA to ConsigntoFM", date))
	assert.Equal(t, "Final_Release_to_ConsigntoFM_2025-07-09.xlsx", FileName("Final Release to  ConsigntoFM", date))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "ab", sheetName("a/b"))
	assert.Len(t, []rune(sheetName("a very long label that does not fit in a sheet tab")), maxSheetName)
	assert.Equal(t, "Sheet1", sheetName("[]"))
}
