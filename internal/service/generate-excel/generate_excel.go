package generate_excel

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"shipment-kpi/internal/service/kpi"
	"shipment-kpi/internal/sheet"
)

type ReportSource interface {
	MetricRows(ctx context.Context, slot sheet.Variant, m kpi.Metric, b *kpi.Bucket, state kpi.FilterState) ([]kpi.MetricRow, error)
	QualityRows(ctx context.Context, slot sheet.Variant, state kpi.FilterState) ([]kpi.StatusEntry, []kpi.MissingEntry, error)
}

type GenerateExcelService struct {
	source ReportSource
	now    func() time.Time
}

func NewGenerateService(source ReportSource) *GenerateExcelService {
	return &GenerateExcelService{source: source, now: time.Now}
}

type MetricReport struct {
	Slot    sheet.Variant
	Metric  kpi.Metric
	Bucket  *kpi.Bucket
	Summary bool
	State   kpi.FilterState
}

type Report struct {
	FileName string
	Data     []byte
}

const (
	summarySheet = "Summary"
	statusSheet  = "Status Check"
	missingSheet = "Missing Milestones"
	maxSheetName = 31
)

func (g *GenerateExcelService) GenerateMetricExcel(ctx context.Context, req MetricReport) (*Report, error) {
	const op = "service.generate_excel.GenerateMetricExcel"

	rows, err := g.source.MetricRows(ctx, req.Slot, req.Metric, req.Bucket, req.State)
	if err != nil {
		return nil, fmt.Errorf("%s: получение строк: %w", op, err)
	}

	f, err := WriteMetricWorkbook(req.Metric, rows, req.Summary)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	name := req.Metric.Label
	if req.Bucket != nil {
		name += " " + req.Bucket.String()
	}
	return &Report{FileName: FileName(name, g.now()), Data: buf.Bytes()}, nil
}

func (g *GenerateExcelService) GenerateMissingDataExcel(ctx context.Context, slot sheet.Variant, state kpi.FilterState) (*Report, error) {
	const op = "service.generate_excel.GenerateMissingDataExcel"

	status, missing, err := g.source.QualityRows(ctx, slot, state)
	if err != nil {
		return nil, fmt.Errorf("%s: получение строк: %w", op, err)
	}

	f, err := WriteQualityWorkbook(status, missing)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Report{FileName: FileName("Missing Data", g.now()), Data: buf.Bytes()}, nil
}

// WriteMetricWorkbook puts the rows on a sheet named after the metric and,
// when asked, adds a Summary sheet with the ALL row first.
func WriteMetricWorkbook(m kpi.Metric, rows []kpi.MetricRow, summary bool) (*excelize.File, error) {
	f := excelize.NewFile()

	name := sheetName(m.Label)
	if err := f.SetSheetName("Sheet1", name); err != nil {
		f.Close()
		return nil, err
	}

	headers := []any{
		"POE",
		"MAWB Number",
		"Category",
		m.Start.String(),
		m.End.String(),
		m.Label + " (hours)",
		m.Label + " (formatted)",
	}
	data := make([][]any, 0, len(rows))
	for _, r := range rows {
		data = append(data, []any{
			r.Location(),
			r.Identifier(),
			r.Category(),
			kpi.FormatTimestamp(r.Start),
			kpi.FormatTimestamp(r.End),
			r.Hours,
			kpi.FormatHours(r.Hours),
		})
	}
	if err := writeTable(f, name, headers, data); err != nil {
		f.Close()
		return nil, err
	}

	if summary {
		if _, err := f.NewSheet(summarySheet); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeTable(f, summarySheet, []any{"KPI Type", "POE", "Average Hours", "Record Count"}, summaryRows(m, rows)); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

func summaryRows(m kpi.Metric, rows []kpi.MetricRow) [][]any {
	out := [][]any{{m.Label, kpi.All, kpi.Round(kpi.OverallMean(rows), 2), len(rows)}}
	for _, st := range kpi.AggregateByDimension(rows) {
		out = append(out, []any{m.Label, st.Dimension, kpi.Round(st.Mean, 2), st.Count})
	}
	return out
}

// WriteQualityWorkbook: две таблицы проверки данных на отдельных листах.
func WriteQualityWorkbook(status []kpi.StatusEntry, missing []kpi.MissingEntry) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", statusSheet); err != nil {
		f.Close()
		return nil, err
	}

	statusData := make([][]any, 0, len(status))
	for _, e := range status {
		statusData = append(statusData, []any{e.Location, e.Identifier, e.Category})
	}
	if err := writeTable(f, statusSheet, []any{"POE", "MAWB Number", "Category"}, statusData); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(missingSheet); err != nil {
		f.Close()
		return nil, err
	}
	missingData := make([][]any, 0, len(missing))
	for _, e := range missing {
		missingData = append(missingData, []any{
			e.Location,
			e.Identifier,
			e.Category,
			kpi.FormatTimestamp(e.Created),
			e.MissingList(),
		})
	}
	headers := []any{"POE", "MAWB Number", "Category", "Created", "Missing Columns"}
	if err := writeTable(f, missingSheet, headers, missingData); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func writeTable(f *excelize.File, name string, headers []any, rows [][]any) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return err
	}
	lastCol := cellName(len(headers), 1)
	if err := f.SetCellStyle(name, "A1", lastCol, headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		if err := f.SetSheetRow(name, cellName(1, i+2), &row); err != nil {
			return err
		}
	}

	// закрепляем шапку
	if err := f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	lastLetter, _ := excelize.ColumnNumberToName(len(headers))
	return f.SetColWidth(name, "A", lastLetter, 20)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// FileName builds "<label_with_underscores>_<YYYY-MM-DD>.xlsx".
func FileName(label string, date time.Time) string {
	base := strings.Join(strings.Fields(label), "_")
	return fmt.Sprintf("%s_%s.xlsx", base, date.Format("2006-01-02"))
}

// sheetName drops characters Excel forbids and keeps the 31 rune limit.
func sheetName(label string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return -1
		}
		return r
	}, label)
	if utf8.RuneCountInString(name) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	if name == "" {
		return "Sheet1"
	}
	return name
}
