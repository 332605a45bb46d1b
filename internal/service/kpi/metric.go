package kpi

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shipment-kpi/internal/sheet"
)

var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrUnknownBucket = errors.New("unknown bucket")
)

const msPerHour = 3600 * 1000

// Metric: показатель как разница между двумя вехами, в часах.
type Metric struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Start Milestone `json:"-"`
	End   Milestone `json:"-"`
}

var (
	MetricDriver    = Metric{ID: "driver", Label: "ATA to Warehouse", Start: Arrival, End: WarehouseArrival}
	MetricWarehouse = Metric{ID: "warehouse", Label: "Final Release to ConsigntoFM", Start: FinalRelease, End: Consigned}
	MetricReleased  = Metric{ID: "released", Label: "ATA to Released", Start: Arrival, End: Release}
	MetricConsigned = Metric{ID: "consigned", Label: "ATA to ConsigntoFM", Start: Arrival, End: Consigned}
	MetricHandover  = Metric{ID: "handover", Label: "ATA to Handover", Start: Arrival, End: Handover}
)

// Metrics in display order.
var Metrics = []Metric{MetricDriver, MetricWarehouse, MetricReleased, MetricConsigned, MetricHandover}

func MetricByID(id string) (Metric, error) {
	for _, m := range Metrics {
		if m.ID == id {
			return m, nil
		}
	}
	return Metric{}, fmt.Errorf("%w: %q", ErrUnknownMetric, id)
}

// Delta returns the signed number of hours between the metric's milestones.
// Negative values are kept: they point at data-quality problems.
func (m Metric) Delta(r *Record) (float64, bool) {
	start, end := r.At(m.Start), r.At(m.End)
	if !start.Valid || !end.Valid {
		return 0, false
	}
	return hoursBetween(start.Time, end.Time), true
}

func hoursBetween(start, end time.Time) float64 {
	return float64(end.UnixMilli()-start.UnixMilli()) / msPerHour
}

// MetricRow: запись с посчитанным показателем.
type MetricRow struct {
	Record *Record         `json:"-"`
	Start  sheet.Timestamp `json:"start"`
	End    sheet.Timestamp `json:"end"`
	Hours  float64         `json:"hours"`
	Bucket Bucket          `json:"bucket"`
}

func (r MetricRow) Location() string   { return r.Record.Location }
func (r MetricRow) Identifier() string { return r.Record.Identifier }
func (r MetricRow) Category() string   { return r.Record.Category }

func (r MetricRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Location   string          `json:"port"`
		Identifier string          `json:"mawb_number"`
		Category   string          `json:"category"`
		Start      sheet.Timestamp `json:"start"`
		End        sheet.Timestamp `json:"end"`
		Hours      float64         `json:"hours"`
		Formatted  string          `json:"hours_formatted"`
		Bucket     Bucket          `json:"bucket"`
	}{
		Location:   r.Location(),
		Identifier: r.Identifier(),
		Category:   r.Category(),
		Start:      r.Start,
		End:        r.End,
		Hours:      r.Hours,
		Formatted:  FormatHours(r.Hours),
		Bucket:     r.Bucket,
	})
}

// Compute keeps only records where both milestones are present, in input order.
func Compute(records []Record, m Metric) []MetricRow {
	rows := make([]MetricRow, 0, len(records))
	for i := range records {
		rec := &records[i]
		hours, ok := m.Delta(rec)
		if !ok {
			continue
		}
		rows = append(rows, MetricRow{
			Record: rec,
			Start:  rec.At(m.Start),
			End:    rec.At(m.End),
			Hours:  hours,
			Bucket: Classify(hours),
		})
	}
	return rows
}

// FormatHours is the display form of a metric value.
func FormatHours(h float64) string {
	return fmt.Sprintf("%.2fh", h)
}

const displayLayout = "2006-01-02 15:04"

// FormatTimestamp prints a timestamp as-is, without converting the zone.
func FormatTimestamp(t sheet.Timestamp) string {
	if !t.Valid {
		return ""
	}
	return t.Time.UTC().Format(displayLayout)
}
