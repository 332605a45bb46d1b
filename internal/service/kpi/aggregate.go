package kpi

import (
	"cmp"
	"math"
	"slices"
	"time"

	"shipment-kpi/internal/sheet"
)

type DimensionStat struct {
	Dimension string  `json:"port"`
	Mean      float64 `json:"average"`
	Count     int     `json:"count"`
	Median    float64 `json:"median"`
	P90       float64 `json:"p90"`
}

type group struct {
	key    string
	values []float64
}

// groupByLocation keeps groups in order of first appearance.
func groupByLocation(rows []MetricRow) []*group {
	index := make(map[string]*group)
	var groups []*group
	for _, r := range rows {
		g, ok := index[r.Location()]
		if !ok {
			g = &group{key: r.Location()}
			index[g.key] = g
			groups = append(groups, g)
		}
		g.values = append(g.values, r.Hours)
	}
	return groups
}

// AggregateByDimension returns per-port means, highest mean first.
func AggregateByDimension(rows []MetricRow) []DimensionStat {
	groups := groupByLocation(rows)
	out := make([]DimensionStat, 0, len(groups))
	for _, g := range groups {
		out = append(out, DimensionStat{
			Dimension: g.key,
			Mean:      mean(g.values),
			Count:     len(g.values),
			Median:    percentile(g.values, 50),
			P90:       percentile(g.values, 90),
		})
	}
	slices.SortStableFunc(out, func(a, b DimensionStat) int {
		if c := cmp.Compare(b.Mean, a.Mean); c != 0 {
			return c
		}
		return cmp.Compare(a.Dimension, b.Dimension)
	})
	return out
}

// OverallMean is 0 for an empty set.
func OverallMean(rows []MetricRow) float64 {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Hours
	}
	return mean(values)
}

type ThresholdStat struct {
	Dimension string  `json:"port"`
	Below     int     `json:"below"`
	Count     int     `json:"count"`
	Percent   float64 `json:"percent"`
}

type ThresholdReport struct {
	Threshold float64         `json:"threshold_hours"`
	Overall   ThresholdStat   `json:"overall"`
	Ports     []ThresholdStat `json:"ports"`
}

// AggregateBelowThreshold counts, per port, rows strictly below the threshold.
func AggregateBelowThreshold(rows []MetricRow, threshold float64) ThresholdReport {
	rep := ThresholdReport{
		Threshold: threshold,
		Overall:   ThresholdStat{Dimension: All},
		Ports:     make([]ThresholdStat, 0),
	}
	for _, g := range groupByLocation(rows) {
		st := ThresholdStat{Dimension: g.key, Count: len(g.values)}
		for _, v := range g.values {
			if v < threshold {
				st.Below++
			}
		}
		st.Percent = percentOf(st.Below, st.Count)
		rep.Overall.Below += st.Below
		rep.Overall.Count += st.Count
		rep.Ports = append(rep.Ports, st)
	}
	rep.Overall.Percent = percentOf(rep.Overall.Below, rep.Overall.Count)

	slices.SortStableFunc(rep.Ports, func(a, b ThresholdStat) int {
		if c := cmp.Compare(b.Percent, a.Percent); c != 0 {
			return c
		}
		return cmp.Compare(a.Dimension, b.Dimension)
	})
	return rep
}

// DimensionOptions lists ALL, then preferred ports present in data, then the rest sorted.
func DimensionOptions(records []Record, preferred []string) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		seen[r.Location] = true
	}
	out := []string{All}
	for _, p := range preferred {
		if seen[p] {
			out = append(out, p)
			delete(seen, p)
		}
	}
	rest := make([]string, 0, len(seen))
	for p := range seen {
		rest = append(rest, p)
	}
	slices.Sort(rest)
	return append(out, rest...)
}

// CategoryOptions lists ALL plus the recognised categories found in data.
func CategoryOptions(records []Record) []string {
	var has01, has86 bool
	for _, r := range records {
		switch r.Category {
		case CategoryT01:
			has01 = true
		case CategoryT86:
			has86 = true
		}
	}
	out := []string{All}
	if has01 {
		out = append(out, CategoryT01)
	}
	if has86 {
		out = append(out, CategoryT86)
	}
	return out
}

// DefaultDateRange is floor..latest arrival day on or after the floor.
// Without arrivals the range ends today.
func DefaultDateRange(records []Record, floor, today time.Time) (time.Time, time.Time) {
	from := sheet.DateOnly(floor)
	var latest time.Time
	for i := range records {
		ata := records[i].At(Arrival)
		if !ata.Valid || ata.Time.Before(floor) {
			continue
		}
		if ata.Time.After(latest) {
			latest = ata.Time
		}
	}
	if latest.IsZero() {
		return from, sheet.DateOnly(today)
	}
	return from, sheet.DateOnly(latest)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// percentile: ближайший ранг по отсортированной копии
func percentile(values []float64, p int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	rank := int(math.Ceil(float64(p) / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

func percentOf(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round(float64(part)/float64(total)*100, 2)
}

func Round(v float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.Round(v*scale) / scale
}
