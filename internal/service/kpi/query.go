package kpi

import (
	"cmp"
	"maps"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"shipment-kpi/internal/sheet"
)

type SortDirection int

const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

func (d SortDirection) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	default:
		return ""
	}
}

func (d SortDirection) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ParseSortDirection treats anything unknown as unsorted.
func ParseSortDirection(s string) SortDirection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return SortAsc
	case "desc":
		return SortDesc
	default:
		return SortNone
	}
}

type Sort struct {
	Field     string        `json:"field,omitempty"`
	Direction SortDirection `json:"direction"`
}

// Toggle cycles the same field through asc, desc and back to unsorted.
// Another field starts at asc.
func (s Sort) Toggle(field string) Sort {
	if s.Field != field || s.Direction == SortNone {
		return Sort{Field: field, Direction: SortAsc}
	}
	if s.Direction == SortAsc {
		return Sort{Field: field, Direction: SortDesc}
	}
	return Sort{}
}

const DefaultPageSize = 30

var PageSizes = []int{10, 20, 25, 30, 50, 100, 200, 500}

func ValidPageSize(n int) bool {
	return slices.Contains(PageSizes, n)
}

// FilterState: состояние одной таблицы. Значение неизменяемое: переходы
// возвращают копию.
type FilterState struct {
	Dimension string            `json:"port"`
	Category  string            `json:"category"`
	From      time.Time         `json:"from"`
	To        time.Time         `json:"to"`
	Search    map[string]string `json:"search,omitempty"`
	Sort      Sort              `json:"sort"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
}

func DefaultFilterState(pageSize int) FilterState {
	if !ValidPageSize(pageSize) {
		pageSize = DefaultPageSize
	}
	return FilterState{
		Dimension: All,
		Category:  All,
		Page:      1,
		PageSize:  pageSize,
	}
}

func (s FilterState) clone() FilterState {
	s.Search = maps.Clone(s.Search)
	s.Page = 1
	return s
}

func (s FilterState) WithDimension(d string) FilterState {
	n := s.clone()
	n.Dimension = d
	return n
}

func (s FilterState) WithCategory(c string) FilterState {
	n := s.clone()
	n.Category = c
	return n
}

// WithDateRange takes zero times as open bounds.
func (s FilterState) WithDateRange(from, to time.Time) FilterState {
	n := s.clone()
	n.From, n.To = from, to
	return n
}

func (s FilterState) WithSearch(field, value string) FilterState {
	n := s.clone()
	if n.Search == nil {
		n.Search = make(map[string]string)
	}
	if value == "" {
		delete(n.Search, field)
	} else {
		n.Search[field] = value
	}
	return n
}

func (s FilterState) ToggleSort(field string) FilterState {
	n := s.clone()
	n.Sort = s.Sort.Toggle(field)
	return n
}

func (s FilterState) WithPageSize(size int) FilterState {
	n := s.clone()
	if ValidPageSize(size) {
		n.PageSize = size
	}
	return n
}

func (s FilterState) WithPage(p int) FilterState {
	s.Search = maps.Clone(s.Search)
	s.Page = p
	return s
}

// Schema describes how a row type is filtered and sorted. Nil accessors
// disable the matching filter.
type Schema[T any] struct {
	Dimension func(T) string
	Category  func(T) string
	Date      func(T) (time.Time, bool)
	Text      map[string]func(T) string
	Compare   map[string]func(a, b T) int

	// KeepUndated пропускает строки без даты через фильтр по периоду.
	KeepUndated bool
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	TotalCount int `json:"total_count"`
}

// Run filters, sorts and paginates rows. The input slice is left untouched.
func Run[T any](rows []T, state FilterState, schema Schema[T]) Page[T] {
	return paginate(Select(rows, state, schema), state.Page, state.PageSize)
}

// Select applies filters and sort of the state without paging.
func Select[T any](rows []T, state FilterState, schema Schema[T]) []T {
	fold := cases.Fold()
	needles := make(map[string]string, len(state.Search))
	for field, v := range state.Search {
		if v = strings.TrimSpace(v); v != "" && schema.Text[field] != nil {
			needles[field] = fold.String(v)
		}
	}

	filtered := make([]T, 0, len(rows))
	for _, row := range rows {
		if matches(row, state, schema, needles, fold) {
			filtered = append(filtered, row)
		}
	}

	if state.Sort.Direction != SortNone {
		if less := comparator(schema, state.Sort.Field); less != nil {
			slices.SortStableFunc(filtered, func(a, b T) int {
				if state.Sort.Direction == SortDesc {
					return less(b, a)
				}
				return less(a, b)
			})
		}
	}

	return filtered
}

func matches[T any](row T, state FilterState, schema Schema[T], needles map[string]string, fold cases.Caser) bool {
	if schema.Dimension != nil && state.Dimension != "" && state.Dimension != All {
		if !strings.EqualFold(schema.Dimension(row), state.Dimension) {
			return false
		}
	}
	if schema.Category != nil && state.Category != "" && state.Category != All {
		if !strings.EqualFold(schema.Category(row), state.Category) {
			return false
		}
	}
	if schema.Date != nil && (!state.From.IsZero() || !state.To.IsZero()) {
		t, ok := schema.Date(row)
		if !ok && !schema.KeepUndated {
			return false
		}
		if ok && !InDayRange(t, state.From, state.To) {
			return false
		}
	}
	for field, needle := range needles {
		if !strings.Contains(fold.String(schema.Text[field](row)), needle) {
			return false
		}
	}
	return true
}

// InDayRange compares UTC calendar days only, both ends inclusive.
func InDayRange(t, from, to time.Time) bool {
	day := sheet.DateOnly(t)
	if !from.IsZero() && day.Before(sheet.DateOnly(from)) {
		return false
	}
	if !to.IsZero() && day.After(sheet.DateOnly(to)) {
		return false
	}
	return true
}

func comparator[T any](schema Schema[T], field string) func(a, b T) int {
	if c := schema.Compare[field]; c != nil {
		return c
	}
	if text := schema.Text[field]; text != nil {
		return func(a, b T) int { return cmp.Compare(text(a), text(b)) }
	}
	return nil
}

func paginate[T any](rows []T, page, size int) Page[T] {
	if !ValidPageSize(size) {
		size = DefaultPageSize
	}
	total := len(rows)
	pages := (total + size - 1) / size
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	start := min((page-1)*size, total)
	end := min(start+size, total)

	items := make([]T, end-start)
	copy(items, rows[start:end])
	return Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
		TotalCount: total,
	}
}

func compareTimestamps(a, b sheet.Timestamp) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	}
	return a.Time.Compare(b.Time)
}

// MetricSchema filters metric rows; the date range applies to the start milestone.
var MetricSchema = Schema[MetricRow]{
	Dimension: MetricRow.Location,
	Category:  MetricRow.Category,
	Date: func(r MetricRow) (time.Time, bool) {
		return r.Start.Time, r.Start.Valid
	},
	Text: map[string]func(MetricRow) string{
		"port":        MetricRow.Location,
		"mawb_number": MetricRow.Identifier,
		"category":    MetricRow.Category,
		"start":       func(r MetricRow) string { return FormatTimestamp(r.Start) },
		"end":         func(r MetricRow) string { return FormatTimestamp(r.End) },
		"hours":       func(r MetricRow) string { return FormatHours(r.Hours) },
	},
	Compare: map[string]func(a, b MetricRow) int{
		"start": func(a, b MetricRow) int { return compareTimestamps(a.Start, b.Start) },
		"end":   func(a, b MetricRow) int { return compareTimestamps(a.End, b.End) },
		"hours": func(a, b MetricRow) int { return cmp.Compare(a.Hours, b.Hours) },
	},
}

var StatusSchema = Schema[StatusEntry]{
	Dimension: func(e StatusEntry) string { return e.Location },
	Category:  func(e StatusEntry) string { return e.Category },
	Text: map[string]func(StatusEntry) string{
		"port":        func(e StatusEntry) string { return e.Location },
		"mawb_number": func(e StatusEntry) string { return e.Identifier },
		"category":    func(e StatusEntry) string { return e.Category },
	},
}

// MissingSchema filters by port only: every entry is T01.
var MissingSchema = Schema[MissingEntry]{
	Dimension: func(e MissingEntry) string { return e.Location },
	Date: func(e MissingEntry) (time.Time, bool) {
		return e.Created.Time, e.Created.Valid
	},
	Text: map[string]func(MissingEntry) string{
		"port":        func(e MissingEntry) string { return e.Location },
		"mawb_number": func(e MissingEntry) string { return e.Identifier },
		"created":     func(e MissingEntry) string { return FormatTimestamp(e.Created) },
		"missing":     MissingEntry.MissingList,
	},
	Compare: map[string]func(a, b MissingEntry) int{
		"created": func(a, b MissingEntry) int { return compareTimestamps(a.Created, b.Created) },
		"missing": func(a, b MissingEntry) int { return cmp.Compare(len(a.Missing), len(b.Missing)) },
	},
	KeepUndated: true,
}
