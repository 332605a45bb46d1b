// Package sheet turns a spreadsheet export into a typed grid and normalises its cells.
package sheet

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindString
	KindDate
	KindBool
	KindOther
)

// Cell: сырое значение ячейки в том виде, в котором оно пришло из файла.
type Cell struct {
	Kind   Kind
	Number float64
	String string
	Date   time.Time
	Bool   bool
}

type Row []Cell

// Grid: первый лист файла. nil-строка считается битой и пропускается при разборе.
type Grid []Row

func Empty() Cell { return Cell{} }

func Number(v float64) Cell { return Cell{Kind: KindNumber, Number: v} }

func String(v string) Cell { return Cell{Kind: KindString, String: v} }

func Date(v time.Time) Cell { return Cell{Kind: KindDate, Date: v} }

func Bool(v bool) Cell { return Cell{Kind: KindBool, Bool: v} }

func Other(raw string) Cell { return Cell{Kind: KindOther, String: raw} }

// At returns the cell at i, or an empty cell past the end of a short row.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// Text renders the cell the way it is shown in a code column.
// Zero numbers, false and empty cells render as "".
func (c Cell) Text() string {
	switch c.Kind {
	case KindNumber:
		if c.Number == 0 || math.IsNaN(c.Number) {
			return ""
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case KindString, KindOther:
		return c.String
	case KindDate:
		if c.Date.IsZero() {
			return ""
		}
		return c.Date.UTC().Format(time.RFC3339)
	case KindBool:
		if !c.Bool {
			return ""
		}
		return "true"
	default:
		return ""
	}
}

// IsEmpty is the emptiness rule of the missing-milestone check.
// Unlike NormalizeDate a numeric zero is a value here.
func IsEmpty(c Cell) bool {
	switch c.Kind {
	case KindEmpty:
		return true
	case KindString, KindOther:
		return strings.TrimSpace(c.String) == ""
	default:
		return false
	}
}

// Timestamp: момент времени без часового пояса. Valid=false означает "нет даты".
type Timestamp struct {
	Time  time.Time
	Valid bool
}

var Absent = Timestamp{}

func At(t time.Time) Timestamp {
	return Timestamp{Time: t, Valid: true}
}

func (t Timestamp) Before(o Timestamp) bool {
	return t.Valid && o.Valid && t.Time.Before(o.Time)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}

const (
	// serial 25569 = 1970-01-01 в системе дат 1900
	unixEpochSerial = 25569
	msPerDay        = 86400 * 1000
	// предел представимых дат, ±100 000 000 дней от эпохи
	maxEpochMs = 8.64e15
)

// NormalizeDate converts any cell into a timestamp. It never fails: unusable
// input yields Absent.
func NormalizeDate(c Cell) Timestamp {
	switch c.Kind {
	case KindDate:
		if c.Date.IsZero() {
			return Absent
		}
		return At(c.Date.UTC())
	case KindNumber:
		return fromSerial(c.Number)
	case KindString:
		if c.String == "" {
			return Absent
		}
		t, err := dateparse.ParseIn(strings.TrimSpace(c.String), time.UTC)
		if err != nil {
			return Absent
		}
		return At(t.UTC())
	default:
		return Absent
	}
}

func fromSerial(v float64) Timestamp {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return Absent
	}
	ms := math.Trunc((v - unixEpochSerial) * msPerDay)
	if math.Abs(ms) > maxEpochMs {
		return Absent
	}
	return At(time.UnixMilli(int64(ms)).UTC())
}

// DateOnly truncates a timestamp to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
