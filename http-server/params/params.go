package params

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"shipment-kpi/internal/service/kpi"
	"shipment-kpi/internal/sheet"
	"shipment-kpi/internal/storage"
)

const (
	dateLayout   = "2006-01-02"
	searchPrefix = "q."
)

// Source reads the slot from the "source" query parameter, primary by default.
func Source(r *http.Request) (sheet.Variant, error) {
	s := r.URL.Query().Get("source")
	if s == "" {
		return sheet.Primary, nil
	}
	return sheet.ParseVariant(s)
}

// Metric reads the {metric} path parameter.
func Metric(r *http.Request) (kpi.Metric, error) {
	return kpi.MetricByID(chi.URLParam(r, "metric"))
}

// FilterState накладывает параметры запроса на состояние по умолчанию.
// page применяется последним, чтобы остальные параметры его не сбросили.
func FilterState(r *http.Request, base kpi.FilterState) (kpi.FilterState, error) {
	q := r.URL.Query()
	state := base

	if v := q.Get("port"); v != "" {
		state = state.WithDimension(strings.ToUpper(strings.TrimSpace(v)))
	}
	if v := q.Get("category"); v != "" {
		state = state.WithCategory(strings.ToUpper(strings.TrimSpace(v)))
	}

	from, err := date(q.Get("from"))
	if err != nil {
		return state, fmt.Errorf("invalid from date: %w", err)
	}
	to, err := date(q.Get("to"))
	if err != nil {
		return state, fmt.Errorf("invalid to date: %w", err)
	}
	if !from.IsZero() || !to.IsZero() {
		if !from.IsZero() && !to.IsZero() && to.Before(from) {
			return state, errors.New("to date is before from date")
		}
		state = state.WithDateRange(from, to)
	}

	for key, values := range q {
		field, ok := strings.CutPrefix(key, searchPrefix)
		if !ok || field == "" || len(values) == 0 {
			continue
		}
		state = state.WithSearch(field, values[0])
	}

	if field := q.Get("sort"); field != "" {
		state.Sort = kpi.Sort{Field: field, Direction: kpi.ParseSortDirection(q.Get("dir"))}
		if state.Sort.Direction == kpi.SortNone {
			state.Sort.Direction = kpi.SortAsc
		}
	}
	if field := q.Get("toggle"); field != "" {
		state = state.ToggleSort(field)
	}

	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return state, fmt.Errorf("invalid page_size: %w", err)
		}
		state = state.WithPageSize(n)
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return state, fmt.Errorf("invalid page: %w", err)
		}
		state = state.WithPage(n)
	}

	return state, nil
}

func date(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// ErrorStatus maps service errors to a status code and a client message.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrUploadNotFound):
		return http.StatusNotFound, storage.ErrUploadNotFound.Error()
	case errors.Is(err, sheet.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, sheet.ErrUnsupportedFormat.Error()
	case errors.Is(err, kpi.ErrUnknownMetric),
		errors.Is(err, kpi.ErrUnknownBucket),
		errors.Is(err, sheet.ErrUnknownVariant):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// Fail logs err and writes the mapped status. Server errors go to Error level.
func Fail(w http.ResponseWriter, log *slog.Logger, err error, msg string) {
	code, text := ErrorStatus(err)
	if code >= http.StatusInternalServerError {
		log.Error(msg, slog.String("error", err.Error()))
	} else {
		log.Warn(msg, slog.String("error", err.Error()))
	}
	http.Error(w, text, code)
}
