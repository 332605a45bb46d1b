package get

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shipment-kpi/http-server/params"
	"shipment-kpi/internal/service/dashboard"
	"shipment-kpi/internal/service/kpi"
	"shipment-kpi/internal/sheet"
)

type KPIReader interface {
	DefaultState() kpi.FilterState
	Overview(ctx context.Context, slot sheet.Variant) (*dashboard.Overview, error)
	Buckets(ctx context.Context, slot sheet.Variant, m kpi.Metric, state kpi.FilterState) (*dashboard.BucketSummary, error)
	BucketPage(ctx context.Context, slot sheet.Variant, m kpi.Metric, b kpi.Bucket, state kpi.FilterState) (*dashboard.BucketPage, error)
	Average(ctx context.Context, slot sheet.Variant, m kpi.Metric, state kpi.FilterState) (*dashboard.AverageView, error)
	Threshold(ctx context.Context, slot sheet.Variant, m kpi.Metric, state kpi.FilterState, hours float64) (*kpi.ThresholdReport, error)
}

const defaultThreshold = 48

// request: общие параметры: источник, показатель и состояние таблицы.
type request struct {
	slot   sheet.Variant
	metric kpi.Metric
	state  kpi.FilterState
}

func parse(w http.ResponseWriter, r *http.Request, log *slog.Logger, reader KPIReader) (request, bool) {
	var (
		req request
		err error
	)

	if req.slot, err = params.Source(r); err != nil {
		params.Fail(w, log, err, "Invalid source")
		return req, false
	}
	if req.metric, err = params.Metric(r); err != nil {
		params.Fail(w, log, err, "Unknown metric")
		return req, false
	}
	if req.state, err = params.FilterState(r, reader.DefaultState()); err != nil {
		log.Warn("Invalid filter parameters", slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func logger(log *slog.Logger, op string, r *http.Request) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func GetOverview(log *slog.Logger, reader KPIReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.kpi.GetOverview"
		log := logger(log, op, r)

		slot, err := params.Source(r)
		if err != nil {
			params.Fail(w, log, err, "Invalid source")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		overview, err := reader.Overview(ctx, slot)
		if err != nil {
			params.Fail(w, log, err, "Failed to build overview")
			return
		}

		render.JSON(w, r, overview)
	}
}

func GetBuckets(log *slog.Logger, reader KPIReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.kpi.GetBuckets"
		log := logger(log, op, r)

		req, ok := parse(w, r, log, reader)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		summary, err := reader.Buckets(ctx, req.slot, req.metric, req.state)
		if err != nil {
			params.Fail(w, log, err, "Failed to count buckets")
			return
		}

		render.JSON(w, r, summary)
	}
}

func GetBucketPage(log *slog.Logger, reader KPIReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.kpi.GetBucketPage"
		log := logger(log, op, r)

		req, ok := parse(w, r, log, reader)
		if !ok {
			return
		}

		bucket, err := kpi.ParseBucket(chi.URLParam(r, "bucket"))
		if err != nil {
			params.Fail(w, log, err, "Unknown bucket")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		page, err := reader.BucketPage(ctx, req.slot, req.metric, bucket, req.state)
		if err != nil {
			params.Fail(w, log, err, "Failed to fetch bucket rows")
			return
		}

		render.JSON(w, r, page)
	}
}

func GetAverage(log *slog.Logger, reader KPIReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.kpi.GetAverage"
		log := logger(log, op, r)

		req, ok := parse(w, r, log, reader)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		view, err := reader.Average(ctx, req.slot, req.metric, req.state)
		if err != nil {
			params.Fail(w, log, err, "Failed to compute averages")
			return
		}

		render.JSON(w, r, view)
	}
}

func GetThreshold(log *slog.Logger, reader KPIReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.kpi.GetThreshold"
		log := logger(log, op, r)

		req, ok := parse(w, r, log, reader)
		if !ok {
			return
		}

		hours := float64(defaultThreshold)
		if v := r.URL.Query().Get("hours"); v != "" {
			h, err := strconv.ParseFloat(v, 64)
			if err != nil || math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 {
				log.Warn("Invalid threshold", slog.String("hours", v))
				http.Error(w, "Invalid query parameter 'hours'", http.StatusBadRequest)
				return
			}
			hours = h
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		report, err := reader.Threshold(ctx, req.slot, req.metric, req.state, hours)
		if err != nil {
			params.Fail(w, log, err, "Failed to compute threshold compliance")
			return
		}

		render.JSON(w, r, report)
	}
}
