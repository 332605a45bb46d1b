package generate_excel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"shipment-kpi/http-server/params"
	"shipment-kpi/internal/service/generate-excel"
	"shipment-kpi/internal/service/kpi"
	"shipment-kpi/internal/sheet"
)

type GenerateExcelHandler interface {
	GenerateMetricExcel(ctx context.Context, req generate_excel.MetricReport) (*generate_excel.Report, error)
	GenerateMissingDataExcel(ctx context.Context, slot sheet.Variant, state kpi.FilterState) (*generate_excel.Report, error)
}

const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GenerateReportExcel выгружает строки показателя: все или одной корзины.
func GenerateReportExcel(log *slog.Logger, gen GenerateExcelHandler, defaults kpi.FilterState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.report.GenerateReportExcel"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		slot, err := params.Source(r)
		if err != nil {
			params.Fail(w, log, err, "Invalid source")
			return
		}
		metric, err := params.Metric(r)
		if err != nil {
			params.Fail(w, log, err, "Unknown metric")
			return
		}
		state, err := params.FilterState(r, defaults)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		req := generate_excel.MetricReport{Slot: slot, Metric: metric, State: state}

		if v := r.URL.Query().Get("bucket"); v != "" {
			b, err := kpi.ParseBucket(v)
			if err != nil {
				params.Fail(w, log, err, "Unknown bucket")
				return
			}
			req.Bucket = &b
		}
		if v := r.URL.Query().Get("summary"); v != "" {
			req.Summary, err = strconv.ParseBool(v)
			if err != nil {
				http.Error(w, "Invalid query parameter 'summary'", http.StatusBadRequest)
				return
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second) // На Excel можно побольше времени
		defer cancel()

		report, err := gen.GenerateMetricExcel(ctx, req)
		if err != nil {
			params.Fail(w, log, err, "Failed to generate excel")
			return
		}

		writeReport(w, log, report)
	}
}

func GenerateMissingDataExcel(log *slog.Logger, gen GenerateExcelHandler, defaults kpi.FilterState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.report.GenerateMissingDataExcel"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		slot, err := params.Source(r)
		if err != nil {
			params.Fail(w, log, err, "Invalid source")
			return
		}
		state, err := params.FilterState(r, defaults)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		report, err := gen.GenerateMissingDataExcel(ctx, slot, state)
		if err != nil {
			params.Fail(w, log, err, "Failed to generate excel")
			return
		}

		writeReport(w, log, report)
	}
}

func writeReport(w http.ResponseWriter, log *slog.Logger, report *generate_excel.Report) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Data)))
	if _, err := w.Write(report.Data); err != nil {
		log.Warn("failed to write excel", slog.String("error", err.Error()))
	}
}
