package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shipment-kpi/http-server/params"
	"shipment-kpi/internal/service/dashboard"
	"shipment-kpi/internal/service/kpi"
	"shipment-kpi/internal/sheet"
)

type QualityReader interface {
	DefaultState() kpi.FilterState
	Quality(ctx context.Context, slot sheet.Variant, state kpi.FilterState) (*dashboard.QualityView, error)
}

// GetMissingData отдает обе таблицы проверки: флаг статуса и пропущенные вехи T01.
func GetMissingData(log *slog.Logger, reader QualityReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.missing_data.GetMissingData"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		slot, err := params.Source(r)
		if err != nil {
			params.Fail(w, log, err, "Invalid source")
			return
		}

		state, err := params.FilterState(r, reader.DefaultState())
		if err != nil {
			log.Warn("Invalid filter parameters", slog.String("error", err.Error()))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		view, err := reader.Quality(ctx, slot, state)
		if err != nil {
			params.Fail(w, log, err, "Failed to run data checks")
			return
		}

		render.JSON(w, r, view)
	}
}
