package get

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"shipment-kpi/http-server/params"
	"shipment-kpi/internal/sheet"
)

type ResponseLayout struct {
	Variant sheet.Variant `json:"variant"`
	Pivot   int           `json:"pivot"`
	Columns sheet.Columns `json:"columns"`
}

// GetLayout отдает таблицу колонок выгрузки для варианта.
func GetLayout(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.layout.GetLayout"

		variant, err := sheet.ParseVariant(chi.URLParam(r, "variant"))
		if err != nil {
			params.Fail(w, log.With(slog.String("op", op)), err, "Unknown variant")
			return
		}

		render.JSON(w, r, ResponseLayout{
			Variant: variant,
			Pivot:   sheet.Pivot,
			Columns: sheet.ResolveColumns(variant),
		})
	}
}
