package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shipment-kpi/internal/storage"
)

type UploadLister interface {
	Uploads(ctx context.Context) ([]*storage.Upload, error)
}

type ResponseUploads struct {
	Uploads []*storage.Upload `json:"uploads"`
}

func GetUploads(log *slog.Logger, lister UploadLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.uploads.GetUploads"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		uploads, err := lister.Uploads(ctx)
		if err != nil {
			log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("error", err.Error()),
			).Error("Failed to list uploads")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, ResponseUploads{Uploads: uploads})
	}
}
