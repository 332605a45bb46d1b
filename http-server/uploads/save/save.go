package save

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shipment-kpi/http-server/params"
	"shipment-kpi/internal/sheet"
	"shipment-kpi/internal/storage"
)

type Ingester interface {
	Ingest(ctx context.Context, slot sheet.Variant, fileName string, r io.Reader) (*storage.Upload, error)
}

const formField = "file"

// SaveUpload принимает multipart-файл и заменяет данные слота.
func SaveUpload(log *slog.Logger, ingester Ingester, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.uploads.SaveUpload"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		slot, err := sheet.ParseVariant(chi.URLParam(r, "slot"))
		if err != nil {
			params.Fail(w, log, err, "Unknown slot")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				log.Warn("Upload too large", slog.Int64("limit", maxBytes))
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			log.Warn("Invalid multipart form", slog.String("error", err.Error()))
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile(formField)
		if err != nil {
			log.Warn("Missing file in form", slog.String("error", err.Error()))
			http.Error(w, "Missing required form field 'file'", http.StatusBadRequest)
			return
		}
		defer file.Close()

		// на большие файлы разбор занимает заметное время
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		upload, err := ingester.Ingest(ctx, slot, header.Filename, file)
		if err != nil {
			params.Fail(w, log.With(slog.String("file_name", header.Filename)), err, "Upload rejected")
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, upload)
	}
}
