package reset

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type UploadResetter interface {
	Reset(ctx context.Context) (int, error)
}

type ResponseDeleted struct {
	Deleted int `json:"deleted"`
}

// DeleteUploads сбрасывает все загруженные файлы.
func DeleteUploads(log *slog.Logger, resetter UploadResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.DeleteUploads"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		n, err := resetter.Reset(ctx)
		if err != nil {
			log.Error("Failed to drop uploads", slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		log.Info("Uploads dropped by admin", slog.Int("deleted", n))
		render.JSON(w, r, ResponseDeleted{Deleted: n})
	}
}
