package storage

import (
	"errors"
	"time"

	"shipment-kpi/internal/service/kpi"
	"shipment-kpi/internal/sheet"
)

var ErrUploadNotFound = errors.New("no data uploaded")

// Upload: разобранный файл одного слота. После сохранения не меняется.
type Upload struct {
	ID         string          `json:"id"`
	Slot       sheet.Variant   `json:"slot"`
	FileName   string          `json:"file_name"`
	UploadedAt time.Time       `json:"uploaded_at"`
	Stats      kpi.Stats       `json:"stats"`
	Extraction *kpi.Extraction `json:"-"`
}
