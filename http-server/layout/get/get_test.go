package get

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipment-kpi/internal/sheet"
)

func serve(target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/api/layout/{variant}", GetLayout(slog.New(slog.NewTextHandler(io.Discard, nil))))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestGetLayout(t *testing.T) {
	rr := serve("/api/layout/temu")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Variant string        `json:"variant"`
		Pivot   int           `json:"pivot"`
		Columns sheet.Columns `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	assert.Equal(t, "secondary", body.Variant)
	assert.Equal(t, sheet.Pivot, body.Pivot)
	assert.Equal(t, sheet.ResolveColumns(sheet.Secondary), body.Columns)
	assert.Equal(t, 11, body.Columns.Release)
}

func TestGetLayout_Unknown(t *testing.T) {
	rr := serve("/api/layout/amazon")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
