package reset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockUploadResetter struct {
	mock.Mock
}

func (m *MockUploadResetter) Reset(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func serve(resetter UploadResetter) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	DeleteUploads(slog.New(slog.NewTextHandler(io.Discard, nil)), resetter).
		ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/admin/uploads", nil))
	return rr
}

func TestDeleteUploads_Success(t *testing.T) {
	resetter := new(MockUploadResetter)
	resetter.On("Reset", mock.Anything).Return(2, nil)

	rr := serve(resetter)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"deleted":2}`, rr.Body.String())
	resetter.AssertExpectations(t)
}

func TestDeleteUploads_Error(t *testing.T) {
	resetter := new(MockUploadResetter)
	resetter.On("Reset", mock.Anything).Return(0, errors.New("boom"))

	rr := serve(resetter)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
