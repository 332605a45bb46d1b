package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"shipment-kpi/internal/sheet"
	"shipment-kpi/internal/storage"
)

// Storage keeps the latest upload per slot for the lifetime of the process.
type Storage struct {
	mu      sync.RWMutex
	uploads map[sheet.Variant]*storage.Upload
}

func New() *Storage {
	return &Storage{uploads: make(map[sheet.Variant]*storage.Upload)}
}

// SaveUpload replaces whatever the slot held before.
func (s *Storage) SaveUpload(_ context.Context, u *storage.Upload) error {
	const op = "storage.memory.SaveUpload"

	if u == nil {
		return fmt.Errorf("%s: пустая загрузка", op)
	}
	if u.Extraction == nil {
		return fmt.Errorf("%s: нет разобранных данных для слота %s", op, u.Slot)
	}

	s.mu.Lock()
	s.uploads[u.Slot] = u
	s.mu.Unlock()

	return nil
}

func (s *Storage) GetUpload(_ context.Context, slot sheet.Variant) (*storage.Upload, error) {
	const op = "storage.memory.GetUpload"

	s.mu.RLock()
	u, ok := s.uploads[slot]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%s: слот %s: %w", op, slot, storage.ErrUploadNotFound)
	}
	return u, nil
}

// ListUploads returns uploads ordered by slot.
func (s *Storage) ListUploads(_ context.Context) ([]*storage.Upload, error) {
	s.mu.RLock()
	out := make([]*storage.Upload, 0, len(s.uploads))
	for _, u := range s.uploads {
		out = append(out, u)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *storage.Upload) int { return int(a.Slot) - int(b.Slot) })
	return out, nil
}

// DeleteUploads drops every slot and reports how many were removed.
func (s *Storage) DeleteUploads(_ context.Context) (int, error) {
	s.mu.Lock()
	n := len(s.uploads)
	s.uploads = make(map[sheet.Variant]*storage.Upload)
	s.mu.Unlock()

	return n, nil
}
