package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manash/adhook/pkg/models"
)

// Memory keeps records in process. It backs local development and tests.
type Memory struct {
	mu   sync.RWMutex
	rows []*models.Generation
	now  func() time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) Insert(_ context.Context, gen *models.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen.ID == "" {
		gen.ID = models.RecordID(uuid.NewString())
	}
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = m.now().UTC()
	}
	cp := *gen
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *Memory) ListRecent(_ context.Context, limit int) ([]*models.Generation, error) {
	limit = ClampLimit(limit)

	m.mu.RLock()
	sorted := make([]*models.Generation, 0, len(m.rows))
	for i := len(m.rows) - 1; i >= 0; i-- {
		sorted = append(sorted, m.rows[i])
	}
	m.mu.RUnlock()

	// Reverse insertion order breaks created_at ties.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	out := make([]*models.Generation, 0, limit)
	for _, g := range sorted {
		if len(out) == limit {
			break
		}
		cp := *g
		out = append(out, &cp)
	}
	return out, nil
}

// Len reports the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func (m *Memory) Close() error {
	return nil
}
