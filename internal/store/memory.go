package store

import (
	"context"
	"sync"

	"github.com/your-org/mediascan/internal/models"
)

// MemoryStore is a map-backed DecisionStore for tests and ephemeral runs.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[models.DecisionKind]map[string]models.StoredRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[models.DecisionKind]map[string]models.StoredRecord)}
}

func (m *MemoryStore) kind(k models.DecisionKind) map[string]models.StoredRecord {
	if m.rows[k] == nil {
		m.rows[k] = make(map[string]models.StoredRecord)
	}
	return m.rows[k]
}

// InsertBatch inserts rows whose identifiers are absent; existing rows are
// left untouched, matching the append-only postgres behavior.
func (m *MemoryStore) InsertBatch(_ context.Context, records []models.StoredRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		rows := m.kind(r.Kind)
		if _, ok := rows[r.AssetID]; !ok {
			rows[r.AssetID] = r
		}
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, kind models.DecisionKind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kind(kind), id)
	return nil
}

func (m *MemoryStore) DeleteBatch(_ context.Context, kind models.DecisionKind, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.kind(kind), id)
	}
	return nil
}

func (m *MemoryStore) DeleteAll(_ context.Context, kind models.DecisionKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[kind] = make(map[string]models.StoredRecord)
	return nil
}

func (m *MemoryStore) FetchAll(_ context.Context, kind models.DecisionKind) ([]models.StoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.StoredRecord, 0, len(m.kind(kind)))
	for _, r := range m.rows[kind] {
		out = append(out, r)
	}
	return out, nil
}

func (m *MemoryStore) FetchByID(_ context.Context, kind models.DecisionKind, id string) (*models.StoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.kind(kind)[id]; ok {
		return &r, nil
	}
	return nil, nil
}
