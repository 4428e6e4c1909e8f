package repository

import (
	"context"
	"sync"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	slots map[Key]Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{slots: make(map[Key]Record)}
}

func (m *MemoryRepository) Load(ctx context.Context, key Key) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.slots[key]
	if !ok {
		return nil, ErrSlotNotFound
	}
	data := make([]byte, len(rec.Data))
	copy(data, rec.Data)
	return &Record{Data: data, Version: rec.Version}, nil
}

func (m *MemoryRepository) Save(ctx context.Context, key Key, expected int64, data []byte) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slots[key].Version != expected {
		return 0, ErrVersionConflict
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	next := expected + 1
	m.slots[key] = Record{Data: stored, Version: next}
	return next, nil
}
