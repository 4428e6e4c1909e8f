package service

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/repository"
)

type recordingBroker struct {
	m      sync.RWMutex
	events []notify.Event
	err    error
}

func (b *recordingBroker) Publish(_ context.Context, ev notify.Event) error {
	b.m.Lock()
	defer b.m.Unlock()
	b.events = append(b.events, ev)
	return b.err
}

func (b *recordingBroker) Subscribe(context.Context, string) (<-chan notify.Event, error) {
	return nil, errors.New("not supported")
}

func (b *recordingBroker) count(name string) int {
	b.m.RLock()
	defer b.m.RUnlock()
	n := 0
	for _, ev := range b.events {
		if ev.Name == name {
			n++
		}
	}
	return n
}

type mockCache struct {
	m       sync.RWMutex
	records map[repository.Key]*repository.Record
	gets    int
	err     error
}

func newMockCache() *mockCache {
	return &mockCache{records: make(map[repository.Key]*repository.Record)}
}

func (c *mockCache) Get(_ context.Context, key repository.Key) (*repository.Record, error) {
	c.m.Lock()
	defer c.m.Unlock()
	c.gets++
	if c.err != nil {
		return nil, c.err
	}
	rec, ok := c.records[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return rec, nil
}

func (c *mockCache) Set(_ context.Context, key repository.Key, rec *repository.Record) error {
	c.m.Lock()
	defer c.m.Unlock()
	if cur, ok := c.records[key]; !ok || cur.Version < rec.Version {
		c.records[key] = rec
	}
	return c.err
}

func (c *mockCache) Fill(_ context.Context, key repository.Key, rec *repository.Record) error {
	c.m.Lock()
	defer c.m.Unlock()
	if _, ok := c.records[key]; !ok {
		c.records[key] = rec
	}
	return c.err
}

func (c *mockCache) Delete(_ context.Context, key repository.Key) error {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.records, key)
	return nil
}

func (c *mockCache) cached(key repository.Key) (*repository.Record, bool) {
	c.m.RLock()
	defer c.m.RUnlock()
	rec, ok := c.records[key]
	return rec, ok
}

// flakyRepository wraps a MemoryRepository and injects failures.
type flakyRepository struct {
	*repository.MemoryRepository
	m         sync.Mutex
	conflicts int // number of upcoming saves that report a version conflict
	loadErr   error
	loads     int
}

func (r *flakyRepository) Load(ctx context.Context, key repository.Key) (*repository.Record, error) {
	r.m.Lock()
	r.loads++
	err := r.loadErr
	r.m.Unlock()
	if err != nil {
		return nil, err
	}
	return r.MemoryRepository.Load(ctx, key)
}

func (r *flakyRepository) Save(ctx context.Context, key repository.Key, expected int64, data []byte) (int64, error) {
	r.m.Lock()
	if r.conflicts > 0 {
		r.conflicts--
		r.m.Unlock()
		return 0, repository.ErrVersionConflict
	}
	r.m.Unlock()
	return r.MemoryRepository.Save(ctx, key, expected, data)
}

// gatedCache holds the first Set until a second Set went through, so two cache refreshes land in
// the opposite order of their writes.
type gatedCache struct {
	cache.SlotCache
	m       sync.Mutex
	sets    int
	release chan struct{}
}

func (c *gatedCache) Set(ctx context.Context, key repository.Key, rec *repository.Record) error {
	c.m.Lock()
	c.sets++
	n := c.sets
	c.m.Unlock()
	switch n {
	case 1:
		<-c.release
	case 2:
		defer close(c.release)
	}
	return c.SlotCache.Set(ctx, key, rec)
}

func (c *gatedCache) setCalls() int {
	c.m.Lock()
	defer c.m.Unlock()
	return c.sets
}

// blockingRepository parks every Load until release is closed.
type blockingRepository struct {
	*repository.MemoryRepository
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (r *blockingRepository) Load(ctx context.Context, key repository.Key) (*repository.Record, error) {
	r.once.Do(func() { close(r.started) })
	<-r.release
	return r.MemoryRepository.Load(ctx, key)
}
