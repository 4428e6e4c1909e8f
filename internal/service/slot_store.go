package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	maxWriteAttempts  = 5
	sharedLoadTimeout = 5 * time.Second
)

// SlotStore is the shared read/write path for the cart and wishlist slots. Reads go through the
// cache, writes always read the repository and commit with a version check.
type SlotStore struct {
	repo   repository.SlotRepository
	cache  cache.SlotCache
	broker notify.Broker
	sfg    singleflight.Group // Prevents cache stampede
}

func NewSlotStore(repo repository.SlotRepository, c cache.SlotCache, broker notify.Broker) *SlotStore {
	if c == nil {
		c = cache.Noop{}
	}
	return &SlotStore{
		repo:   repo,
		cache:  c,
		broker: broker,
	}
}

// load returns the record for key, or an empty record at version 0 when nothing was stored yet.
// The returned record may be shared between callers and must not be modified.
func (s *SlotStore) load(ctx context.Context, key repository.Key) (*repository.Record, error) {
	ch := s.sfg.DoChan(string(key.Slot)+":"+key.Owner, func() (interface{}, error) {
		// the load is shared, so it must outlive the caller that started it
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		rec, err := s.cache.Get(loadCtx, key)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.FromContext(ctx).Warn("cache get error", zap.Error(err)) // continue with repository
		}

		rec, err = s.loadFresh(loadCtx, key)
		if err != nil {
			return nil, err
		}

		go func() {
			fillCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errFill := s.cache.Fill(fillCtx, key, rec); errFill != nil {
				zap.L().Warn("cache fill error", zap.String("slot", string(key.Slot)), zap.Error(errFill))
			}
		}()
		return rec, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*repository.Record), nil
	}
}

// loadFresh reads key from the repository, bypassing the cache.
func (s *SlotStore) loadFresh(ctx context.Context, key repository.Key) (*repository.Record, error) {
	rec, err := s.repo.Load(ctx, key)
	if errors.Is(err, repository.ErrSlotNotFound) {
		return &repository.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key.Slot, err)
	}
	return rec, nil
}

// mutateFunc computes the new slot content from the current one. Returning changed=false skips
// the write and the notification.
type mutateFunc func(current []byte) (next []byte, changed bool, err error)

// mutate runs a read-modify-write cycle on key. A version conflict means another writer got in
// first; the cycle is retried against the fresh content a bounded number of times.
func (s *SlotStore) mutate(ctx context.Context, key repository.Key, event string, fn mutateFunc) error {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		rec, err := s.loadFresh(ctx, key)
		if err != nil {
			return err
		}

		next, changed, err := fn(rec.Data)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		version, err := s.repo.Save(ctx, key, rec.Version, next)
		if errors.Is(err, repository.ErrVersionConflict) {
			logger.FromContext(ctx).Debug("slot version conflict, retrying",
				zap.String("slot", string(key.Slot)), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return fmt.Errorf("save %s: %w", key.Slot, err)
		}

		s.refreshCache(key, &repository.Record{Data: next, Version: version})
		s.notify(ctx, key, event)
		return nil
	}
	return ErrWriteContention
}

// refreshCache stores the committed record. The cache keeps whichever version is newest, so
// concurrent writers may refresh in any order.
func (s *SlotStore) refreshCache(key repository.Key, rec *repository.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, key, rec); err != nil {
		zap.L().Warn("cache refresh error, invalidating", zap.Error(err))
		if errDel := s.cache.Delete(ctx, key); errDel != nil {
			zap.L().Error("cache invalidate error", zap.Error(errDel))
		}
	}
}

// notify is best effort: the write already committed, so a broker failure only delays other views.
func (s *SlotStore) notify(ctx context.Context, key repository.Key, event string) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, notify.Event{Owner: key.Owner, Name: event}); err != nil {
		logger.FromContext(ctx).Warn("publish slot event failed",
			zap.String("event", event), zap.Error(err))
	}
}
