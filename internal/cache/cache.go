package cache

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/repository"
)

// SlotCache holds recently read slot records in front of the repository.
type SlotCache interface {
	Get(ctx context.Context, key repository.Key) (*repository.Record, error)
	// Set stores rec unless a record with the same or a higher version is already cached.
	Set(ctx context.Context, key repository.Key, rec *repository.Record) error
	// Fill stores rec only when nothing is cached yet, so a slow read-through cannot clobber a
	// newer record written by Set.
	Fill(ctx context.Context, key repository.Key, rec *repository.Record) error
	Delete(ctx context.Context, key repository.Key) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop is used when no cache is configured; every read misses.
type Noop struct{}

func (Noop) Get(context.Context, repository.Key) (*repository.Record, error) {
	return nil, ErrCacheMiss
}

func (Noop) Set(context.Context, repository.Key, *repository.Record) error { return nil }

func (Noop) Fill(context.Context, repository.Key, *repository.Record) error { return nil }

func (Noop) Delete(context.Context, repository.Key) error { return nil }
