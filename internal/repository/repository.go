package repository

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
)

var (
	ErrSlotNotFound    = errors.New("slot not found")
	ErrVersionConflict = errors.New("slot was modified concurrently")
)

// Key addresses one persisted list of one owner.
type Key struct {
	Owner string
	Slot  domain.Slot
}

// Record is the raw slot content plus its optimistic-lock version.
// Version 0 means the slot has never been written.
type Record struct {
	Data    []byte `json:"data"`
	Version int64  `json:"version"`
}

// SlotRepository persists slots wholesale. Writes are conditional on the version read earlier so
// that concurrent writers cannot silently overwrite each other.
type SlotRepository interface {
	Load(ctx context.Context, key Key) (*Record, error)
	// Save writes data if the stored version still equals expected, and returns the new version.
	Save(ctx context.Context, key Key, expected int64, data []byte) (int64, error)
}
