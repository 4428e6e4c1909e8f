package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logger"
	"go.uber.org/zap"
)

// decodeList reads a persisted slot. Missing data is an empty list; malformed data is logged and
// also read as empty, so one corrupt write never locks a shopper out of their cart.
func decodeList[T any](ctx context.Context, slot domain.Slot, data []byte) []T {
	if len(data) == 0 {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		logger.FromContext(ctx).Warn("malformed slot data, treating as empty",
			zap.String("slot", string(slot)), zap.Error(err))
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

func encodeList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode slot: %w", err)
	}
	return data, nil
}
