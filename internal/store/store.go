// Package store provides the typed collection stores (catalog, prices, deals)
// on top of the state backend. All writes are merge-upserts partitioned into
// chunks no larger than the backend batch limit; each chunk commits atomically,
// earlier chunks are not rolled back when a later chunk fails.
package store

import (
	"encoding/json"
	"fmt"

	"bricksync/internal/state"
)

const (
	// MaxBatchOps keeps headroom under the backend's hard ceiling of 500
	// mutations per committed batch.
	MaxBatchOps = 450

	catalogPrefix = "catalog#"
	pricePrefix   = "price#"
	dealPrefix    = "deal#"
)

// CatalogKey returns the storage key for a catalog item.
func CatalogKey(setID string) string { return catalogPrefix + setID }

// PriceKey returns the storage key for a price observation.
func PriceKey(pairKey string) string { return pricePrefix + pairKey }

// DealKey returns the storage key for a deal.
func DealKey(pairKey string) string { return dealPrefix + pairKey }

// mergedDoc overlays the JSON encoding of record onto the existing document at
// key, preserving stored fields absent from the new record.
func mergedDoc(st state.Store, key string, record any) ([]byte, error) {
	next, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", key, err)
	}
	prev, ok, err := st.Get(key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return next, nil
	}
	var base map[string]json.RawMessage
	if err := json.Unmarshal(prev, &base); err != nil {
		// Unreadable prior doc: take the new record wholesale.
		return next, nil
	}
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(next, &overlay); err != nil {
		return nil, fmt.Errorf("remarshal %s: %w", key, err)
	}
	for k, v := range overlay {
		base[k] = v
	}
	out, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("merge %s: %w", key, err)
	}
	return out, nil
}

// commitChunked commits ops in sub-batches of at most MaxBatchOps.
func commitChunked(st state.Store, ops []state.Op) error {
	for start := 0; start < len(ops); start += MaxBatchOps {
		end := start + MaxBatchOps
		if end > len(ops) {
			end = len(ops)
		}
		if err := st.Commit(ops[start:end]); err != nil {
			return fmt.Errorf("commit chunk [%d:%d): %w", start, end, err)
		}
	}
	return nil
}
