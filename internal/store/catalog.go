package store

import (
	"encoding/json"
	"fmt"

	"bricksync/internal/model"
	"bricksync/internal/state"
)

// QueryAvailableLimit caps catalog reads when selecting pricing candidates.
const QueryAvailableLimit = 500

// CatalogStore persists catalog items keyed by set id.
type CatalogStore struct {
	st state.Store
}

func NewCatalogStore(st state.Store) *CatalogStore { return &CatalogStore{st: st} }

// UpsertBatch merge-upserts items in chunks. Items are never deleted here;
// removal from the catalog is a manual operation.
func (c *CatalogStore) UpsertBatch(items []model.CatalogItem) error {
	ops := make([]state.Op, 0, len(items))
	for _, it := range items {
		if it.SetID == "" {
			return fmt.Errorf("catalog upsert: empty set id")
		}
		doc, err := mergedDoc(c.st, CatalogKey(it.SetID), it)
		if err != nil {
			return err
		}
		ops = append(ops, state.Set(CatalogKey(it.SetID), doc))
	}
	return commitChunked(c.st, ops)
}

// Get returns one catalog item by set id.
func (c *CatalogStore) Get(setID string) (model.CatalogItem, bool, error) {
	v, ok, err := c.st.Get(CatalogKey(setID))
	if err != nil || !ok {
		return model.CatalogItem{}, false, err
	}
	var it model.CatalogItem
	if err := json.Unmarshal(v, &it); err != nil {
		return model.CatalogItem{}, false, fmt.Errorf("decode catalog %s: %w", setID, err)
	}
	return it, true, nil
}

// QueryAvailable returns up to limit items whose availability is available or
// retiring_soon. A limit <= 0 falls back to QueryAvailableLimit.
func (c *CatalogStore) QueryAvailable(limit int) ([]model.CatalogItem, error) {
	if limit <= 0 || limit > QueryAvailableLimit {
		limit = QueryAvailableLimit
	}
	var out []model.CatalogItem
	err := c.st.Scan(catalogPrefix, func(key string, value []byte) error {
		if len(out) >= limit {
			return nil
		}
		var it model.CatalogItem
		if err := json.Unmarshal(value, &it); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		if it.Availability == model.AvailabilityAvailable || it.Availability == model.AvailabilityRetiringSoon {
			out = append(out, it)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// All streams every catalog item, used by the export path.
func (c *CatalogStore) All(fn func(model.CatalogItem) error) error {
	return c.st.Scan(catalogPrefix, func(key string, value []byte) error {
		var it model.CatalogItem
		if err := json.Unmarshal(value, &it); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		return fn(it)
	})
}

// Count returns the number of stored catalog items.
func (c *CatalogStore) Count() (int, error) {
	n := 0
	err := c.st.Scan(catalogPrefix, func(string, []byte) error {
		n++
		return nil
	})
	return n, err
}
