package store

import (
	"encoding/json"
	"fmt"

	"bricksync/internal/model"
	"bricksync/internal/state"
)

// DealStore persists qualifying deals keyed by set id + retailer.
type DealStore struct {
	st state.Store
}

func NewDealStore(st state.Store) *DealStore { return &DealStore{st: st} }

// Upsert merge-upserts a single deal.
func (d *DealStore) Upsert(deal model.Deal) error {
	return d.UpsertBatch([]model.Deal{deal})
}

// UpsertBatch merge-upserts deals in chunks.
func (d *DealStore) UpsertBatch(deals []model.Deal) error {
	ops := make([]state.Op, 0, len(deals))
	for _, deal := range deals {
		if deal.SetID == "" || deal.Retailer == "" {
			return fmt.Errorf("deal upsert: empty set id or retailer")
		}
		key := DealKey(model.PairKey(deal.SetID, deal.Retailer))
		doc, err := mergedDoc(d.st, key, deal)
		if err != nil {
			return err
		}
		ops = append(ops, state.Set(key, doc))
	}
	return commitChunked(d.st, ops)
}

// Each streams every stored deal together with its storage key.
func (d *DealStore) Each(fn func(key string, deal model.Deal) error) error {
	return d.st.Scan(dealPrefix, func(key string, value []byte) error {
		var deal model.Deal
		if err := json.Unmarshal(value, &deal); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		return fn(key, deal)
	})
}

// DeleteKeys removes deals by storage key in chunks.
func (d *DealStore) DeleteKeys(keys []string) error {
	ops := make([]state.Op, 0, len(keys))
	for _, k := range keys {
		ops = append(ops, state.Delete(k))
	}
	return commitChunked(d.st, ops)
}

// Count returns the number of stored deals.
func (d *DealStore) Count() (int, error) {
	n := 0
	err := d.st.Scan(dealPrefix, func(string, []byte) error {
		n++
		return nil
	})
	return n, err
}
