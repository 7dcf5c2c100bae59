package store

import (
	"fmt"

	"bricksync/internal/model"
	"bricksync/internal/state"
)

// PriceStore persists price observations keyed by set id + retailer.
type PriceStore struct {
	st state.Store
}

func NewPriceStore(st state.Store) *PriceStore { return &PriceStore{st: st} }

// Upsert merge-upserts a single observation.
func (p *PriceStore) Upsert(obs model.PriceObservation) error {
	return p.UpsertBatch([]model.PriceObservation{obs})
}

// UpsertBatch merge-upserts observations in chunks.
func (p *PriceStore) UpsertBatch(observations []model.PriceObservation) error {
	ops := make([]state.Op, 0, len(observations))
	for _, obs := range observations {
		if obs.SetID == "" || obs.Retailer == "" {
			return fmt.Errorf("price upsert: empty set id or retailer")
		}
		key := PriceKey(model.PairKey(obs.SetID, obs.Retailer))
		doc, err := mergedDoc(p.st, key, obs)
		if err != nil {
			return err
		}
		ops = append(ops, state.Set(key, doc))
	}
	return commitChunked(p.st, ops)
}

// Count returns the number of stored observations.
func (p *PriceStore) Count() (int, error) {
	n := 0
	err := p.st.Scan(pricePrefix, func(string, []byte) error {
		n++
		return nil
	})
	return n, err
}
