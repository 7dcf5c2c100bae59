// Package pricing synthesizes per-retailer price observations and classifies
// qualifying observations as deals. The generator is a stand-in for a real
// retailer integration; only its internals would change if one replaced it.
package pricing

import (
	"math"
	"math/rand"
	"time"

	"bricksync/internal/model"
)

const (
	discountChance     = 0.70
	deepChance         = 0.10
	baseDiscountMin    = 10.0
	baseDiscountMax    = 40.0
	deepDiscountMin    = 40.0
	deepDiscountMax    = 60.0
	inStockProbability = 0.85
)

// Generator produces randomized price observations. The random source is
// injected so tests can seed it.
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator builds a generator around rnd; a nil rnd gets a time-seeded one.
func NewGenerator(rnd *rand.Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rnd: rnd, now: time.Now}
}

// Observe produces one price observation for a catalog item at a retailer.
func (g *Generator) Observe(item model.CatalogItem, retailer string) model.PriceObservation {
	discount := g.discountPercent(retailer)
	price := Round2(item.RefPrice * (1 - discount/100))
	inStock := item.Availability == model.AvailabilityAvailable && g.rnd.Float64() < inStockProbability
	return model.PriceObservation{
		SetID:      item.SetID,
		Retailer:   retailer,
		Price:      price,
		RefPrice:   item.RefPrice,
		URL:        RetailerURL(retailer, item.SetID),
		InStock:    inStock,
		ObservedAt: g.now().Unix(),
		Name:       item.Name,
		ImageURL:   item.ImageURL,
		Theme:      item.Theme,
		Pieces:     item.Pieces,
	}
}

// discountPercent draws from the layered policy: the official store never
// discounts; everyone else has a 70% chance of 10-40% off, then an independent
// 10% chance of a deeper 40-60% cut that wins when it fires.
func (g *Generator) discountPercent(retailer string) float64 {
	if retailer == OfficialRetailer {
		return 0
	}
	discount := 0.0
	if g.rnd.Float64() < discountChance {
		discount = baseDiscountMin + g.rnd.Float64()*(baseDiscountMax-baseDiscountMin)
	}
	if g.rnd.Float64() < deepChance {
		discount = deepDiscountMin + g.rnd.Float64()*(deepDiscountMax-deepDiscountMin)
	}
	return discount
}

// Round2 rounds to 2 decimals, currency style.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
