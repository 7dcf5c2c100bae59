package pricing

import (
	"math/rand"
	"testing"

	"bricksync/internal/model"
)

func testItem() model.CatalogItem {
	return model.CatalogItem{
		SetID:        "42100-1",
		Name:         "Liebherr Excavator",
		ImageURL:     "https://img.test/a.jpg",
		Theme:        "Technic",
		Pieces:       4108,
		RefPrice:     452,
		Availability: model.AvailabilityAvailable,
	}
}

func TestObserve_OfficialRetailerNeverDiscounts(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(1)))
	for i := 0; i < 200; i++ {
		obs := g.Observe(testItem(), OfficialRetailer)
		if obs.Price != obs.RefPrice {
			t.Fatalf("official store discounted: %v vs %v", obs.Price, obs.RefPrice)
		}
	}
}

func TestObserve_PriceWithinDiscountBounds(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(42)))
	item := testItem()
	for i := 0; i < 1000; i++ {
		for _, r := range Retailers {
			obs := g.Observe(item, r)
			if obs.Price > obs.RefPrice {
				t.Fatalf("price above reference: %+v", obs)
			}
			// Deepest possible cut is 60%.
			if obs.Price < Round2(item.RefPrice*0.40) {
				t.Fatalf("price below deepest discount: %+v", obs)
			}
		}
	}
}

func TestObserve_StockFollowsAvailability(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(7)))
	item := testItem()
	item.Availability = model.AvailabilitySoldOut
	for i := 0; i < 100; i++ {
		if obs := g.Observe(item, "amazon"); obs.InStock {
			t.Fatalf("sold_out item observed in stock")
		}
	}
}

func TestObserve_DenormalizedFieldsAndURL(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(3)))
	obs := g.Observe(testItem(), "amazon")
	if obs.Name != "Liebherr Excavator" || obs.Theme != "Technic" || obs.Pieces != 4108 {
		t.Fatalf("denormalized fields missing: %+v", obs)
	}
	if obs.URL != "https://www.amazon.com/s?k=LEGO+42100-1" {
		t.Fatalf("url=%q", obs.URL)
	}
	if unknown := g.Observe(testItem(), "nosuchshop"); unknown.URL != "" {
		t.Fatalf("unknown retailer should have empty url, got %q", unknown.URL)
	}
}

func TestObserve_DeterministicWithSeed(t *testing.T) {
	a := NewGenerator(rand.New(rand.NewSource(99)))
	b := NewGenerator(rand.New(rand.NewSource(99)))
	for i := 0; i < 50; i++ {
		oa := a.Observe(testItem(), "target")
		ob := b.Observe(testItem(), "target")
		if oa.Price != ob.Price || oa.InStock != ob.InStock {
			t.Fatalf("same seed diverged: %+v vs %+v", oa, ob)
		}
	}
}

func TestRetailerEnumeration(t *testing.T) {
	if len(Retailers) != 16 {
		t.Fatalf("retailer count=%d want=16", len(Retailers))
	}
	seen := map[string]bool{}
	for _, r := range Retailers {
		if seen[r] {
			t.Fatalf("duplicate retailer %q", r)
		}
		seen[r] = true
		if RetailerURL(r, "42100-1") == "" {
			t.Fatalf("retailer %q has no url template", r)
		}
	}
}
