package pricing

import (
	"math"
	"testing"

	"bricksync/internal/model"
)

func obs(price, ref float64, inStock bool) model.PriceObservation {
	return model.PriceObservation{
		SetID: "42100-1", Retailer: "amazon",
		Price: price, RefPrice: ref, InStock: inStock, ObservedAt: 1700000000,
	}
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name       string
		obs        model.PriceObservation
		want       bool
		percentOff int
		savings    float64
	}{
		{"half off in stock", obs(50, 100, true), true, 50, 50},
		{"exactly at threshold", obs(90, 100, true), true, 10, 10},
		{"rounds up to threshold", obs(90.4, 100, true), true, 10, 9.6},
		{"just under threshold", obs(90.6, 100, true), false, 0, 0},
		{"out of stock", obs(50, 100, false), false, 0, 0},
		{"no discount", obs(100, 100, true), false, 0, 0},
		{"above reference", obs(120, 100, true), false, 0, 0},
		{"zero reference", obs(0, 0, true), false, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deal, ok := Evaluate(tc.obs)
			if ok != tc.want {
				t.Fatalf("qualify=%v want=%v", ok, tc.want)
			}
			if !ok {
				return
			}
			if deal.PercentOff != tc.percentOff {
				t.Fatalf("percentOff=%d want=%d", deal.PercentOff, tc.percentOff)
			}
			if deal.Savings != tc.savings {
				t.Fatalf("savings=%v want=%v", deal.Savings, tc.savings)
			}
			if deal.LastUpdated != tc.obs.ObservedAt {
				t.Fatalf("lastUpdated=%d want=%d", deal.LastUpdated, tc.obs.ObservedAt)
			}
		})
	}
}

func TestEvaluate_ConsistencyProperty(t *testing.T) {
	// savings == round2(ref-cur) and percentOff == round((ref-cur)/ref*100)
	// for every qualifying observation.
	for price := 10.0; price <= 85.0; price += 2.5 {
		deal, ok := Evaluate(obs(price, 100, true))
		if !ok {
			t.Fatalf("price=%v should qualify at ref=100", price)
		}
		if deal.Savings != Round2(100-price) {
			t.Fatalf("savings=%v want=%v", deal.Savings, Round2(100-price))
		}
		wantPct := int(math.Round((100 - price) / 100 * 100))
		if deal.PercentOff != wantPct {
			t.Fatalf("percentOff=%d want=%d", deal.PercentOff, wantPct)
		}
	}
}
