package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"bricksync/internal/model"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		MaxPages:  10,
		PageSize:  100,
		PageDelay: -1,
	}
}

func entry(num string, name string, year, themeID, parts int, img string) rawEntry {
	return rawEntry{SetNum: num, Name: name, Year: year, ThemeID: themeID, NumParts: parts, ImageURL: img, SetURL: "https://example.test/sets/" + num}
}

func servePage(w http.ResponseWriter, next string, entries ...rawEntry) {
	_ = json.NewEncoder(w).Encode(page{Next: next, Results: entries})
}

func TestFetch_PaginationStopsAtCeiling(t *testing.T) {
	pagesServed := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		p := r.URL.Query().Get("page")
		// Upstream never stops signaling more pages.
		servePage(w, "https://example.test/?page="+p, entry("1000"+p+"-1", "Set "+p, 2025, 52, 300, "https://img.test/x.jpg"))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(srv.URL), nil)
	res := f.Fetch(context.Background())
	if pagesServed != DefaultMaxPages {
		t.Fatalf("pages served=%d want=%d", pagesServed, DefaultMaxPages)
	}
	if !res.Complete {
		t.Fatalf("ceiling stop should still be complete")
	}
	if len(res.Items) != DefaultMaxPages {
		t.Fatalf("items=%d want=%d", len(res.Items), DefaultMaxPages)
	}
}

func TestFetch_FiltersEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		servePage(w, "",
			entry("1-1", "Fine Set", 2025, 52, 300, "https://img.test/a.jpg"),
			entry("2-1", "No Image", 2025, 52, 300, ""),
			entry("3-1", "Tiny", 2025, 52, 12, "https://img.test/b.jpg"),
			entry("4-1", "CITY Minifigure Pack", 2025, 52, 42, "https://img.test/c.jpg"),
			entry("5-1", "Big Minifig Display", 2025, 52, 800, "https://img.test/d.jpg"),
		)
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(srv.URL), nil)
	res := f.Fetch(context.Background())
	if !res.Complete {
		t.Fatalf("want complete fetch")
	}
	if len(res.Items) != 2 {
		t.Fatalf("items=%d want=2 (%+v)", len(res.Items), res.Items)
	}
	for _, it := range res.Items {
		if it.Pieces < minPieces || it.ImageURL == "" {
			t.Fatalf("filter violated: %+v", it)
		}
	}
}

func TestFetch_PageErrorTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, "upstream boom", http.StatusInternalServerError)
			return
		}
		servePage(w, "https://example.test/?page=2", entry("1-1", "Page One", 2025, 52, 300, "https://img.test/a.jpg"))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(srv.URL), nil)
	res := f.Fetch(context.Background())
	if res.Complete {
		t.Fatalf("truncated fetch must not be complete")
	}
	if len(res.Items) != 1 {
		t.Fatalf("partial result lost: items=%d", len(res.Items))
	}
}

func TestFetch_SendsAuthAndYearWindow(t *testing.T) {
	var gotAuth, gotMin, gotMax string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMin = r.URL.Query().Get("min_year")
		gotMax = r.URL.Query().Get("max_year")
		servePage(w, "")
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(srv.URL), nil)
	year := f.now().Year()
	f.Fetch(context.Background())

	if gotAuth != "key test-key" {
		t.Fatalf("auth header=%q", gotAuth)
	}
	if gotMin != strconv.Itoa(year-yearWindowBack) || gotMax != strconv.Itoa(year+yearWindowForward) {
		t.Fatalf("year window=[%s,%s]", gotMin, gotMax)
	}
}

func TestNormalize_RefPriceAndTheme(t *testing.T) {
	f := NewFetcher(testConfig("https://example.test"), nil)

	it, ok := f.normalize(entry("42100-1", "Liebherr Excavator", 2025, 1, 4108, "https://img.test/a.jpg"), 2025)
	if !ok {
		t.Fatalf("entry dropped")
	}
	if it.RefPrice != 452 { // round(4108*0.11)
		t.Fatalf("refPrice=%v want=452", it.RefPrice)
	}
	if it.Theme != "Technic" {
		t.Fatalf("theme=%q", it.Theme)
	}

	small, ok := f.normalize(entry("9-1", "Small Build", 2025, 99999, 25, "https://img.test/b.jpg"), 2025)
	if !ok {
		t.Fatalf("entry dropped")
	}
	if small.RefPrice < minRefPrice {
		t.Fatalf("refPrice=%v below floor", small.RefPrice)
	}
	if small.Theme != fallbackTheme {
		t.Fatalf("fallback theme=%q", small.Theme)
	}
}

func TestNormalize_Availability(t *testing.T) {
	f := NewFetcher(testConfig("https://example.test"), nil)
	future, _ := f.normalize(entry("1-1", "Next Year", 2026, 52, 100, "https://img.test/a.jpg"), 2025)
	if future.Availability != model.AvailabilityComingSoon {
		t.Fatalf("availability=%q", future.Availability)
	}
	current, _ := f.normalize(entry("2-1", "This Year", 2025, 52, 100, "https://img.test/a.jpg"), 2025)
	if current.Availability != model.AvailabilityAvailable {
		t.Fatalf("availability=%q", current.Availability)
	}
}

func TestEstimateRefPrice_Property(t *testing.T) {
	for pieces := minPieces; pieces < 2000; pieces += 37 {
		if got := estimateRefPrice(pieces); got < minRefPrice {
			t.Fatalf("pieces=%d refPrice=%v below %v", pieces, got, minRefPrice)
		}
	}
}
