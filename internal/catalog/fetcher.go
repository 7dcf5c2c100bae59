// Package catalog fetches and normalizes the product catalog from the
// upstream paginated API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bricksync/internal/model"
)

const (
	// DefaultMaxPages bounds pagination even when the upstream never stops
	// signaling more pages.
	DefaultMaxPages = 10
	// DefaultPageSize is the upstream page size.
	DefaultPageSize = 100
	// DefaultPageDelay is the fixed pause between page requests, kept under
	// the upstream's implicit rate limit.
	DefaultPageDelay = 300 * time.Millisecond

	minPieces         = 20
	minifigMinPieces  = 50
	pricePerPiece     = 0.11
	minRefPrice       = 20.0
	yearWindowBack    = 3
	yearWindowForward = 1
)

// Config holds fetcher knobs. Zero values fall back to the defaults above.
// A negative PageDelay disables the inter-page pause (tests).
type Config struct {
	BaseURL   string
	APIKey    string
	MaxPages  int
	PageSize  int
	PageDelay time.Duration
	Timeout   time.Duration
}

// Result is the outcome of one catalog fetch. Complete is false when a
// page-level failure truncated pagination; the items already accumulated are
// still returned.
type Result struct {
	Items    []model.CatalogItem
	Pages    int
	Complete bool
}

// Fetcher is a paginated client for the upstream catalog API.
type Fetcher struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger
	now    func() time.Time
}

func NewFetcher(cfg Config, log *slog.Logger) *Fetcher {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.PageDelay == 0 {
		cfg.PageDelay = DefaultPageDelay
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		log:    log,
		now:    time.Now,
	}
}

// rawEntry is one upstream catalog record.
type rawEntry struct {
	SetNum   string `json:"set_num"`
	Name     string `json:"name"`
	Year     int    `json:"year"`
	ThemeID  int    `json:"theme_id"`
	NumParts int    `json:"num_parts"`
	ImageURL string `json:"set_img_url"`
	SetURL   string `json:"set_url"`
}

type page struct {
	Next    string     `json:"next"`
	Results []rawEntry `json:"results"`
}

// Fetch walks the paginated catalog within the rolling year window. A failed
// page logs, stops pagination and returns the partial result with
// Complete=false; it is never an error.
func (f *Fetcher) Fetch(ctx context.Context) Result {
	year := f.now().Year()
	res := Result{Complete: true}
	for pageNum := 1; pageNum <= f.cfg.MaxPages; pageNum++ {
		pg, err := f.fetchPage(ctx, year, pageNum)
		if err != nil {
			f.log.Error("catalog_page_failed", "page", pageNum, "error", err)
			res.Complete = false
			break
		}
		res.Pages++
		if len(pg.Results) == 0 {
			break
		}
		for _, raw := range pg.Results {
			item, ok := f.normalize(raw, year)
			if !ok {
				continue
			}
			res.Items = append(res.Items, item)
		}
		if pg.Next == "" {
			break
		}
		if pageNum < f.cfg.MaxPages && f.cfg.PageDelay > 0 {
			select {
			case <-time.After(f.cfg.PageDelay):
			case <-ctx.Done():
				f.log.Error("catalog_fetch_canceled", "page", pageNum, "error", ctx.Err())
				res.Complete = false
				return res
			}
		}
	}
	f.log.Info("catalog_fetch_done", "items", len(res.Items), "pages", res.Pages, "complete", res.Complete)
	return res
}

func (f *Fetcher) fetchPage(ctx context.Context, year, pageNum int) (page, error) {
	u, err := url.Parse(strings.TrimRight(f.cfg.BaseURL, "/") + "/sets/")
	if err != nil {
		return page{}, fmt.Errorf("base url: %w", err)
	}
	q := u.Query()
	q.Set("min_year", strconv.Itoa(year-yearWindowBack))
	q.Set("max_year", strconv.Itoa(year+yearWindowForward))
	q.Set("page", strconv.Itoa(pageNum))
	q.Set("page_size", strconv.Itoa(f.cfg.PageSize))
	q.Set("ordering", "-year")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return page{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "key "+f.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("page %d: %w", pageNum, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return page{}, fmt.Errorf("page %d: status %d", pageNum, resp.StatusCode)
	}
	var pg page
	if err := json.NewDecoder(resp.Body).Decode(&pg); err != nil {
		return page{}, fmt.Errorf("page %d decode: %w", pageNum, err)
	}
	return pg, nil
}

// normalize filters and converts one raw entry. Entries without an image,
// with too few pieces, or that look like minifigure packs are dropped.
func (f *Fetcher) normalize(raw rawEntry, currentYear int) (model.CatalogItem, bool) {
	if raw.SetNum == "" || raw.ImageURL == "" || raw.NumParts < minPieces {
		return model.CatalogItem{}, false
	}
	if raw.NumParts < minifigMinPieces && strings.Contains(strings.ToLower(raw.Name), "minifig") {
		return model.CatalogItem{}, false
	}
	availability := model.AvailabilityAvailable
	if raw.Year > currentYear {
		availability = model.AvailabilityComingSoon
	}
	return model.CatalogItem{
		SetID:        raw.SetNum,
		Name:         raw.Name,
		ImageURL:     raw.ImageURL,
		SetURL:       raw.SetURL,
		Theme:        themeName(raw.ThemeID),
		ThemeID:      raw.ThemeID,
		Pieces:       raw.NumParts,
		Year:         raw.Year,
		RefPrice:     estimateRefPrice(raw.NumParts),
		Availability: availability,
		LastUpdated:  f.now().Unix(),
	}, true
}

// estimateRefPrice derives the undiscounted baseline from piece count,
// floored at the minimum reference price.
func estimateRefPrice(pieces int) float64 {
	est := math.Round(float64(pieces) * pricePerPiece)
	if est < minRefPrice {
		return minRefPrice
	}
	return est
}
