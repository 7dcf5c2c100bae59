// Package sync composes fetching, pricing, storage, feed and retention into
// the two pipeline jobs. It owns the job-level error boundary: upstream fetch
// failures degrade to partial results, storage failures abort the invocation.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"bricksync/internal/catalog"
	"bricksync/internal/export"
	"bricksync/internal/feed"
	"bricksync/internal/metrics"
	"bricksync/internal/model"
	"bricksync/internal/pricing"
	"bricksync/internal/retention"
	"bricksync/internal/store"
)

const sampleSize = 5

// Fetcher abstracts the catalog fetcher for tests.
type Fetcher interface {
	Fetch(ctx context.Context) catalog.Result
}

// Observer abstracts the price observation generator for tests.
type Observer interface {
	Observe(item model.CatalogItem, retailer string) model.PriceObservation
}

// Options wires an orchestrator. Feed and Exporter are optional.
type Options struct {
	Fetcher   Fetcher
	Generator Observer
	Catalog   *store.CatalogStore
	Prices    *store.PriceStore
	Deals     *store.DealStore
	Sweeper   *retention.Sweeper
	Feed      feed.Writer
	Exporter  *export.Exporter
	Metrics   *metrics.Registry
	Log       *slog.Logger

	ScheduledItemLimit int
	OnDemandItemLimit  int
	RetailerDelay      time.Duration
	DealHorizon        time.Duration
}

// Orchestrator sequences the catalog and price jobs. Steps run strictly
// sequentially within one invocation; overlapping invocations are allowed and
// converge because every write is a keyed merge-upsert.
type Orchestrator struct {
	opts Options
	log  *slog.Logger
}

func NewOrchestrator(opts Options) *Orchestrator {
	if opts.ScheduledItemLimit <= 0 {
		opts.ScheduledItemLimit = 100
	}
	if opts.OnDemandItemLimit <= 0 {
		opts.OnDemandItemLimit = 50
	}
	if opts.DealHorizon <= 0 {
		opts.DealHorizon = retention.DefaultHorizon
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{opts: opts, log: log}
}

// CatalogResult is the outcome of one catalog job invocation.
type CatalogResult struct {
	RunID       string              `json:"runId"`
	ItemCount   int                 `json:"itemCount"`
	Complete    bool                `json:"complete"`
	TopThemes   []ThemeCount        `json:"topThemes"`
	SampleItems []model.CatalogItem `json:"sampleItems"`
}

// ThemeCount is one entry of the top-theme summary.
type ThemeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

// PriceResult is the outcome of one price job invocation.
type PriceResult struct {
	RunID       string       `json:"runId"`
	CatalogSize int          `json:"catalogSize"`
	DealsFound  int          `json:"dealsFound"`
	DealsSwept  int          `json:"dealsSwept"`
	SampleDeals []model.Deal `json:"sampleDeals"`
}

// Health is the read-only health snapshot.
type Health struct {
	CatalogSize int `json:"catalogSize"`
	DealsCount  int `json:"dealsCount"`
}

// RunCatalogSync fetches the catalog and upserts it. A truncated fetch is a
// degraded success; any storage or export failure fails the invocation.
func (o *Orchestrator) RunCatalogSync(ctx context.Context) (CatalogResult, error) {
	runID := uuid.NewString()
	start := time.Now()
	o.log.Info("catalog_sync_start", "run_id", runID)

	res := o.opts.Fetcher.Fetch(ctx)
	o.opts.Metrics.PagesFetched.Add(float64(res.Pages))
	if !res.Complete {
		o.opts.Metrics.FetchTruncated.Inc()
	}

	if err := o.opts.Catalog.UpsertBatch(res.Items); err != nil {
		o.opts.Metrics.CatalogFailures.Inc()
		o.log.Error("catalog_sync_failed", "run_id", runID, "error", err)
		return CatalogResult{}, fmt.Errorf("upsert catalog: %w", err)
	}
	o.opts.Metrics.ItemsUpserted.Add(float64(len(res.Items)))

	if o.opts.Exporter != nil {
		if _, err := o.opts.Exporter.Export(runID, o.opts.Catalog); err != nil {
			o.opts.Metrics.CatalogFailures.Inc()
			o.log.Error("catalog_sync_failed", "run_id", runID, "error", err)
			return CatalogResult{}, fmt.Errorf("export catalog: %w", err)
		}
	}

	out := CatalogResult{
		RunID:       runID,
		ItemCount:   len(res.Items),
		Complete:    res.Complete,
		TopThemes:   topThemes(res.Items, sampleSize),
		SampleItems: sampleItems(res.Items, sampleSize),
	}
	o.opts.Metrics.CatalogRuns.Inc()
	o.opts.Metrics.RunSeconds.Observe(time.Since(start).Seconds())
	o.log.Info("catalog_sync_done", "run_id", runID, "items", out.ItemCount, "complete", out.Complete,
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	return out, nil
}

// RunPriceSync generates observations for a bounded prefix of the available
// catalog across the retailer enumeration, stores qualifying deals, then runs
// the retention sweep. onDemand selects the smaller item cutoff and skips the
// inter-retailer pause.
func (o *Orchestrator) RunPriceSync(ctx context.Context, onDemand bool) (PriceResult, error) {
	runID := uuid.NewString()
	start := time.Now()
	o.log.Info("price_sync_start", "run_id", runID, "on_demand", onDemand)

	items, err := o.candidateItems(ctx)
	if err != nil {
		o.opts.Metrics.PriceFailures.Inc()
		o.log.Error("price_sync_failed", "run_id", runID, "error", err)
		return PriceResult{}, err
	}

	limit := o.opts.ScheduledItemLimit
	if onDemand {
		limit = o.opts.OnDemandItemLimit
	}
	if len(items) > limit {
		items = items[:limit]
	}

	dealsFound := 0
	var samples []model.Deal
	for _, item := range items {
		for _, retailer := range pricing.Retailers {
			obs := o.opts.Generator.Observe(item, retailer)
			if err := o.opts.Prices.Upsert(obs); err != nil {
				o.opts.Metrics.PriceFailures.Inc()
				o.log.Error("price_sync_failed", "run_id", runID, "error", err)
				return PriceResult{}, fmt.Errorf("upsert observation %s/%s: %w", obs.SetID, retailer, err)
			}
			o.opts.Metrics.ObservationsWritten.Inc()

			if deal, ok := pricing.Evaluate(obs); ok {
				if err := o.opts.Deals.Upsert(deal); err != nil {
					o.opts.Metrics.PriceFailures.Inc()
					o.log.Error("price_sync_failed", "run_id", runID, "error", err)
					return PriceResult{}, fmt.Errorf("upsert deal %s/%s: %w", deal.SetID, retailer, err)
				}
				dealsFound++
				o.opts.Metrics.DealsFound.Inc()
				if len(samples) < sampleSize {
					samples = append(samples, deal)
				}
				o.publishDeal(deal)
			}

			if !onDemand && o.opts.RetailerDelay > 0 {
				select {
				case <-time.After(o.opts.RetailerDelay):
				case <-ctx.Done():
					o.opts.Metrics.PriceFailures.Inc()
					return PriceResult{}, fmt.Errorf("price sync canceled: %w", ctx.Err())
				}
			}
		}
	}

	swept, err := o.opts.Sweeper.Sweep(o.opts.DealHorizon)
	if err != nil {
		o.opts.Metrics.PriceFailures.Inc()
		o.log.Error("price_sync_failed", "run_id", runID, "error", err)
		return PriceResult{}, fmt.Errorf("retention sweep: %w", err)
	}
	o.opts.Metrics.DealsSwept.Add(float64(swept))

	catalogSize, err := o.opts.Catalog.Count()
	if err != nil {
		return PriceResult{}, fmt.Errorf("count catalog: %w", err)
	}

	out := PriceResult{
		RunID:       runID,
		CatalogSize: catalogSize,
		DealsFound:  dealsFound,
		DealsSwept:  swept,
		SampleDeals: samples,
	}
	o.opts.Metrics.PriceRuns.Inc()
	o.opts.Metrics.RunSeconds.Observe(time.Since(start).Seconds())
	o.log.Info("price_sync_done", "run_id", runID, "items", len(items), "deals_found", dealsFound,
		"deals_swept", swept, "elapsed", time.Since(start).Round(time.Millisecond).String())
	return out, nil
}

// HealthCheck returns read-only collection counts.
func (o *Orchestrator) HealthCheck() (Health, error) {
	catalogSize, err := o.opts.Catalog.Count()
	if err != nil {
		return Health{}, fmt.Errorf("count catalog: %w", err)
	}
	dealsCount, err := o.opts.Deals.Count()
	if err != nil {
		return Health{}, fmt.Errorf("count deals: %w", err)
	}
	return Health{CatalogSize: catalogSize, DealsCount: dealsCount}, nil
}

// candidateItems reads pricing candidates, seeding the catalog from upstream
// first when it is empty.
func (o *Orchestrator) candidateItems(ctx context.Context) ([]model.CatalogItem, error) {
	items, err := o.opts.Catalog.QueryAvailable(store.QueryAvailableLimit)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	if len(items) > 0 {
		return items, nil
	}

	o.log.Info("price_sync_seeding_catalog")
	res := o.opts.Fetcher.Fetch(ctx)
	o.opts.Metrics.PagesFetched.Add(float64(res.Pages))
	if !res.Complete {
		o.opts.Metrics.FetchTruncated.Inc()
	}
	if err := o.opts.Catalog.UpsertBatch(res.Items); err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	o.opts.Metrics.ItemsUpserted.Add(float64(len(res.Items)))

	items, err = o.opts.Catalog.QueryAvailable(store.QueryAvailableLimit)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	return items, nil
}

// publishDeal appends the deal to the feed. Best effort: failures are logged
// and counted, never escalated.
func (o *Orchestrator) publishDeal(deal model.Deal) {
	if o.opts.Feed == nil {
		return
	}
	if err := o.opts.Feed.Append(feed.FromDeal(deal)); err != nil {
		o.opts.Metrics.FeedErrors.Inc()
		o.log.Error("deal_feed_append_failed", "key", model.PairKey(deal.SetID, deal.Retailer), "error", err)
	}
}

func topThemes(items []model.CatalogItem, n int) []ThemeCount {
	counts := make(map[string]int)
	for _, it := range items {
		counts[it.Theme]++
	}
	out := make([]ThemeCount, 0, len(counts))
	for theme, count := range counts {
		out = append(out, ThemeCount{Theme: theme, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Theme < out[j].Theme
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func sampleItems(items []model.CatalogItem, n int) []model.CatalogItem {
	if len(items) > n {
		items = items[:n]
	}
	return append([]model.CatalogItem(nil), items...)
}
