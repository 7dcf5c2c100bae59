// Command syncrun performs a single catalog and/or price sync and exits.
// With -restore it loads the latest catalog export instead of fetching.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"bricksync/internal/catalog"
	"bricksync/internal/config"
	"bricksync/internal/export"
	"bricksync/internal/metrics"
	"bricksync/internal/pricing"
	"bricksync/internal/retention"
	"bricksync/internal/state"
	"bricksync/internal/store"
	syncer "bricksync/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	var (
		doCatalog      = flag.Bool("catalog", false, "run a catalog sync")
		doPrices       = flag.Bool("prices", false, "run a price sync")
		doRestore      = flag.Bool("restore", false, "restore the catalog from the latest export")
		manifestSource = flag.String("manifest-source", "file", "manifest source for restore: file|kafka")
	)
	flag.StringVar(&cfg.CatalogBaseURL, "base-url", cfg.CatalogBaseURL, "upstream catalog API base URL")
	flag.StringVar(&cfg.CatalogAPIKey, "api-key", cfg.CatalogAPIKey, "upstream catalog API key")
	flag.StringVar(&cfg.StateBackend, "state-backend", cfg.StateBackend, "state backend: memory|pebble|badger")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "state data directory")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if !*doCatalog && !*doPrices && !*doRestore {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -catalog, -prices and/or -restore")
		os.Exit(2)
	}

	if err := run(cfg, log, *doCatalog, *doPrices, *doRestore, *manifestSource); err != nil {
		log.Error("syncrun_failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger, doCatalog, doPrices, doRestore bool, manifestSource string) error {
	st, err := openState(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	catalogStore := store.NewCatalogStore(st)
	priceStore := store.NewPriceStore(st)
	dealStore := store.NewDealStore(st)

	if doRestore {
		n, err := restoreCatalog(cfg, catalogStore, manifestSource)
		if err != nil {
			return err
		}
		log.Info("catalog_restored", "items", n)
	}

	orc := syncer.NewOrchestrator(syncer.Options{
		Fetcher: catalog.NewFetcher(catalog.Config{
			BaseURL:   cfg.CatalogBaseURL,
			APIKey:    cfg.CatalogAPIKey,
			PageDelay: cfg.PageDelay,
		}, log),
		Generator:          pricing.NewGenerator(nil),
		Catalog:            catalogStore,
		Prices:             priceStore,
		Deals:              dealStore,
		Sweeper:            retention.NewSweeper(dealStore, log),
		Exporter:           export.NewExporter(cfg.ExportDir, nil),
		Metrics:            metrics.NewRegistry(),
		Log:                log,
		ScheduledItemLimit: cfg.ScheduledItemLimit,
		OnDemandItemLimit:  cfg.OnDemandItemLimit,
		RetailerDelay:      cfg.RetailerDelay,
		DealHorizon:        cfg.DealHorizon,
	})

	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if doCatalog {
		res, err := orc.RunCatalogSync(ctx)
		if err != nil {
			return fmt.Errorf("catalog sync: %w", err)
		}
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	if doPrices {
		res, err := orc.RunPriceSync(ctx, true)
		if err != nil {
			return fmt.Errorf("price sync: %w", err)
		}
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	return nil
}

func openState(cfg config.Config) (state.Store, error) {
	switch cfg.StateBackend {
	case "pebble":
		st, err := state.NewPebbleStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("init pebble: %w", err)
		}
		return st, nil
	case "badger":
		st, err := state.NewBadgerStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("init badger: %w", err)
		}
		return st, nil
	case "memory":
		return state.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}
}

func restoreCatalog(cfg config.Config, cs *store.CatalogStore, source string) (int, error) {
	var reader export.Reader
	switch source {
	case "kafka":
		if cfg.KafkaBootstrap == "" {
			return 0, fmt.Errorf("kafka manifest source requires KAFKA_BOOTSTRAP")
		}
		reader = export.NewKafkaManifestReader([]string{cfg.KafkaBootstrap}, cfg.TopicManifest)
	case "file":
		reader = export.NewFilesystemManifest(cfg.ExportDir)
	default:
		return 0, fmt.Errorf("unknown manifest source %q", source)
	}

	m, err := reader.ReadLatest()
	if err != nil {
		return 0, fmt.Errorf("read manifest: %w", err)
	}
	n, err := export.Restore(cfg.ExportDir, m, cs)
	if err != nil {
		return 0, fmt.Errorf("restore: %w", err)
	}
	return n, nil
}
