package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"bricksync/internal/catalog"
	"bricksync/internal/config"
	"bricksync/internal/export"
	"bricksync/internal/feed"
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
	readFlags(&cfg)

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("syncd_failed", "error", err)
		os.Exit(1)
	}
}

// readFlags layers CLI overrides on top of the environment config.
func readFlags(cfg *config.Config) {
	flag.StringVar(&cfg.CatalogBaseURL, "base-url", cfg.CatalogBaseURL, "upstream catalog API base URL")
	flag.StringVar(&cfg.CatalogAPIKey, "api-key", cfg.CatalogAPIKey, "upstream catalog API key")
	flag.StringVar(&cfg.StateBackend, "state-backend", cfg.StateBackend, "state backend: memory|pebble|badger")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "state data directory")
	flag.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	flag.StringVar(&cfg.KafkaBootstrap, "kafka-bootstrap", cfg.KafkaBootstrap, "kafka bootstrap servers, e.g. localhost:9092")
	flag.StringVar(&cfg.FeedSink, "feed-sink", cfg.FeedSink, "deal feed sink: file|kafka|both")
	flag.DurationVar(&cfg.CatalogInterval, "catalog-interval", cfg.CatalogInterval, "scheduled catalog sync interval")
	flag.DurationVar(&cfg.PriceInterval, "price-interval", cfg.PriceInterval, "scheduled price sync interval")
	flag.Parse()
}

func run(cfg config.Config, log *slog.Logger) error {
	st, err := openState(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	catalogStore := store.NewCatalogStore(st)
	priceStore := store.NewPriceStore(st)
	dealStore := store.NewDealStore(st)

	feedWriter, err := buildFeed(cfg)
	if err != nil {
		return err
	}

	var manifestPub export.Publisher = export.NewFilesystemManifest(cfg.ExportDir)
	if cfg.KafkaBootstrap != "" {
		manifestPub = export.MultiPublisher(manifestPub, export.NewKafkaManifest(cfg.KafkaBootstrap, cfg.TopicManifest))
	}

	mreg := metrics.NewRegistry()
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
		Feed:               feedWriter,
		Exporter:           export.NewExporter(cfg.ExportDir, manifestPub),
		Metrics:            mreg,
		Log:                log,
		ScheduledItemLimit: cfg.ScheduledItemLimit,
		OnDemandItemLimit:  cfg.OnDemandItemLimit,
		RetailerDelay:      cfg.RetailerDelay,
		DealHorizon:        cfg.DealHorizon,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runScheduler(ctx, cfg, orc, log)
	if cfg.KafkaBootstrap != "" && cfg.TopicTrigger != "" {
		go runTriggerConsumer(ctx, cfg, orc, log)
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: newMux(orc, mreg),
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("http_listen", "addr", cfg.HTTPAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown_requested")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http serve: %w", err)
	}
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

// buildFeed wires the deal feed sink. Returns nil when nothing is configured,
// which disables feed emission.
func buildFeed(cfg config.Config) (feed.Writer, error) {
	var w feed.Writer
	if cfg.FeedSink == "file" || cfg.FeedSink == "both" {
		fw, err := feed.NewFileWriter(cfg.FeedDir, "deals.jsonl")
		if err != nil {
			return nil, fmt.Errorf("init feed file: %w", err)
		}
		w = fw
	}
	if (cfg.FeedSink == "kafka" || cfg.FeedSink == "both") && cfg.KafkaBootstrap != "" {
		kw := feed.NewKafkaWriter(cfg.KafkaBootstrap, cfg.TopicDeals)
		if w == nil {
			w = kw
		} else {
			w = feed.NewMultiWriter(w, kw)
		}
	}
	return w, nil
}

func runScheduler(ctx context.Context, cfg config.Config, orc *syncer.Orchestrator, log *slog.Logger) {
	catalogTick := time.NewTicker(cfg.CatalogInterval)
	priceTick := time.NewTicker(cfg.PriceInterval)
	defer catalogTick.Stop()
	defer priceTick.Stop()

	// Populate the catalog before the first price tick fires.
	if _, err := orc.RunCatalogSync(ctx); err != nil {
		log.Error("initial_catalog_sync_failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-catalogTick.C:
			if _, err := orc.RunCatalogSync(ctx); err != nil {
				log.Error("scheduled_catalog_sync_failed", "error", err)
			}
		case <-priceTick.C:
			if _, err := orc.RunPriceSync(ctx, false); err != nil {
				log.Error("scheduled_price_sync_failed", "error", err)
			}
		}
	}
}

type triggerMessage struct {
	Job string `json:"job"` // catalog|prices
}

// runTriggerConsumer handles on-demand sync requests arriving over Kafka.
// Offsets are committed only after the requested job finished.
func runTriggerConsumer(ctx context.Context, cfg config.Config, orc *syncer.Orchestrator, log *slog.Logger) {
	c, err := ck.NewConsumer(&ck.ConfigMap{
		"bootstrap.servers":  cfg.KafkaBootstrap,
		"group.id":           cfg.TriggerGroupID,
		"enable.auto.commit": false,
		"auto.offset.reset":  "earliest",
	})
	if err != nil {
		log.Error("trigger_consumer_init_failed", "error", err)
		return
	}
	defer c.Close()
	if err := c.SubscribeTopics([]string{cfg.TopicTrigger}, nil); err != nil {
		log.Error("trigger_subscribe_failed", "error", err)
		return
	}

	for ctx.Err() == nil {
		msg, err := c.ReadMessage(time.Second)
		if err != nil {
			continue
		}
		var tm triggerMessage
		if err := json.Unmarshal(msg.Value, &tm); err != nil {
			log.Error("trigger_message_malformed", "error", err)
			_, _ = c.CommitMessage(msg)
			continue
		}
		switch tm.Job {
		case "catalog":
			if _, err := orc.RunCatalogSync(ctx); err != nil {
				log.Error("trigger_catalog_sync_failed", "error", err)
				continue
			}
		case "prices":
			if _, err := orc.RunPriceSync(ctx, true); err != nil {
				log.Error("trigger_price_sync_failed", "error", err)
				continue
			}
		default:
			log.Error("trigger_job_unknown", "job", tm.Job)
		}
		_, _ = c.CommitMessage(msg)
	}
}

func newMux(orc *syncer.Orchestrator, mreg *metrics.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", mreg.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h, err := orc.HealthCheck()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "error", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "catalogSize": h.CatalogSize, "dealsCount": h.DealsCount})
	})

	mux.HandleFunc("/sync/catalog", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		res, err := orc.RunCatalogSync(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	mux.HandleFunc("/sync/prices", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		res, err := orc.RunPriceSync(r.Context(), true)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
