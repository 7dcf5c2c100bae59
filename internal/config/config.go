// Package config loads runtime configuration from environment variables.
// Commands layer flag overrides on top of the parsed values.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the knobs for the sync pipeline and its trigger adapters.
type Config struct {
	// Upstream catalog API.
	CatalogBaseURL string        `env:"CATALOG_BASE_URL" envDefault:"https://rebrickable.com/api/v3/lego"`
	CatalogAPIKey  string        `env:"CATALOG_API_KEY"`
	PageDelay      time.Duration `env:"CATALOG_PAGE_DELAY" envDefault:"300ms"`

	// Storage.
	StateBackend string `env:"STATE_BACKEND" envDefault:"pebble"` // memory|pebble|badger
	DataDir      string `env:"DATA_DIR" envDefault:"./data/bricksync"`

	// Price job bounds.
	ScheduledItemLimit int           `env:"SCHEDULED_ITEM_LIMIT" envDefault:"100"`
	OnDemandItemLimit  int           `env:"ONDEMAND_ITEM_LIMIT" envDefault:"50"`
	RetailerDelay      time.Duration `env:"RETAILER_DELAY" envDefault:"50ms"`

	// Retention.
	DealHorizon time.Duration `env:"DEAL_HORIZON" envDefault:"24h"`

	// Scheduler and HTTP triggers.
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	CatalogInterval time.Duration `env:"CATALOG_INTERVAL" envDefault:"6h"`
	PriceInterval   time.Duration `env:"PRICE_INTERVAL" envDefault:"30m"`

	// Export.
	ExportDir string `env:"EXPORT_DIR" envDefault:"./exports"`

	// Kafka (optional; empty bootstrap disables both feed and trigger).
	KafkaBootstrap string `env:"KAFKA_BOOTSTRAP"`
	FeedSink       string `env:"FEED_SINK" envDefault:"file"` // file|kafka|both
	FeedDir        string `env:"FEED_DIR" envDefault:"./feed"`
	TopicDeals     string `env:"TOPIC_DEALS" envDefault:"bricksync.deals"`
	TopicManifest  string `env:"TOPIC_MANIFEST" envDefault:"bricksync.catalog-manifest"`
	TopicTrigger   string `env:"TOPIC_TRIGGER" envDefault:"bricksync.trigger"`
	TriggerGroupID string `env:"TRIGGER_GROUP_ID" envDefault:"bricksync-syncd"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
