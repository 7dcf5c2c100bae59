package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StateBackend != "pebble" {
		t.Fatalf("backend=%q", cfg.StateBackend)
	}
	if cfg.ScheduledItemLimit != 100 || cfg.OnDemandItemLimit != 50 {
		t.Fatalf("item limits=%d/%d", cfg.ScheduledItemLimit, cfg.OnDemandItemLimit)
	}
	if cfg.PageDelay != 300*time.Millisecond || cfg.RetailerDelay != 50*time.Millisecond {
		t.Fatalf("delays=%v/%v", cfg.PageDelay, cfg.RetailerDelay)
	}
	if cfg.DealHorizon != 24*time.Hour {
		t.Fatalf("horizon=%v", cfg.DealHorizon)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STATE_BACKEND", "memory")
	t.Setenv("SCHEDULED_ITEM_LIMIT", "7")
	t.Setenv("DEAL_HORIZON", "48h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StateBackend != "memory" || cfg.ScheduledItemLimit != 7 || cfg.DealHorizon != 48*time.Hour {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}
