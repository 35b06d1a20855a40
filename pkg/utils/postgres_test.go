package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolDefaults(t *testing.T) {
	cfg := PostgresPoolConfig{}.withDefaults()
	if cfg.MaxOpenConns != 25 || cfg.MaxIdleConns != 25 {
		t.Fatalf("unexpected conn defaults: %+v", cfg)
	}
	if cfg.PingTimeout != 5*time.Second {
		t.Fatalf("expected 5s ping timeout, got %v", cfg.PingTimeout)
	}
}

func TestPostgresPoolExplicitValuesKept(t *testing.T) {
	cfg := PostgresPoolConfig{MaxOpenConns: 5, PingTimeout: time.Second}.withDefaults()
	if cfg.MaxOpenConns != 5 {
		t.Fatalf("explicit MaxOpenConns overridden: %d", cfg.MaxOpenConns)
	}
	if cfg.PingTimeout != time.Second {
		t.Fatalf("explicit PingTimeout overridden: %v", cfg.PingTimeout)
	}
}
