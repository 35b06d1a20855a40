package utils

import (
	"testing"
	"time"
)

func TestCallSlotScriptsCompile(t *testing.T) {
	if callSlotAcquireScript == nil || callSlotReleaseScript == nil {
		t.Fatalf("expected slot scripts to be initialized")
	}
}

func TestRedisConfigDefaults(t *testing.T) {
	cfg := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if cfg.DialTimeout <= 0 || cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		t.Fatalf("expected timeout defaults, got %+v", cfg)
	}
	if cfg.PoolSize <= 0 || cfg.PoolTimeout <= 0 {
		t.Fatalf("expected pool defaults, got %+v", cfg)
	}
	if cfg.PingTimeout != 2*time.Second {
		t.Fatalf("expected 2s ping timeout, got %v", cfg.PingTimeout)
	}
}
