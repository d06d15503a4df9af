package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal defaults failed: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Server.Mode != "debug" {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Redis.Enabled || cfg.Queue.Enabled {
		t.Fatalf("redis and queue should be disabled by default")
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.MaxRequests != 20 || cfg.RateLimit.WindowSeconds != 60 {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.Queue.Queues["default"] != 10 {
		t.Fatalf("unexpected queue weights: %+v", cfg.Queue.Queues)
	}
	if cfg.Webhook.Timeout() != 15*time.Second {
		t.Fatalf("unexpected default webhook timeout: %v", cfg.Webhook.Timeout())
	}
	if cfg.Webhook.AllowPrivateNetworks || len(cfg.Webhook.AllowedHosts) != 0 {
		t.Fatalf("webhook should refuse private networks by default: %+v", cfg.Webhook)
	}
	if cfg.Webhook.InFlightTTL() != 2*time.Minute {
		t.Fatalf("unexpected inflight ttl: %v", cfg.Webhook.InFlightTTL())
	}
	if cfg.Widget.MaxConfigBytes != 16384 {
		t.Fatalf("unexpected max config bytes: %d", cfg.Widget.MaxConfigBytes)
	}
}

func TestWebhookDurations(t *testing.T) {
	cfg := WebhookConfig{TimeoutSeconds: 15, InFlightTTLSeconds: -1}
	if cfg.Timeout() != 15*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Timeout())
	}
	if cfg.InFlightTTL() != 0 {
		t.Fatalf("negative ttl should map to zero, got %v", cfg.InFlightTTL())
	}
	if (WebhookConfig{}).Timeout() != defaultWebhookTimeout {
		t.Fatalf("unset timeout should fall back to default")
	}
}

func TestLogConfigToLoggerOptions(t *testing.T) {
	opts := LogConfig{Dir: "/var/log/cw", Level: "warn", MaxSizeMB: 5}.ToLoggerOptions()
	if opts.Dir != "/var/log/cw" || opts.Level != "warn" || opts.MaxSizeMB != 5 {
		t.Fatalf("unexpected logger options: %+v", opts)
	}
}
