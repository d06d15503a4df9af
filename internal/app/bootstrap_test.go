package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/checkout-widget/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal defaults failed: %v", err)
	}
	cfg.Server.Port = "0"
	return &cfg
}

func TestBuildRunnerModes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	if _, _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("nil config should fail")
	}
	if _, _, err := BuildRunner(defaultConfig(t), "bogus"); err == nil {
		t.Fatalf("unknown mode should fail")
	}

	runner, container, err := BuildRunner(defaultConfig(t), ModeAll)
	if err != nil {
		t.Fatalf("build runner failed: %v", err)
	}
	defer container.Close()
	if len(runner.services) != 1 || runner.services[0].Name() != "http" {
		t.Fatalf("queue disabled should only run http, got %d services", len(runner.services))
	}

	if _, _, err := BuildRunner(defaultConfig(t), ModeWorker); err == nil {
		t.Fatalf("worker mode without queue should fail")
	}
}

type fakeService struct {
	name    string
	startFn func(ctx context.Context) error
	stopped bool
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error { return s.startFn(ctx) }

func (s *fakeService) Stop(context.Context) error {
	s.stopped = true
	return nil
}

func TestRunnerStopsAllServicesOnError(t *testing.T) {
	boom := errors.New("boom")
	failing := &fakeService{name: "failing", startFn: func(context.Context) error { return boom }}
	blocking := &fakeService{name: "blocking", startFn: func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}}

	err := NewRunner(failing, blocking).Run(context.Background(), time.Second, zap.NewNop().Sugar())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !failing.stopped || !blocking.stopped {
		t.Fatalf("all services should be stopped")
	}
}

func TestRunnerReturnsNilOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &fakeService{name: "svc", startFn: func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}}
	cancel()
	if err := NewRunner(svc).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]string{"": ModeAll, " API ": ModeAPI, "worker": ModeWorker}
	for raw, want := range cases {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q)=(%q,%v) want %q", raw, got, err, want)
		}
	}
	if _, err := ParseMode("cron"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}
