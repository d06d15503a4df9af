package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/checkout-widget/internal/config"
	"github.com/checkout-widget/internal/widget"
)

func newTestService() *WidgetService {
	cfg := &config.Config{}
	cfg.Widget.PublicBaseURL = "https://widgets.example.com"
	cfg.Widget.MaxConfigBytes = 4096
	return NewWidgetService(cfg, nil, nil)
}

func TestWidgetServiceNormalize(t *testing.T) {
	svc := newTestService()
	result, err := svc.Normalize(widget.RawConfig{Title: "Plan", Amount: "10.00"})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if result.Config.Amount != "10" {
		t.Fatalf("amount want 10 got %s", result.Config.Amount)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("missing submission target should warn, got %v", result.Warnings)
	}
	if !strings.Contains(result.EmbedSnippet, "https://widgets.example.com/widget/"+result.Fragment) {
		t.Fatalf("unexpected embed snippet: %s", result.EmbedSnippet)
	}

	resolved, err := svc.ResolveFragment(result.Fragment)
	if err != nil {
		t.Fatalf("resolve fragment failed: %v", err)
	}
	if resolved.Title != "Plan" {
		t.Fatalf("unexpected resolved config: %+v", resolved)
	}
}

func TestWidgetServiceRejectsLargeOrInvalidFragment(t *testing.T) {
	svc := newTestService()
	if _, err := svc.ResolveFragment(strings.Repeat("a", 5000)); !errors.Is(err, ErrWidgetConfigTooLarge) {
		t.Fatalf("expected ErrWidgetConfigTooLarge, got %v", err)
	}
	if _, err := svc.ResolveFragment("%%%"); !errors.Is(err, ErrWidgetConfigInvalid) {
		t.Fatalf("expected ErrWidgetConfigInvalid, got %v", err)
	}
	if _, err := svc.ResolveConfig(nil, " "); !errors.Is(err, ErrWidgetConfigInvalid) {
		t.Fatalf("expected ErrWidgetConfigInvalid for empty input, got %v", err)
	}
}

func TestWidgetServiceResolveConfigPrefersRaw(t *testing.T) {
	svc := newTestService()
	cfg, err := svc.ResolveConfig(&widget.RawConfig{Title: "Raw"}, "ignored")
	if err != nil {
		t.Fatalf("resolve config failed: %v", err)
	}
	if cfg.Title != "Raw" {
		t.Fatalf("raw config should win, got %+v", cfg)
	}
}

func TestWidgetServiceNewRuntimeInstanceID(t *testing.T) {
	svc := newTestService()
	cfg, _ := widget.Normalize(widget.RawConfig{SuccessURL: "https://site/ok"}, nil)

	if _, err := svc.NewRuntime(cfg, "not-a-uuid"); !errors.Is(err, ErrInstanceIDInvalid) {
		t.Fatalf("expected ErrInstanceIDInvalid, got %v", err)
	}
	id := "4a7b5a8e-1f39-4d4c-9d0f-6c2b3a1e5f70"
	rt, err := svc.NewRuntime(cfg, id)
	if err != nil {
		t.Fatalf("new runtime failed: %v", err)
	}
	if rt.ID() != id {
		t.Fatalf("runtime id want %s got %s", id, rt.ID())
	}
	fresh, err := svc.NewRuntime(cfg, "")
	if err != nil || fresh.ID() == "" || fresh.ID() == id {
		t.Fatalf("empty instance id should generate a new one, got %q %v", fresh.ID(), err)
	}
}

func TestWidgetServiceLookupSubmissionWithoutCache(t *testing.T) {
	svc := newTestService()
	if _, err := svc.LookupSubmission(context.Background(), "bad id"); !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
	if _, err := svc.LookupSubmission(context.Background(), "4a7b5a8e-1f39-4d4c-9d0f-6c2b3a1e5f70"); !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound without cache, got %v", err)
	}
}
