package widget

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/checkout-widget/internal/constants"

	"go.uber.org/zap"
)

func newTestRuntime(raw RawConfig, opts ...ControllerOption) *Runtime {
	cfg, _ := Normalize(raw, nil)
	opts = append([]ControllerOption{WithLogger(zap.NewNop().Sugar())}, opts...)
	return NewRuntime(cfg, opts...)
}

func renderString(t *testing.T, runtime *Runtime, params RenderParams) string {
	t.Helper()
	var buf bytes.Buffer
	if err := runtime.Render(&buf, params); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return buf.String()
}

func TestRenderShowsPlaceholdersForEmptyGroups(t *testing.T) {
	runtime := newTestRuntime(RawConfig{SuccessURL: "https://site/ok"})
	html := renderString(t, runtime, RenderParams{ActionURL: "/widget/x/submit"})
	if !strings.Contains(html, EmptyEwalletsText) || !strings.Contains(html, EmptyBankText) {
		t.Fatalf("expected empty placeholders, got %s", html)
	}
	if strings.Contains(html, "<html") {
		t.Fatalf("fragment render should not include document wrapper")
	}
}

func TestRenderScopesBrandColors(t *testing.T) {
	runtime := newTestRuntime(RawConfig{BrandColor: "#FF0000", AccentColor: "00ff00", SuccessURL: "https://site/ok"})
	html := renderString(t, runtime, RenderParams{FullPage: true})
	if !strings.Contains(html, "--cw-brand: #ff0000") || !strings.Contains(html, "--cw-accent: #00ff00") {
		t.Fatalf("expected scoped css variables, got %s", html)
	}
	if !strings.Contains(html, `id="cw-`+runtime.ID()+`"`) {
		t.Fatalf("root should carry instance id")
	}
	if !strings.Contains(html, `name="instance" value="`+runtime.ID()+`"`) {
		t.Fatalf("form should carry hidden instance id")
	}
	if !strings.Contains(html, "<!doctype html>") {
		t.Fatalf("full page render should include document wrapper")
	}
}

func TestRenderPriceAndEscaping(t *testing.T) {
	runtime := newTestRuntime(RawConfig{
		Title:        "<b>Plan</b>",
		PriceEnabled: true,
		Amount:       "1499.00",
		PaymentType:  constants.PaymentTypeRecurring,
		Interval:     constants.IntervalMonthly,
		SuccessURL:   "https://site/ok",
	})
	html := renderString(t, runtime, RenderParams{})
	if !strings.Contains(html, "₱1499/mo") {
		t.Fatalf("expected price text, got %s", html)
	}
	if strings.Contains(html, "<b>Plan</b>") || !strings.Contains(html, "&lt;b&gt;Plan&lt;/b&gt;") {
		t.Fatalf("title should be escaped, got %s", html)
	}
}

func TestRuntimeHandleInputSelectsChannels(t *testing.T) {
	runtime := newTestRuntime(RawConfig{
		EwalletChannels: []string{"GCASH", "MAYA"},
		BankChannels:    []string{"BPI"},
		SuccessURL:      "https://site/ok",
	})
	validation, err := runtime.HandleInput(FormInput{
		Fields:        Fields{Name: "Juan", Email: "juan@example.com", Phone: "0917-123-4567"},
		Group:         constants.ChannelGroupBank,
		EwalletMethod: "MAYA",
		BankMethod:    "BPI",
	})
	if err != nil {
		t.Fatalf("handle input failed: %v", err)
	}
	if validation.Phone.Valid {
		t.Fatalf("filtered phone 0917123456 should be invalid")
	}
	current := runtime.Selector().CurrentSelection()
	if current.Group != constants.ChannelGroupBank || current.Method != "BPI" {
		t.Fatalf("unexpected selection: %+v", current)
	}

	html := renderString(t, runtime, RenderParams{})
	if !strings.Contains(html, `value="MAYA" checked`) || !strings.Contains(html, `value="BPI" checked`) {
		t.Fatalf("remembered methods should be checked, got %s", html)
	}
	if !strings.Contains(html, MessagePhoneInvalid) {
		t.Fatalf("inline phone error should render")
	}

	if _, err := runtime.HandleInput(FormInput{EwalletMethod: "PAYPAL"}); !errors.Is(err, ErrChannelNotOffered) {
		t.Fatalf("expected ErrChannelNotOffered, got %v", err)
	}
}

func TestRuntimeSubmitStoresMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	runtime := newTestRuntime(RawConfig{WebhookURL: server.URL, EwalletChannels: []string{"GCASH"}})
	outcome, err := runtime.Submit(context.Background(), FormInput{Fields: validFields, EwalletMethod: "GCASH"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if outcome.HTTPStatus != http.StatusBadGateway {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	html := renderString(t, runtime, RenderParams{})
	if !strings.Contains(html, "(502)") {
		t.Fatalf("failure message should render, got %s", html)
	}
	if strings.Contains(html, " disabled>") {
		t.Fatalf("submit button should be enabled after failure")
	}
}

func TestEmbedSnippet(t *testing.T) {
	cfg, _ := Normalize(RawConfig{Title: "Plan", SuccessURL: "https://site/ok"}, nil)
	snippet, err := EmbedSnippet(cfg, "https://widgets.example.com/")
	if err != nil {
		t.Fatalf("embed snippet failed: %v", err)
	}
	fragment, _ := EncodeConfigFragment(cfg)
	if !strings.Contains(snippet, `src="https://widgets.example.com/widget/`+fragment+`"`) {
		t.Fatalf("unexpected snippet: %s", snippet)
	}
	if !strings.Contains(snippet, `title="Plan"`) {
		t.Fatalf("snippet should carry title: %s", snippet)
	}
}

func TestRenderNavigationTargetsTopWindow(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderNavigation(&buf, "https://pay.example.com/c?id=1&x=\"y\""); err != nil {
		t.Fatalf("render navigation failed: %v", err)
	}
	body := buf.String()
	if !strings.Contains(body, "window.top.location.href") || !strings.Contains(body, `target="_top"`) {
		t.Fatalf("navigation page should target the top window: %s", body)
	}
	if strings.Contains(body, `"y"`) {
		t.Fatalf("target should be escaped: %s", body)
	}

	for _, target := range []string{"javascript:alert(1)", "", "/relative"} {
		buf.Reset()
		if err := RenderNavigation(&buf, target); !errors.Is(err, ErrTargetURLUnsupported) {
			t.Fatalf("RenderNavigation(%q) want ErrTargetURLUnsupported got %v", target, err)
		}
	}
}
