package widget

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/checkout-widget/internal/constants"
)

func TestBuildPayload(t *testing.T) {
	cfg, _ := Normalize(RawConfig{
		Title:          "Checkout",
		OrderTitle:     "Premium plan",
		PaymentType:    constants.PaymentTypeRecurring,
		Interval:       constants.IntervalYearly,
		Amount:         "1200",
		WebhookURL:     "https://hook.example.com",
		SuccessURL:     "https://site/ok",
		FailedURL:      "https://site/failed",
		CurrencySymbol: "₱",
	}, nil)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	payload := BuildPayload(cfg, PayloadInput{
		Fields:       Fields{Name: "  Juan dela Cruz ", Email: " juan@example.com ", Phone: "9171234567"},
		Selection:    Selection{Group: constants.ChannelGroupEwallets, Method: "GCASH"},
		UserAgent:    "test-agent",
		SubmissionID: "sub-1",
		Now:          now,
	})

	if payload.Customer.Name != "Juan dela Cruz" || payload.Customer.FirstName != "Juan" || payload.Customer.LastName != "dela Cruz" {
		t.Fatalf("unexpected customer name: %+v", payload.Customer)
	}
	if payload.Customer.Email != "juan@example.com" {
		t.Fatalf("email should be trimmed, got %q", payload.Customer.Email)
	}
	if payload.Customer.Phone.E164 != "+639171234567" || payload.Customer.Phone.Country != "PH" {
		t.Fatalf("unexpected phone: %+v", payload.Customer.Phone)
	}
	if payload.Order.PriceSuffix != "/yr" || payload.Order.Amount != "1200" {
		t.Fatalf("unexpected order: %+v", payload.Order)
	}
	if payload.Channel.Method == nil || *payload.Channel.Method != "GCASH" {
		t.Fatalf("unexpected channel: %+v", payload.Channel)
	}
	if payload.Redirects.FailedURL != "https://site/failed" {
		t.Fatalf("unexpected redirects: %+v", payload.Redirects)
	}
	if payload.Meta.Timestamp != "2026-01-02T03:04:05Z" || payload.Meta.SubmissionID != "sub-1" {
		t.Fatalf("unexpected meta: %+v", payload.Meta)
	}
}

func TestBuildPayloadWithoutMethodEncodesNull(t *testing.T) {
	payload := BuildPayload(Configuration{}, PayloadInput{
		Selection: Selection{Group: constants.ChannelGroupBank},
	})
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(body), `"channel":{"group":"BANK","method":null}`) {
		t.Fatalf("expected null method, got %s", body)
	}
	if payload.Meta.Timestamp == "" {
		t.Fatalf("timestamp should default to now")
	}
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in    string
		first string
		last  string
	}{
		{in: "Juan", first: "Juan", last: ""},
		{in: "Maria Clara Santos", first: "Maria Clara", last: "Santos"},
		{in: "Dr. Jose Rizal Jr.", first: "Jose", last: "Rizal"},
		{in: "Ludwig van Beethoven", first: "Ludwig", last: "van Beethoven"},
		{in: "  ", first: "", last: ""},
		{in: "Ana <script>", first: "Ana", last: "script"},
	}
	for _, tc := range cases {
		first, last := SplitName(tc.in)
		if first != tc.first || last != tc.last {
			t.Fatalf("SplitName(%q)=(%q,%q) want (%q,%q)", tc.in, first, last, tc.first, tc.last)
		}
	}
}
