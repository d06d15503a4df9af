package linkextract

import (
	"testing"
)

func TestExtractBytes(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		want  string
		found bool
	}{
		{name: "priority key", body: `{"payment_url":"https://x/y"}`, want: "https://x/y", found: true},
		{name: "nested topical", body: `{"data":{"session":{"checkout_link":"https://x/y"}}}`, want: "https://x/y", found: true},
		{name: "non topical", body: `{"foo":"https://x/y"}`, found: false},
		{name: "priority order", body: `{"url":"https://a/url","paymentUrl":"https://a/pay"}`, want: "https://a/pay", found: true},
		{name: "priority skips non url", body: `{"payment_url":"pending","link":"https://a/link"}`, want: "https://a/link", found: true},
		{name: "top level string", body: `"https://pay/abc"`, want: "https://pay/abc", found: true},
		{name: "array of objects", body: `[{"id":1},{"invoice":"https://a/inv"}]`, want: "https://a/inv", found: true},
		{name: "topical value only", body: `{"data":["https://example.com/checkout/123"]}`, want: "https://example.com/checkout/123", found: true},
		{name: "document order", body: `{"z":{"order_url":"https://a/first"},"a":{"order_url":"https://a/second"}}`, want: "https://a/first", found: true},
		{name: "not http", body: `{"payment_url":"ftp://x/y"}`, found: false},
		{name: "invalid json", body: `<html>oops</html>`, found: false},
		{name: "empty", body: ``, found: false},
		{name: "trailing garbage", body: `{"payment_url":"https://x/y"} extra`, found: false},
		{name: "trim whitespace", body: `{"checkout_url":"  https://x/y  "}`, want: "https://x/y", found: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, found := ExtractBytes([]byte(tc.body))
			if found != tc.found || got != tc.want {
				t.Fatalf("ExtractBytes(%s)=(%q,%v) want (%q,%v)", tc.body, got, found, tc.want, tc.found)
			}
		})
	}
}

func TestDecodePreservesOrder(t *testing.T) {
	value, ok := Decode([]byte(`{"b":1,"a":[true,null,"s"]}`))
	if !ok {
		t.Fatalf("decode failed")
	}
	if value.Kind != KindObject || len(value.Members) != 2 {
		t.Fatalf("unexpected value: %+v", value)
	}
	if value.Members[0].Key != "b" || value.Members[1].Key != "a" {
		t.Fatalf("member order not preserved: %+v", value.Members)
	}
	items := value.Members[1].Value.Items
	if len(items) != 3 || items[0].Kind != KindBool || items[1].Kind != KindNull || items[2].String != "s" {
		t.Fatalf("unexpected array items: %+v", items)
	}
	if number, _ := value.Lookup("b"); number.Number != "1" {
		t.Fatalf("unexpected number: %+v", number)
	}
}

func TestDecodeRejectsDeepNesting(t *testing.T) {
	body := make([]byte, 0, 2*(maxDecodeDepth+10))
	for i := 0; i < maxDecodeDepth+5; i++ {
		body = append(body, '[')
	}
	for i := 0; i < maxDecodeDepth+5; i++ {
		body = append(body, ']')
	}
	if _, ok := Decode(body); ok {
		t.Fatalf("deeply nested json should be rejected")
	}
}

func TestLookupKeepsLastDuplicateKey(t *testing.T) {
	value, ok := Decode([]byte(`{"payment_url":"https://a/first","payment_url":"https://a/last"}`))
	if !ok {
		t.Fatalf("decode failed")
	}
	got, found := value.Lookup("payment_url")
	if !found || got.String != "https://a/last" {
		t.Fatalf("lookup want last duplicate got %+v", got)
	}
	if link, _ := Extract(value); link != "https://a/last" {
		t.Fatalf("extract want last duplicate got %q", link)
	}

	value, _ = Decode([]byte(`{"order":"https://a/first","x":1,"order":"pending"}`))
	if len(value.Members) != 2 || value.Members[0].Key != "order" {
		t.Fatalf("duplicate key should keep its first position: %+v", value.Members)
	}
	if link, found := Extract(value); found {
		t.Fatalf("shadowed duplicate should not be used, got %q", link)
	}
}
