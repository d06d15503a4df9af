package widget

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	if !ValidateName("Al").Valid {
		t.Fatalf("Al should be valid")
	}
	if !ValidateName("  Jo  ").Valid {
		t.Fatalf("trimmed Jo should be valid")
	}
	result := ValidateName("A")
	if result.Valid || result.Message != MessageNameInvalid {
		t.Fatalf("A should be invalid with name message, got %+v", result)
	}
	if ValidateName("   ").Valid {
		t.Fatalf("blank name should be invalid")
	}
}

func TestValidateEmail(t *testing.T) {
	if !ValidateEmail("a@b.com").Valid {
		t.Fatalf("a@b.com should be valid")
	}
	result := ValidateEmail("not-an-email")
	if result.Valid || result.Message != MessageEmailInvalid {
		t.Fatalf("not-an-email should be invalid, got %+v", result)
	}
	if ValidateEmail("").Valid {
		t.Fatalf("empty email should be invalid")
	}
}

func TestValidatePhone(t *testing.T) {
	if !ValidatePhone("9171234567").Valid {
		t.Fatalf("9171234567 should be valid")
	}
	result := ValidatePhone("8171234567")
	if result.Valid || !strings.Contains(result.Message, "starting with 9") {
		t.Fatalf("8171234567 should be invalid, got %+v", result)
	}
	if ValidatePhone("917123456").Valid {
		t.Fatalf("9 digits should be invalid")
	}
}

func TestFilterPhoneInput(t *testing.T) {
	cases := map[string]string{
		"917-123-4567":   "9171234567",
		"+63 917 123 45": "63917123",
		"91712345678999": "9171234567",
		"abc":            "",
	}
	for in, want := range cases {
		if got := FilterPhoneInput(in); got != want {
			t.Fatalf("FilterPhoneInput(%q)=%q want %q", in, got, want)
		}
	}
}

func TestValidateFieldsFirstErrorOrder(t *testing.T) {
	result := ValidateFields(Fields{Name: "A", Email: "bad", Phone: "1"})
	if result.Valid() {
		t.Fatalf("expected invalid result")
	}
	if result.FirstError() != MessageNameInvalid {
		t.Fatalf("first error should be name, got %s", result.FirstError())
	}

	result = ValidateFields(Fields{Name: "Juan", Email: "bad", Phone: "1"})
	if result.FirstError() != MessageEmailInvalid {
		t.Fatalf("first error should be email, got %s", result.FirstError())
	}

	result = ValidateFields(Fields{Name: "Juan", Email: "juan@example.com", Phone: "9171234567"})
	if !result.Valid() || result.FirstError() != "" {
		t.Fatalf("expected valid result, got %+v", result)
	}
}
