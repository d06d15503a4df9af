package widget

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var normalizedAmountPattern = regexp.MustCompile(`^(0|[1-9]\d*)(\.\d{2})?$`)

func TestNormalizeAmountProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("normalized amount is idempotent", prop.ForAll(
		func(raw string) bool {
			once := NormalizeAmount(raw)
			return NormalizeAmount(once) == once
		},
		gen.AnyString(),
	))

	properties.Property("normalized amount never ends with .00 and is non-negative", prop.ForAll(
		func(value float64) bool {
			got := NormalizeAmount(decimalText(value))
			return normalizedAmountPattern.MatchString(got)
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.TestingRun(t)
}

func TestFilterPhoneInputProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("filtered phone has at most 10 digits", prop.ForAll(
		func(raw string) bool {
			got := FilterPhoneInput(raw)
			return len(got) <= 10 && nonDigitPattern.FindString(got) == ""
		},
		gen.AnyString(),
	))

	properties.Property("filter is idempotent", prop.ForAll(
		func(raw string) bool {
			once := FilterPhoneInput(raw)
			return FilterPhoneInput(once) == once
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestNormalizeHexColorProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("result is always a valid color", prop.ForAll(
		func(raw string) bool {
			return hexColorPattern.MatchString(NormalizeHexColor(raw, "#000000"))
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func decimalText(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
