package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmountFormat is returned when no numeric value can be extracted from an amount.
var ErrInvalidAmountFormat = errors.New("invalid amount format")

var hundred = decimal.NewFromInt(100)

// ParseCents converts a monetary value received as a string or a JSON number
// into integer cents. Fractional cents are rounded half away from zero.
func ParseCents(v any) (int64, error) {
	switch val := v.(type) {
	case string:
		return ParseCentsString(val)
	case float64:
		return CentsFromFloat(val)
	case float32:
		return CentsFromFloat(float64(val))
	case int:
		return CentsFromFloat(float64(val))
	case int64:
		if val < 0 {
			return 0, fmt.Errorf("%w: %d is negative", ErrInvalidAmountFormat, val)
		}
		return val * 100, nil
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidAmountFormat, val)
		}
		return decimalToCents(d, val.String())
	case nil:
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmountFormat)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmountFormat, v)
	}
}

// CentsFromFloat converts a dollar amount into cents.
func CentsFromFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmountFormat, f)
	}
	// NewFromFloat keeps the shortest decimal representation, so 20.005 stays 20.005.
	return decimalToCents(decimal.NewFromFloat(f), fmt.Sprint(f))
}

// ParseCentsString extracts an amount from free-form text such as "$ 1.234,50".
// Everything except digits, '.' and ',' is discarded. When both separators are
// present the later one is the decimal separator; a lone ',' is a decimal comma.
func ParseCentsString(s string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			return r
		}
		return -1
	}, s)

	cleaned = normalizeSeparators(cleaned)
	if strings.Trim(cleaned, ".") == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmountFormat, s)
	}
	if strings.HasPrefix(cleaned, ".") {
		cleaned = "0" + cleaned
	}
	cleaned = strings.TrimSuffix(cleaned, ".")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmountFormat, s)
	}
	return decimalToCents(d, s)
}

// normalizeSeparators rewrites the cleaned string so that it contains at most one
// '.', acting as the decimal point.
func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma < 0 && lastDot < 0:
		return s
	case lastComma > lastDot:
		// comma is the decimal separator
		whole := strings.NewReplacer(".", "", ",", "").Replace(s[:lastComma])
		return whole + "." + s[lastComma+1:]
	default:
		whole := strings.NewReplacer(".", "", ",", "").Replace(s[:lastDot])
		return whole + "." + strings.ReplaceAll(s[lastDot+1:], ",", "")
	}
}

func decimalToCents(d decimal.Decimal, original string) (int64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidAmountFormat, original)
	}
	cents := d.Mul(hundred).Round(0)
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmountFormat, original)
	}
	return cents.IntPart(), nil
}

// FormatCents renders cents as a decimal string with two fractional digits.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// DollarsToCents parses a query-string dollar amount ("150", "99.5") into cents.
// Unlike ParseCentsString it is strict: anything but a plain decimal number fails.
func DollarsToCents(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmountFormat, s)
	}
	return decimalToCents(d, s)
}
