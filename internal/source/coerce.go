package source

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
)

// FieldTypeError reports a structural field holding the wrong type, such as
// a financial-year month given as a name instead of a number.
type FieldTypeError struct {
	Path  string
	Field string
	Want  string
	Value any
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("%s: field %s: expected %s, got %T (%v)", e.Path, e.Field, e.Want, e.Value, e.Value)
}

// coerceInt reads a whole number. Missing values report ok=false.
func coerceInt(v any) (n int, ok bool, valid bool) {
	switch x := v.(type) {
	case nil:
		return 0, false, true
	case int:
		return x, true, true
	case int64:
		return int(x), true, true
	case uint64:
		return int(x), true, true
	case float64:
		if x != math.Trunc(x) {
			return 0, false, false
		}
		return int(x), true, true
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, false, false
		}
		return int(i), true, true
	}
	return 0, false, false
}

// moneyCleaner strips thousands separators and currency symbols.
var moneyCleaner = strings.NewReplacer(",", "", " ", "", "£", "", "$", "", "€", "", "_", "")

// coerceDecimal reads a number from any scalar. Missing or empty values
// return ok=false with no problem; anything unparseable returns a problem.
func coerceDecimal(v any) (d decimal.Decimal, ok bool, problem string) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false, ""
	case int:
		return decimal.NewFromInt(int64(x)), true, ""
	case int64:
		return decimal.NewFromInt(x), true, ""
	case uint64:
		return decimal.NewFromUint64(x), true, ""
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false, fmt.Sprintf("%v is not a number", x)
		}
		return decimal.NewFromFloat(x), true, ""
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero, false, fmt.Sprintf("%q is not a number", x)
		}
		return d, true, ""
	case string:
		s := moneyCleaner.Replace(strings.TrimSpace(x))
		if s == "" {
			return decimal.Zero, false, ""
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false, fmt.Sprintf("%q is not a number", x)
		}
		return d, true, ""
	}
	return decimal.Zero, false, fmt.Sprintf("%v (%T) is not a number", v, v)
}

// coerceMoney reads a non-negative amount. Bad input becomes unset.
func coerceMoney(v any) (model.Money, string) {
	d, ok, problem := coerceDecimal(v)
	if !ok {
		return model.Unset, problem
	}
	if d.IsNegative() {
		return model.Unset, fmt.Sprintf("%s is negative", d)
	}
	return model.Amount(d), ""
}

// coerceBool reads a flag. Strings such as "yes" and "1" count as true.
func coerceBool(v any) (bool, string) {
	switch x := v.(type) {
	case nil:
		return false, ""
	case bool:
		return x, ""
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "y", "1", "x":
			return true, ""
		case "", "false", "no", "n", "0":
			return false, ""
		}
	default:
		if d, ok, _ := coerceDecimal(v); ok {
			return !d.IsZero(), ""
		}
	}
	return false, fmt.Sprintf("%v is not a boolean", v)
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// coerceTime reads a timestamp from a native time or a string.
func coerceTime(v any) (time.Time, string) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, ""
	case time.Time:
		return x, ""
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, ""
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, ""
			}
		}
		if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Unix(unix, 0).UTC(), ""
		}
	}
	return time.Time{}, fmt.Sprintf("%v is not a timestamp", v)
}
