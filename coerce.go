package nimsforestpdfviewer

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// toFloat coerces a bound value to a finite float64. Strings are parsed
// leniently: leading numeric text is used and trailing garbage ignored, so
// "12px" yields 12.
func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		return parseLeadingFloat(string(x))
	case string:
		return parseLeadingFloat(x)
	default:
		return 0, false
	}
	return f, finite(f)
}

// toInt coerces a bound value to an integer, truncating toward zero.
// Values outside the int32 range saturate.
func toInt(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return parseLeadingInt(s)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(max(math.MinInt32, min(math.MaxInt32, f))), true
}

func parseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	for end := len(s); end > 0; end-- {
		f, err := strconv.ParseFloat(s[:end], 64)
		if err == nil {
			return f, finite(f)
		}
	}
	return 0, false
}

func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	// On ErrRange ParseInt returns the saturated value.
	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return int(n), true
}
