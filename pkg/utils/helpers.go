package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseValue turns raw CSV text into a typed cell value.
func ParseValue(s string) interface{} {
	// Trim whitespace first
	s = strings.TrimSpace(s)

	// try int
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	// try float
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// Numeric converts supported cell types to float64. Strings are parsed
// after trimming, so "2" and 2.0 compare equal downstream.
func Numeric(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Text renders a cell value for text comparison. Nil cells read as "".
func Text(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// BoolLike detects boolean-looking values: real bools, "true"/"false"
// (any case), and the bare digits 1/0.
func BoolLike(v interface{}) (value bool, ok bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case int:
		if val == 0 || val == 1 {
			return val == 1, true
		}
	case float64:
		if val == 0 || val == 1 {
			return val == 1, true
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	}
	return false, false
}
