package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	"parkeaya-panel/internal/entities"
)

// payloadString reads a form or JSON value as trimmed text.
func payloadString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func payloadInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if !entities.IsFinite(t) {
			return 0, false
		}
		return int(t), true
	default:
		n, ok := entities.ParseLenientInt(payloadString(v))
		return int(n), ok
	}
}

func payloadFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, entities.IsFinite(t)
	case int:
		return float64(t), true
	default:
		return entities.ParseLenientFloat(payloadString(v))
	}
}

func payloadBool(v any) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	return entities.ParseLenientBool(payloadString(v))
}

// payloadList accepts a JSON array or a comma separated string.
func payloadList(v any) []string {
	var out []string
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range t {
			if s := payloadString(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		for _, s := range strings.Split(payloadString(v), ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
