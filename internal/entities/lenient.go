package entities

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// The remote backend is loose about scalar types: numbers come back as
// strings, ids as numbers, booleans as "1". The Flex types accept all of
// these and fall back to the zero value instead of failing the decode.

// FlexInt decodes a JSON number or numeric string. Anything else is 0.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	n, _ := ParseLenientInt(rawScalar(data))
	*f = FlexInt(n)
	return nil
}

// FlexFloat decodes a JSON number or numeric string. Anything else is 0.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	n, _ := ParseLenientFloat(rawScalar(data))
	*f = FlexFloat(n)
	return nil
}

// FlexBool decodes true/false, "true"/"false", "1"/"0", 1/0 and "on".
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(data []byte) error {
	b, _ := ParseLenientBool(rawScalar(data))
	*f = FlexBool(b)
	return nil
}

// FlexString decodes a JSON string or number into its string form.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	*f = FlexString(rawScalar(data))
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// rawScalar returns the textual form of a JSON scalar with quotes removed.
// null and composite values yield "".
func rawScalar(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '{', '[':
		return ""
	default:
		return string(data)
	}
}

// ParseLenientInt trims s and parses it as an integer. A decimal value such
// as "12.0" is truncated. ok is false when s is empty, not a number, not
// finite or outside the int64 range.
func ParseLenientInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, ok := ParseLenientFloat(s)
	if !ok || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// ParseLenientFloat trims s and parses it as a decimal, accepting a comma
// as decimal separator. NaN and infinities are rejected.
func ParseLenientFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f, err = strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	}
	if err != nil || !IsFinite(f) {
		return 0, false
	}
	return f, true
}

// IsFinite reports whether f is neither NaN nor an infinity.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ParseLenientBool accepts true/false, 1/0 and "on" (HTML checkboxes).
func ParseLenientBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "on":
		return true, true
	case "false", "0", "off":
		return false, true
	default:
		return false, false
	}
}
