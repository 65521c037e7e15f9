package rating

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type WeightKind uint8

const (
	WeightAbsent WeightKind = iota
	WeightText
	WeightNumber
)

// Weight is a goal weight as it was entered: free text such as "40%" or "0.4",
// a bare number, or nothing at all. Use ResolveWeight to normalize it.
type Weight struct {
	Kind   WeightKind
	Text   string
	Number float64
}

func TextWeight(raw string) Weight {
	return Weight{Kind: WeightText, Text: raw}
}

func NumberWeight(value float64) Weight {
	return Weight{Kind: WeightNumber, Number: value}
}

// ParseStoredWeight rebuilds a weight from its stored text form; nil means absent.
func ParseStoredWeight(raw *string) Weight {
	if raw == nil {
		return Weight{}
	}
	return TextWeight(*raw)
}

// String returns the weight as entered, or "" when absent.
func (w Weight) String() string {
	switch w.Kind {
	case WeightText:
		return w.Text
	case WeightNumber:
		return strconv.FormatFloat(w.Number, 'f', -1, 64)
	}
	return ""
}

func (w Weight) MarshalJSON() ([]byte, error) {
	switch w.Kind {
	case WeightText:
		return json.Marshal(w.Text)
	case WeightNumber:
		if math.IsNaN(w.Number) || math.IsInf(w.Number, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(w.Number)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a string, a number or null. Any other JSON value is
// treated as an absent weight rather than rejected.
func (w *Weight) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		*w = Weight{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*w = TextWeight(text)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var number float64
		if err := json.Unmarshal(trimmed, &number); err != nil {
			return err
		}
		*w = NumberWeight(number)
	default:
		*w = Weight{}
	}
	return nil
}

// ResolveWeight normalizes a goal weight to a fraction in [0,1].
//
// A trailing "%" always means a percentage. Without it, any value above 1 is
// read as a whole-number percentage, so "50" is 50% and never a factor of 50.
// Missing or unparseable weights resolve to 0.
func ResolveWeight(w Weight) float64 {
	switch w.Kind {
	case WeightText:
		return resolveText(w.Text)
	case WeightNumber:
		return normalizeFraction(w.Number)
	}
	return 0
}

func resolveText(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if strings.HasSuffix(raw, "%") {
		value, ok := parseNumber(strings.TrimSuffix(raw, "%"))
		if !ok {
			return 0
		}
		return clampFraction(value / 100)
	}
	value, ok := parseNumber(raw)
	if !ok {
		return 0
	}
	return normalizeFraction(value)
}

func normalizeFraction(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	if value > 1 {
		value /= 100
	}
	return clampFraction(value)
}

func clampFraction(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 1:
		return 1
	}
	return value
}

func parseNumber(raw string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}
