package finder

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber reads a spreadsheet number written with "." as thousands separator
// and "," as decimal separator. When both separators appear the last one is the
// decimal mark. A single "." followed by exactly three digits is treated as
// grouping, otherwise as a decimal point. A minus sign is only accepted in front
// of the number. The boolean is false when no number could be read, in which
// case the value is 0.
func ParseNumber(s string) (float64, bool) {
	var b strings.Builder
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
			b.WriteRune(r)
		case r == '-' || r == '.' || r == ',':
			b.WriteRune(r)
		}
	}
	if digits == 0 {
		return 0, false
	}
	raw := b.String()
	negative := strings.HasPrefix(raw, "-")
	if negative {
		raw = raw[1:]
	}
	if strings.Contains(raw, "-") {
		return 0, false
	}

	lastDot := strings.LastIndex(raw, ".")
	lastComma := strings.LastIndex(raw, ",")
	var intPart, fracPart string
	switch {
	case lastDot >= 0 && lastComma >= 0:
		dec := lastComma
		if lastDot > lastComma {
			dec = lastDot
		}
		intPart, fracPart = raw[:dec], raw[dec+1:]
	case lastComma >= 0:
		if strings.Count(raw, ",") > 1 {
			intPart = raw
		} else {
			intPart, fracPart = raw[:lastComma], raw[lastComma+1:]
		}
	case lastDot >= 0:
		if strings.Count(raw, ".") > 1 || len(raw)-lastDot-1 == 3 {
			intPart = raw
		} else {
			intPart, fracPart = raw[:lastDot], raw[lastDot+1:]
		}
	default:
		intPart = raw
	}
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	fracPart = strings.NewReplacer(".", "", ",", "").Replace(fracPart)
	if intPart == "" {
		intPart = "0"
	}
	text := intPart
	if fracPart != "" {
		text += "." + fracPart
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// NumberOrZero is ParseNumber without the validity flag.
func NumberOrZero(s string) float64 {
	v, _ := ParseNumber(s)
	return v
}
