package extract

import (
	"strconv"
	"strings"
)

// scaleMultipliers maps magnitude words (and their one-letter forms) to
// the factor applied to the parsed number.
var scaleMultipliers = map[string]float64{
	"thousand": 1e3,
	"k":        1e3,
	"million":  1e6,
	"m":        1e6,
	"billion":  1e9,
	"b":        1e9,
	"trillion": 1e12,
	"t":        1e12,
}

// ParseAmount parses a numeric string like "3", "2,984.5" with an
// optional magnitude word ("billion", "B", ...) into a plain float.
func ParseAmount(number, scale string) (float64, bool) {
	cleaned := strings.TrimSpace(number)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}

	scale = strings.ToLower(strings.TrimSpace(scale))
	if scale == "" {
		return value, true
	}

	mult, ok := scaleMultipliers[scale]
	if !ok {
		return 0, false
	}
	return value * mult, true
}
