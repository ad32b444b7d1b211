package normalize

import (
	"fmt"
	"strings"

	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/shopspring/decimal"
)

// ParseAmount coerces a textual amount into a float.
// The rightmost of '.' and ',' is taken as the decimal separator when both occur;
// a lone ',' is always decimal. Currency suffixes and spaces are ignored.
func ParseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "EUR")
	s = strings.TrimSuffix(s, "€")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", common.ErrInvalidRow)
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot > lastComma && lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q: %v", common.ErrInvalidRow, raw, err)
	}
	return d.InexactFloat64(), nil
}
