package statement

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	errEmptyAmount = errors.New("empty amount")

	currencyNoise = regexp.MustCompile(`(?i)(?:₹|\$|€|£|\brs\.?|\binr\b|\busd\b|\beur\b|\bgbp\b)`)
	drcrSuffix    = regexp.MustCompile(`(?i)\s*(dr|cr)\.?$`)
	drcrPrefix    = regexp.MustCompile(`(?i)^(dr|cr)\.?\s*`)
)

// dateLayouts are tried in order. Day-first layouts come before month-first ones.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"02/01/06",
	"02-01-06",
	"2/1/2006",
	"2006/01/02",
	"02 Jan 2006",
	"02-Jan-2006",
	"02-Jan-06",
	"02 Jan 06",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"20060102",
}

// ParseAmount parses a statement amount such as "₹1,234.50 Dr", "(45.00)" or
// "-12". Debit markers and parentheses yield a negative value.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return decimal.Zero, errEmptyAmount
	}

	negative := false
	if m := drcrSuffix.FindStringSubmatch(s); m != nil {
		negative = strings.EqualFold(m[1], "dr")
		s = s[:len(s)-len(m[0])]
	} else if m := drcrPrefix.FindStringSubmatch(s); m != nil {
		negative = strings.EqualFold(m[1], "dr")
		s = s[len(m[0]):]
	}

	s = currencyNoise.ReplaceAllString(s, "")
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(s)

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if s == "" {
		return decimal.Zero, errEmptyAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if negative {
		d = d.Abs().Neg()
	}
	return d, nil
}

// ParseDate parses a statement date using the known layouts, including
// spreadsheet serial day numbers.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if t, ok := parseSerialDate(s); ok {
		return t, true
	}
	return time.Time{}, false
}

// parseSerialDate handles spreadsheet day numbers counted from 1899-12-30.
func parseSerialDate(s string) (time.Time, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 20000 || f > 80000 {
		return time.Time{}, false
	}
	base := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(f)), true
}
