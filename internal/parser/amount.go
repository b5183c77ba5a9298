package parser

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "20060102"

var (
	errInvalidAmount = errors.New("invalid amount")
	errInvalidDate   = errors.New("invalid date")

	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// amountToCents converts a decimal-comma numeral such as "156,50" into minor
// units with exact fixed-point arithmetic. Digits past the second fractional
// place are truncated.
func amountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errInvalidAmount
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return 0, errInvalidAmount
	}
	cents := d.Shift(2).Truncate(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, errInvalidAmount
	}
	return cents.IntPart(), nil
}

func parseDate(s string) (time.Time, error) {
	if len(s) != len(dateLayout) {
		return time.Time{}, errInvalidDate
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return d, nil
}
