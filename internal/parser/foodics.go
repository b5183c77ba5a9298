package parser

import (
	"errors"
	"strings"

	"github.com/punchamoorthee/paywebhooks/internal/domain"
)

const (
	foodicsSeparator         = "#"
	foodicsMetadataSeparator = "/"
	foodicsDateLength        = 8
)

// FoodicsBank parses lines of the form Date(8)Amount#Reference#key/value/...:
//
//	20250615156,50#202506159000001#note/debt payment march/internal_reference/A462JE81
type FoodicsBank struct{}

func (FoodicsBank) Parse(rawPayload string) Result {
	return parseLines(rawPayload, parseFoodicsLine)
}

func parseFoodicsLine(line string) (domain.ParsedTransaction, error) {
	parts := splitParts(line, foodicsSeparator)
	if len(parts) < 2 {
		return domain.ParsedTransaction{}, errors.New("invalid format: expected at least 2 parts separated by #")
	}

	head := parts[0]
	if len(head) < foodicsDateLength {
		return domain.ParsedTransaction{}, errors.New("invalid date format")
	}
	dateStr, amountStr := head[:foodicsDateLength], head[foodicsDateLength:]
	if amountStr == "" {
		return domain.ParsedTransaction{}, errInvalidAmount
	}

	date, err := parseDate(dateStr)
	if err != nil {
		return domain.ParsedTransaction{}, err
	}
	cents, err := amountToCents(amountStr)
	if err != nil {
		return domain.ParsedTransaction{}, err
	}

	var metadata string
	if len(parts) > 2 {
		metadata = parts[2]
	}

	return domain.ParsedTransaction{
		Reference:       parts[1],
		AmountCents:     cents,
		TransactionDate: date,
		Metadata:        parseMetadata(metadata),
	}, nil
}

// parseMetadata reads alternating key/value tokens. A trailing key without a
// value is dropped.
func parseMetadata(s string) map[string]string {
	out := map[string]string{}
	if s == "" {
		return out
	}
	tokens := strings.Split(s, foodicsMetadataSeparator)
	for i := 0; i+1 < len(tokens); i += 2 {
		out[tokens[i]] = tokens[i+1]
	}
	return out
}
