package parser

import (
	"errors"
	"fmt"

	"github.com/punchamoorthee/paywebhooks/internal/domain"
)

const acmeSeparator = "//"

// AcmeBank parses lines of the form Amount//Reference//Date:
//
//	156,50//202506159000001//20250615
type AcmeBank struct{}

func (AcmeBank) Parse(rawPayload string) Result {
	return parseLines(rawPayload, parseAcmeLine)
}

func parseAcmeLine(line string) (domain.ParsedTransaction, error) {
	parts := splitParts(line, acmeSeparator)
	if len(parts) != 3 {
		return domain.ParsedTransaction{}, fmt.Errorf("invalid format: expected 3 parts separated by %s, got %d", acmeSeparator, len(parts))
	}
	amountStr, reference, dateStr := parts[0], parts[1], parts[2]

	if amountStr == "" {
		return domain.ParsedTransaction{}, errInvalidAmount
	}
	if reference == "" {
		return domain.ParsedTransaction{}, errors.New("invalid reference")
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return domain.ParsedTransaction{}, err
	}
	cents, err := amountToCents(amountStr)
	if err != nil {
		return domain.ParsedTransaction{}, err
	}

	return domain.ParsedTransaction{
		Reference:       reference,
		AmountCents:     cents,
		TransactionDate: date,
		Metadata:        map[string]string{},
	}, nil
}
