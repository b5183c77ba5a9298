// Package parser turns bank statement payloads into parsed transactions.
//
// Every bank format implements Parser. Lines are parsed independently: a bad
// line is recorded as a domain.LineError and parsing continues with the next.
package parser

import (
	"strings"

	"github.com/punchamoorthee/paywebhooks/internal/domain"
)

// Parser converts a raw payload into transactions and per-line errors.
type Parser interface {
	Parse(rawPayload string) Result
}

// Outcome classifies a parse result for webhook finalization.
type Outcome int

const (
	OutcomeFailure Outcome = iota
	OutcomePartialSuccess
	OutcomeSuccess
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePartialSuccess:
		return "partial_success"
	default:
		return "failure"
	}
}

// Result always carries both collections; either may be empty.
type Result struct {
	Transactions []domain.ParsedTransaction
	Errors       []domain.LineError
}

// Outcome reports success, partial success or failure. A result without any
// transactions is a failure, including the empty payload.
func (r Result) Outcome() Outcome {
	switch {
	case len(r.Transactions) == 0:
		return OutcomeFailure
	case len(r.Errors) == 0:
		return OutcomeSuccess
	default:
		return OutcomePartialSuccess
	}
}

type lineFunc func(line string) (domain.ParsedTransaction, error)

// parseLines runs fn on every non-blank line. Line numbers are 1-based
// positions in the original payload, blank lines included.
func parseLines(rawPayload string, fn lineFunc) Result {
	res := Result{
		Transactions: []domain.ParsedTransaction{},
		Errors:       []domain.LineError{},
	}
	if rawPayload == "" {
		return res
	}

	for i, line := range strings.Split(rawPayload, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tx, err := fn(line)
		if err != nil {
			res.Errors = append(res.Errors, domain.LineError{Line: i + 1, Raw: line, Error: err.Error()})
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}
	return res
}

// splitParts splits on sep and drops trailing empty parts, so "a#b#" has two parts.
func splitParts(line, sep string) []string {
	parts := strings.Split(line, sep)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
