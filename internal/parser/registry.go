package parser

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownBank is returned for a bank identifier with no registered parser.
var ErrUnknownBank = errors.New("unknown bank")

// Registry maps case-insensitive bank identifiers to parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds or replaces the parser for bank.
func (r *Registry) Register(bank string, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[strings.ToLower(strings.TrimSpace(bank))] = p
}

// For returns the parser registered for bank.
func (r *Registry) For(bank string) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[strings.ToLower(strings.TrimSpace(bank))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBank, bank)
	}
	return p, nil
}

// Supports reports whether bank has a registered parser.
func (r *Registry) Supports(bank string) bool {
	_, err := r.For(bank)
	return err == nil
}

// Banks lists the registered identifiers, upper-cased and sorted.
func (r *Registry) Banks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	banks := make([]string, 0, len(r.parsers))
	for b := range r.parsers {
		banks = append(banks, strings.ToUpper(b))
	}
	sort.Strings(banks)
	return banks
}

// Default returns a registry with every supported bank format.
func Default() *Registry {
	r := NewRegistry()
	r.Register("FOODICS", FoodicsBank{})
	r.Register("ACME", AcmeBank{})
	return r
}
