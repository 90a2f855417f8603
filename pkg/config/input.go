package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSecretMismatch is returned when a secret and its confirmation differ
var ErrSecretMismatch = errors.New("values do not match")

// NumericResult is the outcome of parsing one numeric answer
type NumericResult struct {
	Value int
	// Problem describes why the input was rejected; empty when valid
	Problem string
}

// Valid reports whether the input was accepted
func (r NumericResult) Valid() bool {
	return r.Problem == ""
}

// ParseNumeric parses a whole-number answer. Blank input selects def; max <= 0 means unbounded.
func ParseNumeric(value string, def, max int) NumericResult {
	value = strings.TrimSpace(value)
	if value == "" {
		return NumericResult{Value: def}
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return NumericResult{Problem: "not a valid value, please enter a number"}
	}
	if n < 1 {
		return NumericResult{Problem: "value must be at least 1"}
	}
	if max > 0 && n > max {
		return NumericResult{Problem: fmt.Sprintf("value must be less than or equal to %d", max)}
	}
	return NumericResult{Value: n}
}

// ConfirmSecret accepts a secret once both entries agree. A blank first entry selects def
// without requiring confirmation.
func ConfirmSecret(first, second, def string) (string, error) {
	if first == "" {
		return def, nil
	}
	if first != second {
		return "", ErrSecretMismatch
	}
	return first, nil
}

// DefaultIfBlank returns def when value is empty or whitespace
func DefaultIfBlank(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

// ParseFlowControlMode maps the short answers "c" and "e" to a flow control mode
func ParseFlowControlMode(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "c", FlowControlCores:
		return FlowControlCores, nil
	case "e", FlowControlExplicit:
		return FlowControlExplicit, nil
	}
	return "", fmt.Errorf("invalid option %q, enter \"c\" to specify number of cores or \"e\" to set limits explicitly", value)
}
