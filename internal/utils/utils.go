// Package utils provides small numeric and naming helpers shared by the engine.
//
// This package contains the "valid number" guard used while computing scale
// domains, and the helpers that derive CSS-safe class tokens from metric names
// so visual elements can be bound to their series.
package utils

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Error definitions for validation functions
var (
	ErrEmptyName   = errors.New("name cannot be empty")
	ErrInvalidName = errors.New("invalid name")
)

// classTokenUnsafe matches every rune that cannot appear in a CSS class token.
var classTokenUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ValidNumber returns v when it is a finite number and fallback otherwise.
//
// Domain computations divide and take logarithms of data-derived values, so a
// flat series or a fully filtered window can yield NaN or ±Inf. Those must never
// reach a rendered scale; callers pass the un-buffered bound as fallback.
func ValidNumber(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// ClassToken derives a CSS-safe class token from a metric name.
//
// Every run of characters outside [A-Za-z0-9_-] collapses into a single
// underscore, and a leading digit or hyphen is prefixed so the result is a
// valid selector. The index keeps tokens unique when two names collapse to the
// same text (e.g. "cpu.user" and "cpu:user").
func ClassToken(name string, index int) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptyName
	}

	token := classTokenUnsafe.ReplaceAllString(name, "_")
	token = strings.Trim(token, "_")
	if token == "" {
		return "", fmt.Errorf("%w: %q has no usable characters", ErrInvalidName, name)
	}

	if c := token[0]; (c >= '0' && c <= '9') || c == '-' {
		token = "m" + token
	}

	return fmt.Sprintf("%s_%d", token, index), nil
}

// ValidateChartID validates a chart identifier used as a registry and storage key.
func ValidateChartID(id string) error {
	if id == "" {
		return ErrEmptyName
	}
	if strings.ContainsAny(id, " \t\n") {
		return fmt.Errorf("%w: chart id %q contains whitespace", ErrInvalidName, id)
	}
	return nil
}
