// Package parser turns the string arguments of host calls into typed events.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ethria/headlamp/pkg/core"
)

// ErrMissingArgs is returned when a call carries fewer arguments than required.
var ErrMissingArgs = errors.New("missing arguments")

// Parser converts raw host arguments.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// clean unquotes every argument into a new slice.
func clean(data []string) []string {
	out := make([]string, len(data))
	for i, v := range data {
		out[i] = unquote(v)
	}
	return out
}

// unquote strips whitespace and the host's string quotes, then collapses
// doubled quotes ("") into one.
func unquote(s string) string {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	return strings.ReplaceAll(s, `""`, `"`)
}

func need(data []string, n int, what string) error {
	if len(data) < n {
		return fmt.Errorf("%s: %w: want %d, got %d", what, ErrMissingArgs, n, len(data))
	}
	return nil
}

// parseIntFromFloat parses a string that may be an integer ("39") or float ("39.00").
// The host serializes every number as a float.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

// parseModel reads a model id; empty and "nil" mean no model data.
func parseModel(s string) (core.ModelID, error) {
	switch strings.ToLower(s) {
	case "", "nil", "null", "-1":
		return core.NoModel, nil
	}
	v, err := parseIntFromFloat(s)
	if err != nil {
		return core.NoModel, fmt.Errorf("error parsing model id: %w", err)
	}
	return core.ModelID(v), nil
}

// parseIntList reads "[38,39]" or "38,39".
func parseIntList(s string) ([]int, error) {
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "["), "]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := parseIntFromFloat(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("error parsing slot %q: %w", part, err)
		}
		out = append(out, int(v))
	}
	return out, nil
}

func parseFlag(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(strings.ToLower(s))
}
