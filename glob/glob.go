// Package glob evaluates slash-separated paths against shell-style glob
// patterns. `*` matches within a single path segment, `**` spans segments and
// literal segments match exactly. Matching is case-sensitive.
//
// Patterns are validated once with Compile or CompileSet; matching a compiled
// pattern never fails.
package glob

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrBadPattern reports a pattern that cannot be parsed.
var ErrBadPattern = doublestar.ErrBadPattern

// ErrNegationNotAllowed reports a `!` pattern in a set that only accepts
// include patterns.
var ErrNegationNotAllowed = errors.New("glob: negated patterns are only valid in ignore sets")

// PatternError describes the pattern that failed to compile.
type PatternError struct {
	Index   int
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("glob: pattern %q (index %d): %v", e.Pattern, e.Index, e.Err)
}

func (e *PatternError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Pattern is a validated glob expression.
type Pattern struct {
	Raw     string
	Negated bool
	expr    string
}

// Compile validates raw and returns a Pattern. A leading `!` marks the pattern
// as negated; a trailing `/` matches everything below that directory.
func Compile(raw string) (Pattern, error) {
	expr := strings.TrimSpace(raw)
	negated := false
	if strings.HasPrefix(expr, "!") {
		negated = true
		expr = expr[1:]
	}
	expr = normalizePattern(expr)
	if expr == "" {
		return Pattern{}, &PatternError{Pattern: raw, Err: fmt.Errorf("%w: empty pattern", ErrBadPattern)}
	}
	if !doublestar.ValidatePattern(expr) {
		return Pattern{}, &PatternError{Pattern: raw, Err: ErrBadPattern}
	}
	return Pattern{Raw: raw, Negated: negated, expr: expr}, nil
}

// Match reports whether the normalized path matches the pattern, ignoring
// negation.
func (p Pattern) Match(target string) bool {
	if p.expr == "" {
		return false
	}
	matched, err := doublestar.Match(p.expr, NormalizePath(target))
	return err == nil && matched
}

// String returns the pattern as written.
func (p Pattern) String() string {
	return p.Raw
}

// Match reports whether target matches pattern. Malformed patterns never
// match; validate them up front with Compile.
func Match(target, pattern string) bool {
	compiled, err := Compile(pattern)
	if err != nil {
		return false
	}
	return compiled.Match(target)
}

// Validate returns an error when pattern cannot be compiled.
func Validate(pattern string) error {
	_, err := Compile(pattern)
	return err
}

// NormalizePath converts target into the canonical form used for matching:
// forward slashes, cleaned, with no leading "./" or "/".
func NormalizePath(target string) string {
	if target == "" {
		return ""
	}
	target = strings.ReplaceAll(target, `\`, "/")
	target = path.Clean(target)
	target = strings.TrimLeft(target, "/")
	if target == "." {
		return ""
	}
	return target
}

func normalizePattern(expr string) string {
	for strings.HasPrefix(expr, "./") {
		expr = expr[2:]
	}
	expr = strings.TrimLeft(expr, "/")
	if expr != "" && strings.HasSuffix(expr, "/") {
		expr += "**"
	}
	return expr
}
