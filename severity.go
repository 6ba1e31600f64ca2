package flatconf

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/goliatone/go-flatconf/layering"
)

// Severity is the level a rule-checking collaborator reports a rule at.
type Severity int

const (
	SeverityOff Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityOff:
		return "off"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalJSON encodes the severity using its string form.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ParseSeverity accepts "off", "warn" and "error" (any case) and the numeric
// forms 0, 1 and 2.
func ParseSeverity(value any) (Severity, error) {
	switch typed := value.(type) {
	case Severity:
		if typed < SeverityOff || typed > SeverityError {
			return 0, fmt.Errorf("severity %d out of range", int(typed))
		}
		return typed, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "off":
			return SeverityOff, nil
		case "warn":
			return SeverityWarn, nil
		case "error":
			return SeverityError, nil
		}
		return 0, fmt.Errorf("unknown severity %q", typed)
	case json.Number:
		n, err := typed.Int64()
		if err != nil {
			return 0, fmt.Errorf("unknown severity %q", typed.String())
		}
		return severityFromInt(n)
	case int:
		return severityFromInt(int64(typed))
	case int64:
		return severityFromInt(typed)
	case uint64:
		if typed > math.MaxInt64 {
			return 0, fmt.Errorf("severity %d out of range", typed)
		}
		return severityFromInt(int64(typed))
	case float64:
		if typed != math.Trunc(typed) {
			return 0, fmt.Errorf("severity %v is not an integer", typed)
		}
		return severityFromInt(int64(typed))
	default:
		return 0, fmt.Errorf("unsupported severity type %T", value)
	}
}

func severityFromInt(n int64) (Severity, error) {
	if n < int64(SeverityOff) || n > int64(SeverityError) {
		return 0, fmt.Errorf("severity %d out of range", n)
	}
	return Severity(n), nil
}

// RuleSetting is the normalized form of a rule value: a severity followed by
// optional rule-specific options.
type RuleSetting struct {
	Severity Severity `json:"severity"`
	Options  []any    `json:"options,omitempty"`
}

// Enabled reports whether the rule runs at all.
func (r RuleSetting) Enabled() bool {
	return r.Severity != SeverityOff
}

// ParseRuleSetting accepts a bare severity or a list whose first element is a
// severity and whose remaining elements are options.
func ParseRuleSetting(value any) (RuleSetting, error) {
	switch typed := value.(type) {
	case RuleSetting:
		return typed, nil
	case []any:
		if len(typed) == 0 {
			return RuleSetting{}, fmt.Errorf("rule setting list is empty")
		}
		severity, err := ParseSeverity(typed[0])
		if err != nil {
			return RuleSetting{}, err
		}
		setting := RuleSetting{Severity: severity}
		if len(typed) > 1 {
			setting.Options = layering.Clone(typed[1:])
		}
		return setting, nil
	case []string:
		items := make([]any, len(typed))
		for i := range typed {
			items[i] = typed[i]
		}
		return ParseRuleSetting(items)
	default:
		severity, err := ParseSeverity(value)
		if err != nil {
			return RuleSetting{}, err
		}
		return RuleSetting{Severity: severity}, nil
	}
}

// Settings maps namespaced option keys to opaque values.
type Settings map[string]any

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	if s == nil {
		return nil
	}
	return Settings(layering.Clone(map[string]any(s)))
}

// Keys returns the keys sorted alphabetically.
func (s Settings) Keys() []string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Rule parses the value stored under key as a RuleSetting. The boolean is
// false when key is not set.
func (s Settings) Rule(key string) (RuleSetting, bool, error) {
	value, ok := s[key]
	if !ok {
		return RuleSetting{}, false, nil
	}
	setting, err := ParseRuleSetting(value)
	if err != nil {
		return RuleSetting{}, true, fmt.Errorf("rule %q: %w", key, err)
	}
	return setting, true, nil
}

// Enabled returns the keys whose rule setting parses with a severity other
// than off. Values that do not parse as rule settings are skipped.
func (s Settings) Enabled() []string {
	var keys []string
	for _, key := range s.Keys() {
		setting, _, err := s.Rule(key)
		if err != nil || !setting.Enabled() {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// Namespace returns the plugin prefix of a namespaced key: everything before
// the first "/", or before the second one for scoped "@scope/plugin/rule"
// keys. Rule names may contain further slashes. Core keys have an empty
// namespace.
func Namespace(key string) string {
	idx := strings.Index(key, "/")
	if idx <= 0 {
		return ""
	}
	if key[0] == '@' {
		if next := strings.Index(key[idx+1:], "/"); next >= 0 {
			return key[:idx+1+next]
		}
	}
	return key[:idx]
}
