package glob

// Set is an ordered list of compiled patterns.
type Set []Pattern

// CompileSet compiles raws in order. Negated patterns are accepted only when
// allowNegation is true. The first failure is returned as a *PatternError.
func CompileSet(raws []string, allowNegation bool) (Set, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	set := make(Set, 0, len(raws))
	for i, raw := range raws {
		pattern, err := Compile(raw)
		if err != nil {
			if perr, ok := err.(*PatternError); ok {
				perr.Index = i
				return nil, perr
			}
			return nil, &PatternError{Index: i, Pattern: raw, Err: err}
		}
		if pattern.Negated && !allowNegation {
			return nil, &PatternError{Index: i, Pattern: raw, Err: ErrNegationNotAllowed}
		}
		set = append(set, pattern)
	}
	return set, nil
}

// Len returns the number of patterns.
func (s Set) Len() int {
	return len(s)
}

// Any reports whether any non-negated pattern matches target.
func (s Set) Any(target string) bool {
	normalized := NormalizePath(target)
	for _, pattern := range s {
		if pattern.Negated {
			continue
		}
		if pattern.Match(normalized) {
			return true
		}
	}
	return false
}

// Excludes applies ignore semantics: patterns are checked in order and the
// last one that matches decides, a negated match re-including target.
func (s Set) Excludes(target string) bool {
	normalized := NormalizePath(target)
	excluded := false
	for _, pattern := range s {
		if pattern.Match(normalized) {
			excluded = !pattern.Negated
		}
	}
	return excluded
}

// Raw returns the patterns as originally written.
func (s Set) Raw() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	for i, pattern := range s {
		out[i] = pattern.Raw
	}
	return out
}

// Concat returns a new set holding the patterns of every set in order.
func Concat(sets ...Set) Set {
	total := 0
	for _, set := range sets {
		total += len(set)
	}
	if total == 0 {
		return nil
	}
	out := make(Set, 0, total)
	for _, set := range sets {
		out = append(out, set...)
	}
	return out
}
