package flatconf

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPatternSyntax reports a glob in files or ignores that cannot be
	// parsed. Ingestion aborts for the whole sequence.
	ErrInvalidPatternSyntax = errors.New("flatconf: invalid pattern syntax")
	// ErrDuplicateLayerReference reports a cyclic extends chain.
	ErrDuplicateLayerReference = errors.New("flatconf: duplicate layer reference")
	// ErrUnknownLayerReference reports an extends name that neither the preset
	// source nor the input sequence defines.
	ErrUnknownLayerReference = errors.New("flatconf: unknown layer reference")
	// ErrUnknownSettingValue reports a setting value rejected by a validator.
	ErrUnknownSettingValue = errors.New("flatconf: unknown setting value")
	// ErrRankOrder reports layers whose ranks are not strictly increasing.
	ErrRankOrder = errors.New("flatconf: ranks must be strictly increasing")
)

// ConfigError carries the location of a configuration failure alongside the
// error kind. Kind is one of the sentinel errors above; errors.Is matches both
// Kind and the wrapped cause.
type ConfigError struct {
	Kind      error
	Layer     string
	Pattern   string
	Key       string
	Reference string
	Err       error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	kind := "flatconf: configuration error"
	if e.Kind != nil {
		kind = e.Kind.Error()
	}
	var b strings.Builder
	b.WriteString(kind)
	if e.Layer != "" {
		fmt.Fprintf(&b, " layer=%s", e.Layer)
	}
	if e.Reference != "" {
		fmt.Fprintf(&b, " reference=%q", e.Reference)
	}
	if e.Pattern != "" {
		fmt.Fprintf(&b, " pattern=%q", e.Pattern)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " key=%q", e.Key)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ConfigError) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func patternError(layer, pattern string, err error) error {
	return &ConfigError{
		Kind:    ErrInvalidPatternSyntax,
		Layer:   layer,
		Pattern: pattern,
		Err:     err,
	}
}

func referenceError(kind error, layer, reference string, chain []string) error {
	var cause error
	if len(chain) > 0 {
		cause = fmt.Errorf("extends chain %s", strings.Join(append(append([]string{}, chain...), reference), " -> "))
	}
	return &ConfigError{
		Kind:      kind,
		Layer:     layer,
		Reference: reference,
		Err:       cause,
	}
}

func settingError(layer, key string, err error) error {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) && errors.Is(err, ErrUnknownSettingValue) {
		if cfgErr.Layer == "" {
			cfgErr.Layer = layer
		}
		if cfgErr.Key == "" {
			cfgErr.Key = key
		}
		return cfgErr
	}
	return &ConfigError{
		Kind:  ErrUnknownSettingValue,
		Layer: layer,
		Key:   key,
		Err:   err,
	}
}
