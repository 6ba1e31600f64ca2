package hydrate

import (
	"fmt"

	flatconf "github.com/goliatone/go-flatconf"
)

// LayerDecoder decodes raw layer entries strictly: unknown fields fail,
// "rules" is accepted for "settings" and single strings are accepted where a
// pattern or reference list is expected.
func LayerDecoder(opts ...DecoderOption[flatconf.RawLayer]) *Decoder[flatconf.RawLayer] {
	base := []DecoderOption[flatconf.RawLayer]{
		WithDisallowUnknownFields[flatconf.RawLayer](),
		WithPreHook[flatconf.RawLayer](RulesAlias),
		WithPreHook[flatconf.RawLayer](ListFields("files", "ignores", "extends")),
	}
	return NewDecoder(append(base, opts...)...)
}

// RulesAlias moves "rules" to "settings". Using both is an error.
func RulesAlias(_ Context, payload map[string]any) (map[string]any, error) {
	rules, ok := payload["rules"]
	if !ok {
		return payload, nil
	}
	if _, both := payload["settings"]; both {
		return nil, fmt.Errorf("both rules and settings are set")
	}
	delete(payload, "rules")
	payload["settings"] = rules
	return payload, nil
}

// ListFields wraps a bare string in fields into a one-element list.
func ListFields(fields ...string) PreHook {
	return func(_ Context, payload map[string]any) (map[string]any, error) {
		for _, field := range fields {
			if value, ok := payload[field].(string); ok {
				payload[field] = []any{value}
			}
		}
		return payload, nil
	}
}
