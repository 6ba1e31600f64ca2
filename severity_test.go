package flatconf

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseSeverity(t *testing.T) {
	cases := []struct {
		in   any
		want Severity
		err  bool
	}{
		{in: "off", want: SeverityOff},
		{in: " Warn ", want: SeverityWarn},
		{in: "ERROR", want: SeverityError},
		{in: 0, want: SeverityOff},
		{in: int64(1), want: SeverityWarn},
		{in: float64(2), want: SeverityError},
		{in: json.Number("1"), want: SeverityWarn},
		{in: uint64(2), want: SeverityError},
		{in: SeverityWarn, want: SeverityWarn},
		{in: "loud", err: true},
		{in: 3, err: true},
		{in: -1, err: true},
		{in: 1.5, err: true},
		{in: true, err: true},
		{in: nil, err: true},
	}
	for _, tc := range cases {
		got, err := ParseSeverity(tc.in)
		if tc.err {
			if err == nil {
				t.Fatalf("%v: expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%v: unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%v: expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestParseRuleSetting(t *testing.T) {
	setting, err := ParseRuleSetting([]any{"error", "always", map[string]any{"max": 2}})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if setting.Severity != SeverityError || !setting.Enabled() {
		t.Fatalf("unexpected severity %v", setting.Severity)
	}
	want := []any{"always", map[string]any{"max": 2}}
	if !reflect.DeepEqual(setting.Options, want) {
		t.Fatalf("unexpected options %#v", setting.Options)
	}

	if _, err := ParseRuleSetting([]any{}); err == nil {
		t.Fatalf("expected empty list to fail")
	}
	if setting, err := ParseRuleSetting([]string{"off"}); err != nil || setting.Enabled() {
		t.Fatalf("expected disabled rule, got %+v err=%v", setting, err)
	}
}

func TestSettingsHelpers(t *testing.T) {
	settings := Settings{
		"b/rule": []any{"warn", "x"},
		"a/rule": "off",
		"core":   2,
		"opaque": map[string]any{"k": "v"},
	}
	if got := settings.Keys(); !reflect.DeepEqual(got, []string{"a/rule", "b/rule", "core", "opaque"}) {
		t.Fatalf("unexpected keys %v", got)
	}
	if got := settings.Enabled(); !reflect.DeepEqual(got, []string{"b/rule", "core"}) {
		t.Fatalf("unexpected enabled keys %v", got)
	}
	if _, found, err := settings.Rule("opaque"); !found || err == nil {
		t.Fatalf("expected opaque value to fail parsing")
	}
	if _, found, _ := settings.Rule("missing"); found {
		t.Fatalf("expected missing key")
	}

	cloned := settings.Clone()
	cloned["b/rule"].([]any)[0] = "error"
	if settings["b/rule"].([]any)[0] != "warn" {
		t.Fatalf("expected clone to be deep")
	}
}

func TestSeverityJSON(t *testing.T) {
	payload, err := json.Marshal(RuleSetting{Severity: SeverityWarn, Options: []any{"always"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"severity":"warn","options":["always"]}` {
		t.Fatalf("unexpected payload %s", payload)
	}
}

func TestNamespace(t *testing.T) {
	cases := map[string]string{
		"eqeqeq":                                  "",
		"react/jsx-key":                           "react",
		"@typescript-eslint/no-unused-vars":       "@typescript-eslint",
		"@scope/plugin/rule":                      "@scope/plugin",
		"@scope/plugin/nested/rule":               "@scope/plugin",
		"n/no-process-exit":                       "n",
		"n/no-unsupported-features/es-syntax":     "n",
		"n/no-unsupported-features/node-builtins": "n",
		"/leading":                                "",
	}
	for key, want := range cases {
		if got := Namespace(key); got != want {
			t.Fatalf("%s: expected %q, got %q", key, want, got)
		}
	}
}
