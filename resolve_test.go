package flatconf

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sync"
	"testing"
)

var fixtureErrors = map[string]error{
	"ErrInvalidPatternSyntax":    ErrInvalidPatternSyntax,
	"ErrDuplicateLayerReference": ErrDuplicateLayerReference,
	"ErrUnknownLayerReference":   ErrUnknownLayerReference,
	"ErrUnknownSettingValue":     ErrUnknownSettingValue,
}

type resolveExpectation struct {
	Path       string         `json:"path"`
	Applicable bool           `json:"applicable"`
	Settings   map[string]any `json:"settings"`
	Layers     []string       `json:"layers"`
}

type resolveCase struct {
	Name    string                `json:"name"`
	Presets map[string][]RawLayer `json:"presets"`
	Layers  []RawLayer            `json:"layers"`
	Err     string                `json:"err"`
	Expect  []resolveExpectation  `json:"expect"`
}

type resolveFixture struct {
	Description string        `json:"description"`
	Cases       []resolveCase `json:"cases"`
}

func TestResolveFixture(t *testing.T) {
	fx := loadFixture[resolveFixture](t, "resolve_cases.json")
	if len(fx.Cases) == 0 {
		t.Fatalf("fixture has no cases")
	}

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			var opts []Option
			if tc.Presets != nil {
				opts = append(opts, WithPresets(PresetMap(tc.Presets)))
			}
			resolver, err := Load(tc.Layers, opts...)

			if tc.Err != "" {
				want, ok := fixtureErrors[tc.Err]
				if !ok {
					t.Fatalf("unknown fixture error %q", tc.Err)
				}
				if !errors.Is(err, want) {
					t.Fatalf("expected %s, got %v", tc.Err, err)
				}
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("expected *ConfigError, got %T", err)
				}
				if resolver != nil {
					t.Fatalf("expected nil resolver on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("load: %v", err)
			}

			for _, exp := range tc.Expect {
				got, ok := resolver.Resolve(exp.Path)
				if ok != exp.Applicable {
					t.Fatalf("%s: expected applicable=%v, got %v (%+v)", exp.Path, exp.Applicable, ok, got)
				}
				if !ok {
					continue
				}
				if !sameSettings(got.Settings, exp.Settings) {
					t.Fatalf("%s: expected settings %#v, got %#v", exp.Path, exp.Settings, got.Settings)
				}
				if !reflect.DeepEqual(got.Layers, exp.Layers) {
					t.Fatalf("%s: expected layers %v, got %v", exp.Path, exp.Layers, got.Layers)
				}
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	fx := loadFixture[resolveFixture](t, "resolve_cases.json")
	for _, tc := range fx.Cases {
		if tc.Err != "" {
			continue
		}
		var opts []Option
		if tc.Presets != nil {
			opts = append(opts, WithPresets(PresetMap(tc.Presets)))
		}
		first, err := Load(tc.Layers, opts...)
		if err != nil {
			t.Fatalf("%s: load: %v", tc.Name, err)
		}
		second, err := Load(tc.Layers, opts...)
		if err != nil {
			t.Fatalf("%s: reload: %v", tc.Name, err)
		}
		for _, exp := range tc.Expect {
			a, okA := first.Resolve(exp.Path)
			b, okB := first.Resolve(exp.Path)
			c, okC := second.Resolve(exp.Path)
			if okA != okB || okA != okC {
				t.Fatalf("%s %s: applicability differs", tc.Name, exp.Path)
			}
			if !reflect.DeepEqual(a, b) || !reflect.DeepEqual(a, c) {
				t.Fatalf("%s %s: results differ: %+v %+v %+v", tc.Name, exp.Path, a, b, c)
			}
		}
	}
}

func TestResolveCacheReturnsDetachedCopies(t *testing.T) {
	resolver, err := Load([]RawLayer{
		{Files: []string{"**/*.ts"}, Settings: map[string]any{"a/rule": []any{"error", map[string]any{"max": 1}}}},
	}, WithResolveCache(4))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	first, ok := resolver.Resolve("src/x.ts")
	if !ok {
		t.Fatalf("expected applicable")
	}
	first.Settings["a/rule"].([]any)[1].(map[string]any)["max"] = 99
	first.Settings["extra"] = "warn"
	first.Layers[0] = "mutated"

	second, ok := resolver.Resolve("src/x.ts")
	if !ok {
		t.Fatalf("expected applicable")
	}
	opts := second.Settings["a/rule"].([]any)[1].(map[string]any)
	if opts["max"] != 1 {
		t.Fatalf("expected cached options untouched, got %v", opts["max"])
	}
	if _, leaked := second.Settings["extra"]; leaked {
		t.Fatalf("expected cached settings untouched")
	}
	if second.Layers[0] != "layer[0]" {
		t.Fatalf("expected cached layers untouched, got %v", second.Layers)
	}

	if _, ok := resolver.Resolve("README.md"); ok {
		t.Fatalf("expected README.md to be not applicable")
	}
	if _, ok := resolver.Resolve("README.md"); ok {
		t.Fatalf("expected cached not applicable result")
	}
}

func TestResolveInputIsDetachedFromCaller(t *testing.T) {
	settings := map[string]any{"core": "warn"}
	raw := []RawLayer{{Files: []string{"**/*.js"}, Settings: settings}}
	resolver, err := Load(raw)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	settings["core"] = "error"
	raw[0].Files[0] = "**/*.md"

	got, ok := resolver.Resolve("a.js")
	if !ok || got.Settings["core"] != "warn" {
		t.Fatalf("expected ingestion to copy input, got %+v ok=%v", got, ok)
	}
}

func TestResolveWithBasePath(t *testing.T) {
	resolver, err := Load([]RawLayer{
		{Ignores: []string{"dist/**"}},
		{Files: []string{"src/**/*.ts"}, Settings: map[string]any{"a/rule": "warn"}},
	}, WithBasePath("/repo"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cases := []struct {
		path       string
		applicable bool
		ignored    bool
	}{
		{path: "/repo/src/x.ts", applicable: true},
		{path: "src/x.ts", applicable: true},
		{path: "/repo/dist/x.ts", ignored: true},
		{path: "/other/src/x.ts", ignored: true},
		{path: "/repository/src/x.ts", ignored: true},
		{path: "/repo", ignored: true},
		{path: "../src/x.ts", ignored: true},
	}
	for _, tc := range cases {
		got, ok := resolver.Resolve(tc.path)
		if ok != tc.applicable {
			t.Fatalf("%s: expected applicable=%v, got %v", tc.path, tc.applicable, ok)
		}
		if ok && got.Path != "src/x.ts" {
			t.Fatalf("%s: expected relative path, got %q", tc.path, got.Path)
		}
		if ignored := resolver.IsIgnored(tc.path); ignored != tc.ignored {
			t.Fatalf("%s: expected ignored=%v, got %v", tc.path, tc.ignored, ignored)
		}
	}
}

func TestResolveNormalizesPaths(t *testing.T) {
	resolver, err := Load([]RawLayer{
		{Files: []string{"src/**"}, Settings: map[string]any{"core": "warn"}},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, path := range []string{`src\nested\x.js`, "./src/x.js", "src/./x.js", "src/a/../x.js"} {
		if _, ok := resolver.Resolve(path); !ok {
			t.Fatalf("expected %q to be applicable", path)
		}
	}
	if _, ok := resolver.Resolve(""); ok {
		t.Fatalf("expected empty path to be not applicable")
	}
	if _, ok := resolver.Resolve("SRC/x.js"); ok {
		t.Fatalf("expected case-sensitive matching")
	}
}

func TestResolveConcurrentReaders(t *testing.T) {
	resolver, err := Load([]RawLayer{
		{Ignores: []string{"dist/**"}},
		{Settings: map[string]any{"core": "warn"}},
		{Files: []string{"**/*.ts"}, Settings: map[string]any{"a/rule": []any{"error", map[string]any{"max": 1}}}},
	}, WithResolveCache(2))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	paths := []string{"src/a.ts", "src/b.ts", "src/c.js", "dist/x.ts", "lib/d.ts"}
	var wg sync.WaitGroup
	errs := make(chan string, 8*len(paths)*50)
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				for _, path := range paths {
					got, ok := resolver.Resolve(path)
					if path == "dist/x.ts" {
						if ok {
							errs <- path + ": expected ignored path to be not applicable"
						}
						continue
					}
					if !ok || got.Settings["core"] != "warn" {
						errs <- path + ": missing core setting"
						continue
					}
					// callers own their copy
					got.Settings["core"] = "off"
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Fatal(msg)
	}
}

func TestNilResolver(t *testing.T) {
	var resolver *Resolver
	if _, ok := resolver.Resolve("a.js"); ok {
		t.Fatalf("expected nil resolver to be not applicable")
	}
	if resolver.IsIgnored("a.js") {
		t.Fatalf("expected nil resolver to ignore nothing")
	}
	if resolver.ID() != "" {
		t.Fatalf("expected empty id")
	}
}

func sameSettings(got Settings, want map[string]any) bool {
	if len(got) == 0 && len(want) == 0 {
		return true
	}
	return reflect.DeepEqual(map[string]any(got), want)
}

func loadFixture[T any](t *testing.T, name string) T {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("unable to resolve caller for fixture %q", name)
	}
	path := filepath.Join(filepath.Dir(file), "testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %q: %v", path, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal fixture %q: %v", path, err)
	}
	return out
}
