package flatconf

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-flatconf/pkg/activity"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestLoadEmitsLoadedEvent(t *testing.T) {
	capture := &activity.CaptureHook{}
	resolver, err := LoadContext(context.Background(), []RawLayer{
		{Ignores: []string{"dist/**"}},
		{Files: []string{"**/*.ts"}, Settings: map[string]any{"@typescript-eslint/no-unused-vars": "error", "eqeqeq": "warn"}},
	}, WithActivityHooks(activity.Hooks{nil, capture}), WithSource("eslint.config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := uuid.Parse(resolver.ID()); err != nil {
		t.Fatalf("expected uuid configuration id, got %q", resolver.ID())
	}
	if got := capture.Verbs(); !reflect.DeepEqual(got, []string{activity.VerbConfigLoaded}) {
		t.Fatalf("expected one loaded event, got %v", got)
	}
	event := capture.Events[0]
	if event.ObjectID != resolver.ID() || event.Source != "eslint.config.yaml" {
		t.Fatalf("unexpected event identity %+v", event)
	}
	if event.Channel != activity.DefaultChannel {
		t.Fatalf("expected default channel, got %q", event.Channel)
	}
	if event.Metadata["layers"] != 2 || event.Metadata["global_ignores"] != 1 {
		t.Fatalf("unexpected metadata %+v", event.Metadata)
	}
	if ns, _ := event.Metadata["namespaces"].([]string); !reflect.DeepEqual(ns, []string{"@typescript-eslint"}) {
		t.Fatalf("unexpected namespaces %v", event.Metadata["namespaces"])
	}

	if _, ok := resolver.Resolve("src/a.ts"); !ok {
		t.Fatalf("expected resolve to work after load")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("resolve must not emit events, got %d", len(capture.Events))
	}
}

func TestLoadEmitsRejectedEvent(t *testing.T) {
	capture := &activity.CaptureHook{}
	_, err := Load([]RawLayer{{Extends: []string{"missing"}}}, WithActivityHooks(activity.Hooks{capture}))
	if !errors.Is(err, ErrUnknownLayerReference) {
		t.Fatalf("expected unknown reference, got %v", err)
	}
	if got := capture.Verbs(); !reflect.DeepEqual(got, []string{activity.VerbConfigRejected}) {
		t.Fatalf("expected one rejected event, got %v", got)
	}
	msg, _ := capture.Events[0].Metadata["error"].(string)
	if !strings.Contains(msg, "unknown layer reference") {
		t.Fatalf("expected error metadata, got %q", msg)
	}
}

func TestLoadHookFailureDoesNotFailLoad(t *testing.T) {
	failing := activity.HookFunc(func(context.Context, activity.Event) error {
		return errors.New("sink down")
	})
	var buf bytes.Buffer
	_, err := Load([]RawLayer{{Settings: map[string]any{"x": "warn"}}},
		WithActivityHooks(activity.Hooks{failing}),
		WithLogger(zerolog.New(&buf)),
	)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if !strings.Contains(buf.String(), "activity hook failed") {
		t.Fatalf("expected hook failure to be logged, got %q", buf.String())
	}
}

func TestLoadLogsThroughConfiguredLogger(t *testing.T) {
	var buf bytes.Buffer
	_, err := Load([]RawLayer{{Files: []string{"**/*.js"}, Settings: map[string]any{"x": "warn"}}},
		WithLogger(zerolog.New(&buf).Level(zerolog.InfoLevel)),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"component":"flatconf.ingest"`) || !strings.Contains(out, "configuration loaded") {
		t.Fatalf("expected ingest and load log lines, got %q", out)
	}
	if strings.Contains(out, `"level":"debug"`) {
		t.Fatalf("expected debug lines filtered, got %q", out)
	}
}

func TestCompositionCatalog(t *testing.T) {
	resolver, err := Load([]RawLayer{
		{Settings: map[string]any{"eqeqeq": "warn", "react/jsx-key": "error"}},
		{Ignores: []string{"dist/**"}},
		{Files: []string{"**/*.tsx"}, Settings: map[string]any{"react/jsx-key": "off", "@typescript-eslint/no-explicit-any": "warn"}},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	composition := resolver.Composition()

	catalog := composition.Catalog()
	want := []KeyDescriptor{
		{Key: "@typescript-eslint/no-explicit-any", Namespace: "@typescript-eslint", Layers: []string{"layer[2]"}},
		{Key: "eqeqeq", Layers: []string{"layer[0]"}},
		{Key: "react/jsx-key", Namespace: "react", Layers: []string{"layer[0]", "layer[2]"}},
	}
	if !reflect.DeepEqual(catalog, want) {
		t.Fatalf("unexpected catalog:\n%+v\nwant\n%+v", catalog, want)
	}
	if got := composition.Namespaces(); !reflect.DeepEqual(got, []string{"@typescript-eslint", "react"}) {
		t.Fatalf("unexpected namespaces %v", got)
	}
	if got := composition.GlobalIgnoreLayers(); !reflect.DeepEqual(got, []string{"layer[1]"}) {
		t.Fatalf("unexpected global ignore layers %v", got)
	}
	if got := composition.GlobalIgnores(); !reflect.DeepEqual(got, []string{"dist/**"}) {
		t.Fatalf("unexpected global ignores %v", got)
	}
	if len(composition.Layers()) != 3 {
		t.Fatalf("expected 3 layers")
	}
}

func TestEmptyConfiguration(t *testing.T) {
	resolver, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := resolver.Resolve("a.js"); ok {
		t.Fatalf("expected nothing to be applicable")
	}
	if catalog := resolver.Composition().Catalog(); len(catalog) != 0 {
		t.Fatalf("expected empty catalog, got %v", catalog)
	}
}
