package logsink_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/goliatone/go-flatconf/pkg/activity"
	"github.com/goliatone/go-flatconf/pkg/activity/logsink"
	"github.com/rs/zerolog"
)

func TestHookNotifyWritesEvent(t *testing.T) {
	var buf bytes.Buffer
	hook := logsink.Hook{Logger: zerolog.New(&buf)}

	event := activity.BuildConfigLoadedEvent(activity.ConfigEventInput{
		ConfigID:   "cfg-1",
		Source:     "eslint.config.yaml",
		Channel:    "flatconf",
		Layers:     3,
		OccurredAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["level"] != "info" {
		t.Fatalf("expected info level, got %v", line["level"])
	}
	if line["verb"] != activity.VerbConfigLoaded || line["object_id"] != "cfg-1" {
		t.Fatalf("unexpected fields: %+v", line)
	}
	if line["source"] != "eslint.config.yaml" || line["channel"] != "flatconf" {
		t.Fatalf("unexpected source/channel: %+v", line)
	}
	metadata, ok := line["metadata"].(map[string]any)
	if !ok || metadata["layers"] != float64(3) {
		t.Fatalf("expected metadata layers, got %v", line["metadata"])
	}
}

func TestHookNotifyRejectedAtWarn(t *testing.T) {
	var buf bytes.Buffer
	hook := logsink.Hook{Logger: zerolog.New(&buf)}
	event := activity.BuildConfigRejectedEvent(activity.ConfigEventInput{ConfigID: "cfg-2"})
	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if line["level"] != "warn" {
		t.Fatalf("expected warn level, got %v", line["level"])
	}
}

func TestHookNotifySkipsIncompleteEvents(t *testing.T) {
	var buf bytes.Buffer
	hook := logsink.Hook{Logger: zerolog.New(&buf)}
	if err := hook.Notify(context.Background(), activity.Event{Verb: "config.loaded"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}
