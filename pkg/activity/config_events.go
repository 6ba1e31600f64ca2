package activity

import (
	"strings"
	"time"
)

const (
	VerbConfigLoaded   = "config.loaded"
	VerbConfigRejected = "config.rejected"

	// ObjectTypeConfig is the object type of configuration lifecycle events.
	ObjectTypeConfig = "config"
)

// ConfigEventInput describes the fields shared by configuration lifecycle
// events.
type ConfigEventInput struct {
	ConfigID      string
	Source        string
	Channel       string
	Layers        int
	GlobalIgnores int
	Namespaces    []string
	Err           error
	Metadata      map[string]any
	OccurredAt    time.Time
}

// BuildConfigLoadedEvent constructs the event emitted once a configuration has
// been ingested and composed.
func BuildConfigLoadedEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbConfigLoaded, input)
}

// BuildConfigRejectedEvent constructs the event emitted when ingestion or
// composition fails. The error message is recorded under "error".
func BuildConfigRejectedEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbConfigRejected, input)
}

func buildConfigEvent(verb string, input ConfigEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["layers"] = input.Layers
	if input.GlobalIgnores > 0 {
		metadata["global_ignores"] = input.GlobalIgnores
	}
	if len(input.Namespaces) > 0 {
		metadata["namespaces"] = append([]string{}, input.Namespaces...)
	}
	if input.Err != nil {
		metadata["error"] = input.Err.Error()
	}

	objectID := strings.TrimSpace(input.ConfigID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Source)
	}
	if objectID == "" {
		objectID = ObjectTypeConfig
	}

	return Event{
		Verb:       verb,
		ObjectType: ObjectTypeConfig,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Source:     strings.TrimSpace(input.Source),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
