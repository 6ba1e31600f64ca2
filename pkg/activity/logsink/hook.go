// Package logsink writes activity events to a zerolog logger.
package logsink

import (
	"context"

	"github.com/goliatone/go-flatconf/pkg/activity"
	"github.com/rs/zerolog"
)

// Hook adapts activity events to structured log lines. Rejections are logged
// at warn level, everything else at info.
type Hook struct {
	Logger zerolog.Logger
}

// Notify implements activity.ActivityHook.
func (h Hook) Notify(_ context.Context, event activity.Event) error {
	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}

	var e *zerolog.Event
	if normalized.Verb == activity.VerbConfigRejected {
		e = h.Logger.Warn()
	} else {
		e = h.Logger.Info()
	}
	e = e.Str("verb", normalized.Verb).
		Str("object_type", normalized.ObjectType).
		Str("object_id", normalized.ObjectID).
		Time("occurred_at", normalized.OccurredAt)
	if normalized.Channel != "" {
		e = e.Str("channel", normalized.Channel)
	}
	if normalized.Source != "" {
		e = e.Str("source", normalized.Source)
	}
	if len(normalized.Metadata) > 0 {
		e = e.Interface("metadata", normalized.Metadata)
	}
	e.Msg("activity")
	return nil
}
