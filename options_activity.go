package flatconf

import (
	"context"

	"github.com/goliatone/go-flatconf/pkg/activity"
)

// WithActivityHooks notifies hooks when Load accepts or rejects a
// configuration. Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Clone()
	return func(cfg *optionsConfig) {
		cfg.activityHooks = normalized
	}
}

// WithSource labels activity events and log lines with the configuration's
// origin, typically a file path.
func WithSource(source string) Option {
	return func(cfg *optionsConfig) {
		cfg.source = source
	}
}

func (cfg optionsConfig) emit(ctx context.Context, event activity.Event) {
	if !cfg.activityHooks.Enabled() {
		return
	}
	emitter := activity.NewEmitter(cfg.activityHooks, activity.Config{Enabled: true})
	if err := emitter.Emit(ctx, event); err != nil {
		cfg.logger.Warn().Err(err).Str("verb", event.Verb).Msg("activity hook failed")
	}
}
