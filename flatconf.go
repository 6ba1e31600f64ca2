package flatconf

import (
	"context"

	"github.com/goliatone/go-flatconf/pkg/activity"
	"github.com/google/uuid"
)

// Load ingests raw, composes the layers and returns a Resolver over them. It
// is LoadContext with a background context.
func Load(raw []RawLayer, opts ...Option) (*Resolver, error) {
	return LoadContext(context.Background(), raw, opts...)
}

// LoadContext runs ingestion, composition and resolver construction once.
// Every load gets a random configuration ID reported by Resolver.ID and
// attached to activity events.
func LoadContext(ctx context.Context, raw []RawLayer, opts ...Option) (*Resolver, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := applyOptions(opts)
	id := uuid.NewString()
	cfg.logger = cfg.logger.With().Str("config_id", id).Logger()
	if cfg.source != "" {
		cfg.logger = cfg.logger.With().Str("source", cfg.source).Logger()
	}

	resolver, err := load(ctx, raw, cfg)
	if err != nil {
		cfg.emit(ctx, activity.BuildConfigRejectedEvent(activity.ConfigEventInput{
			ConfigID: id,
			Source:   cfg.source,
			Err:      err,
		}))
		return nil, err
	}
	resolver.id = id

	composition := resolver.composition
	cfg.emit(ctx, activity.BuildConfigLoadedEvent(activity.ConfigEventInput{
		ConfigID:      id,
		Source:        cfg.source,
		Layers:        len(composition.layers),
		GlobalIgnores: len(composition.globalLayers),
		Namespaces:    composition.Namespaces(),
	}))
	cfg.logger.Info().
		Int("layers", len(composition.layers)).
		Int("globalIgnores", composition.globalIgnores.Len()).
		Msg("configuration loaded")
	return resolver, nil
}

func load(ctx context.Context, raw []RawLayer, cfg optionsConfig) (*Resolver, error) {
	layers, err := ingest(ctx, raw, cfg)
	if err != nil {
		return nil, err
	}
	composition, err := compose(layers, cfg)
	if err != nil {
		return nil, err
	}
	return newResolver(composition, cfg)
}
