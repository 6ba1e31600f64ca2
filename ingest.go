package flatconf

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Ingest flattens extends references, compiles every pattern and assigns
// ranks in the resulting order. Any invalid pattern or broken reference fails
// the whole sequence.
func Ingest(ctx context.Context, raw []RawLayer, opts ...Option) ([]Layer, error) {
	return ingest(ctx, raw, applyOptions(opts))
}

func ingest(ctx context.Context, raw []RawLayer, cfg optionsConfig) ([]Layer, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cfg.logger.With().Str("component", "flatconf.ingest").Logger()

	named := make(map[string]RawLayer, len(raw))
	definedAt := make(map[string]int, len(raw))
	for i, layer := range raw {
		if layer.Name == "" {
			continue
		}
		if _, exists := named[layer.Name]; exists {
			logger.Debug().Str("name", layer.Name).Msg("duplicate layer name, keeping first definition for references")
			continue
		}
		named[layer.Name] = layer
		definedAt[layer.Name] = i
	}

	f := &flattener{
		ctx:     ctx,
		presets: cfg.presets,
		named:   named,
		logger:  logger,
	}

	var entries []flatEntry
	for i, layer := range raw {
		label := inputLabel(i, layer.Name)
		active := map[string]struct{}{}
		if at, ok := definedAt[layer.Name]; ok && at == i {
			active[namedTarget(layer.Name)] = struct{}{}
		}
		expanded, err := f.expand(layer, label, nil, active)
		if err != nil {
			logger.Error().Err(err).Str("entry", label).Msg("failed to flatten configuration entry")
			return nil, err
		}
		if len(expanded) == 0 {
			logger.Debug().Str("entry", label).Msg("dropping entry without files, ignores or settings")
		}
		entries = append(entries, expanded...)
	}

	layers := make([]Layer, 0, len(entries))
	for rank, entry := range entries {
		layer, err := NewLayer(entry.raw, rank, WithOrigin(entry.origin...))
		if err != nil {
			logger.Error().Err(err).Int("rank", rank).Msg("invalid layer pattern")
			return nil, err
		}
		logger.Debug().
			Str("layer", layer.ID).
			Strs("origin", layer.Origin).
			Int("files", layer.Files.Len()).
			Int("ignores", layer.Ignores.Len()).
			Int("settings", len(layer.Settings)).
			Bool("globalIgnore", layer.IsGlobalIgnore()).
			Msg("ingested layer")
		layers = append(layers, layer)
	}

	logger.Info().
		Int("entries", len(raw)).
		Int("layers", len(layers)).
		Msg("ingested configuration")
	return layers, nil
}

func inputLabel(index int, name string) string {
	if name == "" {
		return fmt.Sprintf("input[%d]", index)
	}
	return fmt.Sprintf("input[%d](%s)", index, name)
}

type flatEntry struct {
	raw    RawLayer
	origin []string
}

type flattener struct {
	ctx     context.Context
	presets PresetSource
	named   map[string]RawLayer
	logger  zerolog.Logger
}

// expand splices every extends target in place ahead of the entry's own
// content. active holds the targets on the current expansion path, keyed by
// what a reference resolved to so a preset and a layer sharing a name stay
// distinct.
func (f *flattener) expand(layer RawLayer, label string, chain []string, active map[string]struct{}) ([]flatEntry, error) {
	var out []flatEntry
	for _, ref := range layer.Extends {
		targets, target, err := f.lookup(ref, label, chain)
		if err != nil {
			return nil, err
		}
		if _, cyclic := active[target]; cyclic {
			return nil, referenceError(ErrDuplicateLayerReference, label, ref, chain)
		}
		next := append(copyStrings(chain), ref)
		active[target] = struct{}{}
		for _, target := range targets {
			expanded, err := f.expand(target, label, next, active)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		}
		delete(active, target)
	}
	if layer.hasContent() {
		own := layer.clone()
		own.Extends = nil
		out = append(out, flatEntry{raw: own, origin: copyStrings(chain)})
	}
	return out, nil
}

// lookup resolves ref, presets first, and returns its layers with the key
// identifying the target in the active set.
func (f *flattener) lookup(ref, label string, chain []string) ([]RawLayer, string, error) {
	if f.presets != nil {
		layers, ok, err := f.presets.LookupPreset(f.ctx, ref)
		if err != nil {
			return nil, "", fmt.Errorf("flatconf: load preset %q for %s: %w", ref, label, err)
		}
		if ok {
			f.logger.Debug().Str("entry", label).Str("preset", ref).Int("layers", len(layers)).Msg("splicing preset")
			return layers, "preset:" + ref, nil
		}
	}
	if layer, ok := f.named[ref]; ok {
		f.logger.Debug().Str("entry", label).Str("layer", ref).Msg("splicing named layer")
		return []RawLayer{layer.clone()}, namedTarget(ref), nil
	}
	return nil, "", referenceError(ErrUnknownLayerReference, label, ref, chain)
}

func namedTarget(name string) string {
	return "layer:" + name
}
