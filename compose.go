package flatconf

import (
	"fmt"

	"github.com/goliatone/go-flatconf/glob"
	"github.com/goliatone/go-flatconf/layering"
	"github.com/rs/zerolog"
)

// Composition is the pure function from a path to its merged settings, built
// once from a ranked layer sequence. It is immutable and safe for concurrent
// use.
type Composition struct {
	layers        []Layer
	globalIgnores glob.Set
	globalLayers  []string
	logger        zerolog.Logger
}

// Compose orders layers by rank, collects the global ignores and runs the
// configured validators over every setting.
func Compose(layers []Layer, opts ...Option) (*Composition, error) {
	return compose(layers, applyOptions(opts))
}

// Compose builds a Composition from the layers of the stack.
func (s *Stack) Compose(opts ...Option) (*Composition, error) {
	if s == nil {
		return compose(nil, applyOptions(opts))
	}
	return compose(s.layers, applyOptions(opts))
}

func compose(layers []Layer, cfg optionsConfig) (*Composition, error) {
	logger := cfg.logger.With().Str("component", "flatconf.compose").Logger()
	stack, err := NewStack(layers...)
	if err != nil {
		return nil, err
	}

	c := &Composition{
		layers: stack.layers,
		logger: logger,
	}
	for _, layer := range c.layers {
		if !layer.IsGlobalIgnore() {
			continue
		}
		c.globalIgnores = glob.Concat(c.globalIgnores, layer.Ignores)
		c.globalLayers = append(c.globalLayers, layer.ID)
	}

	validators, err := bindValidators(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.validate(validators); err != nil {
		logger.Error().Err(err).Msg("configuration rejected by validation")
		return nil, err
	}

	logger.Debug().
		Int("layers", len(c.layers)).
		Int("globalIgnores", c.globalIgnores.Len()).
		Int("validators", len(validators)).
		Msg("composed configuration")
	return c, nil
}

func (c *Composition) validate(validators []Validator) error {
	if len(validators) == 0 {
		return nil
	}
	for _, layer := range c.layers {
		for _, key := range layer.Settings.Keys() {
			ctx := RuleContext{
				Key:   key,
				Value: layer.Settings[key],
				Layer: layer.ID,
				Rank:  layer.Rank,
			}
			for _, validator := range validators {
				if err := validator.ValidateSetting(ctx); err != nil {
					return settingError(layer.ID, key, err)
				}
			}
		}
	}
	return nil
}

// Layers returns a copy of the composed layers in rank order.
func (c *Composition) Layers() []Layer {
	if c == nil {
		return nil
	}
	out := make([]Layer, len(c.layers))
	for i := range c.layers {
		out[i] = c.layers[i].clone()
	}
	return out
}

// GlobalIgnores returns the concatenated ignore patterns of every global-ignore
// layer in rank order.
func (c *Composition) GlobalIgnores() []string {
	if c == nil {
		return nil
	}
	return c.globalIgnores.Raw()
}

// IsIgnored reports whether a global ignore excludes path.
func (c *Composition) IsIgnored(path string) bool {
	if c == nil {
		return false
	}
	return c.globalIgnores.Excludes(path)
}

// applicable returns the indexes of the non global-ignore layers that apply to
// path, in rank order. A nil result with false means path is not applicable.
func (c *Composition) applicable(path string) ([]int, bool) {
	if c == nil || c.IsIgnored(path) {
		return nil, false
	}
	var matched []int
	for i, layer := range c.layers {
		if layer.IsGlobalIgnore() {
			continue
		}
		if layer.Applies(path) {
			matched = append(matched, i)
		}
	}
	return matched, len(matched) > 0
}

// Settings merges the settings of every layer that applies to path. The
// second result names the contributing layers; the boolean is false when path
// is globally ignored or no layer scope matches it.
func (c *Composition) Settings(path string) (Settings, []string, bool) {
	matched, ok := c.applicable(path)
	if !ok {
		return nil, nil, false
	}
	maps := make([]map[string]any, len(matched))
	ids := make([]string, len(matched))
	for i, idx := range matched {
		maps[i] = c.layers[idx].Settings
		ids[i] = c.layers[idx].ID
	}
	merged := layering.MergeShallow(maps...)
	if merged == nil {
		merged = map[string]any{}
	}
	return Settings(merged), ids, true
}

func (c *Composition) String() string {
	if c == nil {
		return "Composition(<nil>)"
	}
	return fmt.Sprintf("Composition(layers=%d, globalIgnores=%d)", len(c.layers), c.globalIgnores.Len())
}
