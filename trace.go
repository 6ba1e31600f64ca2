package flatconf

import (
	"encoding/json"

	"github.com/goliatone/go-flatconf/layering"
)

// Trace captures, for one path and key, how every layer contributed to the
// effective value.
type Trace struct {
	Path       string       `json:"path"`
	Key        string       `json:"key"`
	Applicable bool         `json:"applicable"`
	Ignored    bool         `json:"ignored,omitempty"`
	Value      any          `json:"value,omitempty"`
	Layers     []Provenance `json:"layers"`
}

// Provenance details how a specific layer relates to a traced key.
type Provenance struct {
	Layer   string   `json:"layer"`
	Name    string   `json:"name,omitempty"`
	Rank    int      `json:"rank"`
	Origin  []string `json:"origin,omitempty"`
	Applies bool     `json:"applies"`
	Found   bool     `json:"found"`
	Winner  bool     `json:"winner,omitempty"`
	Value   any      `json:"value,omitempty"`
}

// ResolveWithTrace reports every non global-ignore layer in rank order with
// whether it applies to path and whether it sets key. The winning layer is the
// highest-ranked one that does both.
func (r *Resolver) ResolveWithTrace(path, key string) Trace {
	trace := Trace{Path: path, Key: key}
	if r == nil {
		return trace
	}
	rel, ok := r.relative(path)
	if !ok {
		trace.Ignored = true
		return trace
	}
	trace.Path = rel
	c := r.composition
	if c.IsIgnored(rel) {
		trace.Ignored = true
		return trace
	}

	winner := -1
	for _, layer := range c.layers {
		if layer.IsGlobalIgnore() {
			continue
		}
		entry := Provenance{
			Layer:   layer.ID,
			Name:    layer.Name,
			Rank:    layer.Rank,
			Origin:  copyStrings(layer.Origin),
			Applies: layer.Applies(rel),
		}
		if value, found := layer.Settings[key]; found {
			entry.Found = true
			entry.Value = layering.Clone(value)
		}
		if entry.Applies {
			trace.Applicable = true
			if entry.Found {
				winner = len(trace.Layers)
			}
		}
		trace.Layers = append(trace.Layers, entry)
	}
	if winner >= 0 {
		trace.Layers[winner].Winner = true
		trace.Value = layering.Clone(trace.Layers[winner].Value)
	}
	return trace
}

// FlattenWithProvenance returns every effective key of path with the layer
// that supplied its value. The boolean is false when path is not applicable.
func (r *Resolver) FlattenWithProvenance(path string) (map[string]Provenance, bool) {
	if r == nil {
		return nil, false
	}
	rel, ok := r.relative(path)
	if !ok {
		return nil, false
	}
	matched, ok := r.composition.applicable(rel)
	if !ok {
		return nil, false
	}
	maps := make([]map[string]any, len(matched))
	for i, idx := range matched {
		maps[i] = r.composition.layers[idx].Settings
	}
	out := make(map[string]Provenance)
	for key, winner := range layering.Winners(maps...) {
		layer := r.composition.layers[matched[winner]]
		out[key] = Provenance{
			Layer:   layer.ID,
			Name:    layer.Name,
			Rank:    layer.Rank,
			Origin:  copyStrings(layer.Origin),
			Applies: true,
			Found:   true,
			Winner:  true,
			Value:   layering.Clone(layer.Settings[key]),
		}
	}
	return out, true
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
