package presets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	flatconf "github.com/goliatone/go-flatconf"
)

var (
	// ErrNameRequired reports a preset without a name.
	ErrNameRequired = errors.New("presets: name is required")
	// ErrETagMismatch reports a save based on a stale copy of the preset.
	ErrETagMismatch = errors.New("presets: etag mismatch")
)

// Meta is storage-owned metadata used for diagnostics and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Preset is a named layer sequence.
type Preset struct {
	Name   string              `json:"name"`
	Layers []flatconf.RawLayer `json:"layers"`
	Meta   Meta                `json:"meta"`
}

// Store loads and saves presets by name.
type Store interface {
	Load(ctx context.Context, name string) (Preset, bool, error)
	Save(ctx context.Context, preset Preset) (Meta, error)
}

// Source adapts a Store to flatconf.PresetSource.
type Source struct {
	Store Store
}

var _ flatconf.PresetSource = Source{}

// LookupPreset implements flatconf.PresetSource.
func (s Source) LookupPreset(ctx context.Context, name string) ([]flatconf.RawLayer, bool, error) {
	if s.Store == nil {
		return nil, false, fmt.Errorf("presets: store is required")
	}
	preset, ok, err := s.Store.Load(ctx, name)
	if err != nil || !ok {
		return nil, ok, err
	}
	return labelLayers(preset), true, nil
}

// labelLayers names unnamed layers after the preset and its snapshot.
func labelLayers(preset Preset) []flatconf.RawLayer {
	label := preset.Name
	if preset.Meta.SnapshotID != "" {
		label += "@" + preset.Meta.SnapshotID
	}
	out := make([]flatconf.RawLayer, len(preset.Layers))
	for i, layer := range preset.Layers {
		copied := cloneLayer(layer)
		if strings.TrimSpace(copied.Name) == "" {
			copied.Name = label
		}
		out[i] = copied
	}
	return out
}

// Mutator edits a preset in place.
type Mutator func(*Preset) error

// Update loads name, applies fn, checks that the result still ingests against
// the rest of the store and saves it. A missing preset starts out empty.
func Update(ctx context.Context, store Store, name string, fn Mutator) (Meta, error) {
	if store == nil {
		return Meta{}, fmt.Errorf("presets: store is required")
	}
	if strings.TrimSpace(name) == "" {
		return Meta{}, ErrNameRequired
	}
	if fn == nil {
		return Meta{}, fmt.Errorf("presets: mutator is required")
	}

	preset, ok, err := store.Load(ctx, name)
	if err != nil {
		return Meta{}, fmt.Errorf("presets: load %q: %w", name, err)
	}
	if !ok {
		preset = Preset{Name: name}
	}
	loadedMeta := preset.Meta

	if err := fn(&preset); err != nil {
		return loadedMeta, err
	}
	preset.Name = name

	source := pending{name: name, layers: preset.Layers, next: Source{Store: store}}
	if _, err := flatconf.Ingest(ctx, []flatconf.RawLayer{{Extends: []string{name}}}, flatconf.WithPresets(source)); err != nil {
		return loadedMeta, fmt.Errorf("presets: %q: %w", name, err)
	}

	saved, err := store.Save(ctx, preset)
	if err != nil {
		return loadedMeta, fmt.Errorf("presets: save %q: %w", name, err)
	}
	return saved, nil
}

// pending serves an unsaved preset ahead of the store it will be saved to.
type pending struct {
	name   string
	layers []flatconf.RawLayer
	next   flatconf.PresetSource
}

func (p pending) LookupPreset(ctx context.Context, name string) ([]flatconf.RawLayer, bool, error) {
	if name == p.name {
		return p.layers, true, nil
	}
	return p.next.LookupPreset(ctx, name)
}

func cloneLayer(layer flatconf.RawLayer) flatconf.RawLayer {
	return flatconf.RawLayer{
		Name:     layer.Name,
		Files:    append([]string(nil), layer.Files...),
		Ignores:  append([]string(nil), layer.Ignores...),
		Settings: flatconf.Settings(layer.Settings).Clone(),
		Extends:  append([]string(nil), layer.Extends...),
	}
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
