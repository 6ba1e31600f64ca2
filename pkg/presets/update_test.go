package presets

import (
	"context"
	"errors"
	"testing"

	flatconf "github.com/goliatone/go-flatconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateCreatesMissingPreset(t *testing.T) {
	store := NewMemoryStore()
	meta, err := Update(context.Background(), store, "strict", func(p *Preset) error {
		p.Layers = append(p.Layers, flatconf.RawLayer{Settings: map[string]any{"core": "error"}})
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, meta.ETag)

	loaded, ok, err := store.Load(context.Background(), "strict")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded.Layers, 1)
}

func TestUpdateValidatesAgainstStore(t *testing.T) {
	store := NewMemoryStore(Preset{Name: "base", Layers: []flatconf.RawLayer{{Settings: map[string]any{"x": "warn"}}}})
	ctx := context.Background()

	_, err := Update(ctx, store, "strict", func(p *Preset) error {
		p.Layers = []flatconf.RawLayer{{Extends: []string{"base"}, Settings: map[string]any{"y": "error"}}}
		return nil
	})
	require.NoError(t, err)

	_, err = Update(ctx, store, "broken", func(p *Preset) error {
		p.Layers = []flatconf.RawLayer{{Files: []string{"src/[a-"}, Settings: map[string]any{"x": "warn"}}}
		return nil
	})
	assert.ErrorIs(t, err, flatconf.ErrInvalidPatternSyntax)

	_, err = Update(ctx, store, "dangling", func(p *Preset) error {
		p.Layers = []flatconf.RawLayer{{Extends: []string{"missing"}}}
		return nil
	})
	assert.ErrorIs(t, err, flatconf.ErrUnknownLayerReference)

	_, ok, err := store.Load(ctx, "broken")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateDetectsCycleThroughStore(t *testing.T) {
	store := NewMemoryStore(Preset{Name: "a", Layers: []flatconf.RawLayer{{Extends: []string{"b"}}}})
	_, err := Update(context.Background(), store, "b", func(p *Preset) error {
		p.Layers = []flatconf.RawLayer{{Extends: []string{"a"}}}
		return nil
	})
	assert.ErrorIs(t, err, flatconf.ErrDuplicateLayerReference)
}

func TestUpdateMutatorErrorSkipsSave(t *testing.T) {
	store := NewMemoryStore(Preset{Name: "base"})
	before, _, _ := store.Load(context.Background(), "base")
	stop := errors.New("stop")

	meta, err := Update(context.Background(), store, "base", func(p *Preset) error {
		p.Layers = []flatconf.RawLayer{{Settings: map[string]any{"x": "warn"}}}
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, before.Meta.ETag, meta.ETag)

	after, _, _ := store.Load(context.Background(), "base")
	assert.Equal(t, before.Meta.ETag, after.Meta.ETag)
	assert.Empty(t, after.Layers)
}

func TestUpdateRequiresArguments(t *testing.T) {
	store := NewMemoryStore()
	_, err := Update(context.Background(), nil, "x", func(*Preset) error { return nil })
	assert.Error(t, err)
	_, err = Update(context.Background(), store, "", func(*Preset) error { return nil })
	assert.ErrorIs(t, err, ErrNameRequired)
	_, err = Update(context.Background(), store, "x", nil)
	assert.Error(t, err)
}
