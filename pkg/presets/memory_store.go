package presets

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	flatconf "github.com/goliatone/go-flatconf"
	"github.com/google/uuid"
)

// MemoryStore keeps presets in memory. Every save gets a fresh snapshot ID and
// ETag; a save carrying an ETag must match the stored one.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Preset
	now     func() time.Time
}

// NewMemoryStore returns a store seeded with presets.
func NewMemoryStore(presets ...Preset) *MemoryStore {
	s := &MemoryStore{records: map[string]Preset{}, now: time.Now}
	for _, preset := range presets {
		_, _ = s.Save(context.Background(), preset)
	}
	return s
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, name string) (Preset, bool, error) {
	s.mu.RLock()
	record, ok := s.records[name]
	s.mu.RUnlock()
	if !ok {
		return Preset{}, false, nil
	}
	return clonePreset(record), true, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, preset Preset) (Meta, error) {
	name := strings.TrimSpace(preset.Name)
	if name == "" {
		return Meta{}, ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[name]; ok && preset.Meta.ETag != "" && preset.Meta.ETag != existing.Meta.ETag {
		return cloneMeta(existing.Meta), ErrETagMismatch
	}

	stored := clonePreset(preset)
	stored.Name = name
	stored.Meta.SnapshotID = uuid.NewString()
	stored.Meta.ETag = uuid.NewString()
	stored.Meta.UpdatedAt = s.now()
	s.records[name] = stored
	return cloneMeta(stored.Meta), nil
}

// Names returns the stored preset names sorted alphabetically.
func (s *MemoryStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupPreset implements flatconf.PresetSource.
func (s *MemoryStore) LookupPreset(ctx context.Context, name string) ([]flatconf.RawLayer, bool, error) {
	return Source{Store: s}.LookupPreset(ctx, name)
}

func clonePreset(preset Preset) Preset {
	out := Preset{Name: preset.Name, Meta: cloneMeta(preset.Meta)}
	if len(preset.Layers) > 0 {
		out.Layers = make([]flatconf.RawLayer, len(preset.Layers))
		for i, layer := range preset.Layers {
			out.Layers[i] = cloneLayer(layer)
		}
	}
	return out
}
