package flatconf

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-flatconf/glob"
	"github.com/goliatone/go-flatconf/layering"
)

// Layer is an ingested, ranked unit of configuration. Layers are immutable
// once built; accessors hand out copies.
type Layer struct {
	ID       string
	Name     string
	Origin   []string
	Rank     int
	Files    glob.Set
	Ignores  glob.Set
	Settings Settings
}

// LayerOption configures optional metadata for a layer.
type LayerOption func(*Layer)

// WithOrigin records the extends chain that produced the layer.
func WithOrigin(chain ...string) LayerOption {
	return func(layer *Layer) {
		layer.Origin = copyStrings(chain)
	}
}

// NewLayer compiles the patterns of raw and assigns rank. Invalid globs are
// reported as ErrInvalidPatternSyntax naming the layer and the pattern.
func NewLayer(raw RawLayer, rank int, opts ...LayerOption) (Layer, error) {
	layer := Layer{
		ID:       layerID(rank, raw.Name),
		Name:     raw.Name,
		Rank:     rank,
		Settings: Settings(layering.Clone(raw.Settings)),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&layer)
	}

	files, err := glob.CompileSet(raw.Files, false)
	if err != nil {
		return Layer{}, patternError(layer.ID, failedPattern(err), err)
	}
	ignores, err := glob.CompileSet(raw.Ignores, true)
	if err != nil {
		return Layer{}, patternError(layer.ID, failedPattern(err), err)
	}
	layer.Files = files
	layer.Ignores = ignores
	return layer, nil
}

func layerID(rank int, name string) string {
	if name == "" {
		return fmt.Sprintf("layer[%d]", rank)
	}
	return fmt.Sprintf("layer[%d](%s)", rank, name)
}

func failedPattern(err error) string {
	var perr *glob.PatternError
	if errors.As(err, &perr) {
		return perr.Pattern
	}
	return ""
}

// IsGlobalIgnore reports whether the layer only excludes files: it has ignore
// patterns but neither file patterns nor settings.
func (l Layer) IsGlobalIgnore() bool {
	return l.Ignores.Len() > 0 && l.Files.Len() == 0 && len(l.Settings) == 0
}

// Scoped reports whether the layer restricts itself with file patterns.
func (l Layer) Scoped() bool {
	return l.Files.Len() > 0
}

// Applies reports whether the layer's own scope includes path: the file
// patterns are absent or one matches, and the layer's ignores do not exclude
// it. Global ignores are evaluated by the composition, not here.
func (l Layer) Applies(path string) bool {
	if l.Files.Len() > 0 && !l.Files.Any(path) {
		return false
	}
	return !l.Ignores.Excludes(path)
}

func (l Layer) clone() Layer {
	return Layer{
		ID:       l.ID,
		Name:     l.Name,
		Origin:   copyStrings(l.Origin),
		Rank:     l.Rank,
		Files:    append(glob.Set(nil), l.Files...),
		Ignores:  append(glob.Set(nil), l.Ignores...),
		Settings: l.Settings.Clone(),
	}
}

// Stack is an immutable layer sequence ordered by ascending rank.
type Stack struct {
	layers []Layer
}

// NewStack copies layers, orders them by rank and rejects duplicate ranks.
func NewStack(layers ...Layer) (*Stack, error) {
	if len(layers) == 0 {
		return &Stack{}, nil
	}
	copied := make([]Layer, len(layers))
	for i, layer := range layers {
		copied[i] = layer.clone()
	}
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Rank < copied[j].Rank
	})
	for i := 1; i < len(copied); i++ {
		if copied[i-1].Rank >= copied[i].Rank {
			return nil, fmt.Errorf("%w: rank %d used by %s and %s", ErrRankOrder, copied[i].Rank, copied[i-1].ID, copied[i].ID)
		}
	}
	return &Stack{layers: copied}, nil
}

// Layers returns a copy of the layers in rank order.
func (s *Stack) Layers() []Layer {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(s.layers))
	for i := range s.layers {
		out[i] = s.layers[i].clone()
	}
	return out
}

// Len returns the number of layers in the stack.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}
