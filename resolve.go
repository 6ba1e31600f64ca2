package flatconf

import (
	"path/filepath"
	"strings"

	"github.com/goliatone/go-flatconf/glob"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// Resolver answers which settings apply to a file path. It is immutable after
// construction; the optional memo cache is internally synchronized.
type Resolver struct {
	id          string
	composition *Composition
	basePath    string
	cache       *lru.Cache[string, resolved]
	logger      zerolog.Logger
}

type resolved struct {
	config EffectiveConfiguration
	ok     bool
}

// NewResolver wraps composition. WithBasePath and WithResolveCache apply here.
func NewResolver(composition *Composition, opts ...Option) (*Resolver, error) {
	return newResolver(composition, applyOptions(opts))
}

func newResolver(composition *Composition, cfg optionsConfig) (*Resolver, error) {
	if composition == nil {
		composition = &Composition{}
	}
	r := &Resolver{
		composition: composition,
		logger:      cfg.logger.With().Str("component", "flatconf.resolve").Logger(),
	}
	if cfg.basePath != "" {
		r.basePath = filepath.ToSlash(filepath.Clean(cfg.basePath))
	}
	if cfg.cacheSize > 0 {
		cache, err := lru.New[string, resolved](cfg.cacheSize)
		if err != nil {
			return nil, err
		}
		r.cache = cache
	}
	r.logger.Debug().
		Str("basePath", r.basePath).
		Int("cacheSize", cfg.cacheSize).
		Msg("resolver ready")
	return r, nil
}

// ID returns the configuration ID assigned by Load, or "" for resolvers built
// with NewResolver.
func (r *Resolver) ID() string {
	if r == nil {
		return ""
	}
	return r.id
}

// Composition returns the composition the resolver answers from.
func (r *Resolver) Composition() *Composition {
	if r == nil {
		return nil
	}
	return r.composition
}

// Resolve returns the effective configuration for path. The boolean is false
// when path is not applicable: globally ignored, outside every layer scope or
// outside the base path.
func (r *Resolver) Resolve(path string) (EffectiveConfiguration, bool) {
	if r == nil {
		return EffectiveConfiguration{}, false
	}
	rel, ok := r.relative(path)
	if !ok {
		return EffectiveConfiguration{}, false
	}
	if r.cache != nil {
		if hit, found := r.cache.Get(rel); found {
			if !hit.ok {
				return EffectiveConfiguration{}, false
			}
			return hit.config.clone(), true
		}
	}
	settings, layers, applicable := r.composition.Settings(rel)
	result := resolved{ok: applicable}
	if applicable {
		result.config = EffectiveConfiguration{
			Path:     rel,
			Layers:   layers,
			Settings: settings,
		}
	}
	if r.cache != nil {
		r.cache.Add(rel, result)
	}
	if !applicable {
		return EffectiveConfiguration{}, false
	}
	return result.config.clone(), true
}

// IsIgnored reports whether a global ignore excludes path. Paths outside the
// base path are reported as ignored.
func (r *Resolver) IsIgnored(path string) bool {
	if r == nil {
		return false
	}
	rel, ok := r.relative(path)
	if !ok {
		return true
	}
	return r.composition.IsIgnored(rel)
}

// relative normalizes path and strips the base path from absolute paths.
func (r *Resolver) relative(path string) (string, bool) {
	slashed := strings.ReplaceAll(path, "\\", "/")
	if r.basePath != "" && isAbsolute(slashed) {
		cleaned := filepath.ToSlash(filepath.Clean(slashed))
		base := r.basePath
		if cleaned == base {
			return "", false
		}
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		if !strings.HasPrefix(cleaned, base) {
			return "", false
		}
		slashed = strings.TrimPrefix(cleaned, base)
	}
	rel := glob.NormalizePath(slashed)
	if rel == "" || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func isAbsolute(path string) bool {
	if strings.HasPrefix(path, "/") {
		return true
	}
	return len(path) > 2 && path[1] == ':' && path[2] == '/'
}
