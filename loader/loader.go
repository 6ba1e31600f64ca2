// Package loader reads a layered configuration document from disk.
//
// A document is YAML, JSON or TOML:
//
//	evaluator: expr
//	cache_size: 256
//	base_path: /repo
//	validate:
//	  severity: true
//	  expressions:
//	    - key: "a/*"
//	      expr: 'severity != "off"'
//	presets:
//	  recommended:
//	    - rules: {a/one: error}
//	layers:
//	  - ignores: [dist/**]
//	  - files: ["**/*.ts"]
//	    extends: [recommended]
//	    rules: {a/two: warn}
//
// Engine settings can be overridden by FLATCONF_* environment variables and
// by command line flags, in that order.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	flatconf "github.com/goliatone/go-flatconf"
	"github.com/goliatone/go-flatconf/internal/hydrate"
	"github.com/goliatone/go-flatconf/pkg/presets"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// DefaultEnvPrefix prefixes environment overrides.
const DefaultEnvPrefix = "FLATCONF_"

// Document is a decoded configuration file.
type Document struct {
	Source    string
	Layers    []flatconf.RawLayer
	Presets   *presets.MemoryStore
	Validate  ValidateConfig
	CacheSize int
	BasePath  string
	Evaluator string
}

// ValidateConfig selects the setting validators run at load time.
type ValidateConfig struct {
	Severity    bool             `koanf:"severity"`
	Expressions []ExpressionRule `koanf:"expressions"`
}

// ExpressionRule is one expression validator.
type ExpressionRule struct {
	Key  string `koanf:"key"`
	Expr string `koanf:"expr"`
}

type engineSettings struct {
	Validate  ValidateConfig `koanf:"validate"`
	CacheSize int            `koanf:"cache_size"`
	BasePath  string         `koanf:"base_path"`
	Evaluator string         `koanf:"evaluator"`
}

// Option configures Load.
type Option func(*config)

type config struct {
	envPrefix string
	flags     *pflag.FlagSet
	logger    zerolog.Logger
}

// WithEnvPrefix replaces DefaultEnvPrefix. An empty prefix disables
// environment overrides.
func WithEnvPrefix(prefix string) Option {
	return func(c *config) {
		c.envPrefix = prefix
	}
}

// WithFlags overrides engine settings with the flags of fs that were set
// explicitly. Flag names use dashes: --cache-size, --base-path, --evaluator.
func WithFlags(fs *pflag.FlagSet) Option {
	return func(c *config) {
		c.flags = fs
	}
}

// WithLogger sets the logger used by Load.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Load reads and decodes the document at path.
func Load(path string, opts ...Option) (*Document, error) {
	cfg := config{envPrefix: DefaultEnvPrefix, logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	logger := cfg.logger.With().Str("component", "flatconf.loader").Str("source", path).Logger()

	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"evaluator":         flatconf.EngineExpr,
		"cache_size":        0,
		"validate.severity": false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("loader: defaults: %w", err)
	}

	// 2. Document
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}

	// 3. Environment
	if cfg.envPrefix != "" {
		prefix := cfg.envPrefix
		if err := k.Load(env.Provider(prefix, ".", func(s string) string {
			return envKey(strings.TrimPrefix(s, prefix))
		}), nil); err != nil {
			return nil, fmt.Errorf("loader: env: %w", err)
		}
	}

	// 4. Flags
	if cfg.flags != nil {
		fs := cfg.flags
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, ok := engineKeys[key]; !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("loader: flags: %w", err)
		}
	}

	var settings engineSettings
	if err := k.Unmarshal("", &settings); err != nil {
		return nil, fmt.Errorf("loader: decode %s: %w", path, err)
	}

	doc := &Document{
		Source:    path,
		Validate:  settings.Validate,
		CacheSize: settings.CacheSize,
		BasePath:  settings.BasePath,
		Evaluator: settings.Evaluator,
		Presets:   presets.NewMemoryStore(),
	}

	decoder := hydrate.LayerDecoder()
	doc.Layers, err = decodeList(decoder, hydrate.Context{Source: path, Section: "layers"}, k.Get("layers"))
	if err != nil {
		return nil, err
	}

	names, err := loadPresets(context.Background(), decoder, path, k.Get("presets"), doc.Presets)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Int("layers", len(doc.Layers)).
		Strs("presets", names).
		Str("evaluator", doc.Evaluator).
		Int("cacheSize", doc.CacheSize).
		Msg("configuration document loaded")
	return doc, nil
}

// Options converts the engine settings into flatconf options.
func (d *Document) Options() []flatconf.Option {
	if d == nil {
		return nil
	}
	opts := []flatconf.Option{flatconf.WithSource(d.Source)}
	if d.Presets != nil {
		opts = append(opts, flatconf.WithPresets(d.Presets))
	}
	if d.Evaluator != "" {
		opts = append(opts, flatconf.WithEvaluatorEngine(d.Evaluator))
	}
	if d.CacheSize > 0 {
		opts = append(opts, flatconf.WithResolveCache(d.CacheSize))
	}
	if d.BasePath != "" {
		opts = append(opts, flatconf.WithBasePath(d.BasePath))
	}
	var validators []flatconf.Validator
	if d.Validate.Severity {
		validators = append(validators, flatconf.SeverityValidator())
	}
	for _, rule := range d.Validate.Expressions {
		validators = append(validators, flatconf.ExpressionValidator(rule.Key, rule.Expr))
	}
	if len(validators) > 0 {
		opts = append(opts, flatconf.WithValidation(validators...))
	}
	return opts
}

// Build ingests and composes the document. extra options apply after the
// document's own.
func (d *Document) Build(ctx context.Context, extra ...flatconf.Option) (*flatconf.Resolver, error) {
	if d == nil {
		return nil, fmt.Errorf("loader: nil document")
	}
	opts := append(d.Options(), extra...)
	return flatconf.LoadContext(ctx, d.Layers, opts...)
}

var engineKeys = map[string]struct{}{
	"cache_size": {},
	"base_path":  {},
	"evaluator":  {},
}

// envKey maps CACHE_SIZE to cache_size and VALIDATE_SEVERITY to
// validate.severity.
func envKey(name string) string {
	key := strings.ToLower(name)
	if rest, ok := strings.CutPrefix(key, "validate_"); ok {
		return "validate." + rest
	}
	return key
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("loader: unsupported file type %q", filepath.Ext(path))
	}
}

func decodeList(decoder *hydrate.Decoder[flatconf.RawLayer], ctx hydrate.Context, value any) ([]flatconf.RawLayer, error) {
	if value == nil {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("loader: %s:%s must be a list, got %T", ctx.Source, ctx.Section, value)
	}
	return decoder.DecodeList(ctx, items)
}

func loadPresets(ctx context.Context, decoder *hydrate.Decoder[flatconf.RawLayer], path string, value any, store *presets.MemoryStore) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	section, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("loader: %s:presets must be a mapping, got %T", path, value)
	}
	names := make([]string, 0, len(section))
	for name := range section {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		layers, err := decodeList(decoder, hydrate.Context{Source: path, Section: "presets." + name}, section[name])
		if err != nil {
			return nil, err
		}
		if _, err := store.Save(ctx, presets.Preset{Name: name, Layers: layers}); err != nil {
			return nil, fmt.Errorf("loader: preset %q: %w", name, err)
		}
	}
	return names, nil
}
