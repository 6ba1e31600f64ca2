package flatconf

import (
	"context"
	"time"

	"github.com/goliatone/go-flatconf/pkg/activity"
	"github.com/rs/zerolog"
)

// PresetSource resolves extends references to shared layer sequences.
type PresetSource interface {
	LookupPreset(ctx context.Context, name string) ([]RawLayer, bool, error)
}

// PresetMap is an in-memory PresetSource keyed by preset name.
type PresetMap map[string][]RawLayer

// LookupPreset implements PresetSource.
func (m PresetMap) LookupPreset(_ context.Context, name string) ([]RawLayer, bool, error) {
	layers, ok := m[name]
	if !ok {
		return nil, false, nil
	}
	out := make([]RawLayer, len(layers))
	for i := range layers {
		out[i] = layers[i].clone()
	}
	return out, true, nil
}

// EffectiveConfiguration is the merged settings that apply to one path.
type EffectiveConfiguration struct {
	Path     string   `json:"path"`
	Layers   []string `json:"layers"`
	Settings Settings `json:"settings"`
}

func (c EffectiveConfiguration) clone() EffectiveConfiguration {
	return EffectiveConfiguration{
		Path:     c.Path,
		Layers:   copyStrings(c.Layers),
		Settings: c.Settings.Clone(),
	}
}

// RuleContext carries inputs needed when validating a setting value.
type RuleContext struct {
	Key      string
	Value    any
	Layer    string
	Rank     int
	Snapshot any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

// withBindings fills Snapshot with the variables exposed to expressions when
// the caller did not provide its own.
func (ctx RuleContext) withBindings() RuleContext {
	if ctx.Snapshot != nil {
		return ctx
	}
	binding := map[string]any{
		"key":      ctx.Key,
		"value":    ctx.Value,
		"layer":    ctx.Layer,
		"rank":     ctx.Rank,
		"plugin":   Namespace(ctx.Key),
		"severity": "",
		"options":  []any{},
	}
	if setting, err := ParseRuleSetting(ctx.Value); err == nil {
		binding["severity"] = setting.Severity.String()
		if setting.Options != nil {
			binding["options"] = setting.Options
		}
	}
	ctx.Snapshot = binding
	return ctx
}

func (ctx RuleContext) layerLabel() string {
	if ctx.Layer != "" {
		return ctx.Layer
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct {
	bypassCache bool
}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// WithoutProgramCache compiles a fresh program even when the evaluator has a
// ProgramCache, and keeps the result out of it.
func WithoutProgramCache() CompileOption {
	return compileOptionFunc(func(cfg *compileConfig) {
		cfg.bypassCache = true
	})
}

func applyCompileOptions(opts []CompileOption) compileConfig {
	var cfg compileConfig
	for _, opt := range opts {
		if opt != nil {
			opt.applyCompileOption(&cfg)
		}
	}
	return cfg
}

// Option configures ingestion, composition and resolution.
type Option func(*optionsConfig)

type optionsConfig struct {
	logger        zerolog.Logger
	presets       PresetSource
	validators    []Validator
	evaluator     Evaluator
	engine        string
	programCache  ProgramCache
	functions     *FunctionRegistry
	evalLogger    EvaluatorLogger
	cacheSize     int
	basePath      string
	activityHooks activity.Hooks
	source        string
}

func applyOptions(opts []Option) optionsConfig {
	cfg := optionsConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithLogger routes ingestion and composition diagnostics to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *optionsConfig) {
		cfg.logger = logger
	}
}

// WithPresets configures the source consulted for extends references.
func WithPresets(source PresetSource) Option {
	return func(cfg *optionsConfig) {
		cfg.presets = source
	}
}

// WithEvaluator configures the evaluator used by expression validators.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *optionsConfig) {
		cfg.evaluator = e
	}
}

// WithResolveCache memoizes up to size resolved paths. Zero disables it.
func WithResolveCache(size int) Option {
	return func(cfg *optionsConfig) {
		if size < 0 {
			size = 0
		}
		cfg.cacheSize = size
	}
}

// WithBasePath makes the resolver accept absolute paths under base and treat
// paths outside it as not applicable. Patterns stay relative to base.
func WithBasePath(base string) Option {
	return func(cfg *optionsConfig) {
		cfg.basePath = base
	}
}

func (cfg optionsConfig) evaluatorLogger() EvaluatorLogger {
	if cfg.evalLogger != nil {
		return cfg.evalLogger
	}
	return noopEvaluatorLogger{}
}
