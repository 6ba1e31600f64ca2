package flatconf

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoEvaluator = errors.New("flatconf: evaluator not configured")

const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// WithEvaluatorEngine selects the built-in evaluator used by expression
// validators: "expr" (default), "cel" or "js". An evaluator set through
// WithEvaluator takes precedence.
func WithEvaluatorEngine(engine string) Option {
	return func(cfg *optionsConfig) {
		cfg.engine = strings.ToLower(strings.TrimSpace(engine))
	}
}

func resolveEvaluator(cfg optionsConfig) (Evaluator, error) {
	if cfg.evaluator != nil {
		return cfg.evaluator, nil
	}
	registry := cfg.functions.withDefaults()
	switch cfg.engine {
	case "", EngineExpr:
		var exprOpts []ExprEvaluatorOption
		if cfg.programCache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(cfg.programCache))
		}
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
		return NewExprEvaluator(exprOpts...), nil
	case EngineCEL:
		var celOpts []CELEvaluatorOption
		if cfg.programCache != nil {
			celOpts = append(celOpts, CELWithProgramCache(cfg.programCache))
		}
		celOpts = append(celOpts, CELWithFunctionRegistry(registry))
		return NewCELEvaluator(celOpts...), nil
	case EngineJS:
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: js engine requires the js_eval build tag", ErrNoEvaluator)
		}
		var jsOpts []JSEvaluatorOption
		if cfg.programCache != nil {
			jsOpts = append(jsOpts, JSWithProgramCache(cfg.programCache))
		}
		jsOpts = append(jsOpts, JSWithFunctionRegistry(registry))
		return NewJSEvaluator(jsOpts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, cfg.engine)
	}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*flatconf.exprEvaluator":
		return EngineExpr
	case "*flatconf.celEvaluator":
		return EngineCEL
	case "*flatconf.jsEvaluator":
		return EngineJS
	default:
		return "custom"
	}
}
