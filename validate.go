package flatconf

import (
	"fmt"
	"time"

	"github.com/goliatone/go-flatconf/glob"
)

// Validator checks one setting value of one layer. Validators run once per
// (layer, key) when a composition is built; a failure rejects the whole
// configuration.
type Validator interface {
	ValidateSetting(ctx RuleContext) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(RuleContext) error

// ValidateSetting implements Validator.
func (f ValidatorFunc) ValidateSetting(ctx RuleContext) error {
	if f == nil {
		return nil
	}
	return f(ctx)
}

// WithValidation registers validators run against every setting at compose
// time.
func WithValidation(validators ...Validator) Option {
	return func(cfg *optionsConfig) {
		for _, v := range validators {
			if v != nil {
				cfg.validators = append(cfg.validators, v)
			}
		}
	}
}

// SeverityValidator accepts only values that parse as a RuleSetting.
func SeverityValidator() Validator {
	return ValidatorFunc(func(ctx RuleContext) error {
		_, err := ParseRuleSetting(ctx.Value)
		return err
	})
}

// ExpressionValidator evaluates expression for every setting whose key matches
// keyPattern and rejects the value unless it returns true. An empty pattern
// matches every key. The expression sees key, value, severity, options,
// plugin (the key namespace), layer and rank.
func ExpressionValidator(keyPattern, expression string) Validator {
	return &expressionValidator{
		keyPattern: keyPattern,
		expression: expression,
	}
}

type expressionValidator struct {
	keyPattern string
	expression string

	pattern   *glob.Pattern
	evaluator Evaluator
	rule      CompiledRule
	logger    EvaluatorLogger
}

// ValidateSetting implements Validator. Unbound validators evaluate with the
// default expr engine.
func (v *expressionValidator) ValidateSetting(ctx RuleContext) error {
	bound := v
	if v.rule == nil {
		var err error
		bound, err = v.bind(optionsConfig{})
		if err != nil {
			return err
		}
	}
	return bound.validate(ctx)
}

// bind compiles the key pattern and the expression against the evaluator of
// cfg and returns a ready copy.
func (v *expressionValidator) bind(cfg optionsConfig) (*expressionValidator, error) {
	out := &expressionValidator{
		keyPattern: v.keyPattern,
		expression: v.expression,
		logger:     cfg.evaluatorLogger(),
	}
	if v.keyPattern != "" {
		pattern, err := glob.Compile(v.keyPattern)
		if err != nil {
			return nil, fmt.Errorf("flatconf: expression validator key pattern: %w", err)
		}
		out.pattern = &pattern
	}
	evaluator, err := resolveEvaluator(cfg)
	if err != nil {
		return nil, err
	}
	rule, err := evaluator.Compile(v.expression)
	if err != nil {
		return nil, wrapEvaluationError(evaluatorEngineName(evaluator), v.expression, "", "", err)
	}
	out.evaluator = evaluator
	out.rule = rule
	return out, nil
}

func (v *expressionValidator) validate(ctx RuleContext) error {
	if v.pattern != nil && !v.pattern.Match(ctx.Key) {
		return nil
	}
	ctx = ctx.withBindings().withDefaults()
	engine := evaluatorEngineName(v.evaluator)
	start := time.Now()
	result, err := v.rule.Evaluate(ctx)
	err = wrapEvaluationError(engine, v.expression, ctx.layerLabel(), ctx.Key, err)
	v.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     v.expression,
		Layer:    ctx.layerLabel(),
		Key:      ctx.Key,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return err
	}
	ok, isBool := result.(bool)
	if !isBool {
		return fmt.Errorf("expression %q returned %T, want bool", v.expression, result)
	}
	if !ok {
		return fmt.Errorf("rejected by %q", v.expression)
	}
	return nil
}

func bindValidators(cfg optionsConfig) ([]Validator, error) {
	if len(cfg.validators) == 0 {
		return nil, nil
	}
	out := make([]Validator, 0, len(cfg.validators))
	for _, validator := range cfg.validators {
		expr, ok := validator.(*expressionValidator)
		if !ok {
			out = append(out, validator)
			continue
		}
		bound, err := expr.bind(cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, bound)
	}
	return out, nil
}
