package flatconf

import (
	"errors"
	"fmt"
	"strings"
)

// EvaluationError records which expression failed, on which engine, and for
// which layer and setting key. Layer and Key are empty for compile failures.
type EvaluationError struct {
	Engine string
	Expr   string
	Layer  string
	Key    string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	site := "layer=" + e.Layer
	if e.Key != "" {
		site += " key=" + e.Key
	}
	return fmt.Sprintf("flatconf: %s evaluator %s %s: %v", e.Engine, describeExpression(e.Expr), site, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "flatconf:") {
		return err
	}
	return fmt.Errorf("flatconf: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, layer, key string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Layer == "" {
			evalErr.Layer = layer
		}
		if evalErr.Key == "" {
			evalErr.Key = key
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Layer:  layer,
		Key:    key,
		Err:    err,
	}
}
