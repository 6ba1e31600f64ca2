package flatconf

import (
	"time"

	"github.com/rs/zerolog"
)

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Layer    string
	Key      string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// ZerologEvaluatorLogger writes evaluation events at debug level and failures
// at warn level.
type ZerologEvaluatorLogger struct {
	Logger zerolog.Logger
}

// LogEvaluation implements EvaluatorLogger.
func (l ZerologEvaluatorLogger) LogEvaluation(event EvaluatorLogEvent) {
	var e *zerolog.Event
	if event.Err != nil {
		e = l.Logger.Warn().Err(event.Err)
	} else {
		e = l.Logger.Debug()
	}
	e.Str("engine", event.Engine).
		Str("expr", event.Expr).
		Str("layer", event.Layer).
		Str("key", event.Key).
		Dur("duration", event.Duration).
		Msg("evaluated expression")
}

// WithEvaluatorLogger attaches an evaluator logger used by expression
// validators.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *optionsConfig) {
		if logger == nil {
			cfg.evalLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evalLogger = logger
	}
}
