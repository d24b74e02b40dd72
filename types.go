package tagconfig

import (
	"reflect"
	"time"

	"github.com/goliatone/go-tagconfig/pkg/activity"
)

// Response stores a typed result produced by an evaluator.
type Response[T any] struct {
	Value T
}

// RuleContext carries inputs needed when evaluating an expression. Snapshot
// is a ConfigSnapshot (or map[string]string) of configuration values, or a
// map[string]any of arbitrary variables.
type RuleContext struct {
	Snapshot any
	Tags     []string
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

func (ctx RuleContext) tagsLabel() string {
	return describeTags(ctx.Tags)
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

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// Option configures a Builder and the Configuration it produces.
type Option func(*settings)

type settings struct {
	logger          ResolutionLogger
	evaluatorLogger EvaluatorLogger
	converters      *ConverterRegistry
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	activityHooks   activity.Hooks
	activityConfig  activity.Config
}

func applyOptions(opts []Option) settings {
	cfg := settings{
		converters:     NewConverterRegistry(),
		activityConfig: activity.Config{Enabled: true},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (s settings) resolutionLogger() ResolutionLogger {
	if s.logger != nil {
		return s.logger
	}
	return noopResolutionLogger{}
}

func (s settings) evaluationLogger() EvaluatorLogger {
	if s.evaluatorLogger != nil {
		return s.evaluatorLogger
	}
	return noopEvaluatorLogger{}
}

// WithConverter registers fn as the converter for t. It replaces builtin
// converters for the same type.
func WithConverter(t reflect.Type, fn Converter) Option {
	return func(cfg *settings) {
		if cfg.converters == nil {
			cfg.converters = NewConverterRegistry()
		}
		_ = cfg.converters.Register(t, fn)
	}
}

// WithConverterRegistry replaces the converter registry with a clone of
// registry.
func WithConverterRegistry(registry *ConverterRegistry) Option {
	return func(cfg *settings) {
		if registry == nil {
			return
		}
		cfg.converters = registry.Clone()
	}
}

// WithEvaluator configures the rule evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *settings) {
		cfg.evaluator = e
	}
}
