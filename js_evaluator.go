//go:build js_eval

package tagconfig

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// jsKeywords are ECMAScript reserved words and the globals a rule is likely
// to reach for. Keys that map onto one are left to config["key"].
var jsKeywords = keywordSet(
	"break", "case", "catch", "class", "const", "continue", "debugger", "default",
	"delete", "do", "else", "enum", "export", "extends", "false", "finally", "for",
	"function", "if", "import", "in", "instanceof", "new", "null", "return", "super",
	"switch", "this", "throw", "true", "try", "typeof", "var", "void", "while", "with",
	"yield", "let", "static", "await", "implements", "interface", "package",
	"private", "protected", "public", "undefined", "NaN", "Infinity", "eval",
	"arguments", "Object", "Array", "JSON", "Math", "String", "Number", "Boolean",
	"Date", "RegExp", "Error",
)

// jsEvaluator runs each rule on a fresh goja runtime; goja.Program values are
// immutable and shared through the cache.
type jsEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	cfg := applyJSEvaluatorOptions(opts)
	return &jsEvaluator{
		cache:    cfg.cache,
		registry: cfg.registry,
		timeout:  cfg.timeout,
	}
}

func (e *jsEvaluator) engineName() string { return "js" }

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return e.run(program, expression, ctx)
}

func (e *jsEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return &jsRule{evaluator: e, program: program, expression: expression}, nil
}

func (e *jsEvaluator) program(expression string) (*goja.Program, error) {
	if expression == "" {
		return nil, errEmptyExpression(e.engineName())
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(jsCacheKey(expression)); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("rule", fmt.Sprintf("(function(){ return (%s); })()", expression), true)
	if err != nil {
		return nil, wrapEvaluationError(e.engineName(), expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(jsCacheKey(expression), program)
	}
	return program, nil
}

func (e *jsEvaluator) run(program *goja.Program, expression string, ctx RuleContext) (any, error) {
	env := newRuleEnv(ctx, e.registry, jsKeywords)
	tags := describeTags(env.tags)
	vm := goja.New()
	if err := e.bind(vm, env); err != nil {
		return nil, wrapEvaluationError(e.engineName(), expression, tags, err)
	}
	if e.timeout > 0 {
		timer := time.AfterFunc(e.timeout, func() {
			vm.Interrupt(fmt.Sprintf("rule exceeded %s", e.timeout))
		})
		defer timer.Stop()
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, wrapEvaluationError(e.engineName(), expression, tags, err)
	}
	return value.Export(), nil
}

func (e *jsEvaluator) bind(vm *goja.Runtime, env ruleEnv) error {
	for name, value := range env.bindings(env.tags) {
		if err := vm.Set(name, value); err != nil {
			return err
		}
	}
	if e.registry == nil {
		return nil
	}
	if err := vm.Set("call", func(name string, arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}); err != nil {
		return err
	}
	for _, name := range e.registry.Names() {
		fn := name
		if err := vm.Set(fn, func(arguments ...any) (any, error) {
			return e.registry.Call(fn, arguments...)
		}); err != nil {
			return err
		}
	}
	return nil
}

type jsRule struct {
	evaluator  *jsEvaluator
	program    *goja.Program
	expression string
}

func (r *jsRule) Evaluate(ctx RuleContext) (any, error) {
	return r.evaluator.run(r.program, r.expression, ctx)
}

func jsCacheKey(expression string) string {
	return "js:" + expression
}
