package tagconfig

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprKeywords are operators and literals of the expr grammar. A key whose
// identifier is one of these stays reachable through config["key"].
var exprKeywords = keywordSet(
	"true", "false", "nil", "in", "not", "and", "or", "matches",
	"contains", "startsWith", "endsWith", "let", "if", "else",
)

// ExprEvaluatorOption configures an expr evaluator instance.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache wires a ProgramCache into the expr evaluator.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr evaluator.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr. It is
// the engine a Configuration uses when none is configured.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *exprEvaluator) engineName() string { return "expr" }

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return e.run(program, expression, ctx)
}

func (e *exprEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return &exprRule{evaluator: e, program: program, expression: expression}, nil
}

// program compiles expression with untyped variables, so a single program
// serves every key space and can be cached on the expression alone.
func (e *exprEvaluator) program(expression string) (*exprvm.Program, error) {
	if expression == "" {
		return nil, errEmptyExpression(e.engineName())
	}
	cacheKey := "expr:" + expression
	if e.cache != nil {
		if cached, ok := e.cache.Get(cacheKey); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry != nil {
		options = append(options, exprlang.Function("call", e.call))
		for _, name := range e.registry.Names() {
			options = append(options, exprlang.Function(name, e.named(name)))
		}
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEvaluationError(e.engineName(), expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(cacheKey, program)
	}
	return program, nil
}

func (e *exprEvaluator) run(program *exprvm.Program, expression string, ctx RuleContext) (any, error) {
	env := newRuleEnv(ctx, e.registry, exprKeywords)
	result, err := exprlang.Run(program, env.bindings(env.tagList()))
	if err != nil {
		return nil, wrapEvaluationError(e.engineName(), expression, describeTags(env.tags), err)
	}
	return result, nil
}

// call backs call("name", args...).
func (e *exprEvaluator) call(params ...any) (any, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("tagconfig: call expects a function name")
	}
	name, ok := params[0].(string)
	if !ok {
		return nil, fmt.Errorf("tagconfig: call name must be string, got %T", params[0])
	}
	return e.registry.Call(name, params[1:]...)
}

func (e *exprEvaluator) named(name string) func(...any) (any, error) {
	return func(params ...any) (any, error) {
		return e.registry.Call(name, params...)
	}
}

type exprRule struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (r *exprRule) Evaluate(ctx RuleContext) (any, error) {
	return r.evaluator.run(r.program, r.expression, ctx)
}
