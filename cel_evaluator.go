package tagconfig

import (
	"reflect"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// celKeywords are the literals and reserved words of the CEL grammar; none of
// them may be declared as a variable.
var celKeywords = keywordSet(
	"false", "in", "null", "true",
	"as", "break", "const", "continue", "else", "for", "function", "if",
	"import", "let", "loop", "package", "namespace", "return", "var", "void", "while",
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
// Registered functions are callable as call("name", [args]) and directly by
// name with up to two arguments.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// celEvaluator type-checks against the key space of each evaluation, so
// programs are cached per set of declared identifiers.
type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) engineName() string { return "cel" }

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, errEmptyExpression(e.engineName())
	}
	env := newRuleEnv(ctx, e.registry, celKeywords)
	tags := describeTags(env.tags)
	program, err := e.program(expression, env.names())
	if err != nil {
		return nil, wrapEvaluationError(e.engineName(), expression, tags, err)
	}
	out, _, err := program.Eval(env.bindings(env.tags))
	if err != nil {
		return nil, wrapEvaluationError(e.engineName(), expression, tags, err)
	}
	return out.Value(), nil
}

// Compile defers checking to the first evaluation, since the declared
// variables depend on the snapshot.
func (e *celEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, errEmptyExpression(e.engineName())
	}
	return &celRule{evaluator: e, expression: expression}, nil
}

func (e *celEvaluator) program(expression string, names []string) (celgo.Program, error) {
	cacheKey := "cel:" + strings.Join(names, ",") + ":" + expression
	if e.cache != nil {
		if cached, ok := e.cache.Get(cacheKey); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}
	env, err := celgo.NewEnv(e.declarations(names)...)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(cacheKey, program)
	}
	return program, nil
}

func (e *celEvaluator) declarations(names []string) []celgo.EnvOption {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
		celgo.Variable("tags", celgo.ListType(celgo.StringType)),
	}
	for _, name := range names {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.registry == nil {
		return opts
	}
	opts = append(opts, celgo.Function("call",
		celgo.Overload("call_string_list",
			[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
			celgo.DynType,
			celgo.BinaryBinding(e.callBinding),
		),
	))
	for _, name := range e.registry.Names() {
		opts = append(opts, e.namedFunction(name))
	}
	return opts
}

func (e *celEvaluator) namedFunction(name string) celgo.EnvOption {
	invoke := func(values ...ref.Val) ref.Val {
		args := make([]any, 0, len(values))
		for _, val := range values {
			args = append(args, val.Value())
		}
		return e.invoke(name, args)
	}
	return celgo.Function(name,
		celgo.Overload(name+"_0", nil, celgo.DynType,
			celgo.FunctionBinding(invoke)),
		celgo.Overload(name+"_1", []*celgo.Type{celgo.DynType}, celgo.DynType,
			celgo.UnaryBinding(func(arg ref.Val) ref.Val { return invoke(arg) })),
		celgo.Overload(name+"_2", []*celgo.Type{celgo.DynType, celgo.DynType}, celgo.DynType,
			celgo.BinaryBinding(func(lhs, rhs ref.Val) ref.Val { return invoke(lhs, rhs) })),
	)
}

func (e *celEvaluator) callBinding(nameVal, argsVal ref.Val) ref.Val {
	name, ok := nameVal.Value().(string)
	if !ok {
		return types.NewErr("tagconfig: call name must be string")
	}
	native, err := argsVal.ConvertToNative(reflect.TypeOf([]any{}))
	if err != nil {
		return types.NewErr("tagconfig: call arguments: %v", err)
	}
	args, _ := native.([]any)
	return e.invoke(name, args)
}

func (e *celEvaluator) invoke(name string, args []any) ref.Val {
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celRule) Evaluate(ctx RuleContext) (any, error) {
	return r.evaluator.Evaluate(ctx, r.expression)
}
