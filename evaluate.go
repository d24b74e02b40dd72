package tagconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

var ErrNoEvaluator = errors.New("tagconfig: evaluator not configured")

// RuleConfigKey exposes the raw key/value map inside rule expressions.
const RuleConfigKey = "config"

// Evaluate runs expr against the resolved configuration. Every visible key
// is bound as a variable (see RuleIdentifier) and the raw map is available as
// config. Keys whose identifier collides with now, args, metadata, tags,
// call, config, a registered function or a keyword of the engine are only
// reachable through config["key"].
func (c *Configuration) Evaluate(expr string) (Response[any], error) {
	return c.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith runs expr using ctx. A nil ctx.Snapshot is replaced by the
// resolved configuration and empty ctx.Tags by the current tags.
func (c *Configuration) EvaluateWith(ctx RuleContext, expr string) (Response[any], error) {
	if expr == "" {
		return Response[any]{}, errEmptyExpression("")
	}
	evaluator, err := c.resolveEvaluator()
	if err != nil {
		return Response[any]{}, err
	}
	if ctx.Snapshot == nil {
		values, err := c.Snapshot()
		if err != nil {
			return Response[any]{}, err
		}
		ctx.Snapshot = ConfigSnapshot(values)
	}
	if len(ctx.Tags) == 0 {
		ctx.Tags = c.tags.Ordered()
	}
	ctx = ctx.withDefaults()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError(engine, expr, ctx.tagsLabel(), evalErr)
	c.cfg.evaluationLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Tags:     ctx.tagsLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return Response[any]{}, evalErr
	}
	return Response[any]{Value: value}, nil
}

// EvaluateBool runs expr and requires a boolean result.
func (c *Configuration) EvaluateBool(expr string) (bool, error) {
	resp, err := c.Evaluate(expr)
	if err != nil {
		return false, err
	}
	value, ok := resp.Value.(bool)
	if !ok {
		return false, fmt.Errorf("tagconfig: expression %q returned %T, want bool", expr, resp.Value)
	}
	return value, nil
}

// RuleIdentifier maps a configuration key to the variable name used in rule
// expressions: characters outside [A-Za-z0-9_] become '_' and a leading digit
// gets a '_' prefix. "webservices-base-url" becomes "webservices_base_url".
func RuleIdentifier(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 1)
	for i, r := range key {
		if i == 0 && unicode.IsDigit(r) {
			b.WriteByte('_')
		}
		if r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

func (c *Configuration) resolveEvaluator() (Evaluator, error) {
	if c.cfg.evaluator != nil {
		return c.cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if c.cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(c.cfg.programCache))
	}
	if c.cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(c.cfg.functions))
	}
	defaultEvaluator := NewExprEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	return defaultEvaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(interface{ engineName() string }); ok {
		return named.engineName()
	}
	return "custom"
}
